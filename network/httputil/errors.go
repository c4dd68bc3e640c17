// Package httputil writes JSON responses and errors for the gadget's HTTP API.
package httputil

import (
	"net/http"
)

// DefaultErrorJson is the body of every error response.
type DefaultErrorJson struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// StatusCode returns the HTTP status of the error.
func (e *DefaultErrorJson) StatusCode() int {
	return e.Code
}

// Error returns the error message.
func (e *DefaultErrorJson) Error() string {
	return e.Message
}

// HandleError writes message as a JSON error with the given status code.
func HandleError(w http.ResponseWriter, message string, code int) {
	errJson := &DefaultErrorJson{
		Message: message,
		Code:    code,
	}
	WriteError(w, errJson)
}
