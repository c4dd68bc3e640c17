// Package errutil attaches a sentinel category to an underlying error while
// keeping both reachable through errors.Is.
package errutil

import (
	"github.com/pkg/errors"
)

type kindError struct {
	kind  error
	cause error
}

func (e *kindError) Error() string {
	return e.kind.Error() + ": " + e.cause.Error()
}

// Is matches the category; errors.Is reaches the cause through Unwrap.
func (e *kindError) Is(target error) bool {
	return errors.Is(e.kind, target)
}

func (e *kindError) Unwrap() error {
	return e.cause
}

// Cause lets errors.Cause from pkg/errors walk to the underlying error.
func (e *kindError) Cause() error {
	return e.cause
}

// WithKind returns an error reported as kind that still wraps cause. It
// returns nil when cause is nil.
func WithKind(kind, cause error) error {
	if cause == nil {
		return nil
	}
	return &kindError{kind: kind, cause: cause}
}
