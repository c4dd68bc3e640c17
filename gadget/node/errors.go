package node

import "github.com/pkg/errors"

// ErrGenesisMismatch is returned when the data directory was created for a
// different genesis configuration.
var ErrGenesisMismatch = errors.New("database was created with a different genesis configuration")
