package registry

import "errors"

var (
	// ErrAlreadyInitialized is returned by a second call to Initialize.
	ErrAlreadyInitialized = errors.New("registry already initialized")
	// ErrNotInitialized is returned for deposits before genesis validators exist.
	ErrNotInitialized = errors.New("registry not initialized")
	// ErrLengthMismatch is returned when genesis arrays differ in length.
	ErrLengthMismatch = errors.New("depositors, validators and stakes differ in length")
	// ErrEmptyValidatorSet is returned for an Initialize call without validators.
	ErrEmptyValidatorSet = errors.New("empty validator set")
	// ErrZeroAddress is returned for a null validator or depositor identity.
	ErrZeroAddress = errors.New("zero address")
	// ErrAlreadyStaked is returned when a validator is registered twice.
	ErrAlreadyStaked = errors.New("validator already staked")
	// ErrZeroStake is returned for zero deposits.
	ErrZeroStake = errors.New("stake must be greater than zero")
	// ErrBelowMinimumWeight is returned when genesis stakes do not exceed the floor.
	ErrBelowMinimumWeight = errors.New("total stake does not exceed the minimum weight")
	// ErrUnauthorized is returned when the caller is not the registry authority.
	ErrUnauthorized = errors.New("caller is not the registry authority")
	// ErrUnexpectedHeight is returned when CloseHeight is not given the current height.
	ErrUnexpectedHeight = errors.New("expected height does not match current height")
	// ErrUnknownValidator is returned for operations on unregistered validators.
	ErrUnknownValidator = errors.New("unknown validator")
	// ErrAlreadyEvicted is returned when evicting an evicted validator.
	ErrAlreadyEvicted = errors.New("validator already evicted")
	// ErrWeightOverflow is returned when the total weight would not fit in 256 bits.
	ErrWeightOverflow = errors.New("total weight overflows")
)
