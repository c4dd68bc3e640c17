package checkpoint

import "errors"

var (
	// ErrUnauthorized is returned when the caller is not allowed to perform the operation.
	ErrUnauthorized = errors.New("caller is not authorized")
	// ErrDispatcherAlreadySet is returned by a second SetDispatcher call.
	ErrDispatcherAlreadySet = errors.New("dispatcher already set")
	// ErrZeroAddress is returned for a null dispatcher identity.
	ErrZeroAddress = errors.New("zero address")
	// ErrAlreadyReported is returned when a block hash is reported twice.
	ErrAlreadyReported = errors.New("block already reported")
	// ErrUnknownParent is returned when an auxiliary block's parent was never reported.
	ErrUnknownParent = errors.New("parent block not reported")
	// ErrUnknownSource is returned when the source hash was never reported.
	ErrUnknownSource = errors.New("source block not reported")
	// ErrUnknownTarget is returned when the target hash was never reported.
	ErrUnknownTarget = errors.New("target block not reported")
	// ErrUnknownCheckpoint is returned for hashes without a checkpoint record.
	ErrUnknownCheckpoint = errors.New("no checkpoint recorded for block")
	// ErrNotEpochBoundary is returned when the target height is not a positive epoch multiple.
	ErrNotEpochBoundary = errors.New("target height is not a positive multiple of the epoch length")
	// ErrBelowHead is returned when the target is not above the finalized head.
	ErrBelowHead = errors.New("target height is not above the head")
	// ErrTargetNotAboveSource is returned when the target does not exceed the source height.
	ErrTargetNotAboveSource = errors.New("target height is not above source height")
	// ErrSourceNotJustified is returned when the source checkpoint is not justified.
	ErrSourceNotJustified = errors.New("source checkpoint is not justified")
	// ErrAlreadyJustified is returned when the target checkpoint was justified before.
	ErrAlreadyJustified = errors.New("target checkpoint already justified")
	// ErrConflictsWithHead is returned when finalizing the source would fork off the head.
	ErrConflictsWithHead = errors.New("source does not descend from the head")
	// ErrTransitionMismatch is returned when a vote's transition hash differs from the source's.
	ErrTransitionMismatch = errors.New("transition hash does not match source checkpoint")
	// ErrInvalidHeader is returned when a reported header cannot be decoded.
	ErrInvalidHeader = errors.New("could not decode header")
	// ErrHeightNotAboveParent is returned for blocks whose height does not exceed their parent's.
	ErrHeightNotAboveParent = errors.New("block height is not above parent height")
)
