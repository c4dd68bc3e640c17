package dispatcher

import "errors"

var (
	// ErrUnknownChain is returned for votes on a chain that is not registered.
	ErrUnknownChain = errors.New("unknown chain")
	// ErrInvalidHeights is returned when the source height is not below the target height.
	ErrInvalidHeights = errors.New("source height must be below target height")
	// ErrNotValidator is returned when the signer cannot be recovered or has
	// no weight at the target height. Both cases are reported the same way.
	ErrNotValidator = errors.New("signer has no weight at target height")
	// ErrNonMonotonicVote is returned when a validator already voted at the
	// same or a higher target height on the chain.
	ErrNonMonotonicVote = errors.New("validator already voted at or above target height")
	// ErrInvalidVote is returned when the checkpoint store rejects the vote.
	ErrInvalidVote = errors.New("vote is not valid")
	// ErrHeightMismatch is returned when claimed heights differ from the reported ones.
	ErrHeightMismatch = errors.New("vote heights do not match reported blocks")
	// ErrInvalidSignature is returned for malformed signatures.
	ErrInvalidSignature = errors.New("invalid signature")
)
