package feed

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const (
	// BlockReported is sent after a block header was accepted by a checkpoint store.
	BlockReported = iota + 1
	// CheckpointJustified is sent when a checkpoint reaches supermajority.
	CheckpointJustified
	// CheckpointFinalized is sent when a justified checkpoint's direct child is justified.
	CheckpointFinalized
	// VoteRecorded is sent for every vote whose weight was counted.
	VoteRecorded
	// WeightChanged is sent when the total validator weight changes at some height.
	WeightChanged
)

// String returns the name of the event type.
func (t EventType) String() string {
	switch t {
	case BlockReported:
		return "block_reported"
	case CheckpointJustified:
		return "checkpoint_justified"
	case CheckpointFinalized:
		return "checkpoint_finalized"
	case VoteRecorded:
		return "vote_recorded"
	case WeightChanged:
		return "weight_changed"
	default:
		return "unknown"
	}
}

// BlockReportedData is the data sent with BlockReported events.
type BlockReportedData struct {
	// Chain is the identifier of the chain the block belongs to.
	Chain common.Address
	// Hash of the reported block.
	Hash common.Hash
	// Height of the reported block.
	Height uint64
}

// CheckpointJustifiedData is the data sent with CheckpointJustified events.
type CheckpointJustifiedData struct {
	Chain common.Address
	Hash  common.Hash
}

// CheckpointFinalizedData is the data sent with CheckpointFinalized events.
type CheckpointFinalizedData struct {
	Chain common.Address
	Hash  common.Hash
}

// VoteRecordedData is the data sent with VoteRecorded events.
type VoteRecordedData struct {
	Chain  common.Address
	Signer common.Address
	// Weight is the verified weight accumulated for the (source, target) pair,
	// including this vote.
	Weight *uint256.Int
	// Required is the supermajority threshold at the target height.
	Required *uint256.Int
}

// WeightChangedData is the data sent with WeightChanged events.
type WeightChangedData struct {
	Validator common.Address
	// Height is the first height at which the new total applies.
	Height uint64
	// Total is the total active weight at Height.
	Total *uint256.Int
}
