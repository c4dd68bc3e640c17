package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prysmaticlabs/casper-gadget/gadget/dispatcher"
)

// OpKind identifies a mutating ledger operation.
type OpKind uint8

const (
	// OpReportBlock reports an encoded header to a chain's checkpoint store.
	OpReportBlock OpKind = iota + 1
	// OpVote submits a signed vote to the dispatcher.
	OpVote
	// OpDeposit registers a new validator.
	OpDeposit
	// OpEvict evicts a validator.
	OpEvict
	// OpCloseHeight advances the registry height.
	OpCloseHeight
)

func (k OpKind) String() string {
	switch k {
	case OpReportBlock:
		return "report_block"
	case OpVote:
		return "vote"
	case OpDeposit:
		return "deposit"
	case OpEvict:
		return "evict"
	case OpCloseHeight:
		return "close_height"
	default:
		return "unknown"
	}
}

// Operation is the journaled form of a checked mutating call. Only the
// fields of its kind are set. The layout is flat so that it RLP encodes.
type Operation struct {
	Kind OpKind

	// OpReportBlock and OpVote.
	Chain  common.Address
	Header []byte

	// OpVote.
	TransitionHash common.Hash
	Source         common.Hash
	Target         common.Hash
	SourceHeight   uint64
	TargetHeight   uint64
	Signature      []byte

	// OpDeposit and OpEvict.
	Depositor common.Address
	Validator common.Address
	Amount    *big.Int

	// OpCloseHeight.
	Height uint64

	// OpEvict and OpCloseHeight.
	Caller common.Address
}

func reportBlockOp(chain common.Address, enc []byte) *Operation {
	return &Operation{Kind: OpReportBlock, Chain: chain, Header: common.CopyBytes(enc), Amount: new(big.Int)}
}

func voteOp(v *dispatcher.Vote) *Operation {
	return &Operation{
		Kind:           OpVote,
		Chain:          v.ChainID,
		TransitionHash: v.TransitionHash,
		Source:         v.Source,
		Target:         v.Target,
		SourceHeight:   v.SourceHeight,
		TargetHeight:   v.TargetHeight,
		Signature:      common.CopyBytes(v.Signature),
		Amount:         new(big.Int),
	}
}

func depositOp(depositor, validator common.Address, amount *uint256.Int) *Operation {
	return &Operation{Kind: OpDeposit, Depositor: depositor, Validator: validator, Amount: amount.ToBig()}
}

func evictOp(caller, validator common.Address) *Operation {
	return &Operation{Kind: OpEvict, Caller: caller, Validator: validator, Amount: new(big.Int)}
}

func closeHeightOp(caller common.Address, expected uint64) *Operation {
	return &Operation{Kind: OpCloseHeight, Caller: caller, Height: expected, Amount: new(big.Int)}
}

// vote rebuilds the vote of an OpVote operation.
func (op *Operation) vote() *dispatcher.Vote {
	return &dispatcher.Vote{
		ChainID:        op.Chain,
		TransitionHash: op.TransitionHash,
		Source:         op.Source,
		Target:         op.Target,
		SourceHeight:   op.SourceHeight,
		TargetHeight:   op.TargetHeight,
		Signature:      common.CopyBytes(op.Signature),
	}
}
