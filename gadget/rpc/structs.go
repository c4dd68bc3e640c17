package rpc

import (
	"github.com/prysmaticlabs/casper-gadget/gadget/checkpoint"
)

type ReportBlockRequest struct {
	Header string `json:"header" validate:"required,hexadecimal"`
}

type BlockResponse struct {
	Hash              string `json:"hash"`
	ParentHash        string `json:"parent_hash"`
	Height            uint64 `json:"height"`
	StateRoot         string `json:"state_root"`
	GasUsed           uint64 `json:"gas_used"`
	TxRoot            string `json:"tx_root"`
	AccumulatedGas    string `json:"accumulated_gas"`
	AccumulatedTxRoot string `json:"accumulated_tx_root"`
}

type CheckpointResponse struct {
	BlockHash string `json:"block_hash"`
	Height    uint64 `json:"height"`
	Parent    string `json:"parent"`
	Justified bool   `json:"justified"`
	Finalized bool   `json:"finalized"`
	Dynasty   uint64 `json:"dynasty"`
}

type ChainResponse struct {
	ChainID     string              `json:"chain_id"`
	Kind        string              `json:"kind"`
	EpochLength uint64              `json:"epoch_length"`
	Dynasty     uint64              `json:"dynasty"`
	Head        *CheckpointResponse `json:"head"`
}

type TransitionResponse struct {
	TransitionHash string `json:"transition_hash"`
}

type VoteRequest struct {
	ChainID        string `json:"chain_id" validate:"required,eth_addr"`
	TransitionHash string `json:"transition_hash" validate:"required,hexadecimal,len=66"`
	Source         string `json:"source" validate:"required,hexadecimal,len=66"`
	Target         string `json:"target" validate:"required,hexadecimal,len=66"`
	SourceHeight   uint64 `json:"source_height"`
	TargetHeight   uint64 `json:"target_height" validate:"required"`
	Signature      string `json:"signature" validate:"required,hexadecimal,len=132"`
}

type VoteResponse struct {
	Signer    string `json:"signer"`
	Weight    string `json:"weight"`
	Required  string `json:"required"`
	Justified bool   `json:"justified"`
}

type WeightResponse struct {
	Validator string `json:"validator"`
	Height    uint64 `json:"height"`
	Weight    string `json:"weight"`
}

type TotalWeightResponse struct {
	Height   uint64 `json:"height"`
	Total    string `json:"total"`
	Required string `json:"required"`
}

type DepositRequest struct {
	Depositor string `json:"depositor" validate:"required,eth_addr"`
	Validator string `json:"validator" validate:"required,eth_addr"`
	Amount    string `json:"amount" validate:"required,number"`
}

type EvictRequest struct {
	Validator string `json:"validator" validate:"required,eth_addr"`
	// Signature is the authority's signature over the eviction root.
	Signature string `json:"signature" validate:"required,hexadecimal,len=132"`
}

type CloseHeightRequest struct {
	ExpectedHeight uint64 `json:"expected_height"`
	// Signature is the authority's signature over the close height root.
	Signature string `json:"signature" validate:"required,hexadecimal,len=132"`
}

type HeightResponse struct {
	CurrentHeight uint64 `json:"current_height"`
}

func blockResponse(b *checkpoint.ReportedBlock) *BlockResponse {
	return &BlockResponse{
		Hash:              b.Hash.Hex(),
		ParentHash:        b.ParentHash.Hex(),
		Height:            b.Height,
		StateRoot:         b.StateRoot.Hex(),
		GasUsed:           b.GasUsed,
		TxRoot:            b.TxRoot.Hex(),
		AccumulatedGas:    b.AccumulatedGas.ToBig().String(),
		AccumulatedTxRoot: b.AccumulatedTxRoot.Hex(),
	}
}

func checkpointResponse(cp *checkpoint.Checkpoint) *CheckpointResponse {
	return &CheckpointResponse{
		BlockHash: cp.BlockHash.Hex(),
		Height:    cp.Height,
		Parent:    cp.Parent.Hex(),
		Justified: cp.Justified,
		Finalized: cp.Finalized,
		Dynasty:   cp.Dynasty,
	}
}
