// Package header decodes opaque block headers reported to a checkpoint store
// into the fields the finality gadget tracks.
package header

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

// ErrNoBlockNumber is returned for headers without a block number.
var ErrNoBlockNumber = errors.New("header has no block number")

// Header is the decoded summary of a block header.
type Header struct {
	Hash       common.Hash
	ParentHash common.Hash
	Height     uint64
	StateRoot  common.Hash
	GasUsed    uint64
	TxRoot     common.Hash
}

// Decoder turns an encoded block header into a Header.
type Decoder interface {
	DecodeHeader(enc []byte) (*Header, error)
}

// RLPDecoder decodes RLP encoded Ethereum block headers. The block hash is the
// keccak256 of the encoding, as computed by go-ethereum.
type RLPDecoder struct{}

// DecodeHeader implements Decoder.
func (RLPDecoder) DecodeHeader(enc []byte) (*Header, error) {
	if len(enc) == 0 {
		return nil, errors.New("empty header")
	}
	h := new(types.Header)
	if err := rlp.DecodeBytes(enc, h); err != nil {
		return nil, errors.Wrap(err, "could not rlp decode header")
	}
	if h.Number == nil {
		return nil, ErrNoBlockNumber
	}
	if !h.Number.IsUint64() {
		return nil, errors.Errorf("block number %s overflows uint64", h.Number)
	}
	return &Header{
		Hash:       h.Hash(),
		ParentHash: h.ParentHash,
		Height:     h.Number.Uint64(),
		StateRoot:  h.Root,
		GasUsed:    h.GasUsed,
		TxRoot:     h.TxHash,
	}, nil
}
