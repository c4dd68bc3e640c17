package checkpoint

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/casper-gadget/gadget/feed"
	"github.com/prysmaticlabs/casper-gadget/shared/errutil"
	"github.com/sirupsen/logrus"
)

// ReportBlock decodes an encoded header and records it. Accumulated gas and
// the accumulated transaction root chain from the parent block. Auxiliary
// stores require the parent to be reported; origin stores start from zero
// accumulators when it is not.
func (s *Store) ReportBlock(enc []byte) (*ReportedBlock, error) {
	b, err := s.newBlock(enc)
	if err != nil {
		return nil, err
	}
	s.blocks[b.Hash] = b
	if s.isEpochBoundary(b.Height) {
		s.checkpoints[b.Hash] = &Checkpoint{
			BlockHash: b.Hash,
			Height:    b.Height,
		}
	}

	reportedBlockCount.WithLabelValues(s.chainLabel).Inc()
	feed.Send(s.cfg.Notifier, feed.BlockReported, &feed.BlockReportedData{
		Chain:  s.cfg.ChainID,
		Hash:   b.Hash,
		Height: b.Height,
	})
	log.WithFields(logrus.Fields{
		"chain":  s.cfg.Kind,
		"hash":   b.Hash.Hex(),
		"height": b.Height,
	}).Debug("Reported block")
	return b.Copy(), nil
}

// CheckBlock returns the error ReportBlock would return for enc without
// recording anything.
func (s *Store) CheckBlock(enc []byte) error {
	_, err := s.newBlock(enc)
	return err
}

// newBlock decodes enc and derives its accumulators from the parent.
func (s *Store) newBlock(enc []byte) (*ReportedBlock, error) {
	h, err := s.cfg.Decoder.DecodeHeader(enc)
	if err != nil {
		return nil, errutil.WithKind(ErrInvalidHeader, err)
	}
	if _, ok := s.blocks[h.Hash]; ok {
		return nil, errors.Wrapf(ErrAlreadyReported, "block %#x", h.Hash)
	}

	accGas := new(uint256.Int)
	var accTxRoot common.Hash
	parent, ok := s.blocks[h.ParentHash]
	switch {
	case ok:
		if h.Height <= parent.Height {
			return nil, errors.Wrapf(ErrHeightNotAboveParent, "height %d, parent height %d", h.Height, parent.Height)
		}
		accGas.Set(parent.AccumulatedGas)
		accTxRoot = parent.AccumulatedTxRoot
	case s.cfg.Kind == Auxiliary:
		return nil, errors.Wrapf(ErrUnknownParent, "parent %#x", h.ParentHash)
	}
	accGas.Add(accGas, uint256.NewInt(h.GasUsed))

	return &ReportedBlock{
		Hash:              h.Hash,
		ParentHash:        h.ParentHash,
		Height:            h.Height,
		StateRoot:         h.StateRoot,
		GasUsed:           h.GasUsed,
		TxRoot:            h.TxRoot,
		AccumulatedGas:    accGas,
		AccumulatedTxRoot: crypto.Keccak256Hash(accTxRoot.Bytes(), h.TxRoot.Bytes()),
	}, nil
}
