package ledger

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/casper-gadget/gadget/checkpoint"
	"github.com/prysmaticlabs/casper-gadget/gadget/registry"
)

// ChainInfo summarizes a tracked chain.
type ChainInfo struct {
	ChainID     common.Address
	Kind        checkpoint.Kind
	EpochLength uint64
	Dynasty     uint64
	Head        *checkpoint.Checkpoint
}

// WeightInfo is the total weight at a height and its supermajority threshold.
type WeightInfo struct {
	Height   uint64
	Total    *uint256.Int
	Required *uint256.Int
}

func (l *Ledger) store(chain common.Address) (*checkpoint.Store, error) {
	s, ok := l.stores[chain]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownChain, "chain %#x", chain)
	}
	return s, nil
}

// Chains returns the origin and auxiliary chain ids, in that order.
func (l *Ledger) Chains() (common.Address, common.Address) {
	return l.origin.ChainID(), l.auxiliary.ChainID()
}

// Chain returns a summary of chain.
func (l *Ledger) Chain(chain common.Address) (*ChainInfo, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	s, err := l.store(chain)
	if err != nil {
		return nil, err
	}
	return &ChainInfo{
		ChainID:     s.ChainID(),
		Kind:        s.Kind(),
		EpochLength: s.EpochLength(),
		Dynasty:     s.Dynasty(),
		Head:        s.Head(),
	}, nil
}

// Block returns a reported block of chain.
func (l *Ledger) Block(chain common.Address, hash common.Hash) (*checkpoint.ReportedBlock, bool, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	s, err := l.store(chain)
	if err != nil {
		return nil, false, err
	}
	b, ok := s.Block(hash)
	return b, ok, nil
}

// Checkpoint returns a checkpoint of chain.
func (l *Ledger) Checkpoint(chain common.Address, hash common.Hash) (*checkpoint.Checkpoint, bool, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	s, err := l.store(chain)
	if err != nil {
		return nil, false, err
	}
	cp, ok := s.Checkpoint(hash)
	return cp, ok, nil
}

// TransitionHash returns the transition hash votes with source hash must carry.
func (l *Ledger) TransitionHash(chain common.Address, hash common.Hash) (common.Hash, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	s, err := l.store(chain)
	if err != nil {
		return common.Hash{}, err
	}
	return s.TransitionHashAtBlock(hash)
}

// Weight returns validator's weight at height.
func (l *Ledger) Weight(height uint64, validator common.Address) *uint256.Int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.registry.Weight(height, validator)
}

// TotalWeight returns the total weight at height and its threshold.
func (l *Ledger) TotalWeight(height uint64) *WeightInfo {
	l.lock.Lock()
	defer l.lock.Unlock()
	total := l.registry.TotalWeightAtHeight(height)
	return &WeightInfo{
		Height:   height,
		Total:    total,
		Required: registry.Supermajority(total),
	}
}

// CurrentHeight returns the open registry height.
func (l *Ledger) CurrentHeight() uint64 {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.registry.CurrentHeight()
}

// Validator returns a validator record.
func (l *Ledger) Validator(validator common.Address) (*registry.Validator, bool) {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.registry.Validator(validator)
}
