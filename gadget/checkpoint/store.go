// Package checkpoint implements the per-chain checkpoint store: it tracks
// reported block headers, the tree of epoch checkpoints built on top of them,
// and the justification/finalization state machine driven by the vote
// dispatcher.
//
// Blocks and checkpoints live in maps keyed by block hash. A checkpoint refers
// to its justification parent by hash, so competing branches can coexist
// until one of them is justified.
package checkpoint

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/casper-gadget/gadget/feed"
	"github.com/prysmaticlabs/casper-gadget/gadget/header"
)

// Kind distinguishes the two chains the gadget tracks.
type Kind int

const (
	// Origin is the chain whose transition hash only binds the block hash.
	Origin Kind = iota
	// Auxiliary is the chain whose transition hash also binds accumulated
	// gas, the accumulated transaction root and the origin head.
	Auxiliary
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case Origin:
		return "origin"
	case Auxiliary:
		return "auxiliary"
	default:
		return "unknown"
	}
}

// ReportedBlock is an accepted block header with its accumulated metrics.
type ReportedBlock struct {
	Hash              common.Hash
	ParentHash        common.Hash
	Height            uint64
	StateRoot         common.Hash
	GasUsed           uint64
	TxRoot            common.Hash
	AccumulatedGas    *uint256.Int
	AccumulatedTxRoot common.Hash
}

// Copy returns a deep copy of the block.
func (b *ReportedBlock) Copy() *ReportedBlock {
	cpy := *b
	cpy.AccumulatedGas = new(uint256.Int).Set(b.AccumulatedGas)
	return &cpy
}

// Checkpoint is a reported block at an epoch boundary height.
type Checkpoint struct {
	BlockHash common.Hash
	Height    uint64
	// Parent is the source checkpoint that justified this one.
	Parent    common.Hash
	Justified bool
	Finalized bool
	// Dynasty is the store's finalization count when this checkpoint was
	// justified.
	Dynasty uint64
}

// Copy returns a copy of the checkpoint.
func (c *Checkpoint) Copy() *Checkpoint {
	cpy := *c
	return &cpy
}

// Genesis describes the block a store starts from. It is justified at
// construction and is the initial head.
type Genesis struct {
	Hash      common.Hash
	StateRoot common.Hash
	Height    uint64
}

// Config configures a Store.
type Config struct {
	ChainID     common.Address
	EpochLength uint64
	Kind        Kind
	Genesis     Genesis
	// Authority is the only identity allowed to register the dispatcher.
	Authority common.Address
	// Decoder decodes reported headers, RLPDecoder when nil.
	Decoder header.Decoder
	// Notifier receives store events, it may be nil.
	Notifier feed.Notifier
	// Counterpart is the origin store an auxiliary store binds its
	// transition hashes to.
	Counterpart *Store
}

// Store is the checkpoint store of a single chain.
type Store struct {
	cfg         *Config
	chainLabel  string
	dispatcher  common.Address
	blocks      map[common.Hash]*ReportedBlock
	checkpoints map[common.Hash]*Checkpoint
	head        common.Hash
	dynasty     uint64
}

// New creates a store holding only the justified genesis checkpoint.
func New(cfg *Config) (*Store, error) {
	if cfg.EpochLength == 0 {
		return nil, errors.New("epoch length must be greater than zero")
	}
	if cfg.Genesis.Height%cfg.EpochLength != 0 {
		return nil, errors.Errorf("genesis height %d is not a multiple of epoch length %d", cfg.Genesis.Height, cfg.EpochLength)
	}
	if cfg.Kind == Auxiliary && cfg.Counterpart == nil {
		return nil, errors.New("auxiliary store requires a counterpart store")
	}
	if cfg.Decoder == nil {
		cfg.Decoder = header.RLPDecoder{}
	}

	s := &Store{
		cfg:         cfg,
		chainLabel:  cfg.ChainID.Hex(),
		blocks:      make(map[common.Hash]*ReportedBlock),
		checkpoints: make(map[common.Hash]*Checkpoint),
		head:        cfg.Genesis.Hash,
	}
	s.blocks[cfg.Genesis.Hash] = &ReportedBlock{
		Hash:           cfg.Genesis.Hash,
		Height:         cfg.Genesis.Height,
		StateRoot:      cfg.Genesis.StateRoot,
		AccumulatedGas: new(uint256.Int),
	}
	s.checkpoints[cfg.Genesis.Hash] = &Checkpoint{
		BlockHash: cfg.Genesis.Hash,
		Height:    cfg.Genesis.Height,
		Justified: true,
	}
	headHeight.WithLabelValues(s.chainLabel).Set(float64(cfg.Genesis.Height))
	justifiedHeight.WithLabelValues(s.chainLabel).Set(float64(cfg.Genesis.Height))
	return s, nil
}

// SetDispatcher registers the only identity allowed to call Justify.
func (s *Store) SetDispatcher(caller, dispatcher common.Address) error {
	if caller != s.cfg.Authority {
		return ErrUnauthorized
	}
	if dispatcher == (common.Address{}) {
		return ErrZeroAddress
	}
	if s.dispatcher != (common.Address{}) {
		return ErrDispatcherAlreadySet
	}
	s.dispatcher = dispatcher
	log.WithField("chain", s.chainLabel).WithField("dispatcher", dispatcher.Hex()).Debug("Registered dispatcher")
	return nil
}

// ChainID of the tracked chain.
func (s *Store) ChainID() common.Address {
	return s.cfg.ChainID
}

// Kind of the tracked chain.
func (s *Store) Kind() Kind {
	return s.cfg.Kind
}

// EpochLength is the height interval between checkpoints.
func (s *Store) EpochLength() uint64 {
	return s.cfg.EpochLength
}

// Dynasty is the number of finalizations so far.
func (s *Store) Dynasty() uint64 {
	return s.dynasty
}

// Dispatcher returns the registered dispatcher identity.
func (s *Store) Dispatcher() common.Address {
	return s.dispatcher
}

// Head returns the finalized head checkpoint (genesis before the first
// finalization).
func (s *Store) Head() *Checkpoint {
	return s.checkpoints[s.head].Copy()
}

// Block returns a copy of a reported block.
func (s *Store) Block(hash common.Hash) (*ReportedBlock, bool) {
	b, ok := s.blocks[hash]
	if !ok {
		return nil, false
	}
	return b.Copy(), true
}

// Checkpoint returns a copy of the checkpoint recorded for hash.
func (s *Store) Checkpoint(hash common.Hash) (*Checkpoint, bool) {
	c, ok := s.checkpoints[hash]
	if !ok {
		return nil, false
	}
	return c.Copy(), true
}

// IsReported reports whether hash was reported.
func (s *Store) IsReported(hash common.Hash) bool {
	_, ok := s.blocks[hash]
	return ok
}

// IsJustified reports whether hash is a justified checkpoint.
func (s *Store) IsJustified(hash common.Hash) bool {
	c, ok := s.checkpoints[hash]
	return ok && c.Justified
}

// IsFinalized reports whether hash is a finalized checkpoint.
func (s *Store) IsFinalized(hash common.Hash) bool {
	c, ok := s.checkpoints[hash]
	return ok && c.Finalized
}

func (s *Store) isEpochBoundary(height uint64) bool {
	return height%s.cfg.EpochLength == 0
}
