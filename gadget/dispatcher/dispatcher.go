// Package dispatcher verifies signed validator votes, tallies their weight
// per (chain, source, target) and asks the checkpoint store to justify the
// target once a supermajority of the weight at the target height has voted.
package dispatcher

import (
	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/casper-gadget/gadget/checkpoint"
	"github.com/prysmaticlabs/casper-gadget/gadget/feed"
	"github.com/prysmaticlabs/casper-gadget/gadget/registry"
	"github.com/prysmaticlabs/casper-gadget/shared/errutil"
	"github.com/sirupsen/logrus"
)

const defaultSignerCacheSize = 1024

// WeightSource returns validator weights by height.
type WeightSource interface {
	Weight(height uint64, validator common.Address) *uint256.Int
	TotalWeightAtHeight(height uint64) *uint256.Int
}

// CheckpointStore is the part of a checkpoint store the dispatcher drives.
type CheckpointStore interface {
	ChainID() common.Address
	Block(hash common.Hash) (*checkpoint.ReportedBlock, bool)
	IsVoteValid(transitionHash, source, target common.Hash) error
	Justify(caller common.Address, source, target common.Hash) error
	Head() *checkpoint.Checkpoint
	IsJustified(hash common.Hash) bool
}

// Config for the dispatcher.
type Config struct {
	// Address is the identity the checkpoint stores authorize for Justify.
	Address         common.Address
	Weights         WeightSource
	Stores          []CheckpointStore
	Notifier        feed.Notifier
	SignerCacheSize int
}

// Result describes a counted vote.
type Result struct {
	Signer common.Address
	// Weight is the weight accumulated for the (source, target) pair,
	// including this vote.
	Weight    *uint256.Int
	Required  *uint256.Int
	Justified bool
}

type tallyKey struct {
	chain  common.Address
	source common.Hash
	target common.Hash
}

type tally struct {
	weight       *uint256.Int
	targetHeight uint64
}

type voterKey struct {
	chain     common.Address
	validator common.Address
}

// Dispatcher counts votes. It is not safe for concurrent use; callers
// serialize access.
type Dispatcher struct {
	cfg         *Config
	stores      map[common.Address]CheckpointStore
	tallies     map[tallyKey]*tally
	lastVoted   map[voterKey]uint64
	signerCache *lru.Cache
}

// New creates a dispatcher over the given stores.
func New(cfg *Config) (*Dispatcher, error) {
	if cfg.Address == (common.Address{}) {
		return nil, errors.New("dispatcher address must be set")
	}
	if cfg.Weights == nil {
		return nil, errors.New("weight source must be set")
	}
	if len(cfg.Stores) == 0 {
		return nil, errors.New("at least one checkpoint store is required")
	}
	stores := make(map[common.Address]CheckpointStore, len(cfg.Stores))
	for _, s := range cfg.Stores {
		if _, ok := stores[s.ChainID()]; ok {
			return nil, errors.Errorf("duplicate chain %#x", s.ChainID())
		}
		stores[s.ChainID()] = s
	}
	size := cfg.SignerCacheSize
	if size <= 0 {
		size = defaultSignerCacheSize
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "could not create signer cache")
	}
	return &Dispatcher{
		cfg:         cfg,
		stores:      stores,
		tallies:     make(map[tallyKey]*tally),
		lastVoted:   make(map[voterKey]uint64),
		signerCache: cache,
	}, nil
}

// Address returns the dispatcher's identity.
func (d *Dispatcher) Address() common.Address {
	return d.cfg.Address
}

// Submit verifies v and counts its weight. When the accumulated weight for
// the vote's (source, target) pair reaches the supermajority of the total
// weight at the target height, the target is justified. Nothing is recorded
// when an error is returned.
func (d *Dispatcher) Submit(v *Vote) (*Result, error) {
	ev, err := d.evaluate(v)
	if err == nil {
		err = d.commit(ev)
	}
	if err != nil {
		votesRejected.WithLabelValues(v.ChainID.Hex()).Inc()
		return nil, err
	}
	return ev.result(), nil
}

// Check returns the error Submit would return for v without recording
// anything. A vote that passes Check is accepted by Submit as long as no
// other operation runs in between.
func (d *Dispatcher) Check(v *Vote) error {
	_, err := d.evaluate(v)
	return err
}

// evaluation is a verified vote and the tally it would produce.
type evaluation struct {
	vote     *Vote
	store    CheckpointStore
	signer   common.Address
	key      tallyKey
	voter    voterKey
	acc      *uint256.Int
	required *uint256.Int
}

func (e *evaluation) justifies() bool {
	return !e.acc.Lt(e.required)
}

func (e *evaluation) result() *Result {
	return &Result{
		Signer:    e.signer,
		Weight:    new(uint256.Int).Set(e.acc),
		Required:  new(uint256.Int).Set(e.required),
		Justified: e.justifies(),
	}
}

func (d *Dispatcher) evaluate(v *Vote) (*evaluation, error) {
	store, ok := d.stores[v.ChainID]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownChain, "chain %#x", v.ChainID)
	}
	if v.SourceHeight >= v.TargetHeight {
		return nil, errors.Wrapf(ErrInvalidHeights, "source %d, target %d", v.SourceHeight, v.TargetHeight)
	}

	signer, err := d.signer(v)
	if err != nil {
		log.WithError(err).Debug("Could not recover vote signer")
		return nil, ErrNotValidator
	}
	weight := d.cfg.Weights.Weight(v.TargetHeight, signer)
	if weight.IsZero() {
		return nil, ErrNotValidator
	}

	voter := voterKey{chain: v.ChainID, validator: signer}
	if last, ok := d.lastVoted[voter]; ok && v.TargetHeight <= last {
		return nil, errors.Wrapf(ErrNonMonotonicVote, "target height %d, last voted %d", v.TargetHeight, last)
	}

	if err := store.IsVoteValid(v.TransitionHash, v.Source, v.Target); err != nil {
		return nil, errutil.WithKind(ErrInvalidVote, err)
	}
	if err := checkHeights(store, v); err != nil {
		return nil, err
	}

	key := tallyKey{chain: v.ChainID, source: v.Source, target: v.Target}
	acc := new(uint256.Int).Set(weight)
	if prev, ok := d.tallies[key]; ok {
		acc.Add(acc, prev.weight)
	}
	return &evaluation{
		vote:     v,
		store:    store,
		signer:   signer,
		key:      key,
		voter:    voter,
		acc:      acc,
		required: registry.Supermajority(d.cfg.Weights.TotalWeightAtHeight(v.TargetHeight)),
	}, nil
}

// commit records an evaluated vote. Justify runs first so a failure leaves
// the dispatcher untouched.
func (d *Dispatcher) commit(ev *evaluation) error {
	v := ev.vote
	justified := ev.justifies()
	if justified {
		if err := ev.store.Justify(d.cfg.Address, v.Source, v.Target); err != nil {
			return errors.Wrap(err, "could not justify target")
		}
		delete(d.tallies, ev.key)
		d.prune(ev.store)
		justifications.WithLabelValues(v.ChainID.Hex()).Inc()
	} else {
		d.tallies[ev.key] = &tally{weight: ev.acc, targetHeight: v.TargetHeight}
	}
	d.lastVoted[ev.voter] = v.TargetHeight
	openTallies.Set(float64(len(d.tallies)))
	votesCounted.WithLabelValues(v.ChainID.Hex()).Inc()

	feed.Send(d.cfg.Notifier, feed.VoteRecorded, &feed.VoteRecordedData{
		Chain:    v.ChainID,
		Signer:   ev.signer,
		Weight:   new(uint256.Int).Set(ev.acc),
		Required: new(uint256.Int).Set(ev.required),
	})
	log.WithFields(logrus.Fields{
		"chain":     v.ChainID.Hex(),
		"signer":    ev.signer.Hex(),
		"target":    v.Target.Hex(),
		"weight":    ev.acc.ToBig().String(),
		"required":  ev.required.ToBig().String(),
		"justified": justified,
	}).Debug("Recorded vote")
	return nil
}

// prune drops the tallies of store's chain that can no longer justify their
// target: targets at or below the head and targets already justified.
func (d *Dispatcher) prune(store CheckpointStore) {
	chain := store.ChainID()
	head := store.Head()
	for key, t := range d.tallies {
		if key.chain != chain {
			continue
		}
		if t.targetHeight <= head.Height || store.IsJustified(key.target) {
			delete(d.tallies, key)
		}
	}
}

// checkHeights rejects votes whose claimed heights differ from the heights
// the store recorded for source and target.
func checkHeights(store CheckpointStore, v *Vote) error {
	src, ok := store.Block(v.Source)
	if !ok {
		return errutil.WithKind(ErrInvalidVote, errors.Wrapf(checkpoint.ErrUnknownSource, "source %#x", v.Source))
	}
	tgt, ok := store.Block(v.Target)
	if !ok {
		return errutil.WithKind(ErrInvalidVote, errors.Wrapf(checkpoint.ErrUnknownTarget, "target %#x", v.Target))
	}
	if src.Height != v.SourceHeight || tgt.Height != v.TargetHeight {
		return errors.Wrapf(ErrHeightMismatch, "claimed %d->%d, reported %d->%d",
			v.SourceHeight, v.TargetHeight, src.Height, tgt.Height)
	}
	return nil
}

// signer recovers the vote signer, consulting the cache first.
func (d *Dispatcher) signer(v *Vote) (common.Address, error) {
	root := v.SigningRoot()
	key := string(root.Bytes()) + string(v.Signature)
	if cached, ok := d.signerCache.Get(key); ok {
		signerCacheHits.Inc()
		return cached.(common.Address), nil
	}
	signer, err := RecoverSigner(root, v.Signature)
	if err != nil {
		return common.Address{}, err
	}
	d.signerCache.Add(key, signer)
	return signer, nil
}

// Tally returns the weight counted so far for a pair that has not yet
// justified its target.
func (d *Dispatcher) Tally(chain common.Address, source, target common.Hash) *uint256.Int {
	t, ok := d.tallies[tallyKey{chain: chain, source: source, target: target}]
	if !ok {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(t.weight)
}

// OpenTallies returns the number of (source, target) pairs that have votes
// but have not justified their target.
func (d *Dispatcher) OpenTallies() int {
	return len(d.tallies)
}

// LastVotedHeight returns the highest target height validator voted for on chain.
func (d *Dispatcher) LastVotedHeight(chain, validator common.Address) (uint64, bool) {
	h, ok := d.lastVoted[voterKey{chain: chain, validator: validator}]
	return h, ok
}
