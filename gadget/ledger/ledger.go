// Package ledger owns the weight registry, both checkpoint stores and the
// vote dispatcher, and applies operations to them one at a time.
package ledger

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/casper-gadget/gadget/checkpoint"
	"github.com/prysmaticlabs/casper-gadget/gadget/dispatcher"
	"github.com/prysmaticlabs/casper-gadget/gadget/registry"
	"github.com/prysmaticlabs/casper-gadget/shared/errutil"
	"github.com/prysmaticlabs/casper-gadget/shared/params"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

// Journal persists applied operations in order.
type Journal interface {
	SaveOperation(ctx context.Context, op *Operation) error
}

// Config for the ledger.
type Config struct {
	Genesis *params.GenesisConfig
	// Journal receives every operation before it is applied, it may be nil.
	Journal Journal
}

// Ledger is the single entry point to the gadget's state. Every method takes
// the ledger lock, so operations are applied in a total order.
type Ledger struct {
	lock       sync.Mutex
	cfg        *Config
	authority  common.Address
	feed       *event.Feed
	registry   *registry.Registry
	origin     *checkpoint.Store
	auxiliary  *checkpoint.Store
	stores     map[common.Address]*checkpoint.Store
	dispatcher *dispatcher.Dispatcher
}

// New builds the ledger from its genesis configuration: it registers the
// genesis validator set and wires the dispatcher into both stores.
func New(cfg *Config) (*Ledger, error) {
	g := cfg.Genesis
	if g == nil {
		return nil, errors.New("genesis config is required")
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	l := &Ledger{
		cfg:       cfg,
		authority: g.AuthorityAddress(),
		feed:      new(event.Feed),
	}

	minWeight, err := g.MinimumWeightValue()
	if err != nil {
		return nil, err
	}
	l.registry = registry.New(&registry.Config{
		Authority:     l.authority,
		MinimumWeight: minWeight,
		Notifier:      l,
	})
	depositors, validators, stakes, err := g.GenesisValidators()
	if err != nil {
		return nil, err
	}
	if err := l.registry.Initialize(depositors, validators, stakes); err != nil {
		return nil, errors.Wrap(err, "could not initialize validator set")
	}

	l.origin, err = checkpoint.New(&checkpoint.Config{
		ChainID:     g.Origin.ID(),
		EpochLength: g.Origin.EpochLength,
		Kind:        checkpoint.Origin,
		Genesis:     genesisOf(&g.Origin),
		Authority:   l.authority,
		Notifier:    l,
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not create origin store")
	}
	l.auxiliary, err = checkpoint.New(&checkpoint.Config{
		ChainID:     g.Auxiliary.ID(),
		EpochLength: g.Auxiliary.EpochLength,
		Kind:        checkpoint.Auxiliary,
		Genesis:     genesisOf(&g.Auxiliary),
		Authority:   l.authority,
		Notifier:    l,
		Counterpart: l.origin,
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not create auxiliary store")
	}
	l.stores = map[common.Address]*checkpoint.Store{
		l.origin.ChainID():    l.origin,
		l.auxiliary.ChainID(): l.auxiliary,
	}

	l.dispatcher, err = dispatcher.New(&dispatcher.Config{
		Address:  g.DispatcherAddress(),
		Weights:  l.registry,
		Stores:   []dispatcher.CheckpointStore{l.origin, l.auxiliary},
		Notifier: l,
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not create dispatcher")
	}
	for _, s := range []*checkpoint.Store{l.origin, l.auxiliary} {
		if err := s.SetDispatcher(l.authority, l.dispatcher.Address()); err != nil {
			return nil, errors.Wrapf(err, "could not register dispatcher on %s store", s.Kind())
		}
	}

	log.WithFields(logrus.Fields{
		"config":     g.ConfigName,
		"origin":     g.Origin.ChainID,
		"auxiliary":  g.Auxiliary.ChainID,
		"validators": len(validators),
	}).Info("Initialized finality gadget")
	return l, nil
}

func genesisOf(c *params.ChainConfig) checkpoint.Genesis {
	return checkpoint.Genesis{
		Hash:      c.Hash(),
		StateRoot: c.StateRoot(),
		Height:    c.GenesisHeight,
	}
}

// EventFeed returns the feed the gadget's events are sent on.
func (l *Ledger) EventFeed() *event.Feed {
	return l.feed
}

// apply checks op, journals it and then applies it, all under the ledger
// lock. A returned error means the ledger did not change.
func (l *Ledger) apply(ctx context.Context, op *Operation, check, fn func() error) error {
	ctx, span := trace.StartSpan(ctx, "ledger."+op.Kind.String())
	defer span.End()

	l.lock.Lock()
	defer l.lock.Unlock()
	if err := check(); err != nil {
		operationsFailed.WithLabelValues(op.Kind.String()).Inc()
		return err
	}
	if l.cfg.Journal != nil {
		if err := l.cfg.Journal.SaveOperation(ctx, op); err != nil {
			operationsFailed.WithLabelValues(op.Kind.String()).Inc()
			log.WithError(err).WithField("kind", op.Kind).Error("Could not journal operation")
			return errutil.WithKind(ErrJournal, err)
		}
	}
	if err := l.applyLocked(op, fn); err != nil {
		log.WithError(err).WithField("kind", op.Kind).Error("Journaled operation failed to apply")
		return err
	}
	return nil
}

func (l *Ledger) applyLocked(op *Operation, fn func() error) error {
	if err := fn(); err != nil {
		operationsFailed.WithLabelValues(op.Kind.String()).Inc()
		return err
	}
	operationsApplied.WithLabelValues(op.Kind.String()).Inc()
	return nil
}

// ReportBlock reports an RLP encoded header to the store of chain.
func (l *Ledger) ReportBlock(ctx context.Context, chain common.Address, enc []byte) (*checkpoint.ReportedBlock, error) {
	var b *checkpoint.ReportedBlock
	check := func() error {
		s, err := l.store(chain)
		if err != nil {
			return err
		}
		return s.CheckBlock(enc)
	}
	err := l.apply(ctx, reportBlockOp(chain, enc), check, func() error {
		var err error
		b, err = l.reportBlock(chain, enc)
		return err
	})
	return b, err
}

func (l *Ledger) reportBlock(chain common.Address, enc []byte) (*checkpoint.ReportedBlock, error) {
	s, err := l.store(chain)
	if err != nil {
		return nil, err
	}
	return s.ReportBlock(enc)
}

// Vote submits a signed vote to the dispatcher.
func (l *Ledger) Vote(ctx context.Context, v *dispatcher.Vote) (*dispatcher.Result, error) {
	var res *dispatcher.Result
	check := func() error {
		return l.dispatcher.Check(v)
	}
	err := l.apply(ctx, voteOp(v), check, func() error {
		var err error
		res, err = l.dispatcher.Submit(v)
		return err
	})
	return res, err
}

// Deposit registers validator with the given stake from the next height on.
func (l *Ledger) Deposit(ctx context.Context, depositor, validator common.Address, amount *uint256.Int) error {
	if amount == nil {
		return registry.ErrZeroStake
	}
	check := func() error {
		return l.registry.CheckDeposit(depositor, validator, amount)
	}
	return l.apply(ctx, depositOp(depositor, validator, amount), check, func() error {
		return l.registry.Deposit(depositor, validator, amount)
	})
}

// Evict removes validator's weight from the next height on. caller must be
// the authority.
func (l *Ledger) Evict(ctx context.Context, caller, validator common.Address) error {
	check := func() error {
		return l.registry.CheckEvict(caller, validator)
	}
	return l.apply(ctx, evictOp(caller, validator), check, func() error {
		return l.registry.Evict(caller, validator)
	})
}

// CloseHeight advances the registry height. caller must be the authority and
// expected the current height.
func (l *Ledger) CloseHeight(ctx context.Context, caller common.Address, expected uint64) error {
	check := func() error {
		return l.registry.CheckCloseHeight(caller, expected)
	}
	return l.apply(ctx, closeHeightOp(caller, expected), check, func() error {
		return l.registry.CloseHeight(caller, expected)
	})
}

// Authority returns the identity allowed to evict validators and close
// heights.
func (l *Ledger) Authority() common.Address {
	return l.authority
}

// Replay applies journaled operations in order without journaling them
// again. It stops at the first operation that fails.
func (l *Ledger) Replay(ctx context.Context, ops []*Operation) error {
	ctx, span := trace.StartSpan(ctx, "ledger.Replay")
	defer span.End()

	l.lock.Lock()
	defer l.lock.Unlock()
	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := l.applyLocked(op, l.replayFn(op)); err != nil {
			return errors.Wrapf(err, "could not replay operation %d (%s)", i, op.Kind)
		}
	}
	log.WithField("operations", len(ops)).Info("Replayed journal")
	return nil
}

func (l *Ledger) replayFn(op *Operation) func() error {
	switch op.Kind {
	case OpReportBlock:
		return func() error {
			_, err := l.reportBlock(op.Chain, op.Header)
			return err
		}
	case OpVote:
		return func() error {
			_, err := l.dispatcher.Submit(op.vote())
			return err
		}
	case OpDeposit:
		return func() error {
			amount, overflow := uint256.FromBig(op.Amount)
			if overflow {
				return registry.ErrWeightOverflow
			}
			return l.registry.Deposit(op.Depositor, op.Validator, amount)
		}
	case OpEvict:
		return func() error {
			return l.registry.Evict(op.Caller, op.Validator)
		}
	case OpCloseHeight:
		return func() error {
			return l.registry.CloseHeight(op.Caller, op.Height)
		}
	default:
		return func() error {
			return errors.Wrapf(ErrUnknownOperation, "kind %d", op.Kind)
		}
	}
}
