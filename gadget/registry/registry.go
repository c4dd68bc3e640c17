// Package registry tracks validator stake indexed by the height at which it
// takes effect, and answers weight and total weight queries for any height.
//
// Every weight change lands at the next open height (current height + 1), so
// changes never alter the weight of the current or a past height, and the
// total weight history can be kept as an append-only list of height ordered
// snapshots.
package registry

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/casper-gadget/gadget/feed"
	"github.com/sirupsen/logrus"
)

// Validator is the weight record of a single validator.
type Validator struct {
	// Depositor funded the stake and may differ from the validator.
	Depositor common.Address
	Stake     *uint256.Int
	// StartHeight is the first height at which the stake counts.
	StartHeight uint64
	Evicted     bool
	// EvictionHeight is the first height at which the stake no longer counts.
	EvictionHeight uint64
}

// Copy returns a deep copy of the record.
func (v *Validator) Copy() *Validator {
	cpy := *v
	cpy.Stake = new(uint256.Int).Set(v.Stake)
	return &cpy
}

// activeAt reports whether the record carries weight at height.
func (v *Validator) activeAt(height uint64) bool {
	if height < v.StartHeight {
		return false
	}
	return !v.Evicted || height < v.EvictionHeight
}

// snapshot holds the total weight for heights in [height, next snapshot height).
type snapshot struct {
	height uint64
	total  *uint256.Int
}

// Config configures a Registry.
type Config struct {
	// Authority is the only identity allowed to close heights and evict.
	Authority common.Address
	// MinimumWeight is the floor the genesis total stake must exceed.
	MinimumWeight *uint256.Int
	// Notifier receives weight change events, it may be nil.
	Notifier feed.Notifier
}

// Registry is the height indexed validator weight registry.
type Registry struct {
	cfg           *Config
	initialized   bool
	currentHeight uint64
	validators    map[common.Address]*Validator
	snapshots     []snapshot
}

// New creates an empty, uninitialized registry.
func New(cfg *Config) *Registry {
	if cfg.MinimumWeight == nil {
		cfg.MinimumWeight = new(uint256.Int)
	}
	return &Registry{
		cfg:        cfg,
		validators: make(map[common.Address]*Validator),
	}
}

// Initialize registers the genesis validator set at height 0. It can only be
// called once.
func (r *Registry) Initialize(depositors, validators []common.Address, stakes []*uint256.Int) error {
	if r.initialized {
		return ErrAlreadyInitialized
	}
	if len(depositors) != len(validators) || len(validators) != len(stakes) {
		return ErrLengthMismatch
	}
	if len(validators) == 0 {
		return ErrEmptyValidatorSet
	}

	seen := make(map[common.Address]bool, len(validators))
	total := new(uint256.Int)
	for i, v := range validators {
		if v == (common.Address{}) || depositors[i] == (common.Address{}) {
			return errors.Wrapf(ErrZeroAddress, "genesis validator %d", i)
		}
		if seen[v] || r.validators[v] != nil {
			return errors.Wrapf(ErrAlreadyStaked, "genesis validator %s", v.Hex())
		}
		seen[v] = true
		if stakes[i] == nil || stakes[i].IsZero() {
			return errors.Wrapf(ErrZeroStake, "genesis validator %s", v.Hex())
		}
		sum := new(uint256.Int).Add(total, stakes[i])
		if sum.Lt(total) {
			return ErrWeightOverflow
		}
		total = sum
	}
	if !total.Gt(r.cfg.MinimumWeight) {
		return errors.Wrapf(ErrBelowMinimumWeight, "total %s, minimum %s", total.ToBig(), r.cfg.MinimumWeight.ToBig())
	}

	for i, v := range validators {
		r.validators[v] = &Validator{
			Depositor:   depositors[i],
			Stake:       new(uint256.Int).Set(stakes[i]),
			StartHeight: 0,
		}
	}
	r.snapshots = append(r.snapshots, snapshot{height: 0, total: total})
	r.initialized = true

	validatorCount.Set(float64(len(r.validators)))
	currentHeightGauge.Set(0)
	for _, v := range validators {
		feed.Send(r.cfg.Notifier, feed.WeightChanged, &feed.WeightChangedData{
			Validator: v,
			Height:    0,
			Total:     new(uint256.Int).Set(total),
		})
	}
	log.WithFields(logrus.Fields{
		"validators":  len(validators),
		"totalWeight": total.ToBig(),
	}).Info("Initialized genesis validator set")
	return nil
}

// CheckDeposit returns the error Deposit would return without changing the
// registry.
func (r *Registry) CheckDeposit(depositor, validator common.Address, amount *uint256.Int) error {
	if !r.initialized {
		return ErrNotInitialized
	}
	if validator == (common.Address{}) || depositor == (common.Address{}) {
		return ErrZeroAddress
	}
	if amount == nil || amount.IsZero() {
		return ErrZeroStake
	}
	if _, ok := r.validators[validator]; ok {
		return errors.Wrapf(ErrAlreadyStaked, "validator %s", validator.Hex())
	}
	last := r.snapshots[len(r.snapshots)-1].total
	if new(uint256.Int).Add(last, amount).Lt(last) {
		return ErrWeightOverflow
	}
	return nil
}

// Deposit registers a new validator whose stake counts from the next height.
func (r *Registry) Deposit(depositor, validator common.Address, amount *uint256.Int) error {
	if err := r.CheckDeposit(depositor, validator, amount); err != nil {
		return err
	}

	height := r.currentHeight + 1
	total, err := r.applyChange(height, amount, true)
	if err != nil {
		return err
	}
	r.validators[validator] = &Validator{
		Depositor:   depositor,
		Stake:       new(uint256.Int).Set(amount),
		StartHeight: height,
	}

	validatorCount.Set(float64(len(r.validators)))
	depositCount.Inc()
	feed.Send(r.cfg.Notifier, feed.WeightChanged, &feed.WeightChangedData{
		Validator: validator,
		Height:    height,
		Total:     total,
	})
	log.WithFields(logrus.Fields{
		"validator":   validator.Hex(),
		"depositor":   depositor.Hex(),
		"stake":       amount.ToBig(),
		"startHeight": height,
	}).Debug("Accepted deposit")
	return nil
}

// CheckEvict returns the error Evict would return without changing the
// registry.
func (r *Registry) CheckEvict(caller, validator common.Address) error {
	if caller != r.cfg.Authority {
		return ErrUnauthorized
	}
	v, ok := r.validators[validator]
	if !ok {
		return errors.Wrapf(ErrUnknownValidator, "validator %s", validator.Hex())
	}
	if v.Evicted {
		return errors.Wrapf(ErrAlreadyEvicted, "validator %s", validator.Hex())
	}
	return nil
}

// Evict removes a validator's weight from the next height onwards. Its record
// stays queryable for earlier heights.
func (r *Registry) Evict(caller, validator common.Address) error {
	if err := r.CheckEvict(caller, validator); err != nil {
		return err
	}
	v := r.validators[validator]

	height := r.currentHeight + 1
	total, err := r.applyChange(height, v.Stake, false)
	if err != nil {
		return err
	}
	v.Evicted = true
	v.EvictionHeight = height

	evictionCount.Inc()
	feed.Send(r.cfg.Notifier, feed.WeightChanged, &feed.WeightChangedData{
		Validator: validator,
		Height:    height,
		Total:     total,
	})
	log.WithFields(logrus.Fields{
		"validator":      validator.Hex(),
		"evictionHeight": height,
	}).Info("Evicted validator")
	return nil
}

// applyChange adds or removes delta from the total weight starting at height
// and returns the new total. height is never below the last snapshot.
func (r *Registry) applyChange(height uint64, delta *uint256.Int, add bool) (*uint256.Int, error) {
	last := r.snapshots[len(r.snapshots)-1]
	total := new(uint256.Int)
	if add {
		total.Add(last.total, delta)
		if total.Lt(last.total) {
			return nil, ErrWeightOverflow
		}
	} else {
		if last.total.Lt(delta) {
			return nil, errors.New("total weight underflows")
		}
		total.Sub(last.total, delta)
	}
	if last.height == height {
		r.snapshots[len(r.snapshots)-1].total = total
	} else {
		r.snapshots = append(r.snapshots, snapshot{height: height, total: total})
	}
	return new(uint256.Int).Set(total), nil
}

// Weight returns the stake of validator at height, or zero when the validator
// is unknown, not yet effective or already evicted at that height.
func (r *Registry) Weight(height uint64, validator common.Address) *uint256.Int {
	v, ok := r.validators[validator]
	if !ok || !v.activeAt(height) {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(v.Stake)
}

// TotalWeightAtHeight returns the sum of all validator weights at height.
func (r *Registry) TotalWeightAtHeight(height uint64) *uint256.Int {
	i := sort.Search(len(r.snapshots), func(i int) bool {
		return r.snapshots[i].height > height
	})
	if i == 0 {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(r.snapshots[i-1].total)
}

// CheckCloseHeight returns the error CloseHeight would return without
// changing the registry.
func (r *Registry) CheckCloseHeight(caller common.Address, expectedPriorHeight uint64) error {
	if caller != r.cfg.Authority {
		return ErrUnauthorized
	}
	if expectedPriorHeight != r.currentHeight {
		return errors.Wrapf(ErrUnexpectedHeight, "expected %d, current %d", expectedPriorHeight, r.currentHeight)
	}
	return nil
}

// CloseHeight advances the current height by one. expectedPriorHeight must be
// the current height so that a repeated call cannot advance twice.
func (r *Registry) CloseHeight(caller common.Address, expectedPriorHeight uint64) error {
	if err := r.CheckCloseHeight(caller, expectedPriorHeight); err != nil {
		return err
	}
	r.currentHeight++
	currentHeightGauge.Set(float64(r.currentHeight))
	log.WithField("height", r.currentHeight).Debug("Closed height")
	return nil
}

// CurrentHeight returns the open height.
func (r *Registry) CurrentHeight() uint64 {
	return r.currentHeight
}

// Initialized reports whether the genesis validator set was registered.
func (r *Registry) Initialized() bool {
	return r.initialized
}

// Validator returns a copy of the validator record.
func (r *Registry) Validator(validator common.Address) (*Validator, bool) {
	v, ok := r.validators[validator]
	if !ok {
		return nil, false
	}
	return v.Copy(), true
}

// Supermajority returns the smallest weight that is at least two thirds of
// total, i.e. ceil(2*total/3), without overflowing for any 256 bit total.
func Supermajority(total *uint256.Int) *uint256.Int {
	three := uint256.NewInt(3)
	q := new(uint256.Int).Div(total, three)
	rem := new(uint256.Int).Mod(total, three)
	// 2*total = 6q + 2rem, and ceil(2rem/3) == rem for rem in {0, 1, 2}.
	q.Add(q, q)
	return q.Add(q, rem)
}
