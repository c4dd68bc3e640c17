package checkpoint

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/casper-gadget/gadget/feed"
	"github.com/sirupsen/logrus"
)

// transition is a validated source to target link.
type transition struct {
	source *Checkpoint
	target *Checkpoint
	// finalizes is set when target is the direct epoch neighbor of source.
	finalizes bool
}

// validateTransition checks every precondition of justifying target with
// source, without mutating the store.
func (s *Store) validateTransition(source, target common.Hash) (*transition, error) {
	src, ok := s.blocks[source]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownSource, "source %#x", source)
	}
	tgt, ok := s.blocks[target]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownTarget, "target %#x", target)
	}
	if tgt.Height == 0 || !s.isEpochBoundary(tgt.Height) {
		return nil, errors.Wrapf(ErrNotEpochBoundary, "target height %d, epoch length %d", tgt.Height, s.cfg.EpochLength)
	}
	head := s.checkpoints[s.head]
	if tgt.Height <= head.Height {
		return nil, errors.Wrapf(ErrBelowHead, "target height %d, head height %d", tgt.Height, head.Height)
	}
	if tgt.Height <= src.Height {
		return nil, errors.Wrapf(ErrTargetNotAboveSource, "target height %d, source height %d", tgt.Height, src.Height)
	}
	srcCp, ok := s.checkpoints[source]
	if !ok || !srcCp.Justified {
		return nil, errors.Wrapf(ErrSourceNotJustified, "source %#x", source)
	}
	tgtCp := s.checkpoints[target]
	if tgtCp.Justified {
		return nil, errors.Wrapf(ErrAlreadyJustified, "target %#x", target)
	}

	t := &transition{
		source:    srcCp,
		target:    tgtCp,
		finalizes: tgt.Height-src.Height == s.cfg.EpochLength,
	}
	if t.finalizes && !s.descendsFromHead(srcCp) {
		return nil, errors.Wrapf(ErrConflictsWithHead, "source %#x, head %#x", source, s.head)
	}
	return t, nil
}

// descendsFromHead walks justification parents from cp down to the head
// height and reports whether the walk ends at the head.
func (s *Store) descendsFromHead(cp *Checkpoint) bool {
	head := s.checkpoints[s.head]
	for cp != nil && cp.Height > head.Height {
		cp = s.checkpoints[cp.Parent]
	}
	return cp != nil && cp.BlockHash == head.BlockHash
}

// Justify marks target as justified by source. Only the registered dispatcher
// may call it. When target is the direct epoch neighbor of source, source is
// finalized and becomes the head.
func (s *Store) Justify(caller common.Address, source, target common.Hash) error {
	if s.dispatcher == (common.Address{}) || caller != s.dispatcher {
		return ErrUnauthorized
	}
	t, err := s.validateTransition(source, target)
	if err != nil {
		return err
	}

	t.target.Justified = true
	t.target.Parent = source
	t.target.Dynasty = s.dynasty
	justifiedHeight.WithLabelValues(s.chainLabel).Set(float64(t.target.Height))
	feed.Send(s.cfg.Notifier, feed.CheckpointJustified, &feed.CheckpointJustifiedData{
		Chain: s.cfg.ChainID,
		Hash:  target,
	})
	log.WithFields(logrus.Fields{
		"chain":  s.cfg.Kind,
		"source": source.Hex(),
		"target": target.Hex(),
		"height": t.target.Height,
	}).Info("Justified checkpoint")

	if !t.finalizes || t.source.Finalized {
		return nil
	}
	t.source.Finalized = true
	s.head = source
	s.dynasty++
	headHeight.WithLabelValues(s.chainLabel).Set(float64(t.source.Height))
	dynastyGauge.WithLabelValues(s.chainLabel).Set(float64(s.dynasty))
	feed.Send(s.cfg.Notifier, feed.CheckpointFinalized, &feed.CheckpointFinalizedData{
		Chain: s.cfg.ChainID,
		Hash:  source,
	})
	log.WithFields(logrus.Fields{
		"chain":   s.cfg.Kind,
		"hash":    source.Hex(),
		"height":  t.source.Height,
		"dynasty": s.dynasty,
	}).Info("Finalized checkpoint")
	return nil
}

// IsVoteValid reports, as a nil error, whether a vote linking source to
// target under transitionHash can be counted. A non-nil error names the first
// violated condition.
func (s *Store) IsVoteValid(transitionHash, source, target common.Hash) error {
	if _, err := s.validateTransition(source, target); err != nil {
		return err
	}
	want, err := s.TransitionHashAtBlock(source)
	if err != nil {
		return err
	}
	if want != transitionHash {
		return errors.Wrapf(ErrTransitionMismatch, "got %#x, want %#x", transitionHash, want)
	}
	return nil
}
