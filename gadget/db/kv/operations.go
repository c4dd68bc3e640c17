package kv

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/casper-gadget/gadget/ledger"
	bolt "go.etcd.io/bbolt"
	"go.opencensus.io/trace"
)

// SaveOperation appends op to the journal.
func (s *Store) SaveOperation(ctx context.Context, op *ledger.Operation) error {
	_, span := trace.StartSpan(ctx, "GadgetDB.SaveOperation")
	defer span.End()

	enc, err := encode(op)
	if err != nil {
		return errors.Wrap(err, "could not encode operation")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(operationsBucket)
		seq, err := bkt.NextSequence()
		if err != nil {
			return err
		}
		return bkt.Put(seqKey(seq), enc)
	})
}

// Operations returns the journal in the order it was written.
func (s *Store) Operations(ctx context.Context) ([]*ledger.Operation, error) {
	ctx, span := trace.StartSpan(ctx, "GadgetDB.Operations")
	defer span.End()

	var ops []*ledger.Operation
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(operationsBucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			op := &ledger.Operation{}
			if err := decode(v, op); err != nil {
				return errors.Wrapf(err, "could not decode operation %d", keySeq(k))
			}
			ops = append(ops, op)
		}
		return nil
	})
	return ops, err
}

// OperationCount returns the number of journaled operations.
func (s *Store) OperationCount(ctx context.Context) (int, error) {
	_, span := trace.StartSpan(ctx, "GadgetDB.OperationCount")
	defer span.End()

	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(operationsBucket).Stats().KeyN
		return nil
	})
	return n, err
}
