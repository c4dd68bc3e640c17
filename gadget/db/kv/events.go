package kv

import (
	"context"
	"encoding/json"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/casper-gadget/gadget/feed"
	bolt "go.etcd.io/bbolt"
	"go.opencensus.io/trace"
)

// EventRecord is a stored gadget event.
type EventRecord struct {
	Seq  uint64          `json:"seq"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// SaveEvent appends ev to the event log.
func (s *Store) SaveEvent(ctx context.Context, ev *feed.Event) error {
	_, span := trace.StartSpan(ctx, "GadgetDB.SaveEvent")
	defer span.End()

	if ev == nil {
		return errors.New("cannot save nil event")
	}
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return errors.Wrap(err, "could not marshal event data")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(eventsBucket)
		seq, err := bkt.NextSequence()
		if err != nil {
			return err
		}
		enc, err := json.Marshal(&EventRecord{Seq: seq, Type: ev.Type.String(), Data: data})
		if err != nil {
			return err
		}
		return bkt.Put(seqKey(seq), snappy.Encode(nil, enc))
	})
}

// Events returns up to limit of the most recent events, oldest first. A
// limit of zero returns every event.
func (s *Store) Events(ctx context.Context, limit int) ([]*EventRecord, error) {
	_, span := trace.StartSpan(ctx, "GadgetDB.Events")
	defer span.End()

	var records []*EventRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(eventsBucket).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(records) == limit {
				break
			}
			raw, err := snappy.Decode(nil, v)
			if err != nil {
				return errors.Wrapf(err, "could not snappy decode event %d", keySeq(k))
			}
			rec := &EventRecord{}
			if err := json.Unmarshal(raw, rec); err != nil {
				return errors.Wrapf(err, "could not unmarshal event %d", keySeq(k))
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}
