package kv

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	bolt "go.etcd.io/bbolt"
	"go.opencensus.io/trace"
)

// SaveGenesisDigest records the digest of the genesis config the journal
// was written under.
func (s *Store) SaveGenesisDigest(ctx context.Context, digest common.Hash) error {
	_, span := trace.StartSpan(ctx, "GadgetDB.SaveGenesisDigest")
	defer span.End()

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(metadataBucket).Put(genesisDigestKey, digest.Bytes())
	})
}

// GenesisDigest returns the recorded genesis digest, if any.
func (s *Store) GenesisDigest(ctx context.Context) (common.Hash, bool, error) {
	_, span := trace.StartSpan(ctx, "GadgetDB.GenesisDigest")
	defer span.End()

	var digest common.Hash
	var ok bool
	err := s.db.View(func(tx *bolt.Tx) error {
		enc := tx.Bucket(metadataBucket).Get(genesisDigestKey)
		if enc == nil {
			return nil
		}
		digest = common.BytesToHash(enc)
		ok = true
		return nil
	})
	return digest, ok, err
}
