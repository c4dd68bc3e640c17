package kv

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/golang/snappy"
	"github.com/pkg/errors"
)

func decode(data []byte, dst interface{}) error {
	data, err := snappy.Decode(nil, data)
	if err != nil {
		return errors.Wrap(err, "could not snappy decode")
	}
	return rlp.DecodeBytes(data, dst)
}

func encode(val interface{}) ([]byte, error) {
	if val == nil {
		return nil, errors.New("cannot encode nil value")
	}
	enc, err := rlp.EncodeToBytes(val)
	if err != nil {
		return nil, err
	}
	return snappy.Encode(nil, enc), nil
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

func keySeq(key []byte) uint64 {
	return binary.BigEndian.Uint64(key)
}
