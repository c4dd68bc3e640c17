package checkpoint

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/require"
)

var (
	authority   = common.HexToAddress("0xa0")
	dispatcher  = common.HexToAddress("0xd1")
	originChain = common.HexToAddress("0x0001")
	auxChain    = common.HexToAddress("0x0002")
	genesisHash = common.HexToHash("0x6e")
)

// encodeHeader returns an RLP encoded header and its hash. fork makes
// otherwise identical headers distinct.
func encodeHeader(t testing.TB, parent common.Hash, height uint64, fork byte) ([]byte, common.Hash) {
	h := &types.Header{
		ParentHash: parent,
		Number:     new(big.Int).SetUint64(height),
		Difficulty: big.NewInt(1),
		GasUsed:    height * 100,
		TxHash:     common.BytesToHash([]byte{byte(height), fork}),
		Extra:      []byte{fork},
	}
	enc, err := rlp.EncodeToBytes(h)
	require.NoError(t, err)
	return enc, h.Hash()
}

func newOriginStore(t testing.TB) *Store {
	s, err := New(&Config{
		ChainID:     originChain,
		EpochLength: 10,
		Kind:        Origin,
		Genesis:     Genesis{Hash: genesisHash},
		Authority:   authority,
	})
	require.NoError(t, err)
	require.NoError(t, s.SetDispatcher(authority, dispatcher))
	return s
}

// report reports a header at height on top of parent and returns its hash.
func report(t testing.TB, s *Store, parent common.Hash, height uint64, fork byte) common.Hash {
	enc, hash := encodeHeader(t, parent, height, fork)
	_, err := s.ReportBlock(enc)
	require.NoError(t, err)
	return hash
}

// reportChain reports epoch boundary blocks up to maxHeight on top of
// genesis and returns their hashes keyed by height.
func reportChain(t testing.TB, s *Store, maxHeight uint64, fork byte) map[uint64]common.Hash {
	hashes := map[uint64]common.Hash{0: genesisHash}
	parent := genesisHash
	for h := s.EpochLength(); h <= maxHeight; h += s.EpochLength() {
		parent = report(t, s, parent, h, fork)
		hashes[h] = parent
	}
	return hashes
}
