package dispatcher

import (
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/prysmaticlabs/casper-gadget/gadget/checkpoint"
	"github.com/prysmaticlabs/casper-gadget/gadget/registry"
	"github.com/stretchr/testify/require"
)

var (
	authority   = common.HexToAddress("0xa0")
	self        = common.HexToAddress("0xd1")
	originChain = common.HexToAddress("0x0001")
	genesisHash = common.HexToHash("0x6e")
)

type notifier struct {
	f *event.Feed
}

func (n *notifier) EventFeed() *event.Feed { return n.f }

// testEnv is a registry, an origin store with epoch length 10 and a
// dispatcher wired together, plus the validator keys in stake order.
type testEnv struct {
	registry *registry.Registry
	store    *checkpoint.Store
	d        *Dispatcher
	keys     []*ecdsa.PrivateKey
}

func setup(t *testing.T, stakes ...uint64) *testEnv {
	return setupWithNotifier(t, nil, stakes...)
}

func setupWithNotifier(t *testing.T, n *notifier, stakes ...uint64) *testEnv {
	env := &testEnv{}
	depositors := make([]common.Address, len(stakes))
	validators := make([]common.Address, len(stakes))
	amounts := make([]*uint256.Int, len(stakes))
	for i, s := range stakes {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		env.keys = append(env.keys, key)
		depositors[i] = common.BigToAddress(big.NewInt(int64(0x100 + i)))
		validators[i] = crypto.PubkeyToAddress(key.PublicKey)
		amounts[i] = uint256.NewInt(s)
	}
	env.registry = registry.New(&registry.Config{Authority: authority})
	require.NoError(t, env.registry.Initialize(depositors, validators, amounts))

	store, err := checkpoint.New(&checkpoint.Config{
		ChainID:     originChain,
		EpochLength: 10,
		Kind:        checkpoint.Origin,
		Genesis:     checkpoint.Genesis{Hash: genesisHash},
		Authority:   authority,
	})
	require.NoError(t, err)
	require.NoError(t, store.SetDispatcher(authority, self))
	env.store = store

	cfg := &Config{
		Address: self,
		Weights: env.registry,
		Stores:  []CheckpointStore{store},
	}
	if n != nil {
		cfg.Notifier = n
	}
	env.d, err = New(cfg)
	require.NoError(t, err)
	return env
}

// reportChain reports one block per epoch up to maxHeight and returns their
// hashes keyed by height, genesis included.
func (e *testEnv) reportChain(t *testing.T, maxHeight uint64) map[uint64]common.Hash {
	hashes := map[uint64]common.Hash{0: genesisHash}
	parent := genesisHash
	for h := uint64(10); h <= maxHeight; h += 10 {
		hdr := &types.Header{
			ParentHash: parent,
			Number:     new(big.Int).SetUint64(h),
			Difficulty: big.NewInt(1),
			GasUsed:    h,
		}
		enc, err := rlp.EncodeToBytes(hdr)
		require.NoError(t, err)
		_, err = e.store.ReportBlock(enc)
		require.NoError(t, err)
		parent = hdr.Hash()
		hashes[h] = parent
	}
	return hashes
}

// vote builds a vote from source to target with the current transition hash
// and the reported heights, signed by key.
func (e *testEnv) vote(t *testing.T, key *ecdsa.PrivateKey, source, target common.Hash) *Vote {
	th, err := e.store.TransitionHashAtBlock(source)
	require.NoError(t, err)
	src, ok := e.store.Block(source)
	require.True(t, ok)
	tgt, ok := e.store.Block(target)
	require.True(t, ok)
	v := &Vote{
		ChainID:        originChain,
		TransitionHash: th,
		Source:         source,
		Target:         target,
		SourceHeight:   src.Height,
		TargetHeight:   tgt.Height,
	}
	require.NoError(t, v.Sign(key))
	return v
}
