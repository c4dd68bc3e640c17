package checkpoint

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

var (
	originTransitionTypeHash = crypto.Keccak256Hash([]byte(
		"OriginTransition(address chain,uint256 dynasty,bytes32 blockHash)",
	))
	auxiliaryTransitionTypeHash = crypto.Keccak256Hash([]byte(
		"AuxiliaryTransition(address chain,uint256 dynasty,bytes32 blockHash,uint256 accumulatedGas," +
			"bytes32 accumulatedTransactionRoot,uint256 originDynasty,bytes32 originBlockHash)",
	))
)

// TransitionHashAtBlock returns the digest validators sign over when they
// use the checkpoint at blockHash as a vote source. It binds the chain, the
// dynasty the checkpoint was justified in and the block hash; auxiliary
// stores also bind accumulated metrics and the origin store's head.
func (s *Store) TransitionHashAtBlock(blockHash common.Hash) (common.Hash, error) {
	cp, ok := s.checkpoints[blockHash]
	if !ok {
		return common.Hash{}, errors.Wrapf(ErrUnknownCheckpoint, "block %#x", blockHash)
	}
	chain := common.LeftPadBytes(s.cfg.ChainID.Bytes(), 32)
	dynasty := uint256.NewInt(cp.Dynasty).Bytes32()

	if s.cfg.Kind == Origin {
		return crypto.Keccak256Hash(
			originTransitionTypeHash.Bytes(),
			chain,
			dynasty[:],
			blockHash.Bytes(),
		), nil
	}

	b := s.blocks[blockHash]
	gas := b.AccumulatedGas.Bytes32()
	originHead := s.cfg.Counterpart.Head()
	originDynasty := uint256.NewInt(s.cfg.Counterpart.Dynasty()).Bytes32()
	return crypto.Keccak256Hash(
		auxiliaryTransitionTypeHash.Bytes(),
		chain,
		dynasty[:],
		blockHash.Bytes(),
		gas[:],
		b.AccumulatedTxRoot.Bytes(),
		originDynasty[:],
		originHead.BlockHash.Bytes(),
	), nil
}
