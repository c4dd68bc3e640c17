package ledger

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

var (
	evictTypeHash       = crypto.Keccak256Hash([]byte("Evict(address dispatcher,address validator)"))
	closeHeightTypeHash = crypto.Keccak256Hash([]byte("CloseHeight(address dispatcher,uint256 expectedHeight)"))
)

// EvictionRoot returns the digest the authority signs to evict validator
// through the dispatcher at domain.
func EvictionRoot(domain, validator common.Address) common.Hash {
	return crypto.Keccak256Hash(
		evictTypeHash.Bytes(),
		common.LeftPadBytes(domain.Bytes(), 32),
		common.LeftPadBytes(validator.Bytes(), 32),
	)
}

// CloseHeightRoot returns the digest the authority signs to close the
// registry height expected through the dispatcher at domain.
func CloseHeightRoot(domain common.Address, expected uint64) common.Hash {
	height := uint256.NewInt(expected).Bytes32()
	return crypto.Keccak256Hash(
		closeHeightTypeHash.Bytes(),
		common.LeftPadBytes(domain.Bytes(), 32),
		height[:],
	)
}

// SignAuthorization signs root with key. The recovery id is stored as 27 or
// 28, as in vote signatures.
func SignAuthorization(root common.Hash, key *ecdsa.PrivateKey) ([]byte, error) {
	sig, err := crypto.Sign(root.Bytes(), key)
	if err != nil {
		return nil, errors.Wrap(err, "could not sign authorization")
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// Domain returns the address authority signatures are bound to.
func (l *Ledger) Domain() common.Address {
	return l.dispatcher.Address()
}
