package dispatcher

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/casper-gadget/shared/errutil"
)

// SignatureLength is the length of an r || s || v secp256k1 signature.
const SignatureLength = crypto.SignatureLength

var voteTypeHash = crypto.Keccak256Hash([]byte(
	"Vote(address chain,bytes32 transitionHash,bytes32 source,bytes32 target," +
		"uint256 sourceHeight,uint256 targetHeight)",
))

// Vote is a validator's signed statement that Source justifies Target on
// the chain ChainID.
type Vote struct {
	ChainID        common.Address
	TransitionHash common.Hash
	Source         common.Hash
	Target         common.Hash
	SourceHeight   uint64
	TargetHeight   uint64
	Signature      []byte
}

// SigningRoot returns the digest a validator signs.
func (v *Vote) SigningRoot() common.Hash {
	srcHeight := uint256.NewInt(v.SourceHeight).Bytes32()
	tgtHeight := uint256.NewInt(v.TargetHeight).Bytes32()
	return crypto.Keccak256Hash(
		voteTypeHash.Bytes(),
		common.LeftPadBytes(v.ChainID.Bytes(), 32),
		v.TransitionHash.Bytes(),
		v.Source.Bytes(),
		v.Target.Bytes(),
		srcHeight[:],
		tgtHeight[:],
	)
}

// Sign sets the vote signature using key. The recovery id is stored as
// 27 or 28.
func (v *Vote) Sign(key *ecdsa.PrivateKey) error {
	root := v.SigningRoot()
	sig, err := crypto.Sign(root.Bytes(), key)
	if err != nil {
		return errors.Wrap(err, "could not sign vote")
	}
	sig[crypto.RecoveryIDOffset] += 27
	v.Signature = sig
	return nil
}

// Copy returns a deep copy of the vote.
func (v *Vote) Copy() *Vote {
	cp := *v
	cp.Signature = common.CopyBytes(v.Signature)
	return &cp
}

// RecoverSigner returns the address that produced the 65 byte secp256k1
// signature sig over root. Both 0/1 and 27/28 recovery ids are accepted.
func RecoverSigner(root common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != SignatureLength {
		return common.Address{}, errors.Wrapf(ErrInvalidSignature, "length %d", len(sig))
	}
	normalized := common.CopyBytes(sig)
	if normalized[crypto.RecoveryIDOffset] >= 27 {
		normalized[crypto.RecoveryIDOffset] -= 27
	}
	if normalized[crypto.RecoveryIDOffset] > 1 {
		return common.Address{}, errors.Wrapf(ErrInvalidSignature, "recovery id %d", sig[crypto.RecoveryIDOffset])
	}
	pub, err := crypto.SigToPub(root.Bytes(), normalized)
	if err != nil {
		return common.Address{}, errutil.WithKind(ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
