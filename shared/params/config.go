// Package params defines the genesis configuration of the finality gadget
// and the loader that reads it from YAML.
package params

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// GenesisConfig is the configuration the gadget is deployed with. It
// plays the role of the genesis meta-block: it names the two chains, the
// identities allowed to drive the core and the initial validator set.
type GenesisConfig struct {
	ConfigName string `yaml:"CONFIG_NAME" validate:"required"`
	// Authority is the meta-block consumer allowed to close heights and
	// evict validators.
	Authority string `yaml:"AUTHORITY" validate:"required,eth_addr"`
	// Dispatcher is the identity the checkpoint stores accept justifications from.
	Dispatcher    string             `yaml:"DISPATCHER" validate:"required,eth_addr,nefield=Authority"`
	MinimumWeight string             `yaml:"MINIMUM_WEIGHT" validate:"omitempty,number"`
	Origin        ChainConfig        `yaml:"ORIGIN"`
	Auxiliary     ChainConfig        `yaml:"AUXILIARY"`
	Validators    []*ValidatorConfig `yaml:"VALIDATORS" validate:"required,min=1,dive,required"`
}

// ChainConfig describes one of the two tracked chains.
type ChainConfig struct {
	ChainID          string `yaml:"CHAIN_ID" validate:"required,eth_addr"`
	EpochLength      uint64 `yaml:"EPOCH_LENGTH" validate:"required,gt=0"`
	GenesisHash      string `yaml:"GENESIS_HASH" validate:"required,hexadecimal,len=66"`
	GenesisStateRoot string `yaml:"GENESIS_STATE_ROOT" validate:"omitempty,hexadecimal,len=66"`
	GenesisHeight    uint64 `yaml:"GENESIS_HEIGHT"`
}

// ValidatorConfig is a genesis validator.
type ValidatorConfig struct {
	Depositor string `yaml:"DEPOSITOR" validate:"required,eth_addr"`
	Validator string `yaml:"VALIDATOR" validate:"required,eth_addr"`
	Stake     string `yaml:"STAKE" validate:"required,number"`
}

// ID returns the chain identifier.
func (c *ChainConfig) ID() common.Address {
	return common.HexToAddress(c.ChainID)
}

// Hash returns the genesis block hash.
func (c *ChainConfig) Hash() common.Hash {
	return common.HexToHash(c.GenesisHash)
}

// StateRoot returns the genesis state root, zero when unset.
func (c *ChainConfig) StateRoot() common.Hash {
	return common.HexToHash(c.GenesisStateRoot)
}

// AuthorityAddress returns the meta-block consumer identity.
func (c *GenesisConfig) AuthorityAddress() common.Address {
	return common.HexToAddress(c.Authority)
}

// DispatcherAddress returns the dispatcher identity.
func (c *GenesisConfig) DispatcherAddress() common.Address {
	return common.HexToAddress(c.Dispatcher)
}

// MinimumWeightValue returns the minimum genesis weight, zero when unset.
func (c *GenesisConfig) MinimumWeightValue() (*uint256.Int, error) {
	if c.MinimumWeight == "" {
		return new(uint256.Int), nil
	}
	return parseWeight(c.MinimumWeight)
}

// GenesisValidators returns the depositors, validators and stakes in the
// order Initialize expects them.
func (c *GenesisConfig) GenesisValidators() ([]common.Address, []common.Address, []*uint256.Int, error) {
	depositors := make([]common.Address, len(c.Validators))
	validators := make([]common.Address, len(c.Validators))
	stakes := make([]*uint256.Int, len(c.Validators))
	for i, v := range c.Validators {
		stake, err := parseWeight(v.Stake)
		if err != nil {
			return nil, nil, nil, errors.Wrapf(err, "validator %d", i)
		}
		depositors[i] = common.HexToAddress(v.Depositor)
		validators[i] = common.HexToAddress(v.Validator)
		stakes[i] = stake
	}
	return depositors, validators, stakes, nil
}

// Copy returns a deep copy of the config.
func (c *GenesisConfig) Copy() *GenesisConfig {
	cp := *c
	cp.Validators = make([]*ValidatorConfig, len(c.Validators))
	for i, v := range c.Validators {
		vc := *v
		cp.Validators[i] = &vc
	}
	return &cp
}

func parseWeight(s string) (*uint256.Int, error) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok || b.Sign() < 0 {
		return nil, errors.Errorf("invalid weight %q", s)
	}
	w, overflow := uint256.FromBig(b)
	if overflow {
		return nil, errors.Errorf("weight %q overflows 256 bits", s)
	}
	return w, nil
}
