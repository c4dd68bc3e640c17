package params

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

const testConfig = `CONFIG_NAME: test
AUTHORITY: "0x00000000000000000000000000000000000000a0"
DISPATCHER: "0x00000000000000000000000000000000000000d1"
MINIMUM_WEIGHT: "10"
ORIGIN:
  CHAIN_ID: "0x0000000000000000000000000000000000000001"
  EPOCH_LENGTH: 10
  GENESIS_HASH: "0x0000000000000000000000000000000000000000000000000000000000000aaa"
AUXILIARY:
  CHAIN_ID: "0x0000000000000000000000000000000000000002"
  EPOCH_LENGTH: 5
  GENESIS_HASH: "0x0000000000000000000000000000000000000000000000000000000000000bbb"
  GENESIS_HEIGHT: 15
VALIDATORS:
  - DEPOSITOR: "0x0000000000000000000000000000000000000100"
    VALIDATOR: "0x0000000000000000000000000000000000000101"
    STAKE: "100"
  - DEPOSITOR: "0x0000000000000000000000000000000000000100"
    VALIDATOR: "0x0000000000000000000000000000000000000102"
    STAKE: "115792089237316195423570985008687907853269984665640564039457584007913129639935"
`

func TestLoadGenesisConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte(testConfig), 0600))

	conf, err := LoadGenesisConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "test", conf.ConfigName)
	assert.Equal(t, common.HexToAddress("0xa0"), conf.AuthorityAddress())
	assert.Equal(t, common.HexToAddress("0xd1"), conf.DispatcherAddress())
	assert.Equal(t, common.HexToAddress("0x02"), conf.Auxiliary.ID())
	assert.Equal(t, common.HexToHash("0xbbb"), conf.Auxiliary.Hash())
	assert.Equal(t, uint64(15), conf.Auxiliary.GenesisHeight)

	min, err := conf.MinimumWeightValue()
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(10), min)

	depositors, validators, stakes, err := conf.GenesisValidators()
	require.NoError(t, err)
	require.Len(t, validators, 2)
	assert.Equal(t, common.HexToAddress("0x100"), depositors[1])
	assert.Equal(t, common.HexToAddress("0x101"), validators[0])
	assert.Equal(t, uint256.NewInt(100), stakes[0])
	assert.Equal(t, new(uint256.Int).SetAllOne(), stakes[1])
}

func TestLoadGenesisConfigFile_Missing(t *testing.T) {
	_, err := LoadGenesisConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "could not read genesis config file")
}

func TestUnmarshalGenesisConfig_UnknownKey(t *testing.T) {
	_, err := UnmarshalGenesisConfig([]byte(testConfig + "SLOTS_PER_EPOCH: 32\n"))
	require.ErrorContains(t, err, "could not parse genesis config yaml")
}

func TestDevnetConfigIsValid(t *testing.T) {
	require.NoError(t, DevnetConfig().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *GenesisConfig)
		errMsg string
	}{
		{
			name:   "bad authority",
			mutate: func(c *GenesisConfig) { c.Authority = "0x12" },
			errMsg: "Authority",
		},
		{
			name:   "dispatcher equals authority",
			mutate: func(c *GenesisConfig) { c.Dispatcher = c.Authority },
			errMsg: "Dispatcher",
		},
		{
			name:   "zero epoch length",
			mutate: func(c *GenesisConfig) { c.Origin.EpochLength = 0 },
			errMsg: "EpochLength",
		},
		{
			name:   "short genesis hash",
			mutate: func(c *GenesisConfig) { c.Origin.GenesisHash = "0x01" },
			errMsg: "GenesisHash",
		},
		{
			name:   "no validators",
			mutate: func(c *GenesisConfig) { c.Validators = nil },
			errMsg: "Validators",
		},
		{
			name:   "stake not a number",
			mutate: func(c *GenesisConfig) { c.Validators[0].Stake = "ten" },
			errMsg: "Stake",
		},
		{
			name:   "stake overflows",
			mutate: func(c *GenesisConfig) { c.Validators[0].Stake = "115792089237316195423570985008687907853269984665640564039457584007913129639936" },
			errMsg: "overflows 256 bits",
		},
		{
			name:   "same chain ids",
			mutate: func(c *GenesisConfig) { c.Auxiliary.ChainID = c.Origin.ChainID },
			errMsg: "distinct ids",
		},
		{
			name:   "genesis height off epoch",
			mutate: func(c *GenesisConfig) { c.Auxiliary.GenesisHeight = 3 },
			errMsg: "auxiliary genesis height",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DevnetConfig().Copy()
			tt.mutate(c)
			require.ErrorContains(t, c.Validate(), tt.errMsg)
		})
	}
}

func TestGenesisConfig_YAMLRoundTrip(t *testing.T) {
	enc, err := yaml.Marshal(DevnetConfig())
	require.NoError(t, err)
	conf, err := UnmarshalGenesisConfig(enc)
	require.NoError(t, err)
	assert.Equal(t, DevnetConfig(), conf)
}
