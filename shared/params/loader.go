package params

import (
	"io/ioutil"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// LoadGenesisConfigFile reads, parses and validates a genesis config file.
func LoadGenesisConfigFile(path string) (*GenesisConfig, error) {
	yamlFile, err := ioutil.ReadFile(path) // #nosec G304
	if err != nil {
		return nil, errors.Wrap(err, "could not read genesis config file")
	}
	return UnmarshalGenesisConfig(yamlFile)
}

// UnmarshalGenesisConfig parses a YAML genesis config. Unknown keys are
// rejected.
func UnmarshalGenesisConfig(enc []byte) (*GenesisConfig, error) {
	conf := &GenesisConfig{}
	if err := yaml.UnmarshalStrict(enc, conf); err != nil {
		return nil, errors.Wrap(err, "could not parse genesis config yaml")
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	log.Debugf("Genesis config values: %+v", conf)
	return conf, nil
}

// Validate checks the struct tags of the config and the rules that span
// several fields.
func (c *GenesisConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid genesis config")
	}
	if c.Origin.ID() == c.Auxiliary.ID() {
		return errors.New("origin and auxiliary chains must have distinct ids")
	}
	if c.Origin.GenesisHeight%c.Origin.EpochLength != 0 {
		return errors.New("origin genesis height must be a multiple of its epoch length")
	}
	if c.Auxiliary.GenesisHeight%c.Auxiliary.EpochLength != 0 {
		return errors.New("auxiliary genesis height must be a multiple of its epoch length")
	}
	if _, err := c.MinimumWeightValue(); err != nil {
		return err
	}
	_, _, _, err := c.GenesisValidators()
	return err
}
