package params

// DevnetConfig returns a single validator configuration for local runs. The
// validator address is derived from the well known key 0x...01.
func DevnetConfig() *GenesisConfig {
	return &GenesisConfig{
		ConfigName: "devnet",
		Authority:  "0x00000000000000000000000000000000000000a0",
		Dispatcher: "0x00000000000000000000000000000000000000d1",
		Origin: ChainConfig{
			ChainID:     "0x0000000000000000000000000000000000000001",
			EpochLength: 10,
			GenesisHash: "0x0000000000000000000000000000000000000000000000000000000000000001",
		},
		Auxiliary: ChainConfig{
			ChainID:     "0x0000000000000000000000000000000000000002",
			EpochLength: 10,
			GenesisHash: "0x0000000000000000000000000000000000000000000000000000000000000002",
		},
		Validators: []*ValidatorConfig{
			{
				Depositor: "0x00000000000000000000000000000000000000de",
				Validator: "0x7e5f4552091a69125d5dfcb7b8c2659029395bdf",
				Stake:     "100",
			},
		},
	}
}
