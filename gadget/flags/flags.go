// Package flags defines the command line flags of the gadget node.
package flags

import (
	"github.com/urfave/cli/v2"
)

var (
	// GenesisConfigFlag points to the YAML genesis configuration. The devnet
	// configuration is used when it is not set.
	GenesisConfigFlag = &cli.StringFlag{
		Name:  "genesis-config",
		Usage: "Path to a YAML file describing both chains and the genesis validator set",
	}
	// RPCHost defines the host on which the HTTP API listens.
	RPCHost = &cli.StringFlag{
		Name:  "rpc-host",
		Usage: "Host on which the HTTP API listens",
		Value: "127.0.0.1",
	}
	// RPCPort defines the port on which the HTTP API listens.
	RPCPort = &cli.IntFlag{
		Name:  "rpc-port",
		Usage: "Port on which the HTTP API listens",
		Value: 4100,
	}
	// RPCCorsDomain is a comma separated list of origins allowed to call the
	// HTTP API from a browser.
	RPCCorsDomain = &cli.StringFlag{
		Name:  "rpc-cors-domain",
		Usage: "Comma separated list of domains from which to accept cross origin requests",
		Value: "http://localhost:4242,http://127.0.0.1:4242",
	}
	// DisableJournalFlag runs the ledger purely in memory.
	DisableJournalFlag = &cli.BoolFlag{
		Name:  "disable-journal",
		Usage: "Do not persist operations and do not replay them on startup",
	}
)
