// Package main runs the two-chain finality gadget node. It tracks the
// checkpoints of an origin and an auxiliary chain, counts stake weighted
// votes and justifies and finalizes checkpoints on both.
package main

import (
	"os"

	"github.com/prysmaticlabs/casper-gadget/gadget/flags"
	"github.com/prysmaticlabs/casper-gadget/gadget/node"
	"github.com/prysmaticlabs/casper-gadget/shared/cmd"
	"github.com/prysmaticlabs/casper-gadget/shared/logutil"
	"github.com/prysmaticlabs/casper-gadget/shared/prometheus"
	"github.com/prysmaticlabs/casper-gadget/shared/version"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"go.uber.org/automaxprocs/maxprocs"
)

var log = logrus.WithField("prefix", "main")

var appFlags = []cli.Flag{
	cmd.VerbosityFlag,
	cmd.DataDirFlag,
	cmd.EnableTracingFlag,
	cmd.TracingProcessNameFlag,
	cmd.TracingEndpointFlag,
	cmd.TraceSampleFractionFlag,
	cmd.DisableMonitoringFlag,
	cmd.MonitoringHostFlag,
	cmd.MonitoringPortFlag,
	cmd.LogFileName,
	cmd.LogFormat,
	cmd.ForceClearDB,
	cmd.ConfigFileFlag,
	flags.GenesisConfigFlag,
	flags.RPCHost,
	flags.RPCPort,
	flags.RPCCorsDomain,
	flags.DisableJournalFlag,
}

func init() {
	appFlags = cmd.WrapFlags(appFlags)
}

func startNode(cliCtx *cli.Context) error {
	gadget, err := node.NewGadgetNode(cliCtx)
	if err != nil {
		return err
	}
	gadget.Start()
	return nil
}

func main() {
	app := cli.App{}
	app.Name = "gadget"
	app.Usage = "runs a two-chain Casper FFG finality gadget"
	app.Version = version.Version()
	app.Flags = appFlags
	app.Action = startNode
	app.Before = func(cliCtx *cli.Context) error {
		// Load any flags from file, if specified.
		if err := cmd.LoadFlagsFromConfig(cliCtx, appFlags); err != nil {
			return err
		}

		format := cliCtx.String(cmd.LogFormat.Name)
		if err := logutil.Configure(cliCtx.String(cmd.VerbosityFlag.Name), format); err != nil {
			return err
		}
		logrus.AddHook(prometheus.NewLogrusCollector())

		logFileName := cliCtx.String(cmd.LogFileName.Name)
		if logFileName != "" {
			if err := logutil.ConfigurePersistentLogging(logFileName, format); err != nil {
				log.WithError(err).Error("Failed to configuring logging to disk.")
			}
		}

		if _, err := maxprocs.Set(maxprocs.Logger(log.Debugf)); err != nil {
			log.WithError(err).Warn("Could not set GOMAXPROCS")
		}
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}
