// Package node wires the ledger, its journal database, the HTTP API and the
// monitoring endpoints into one process and manages their lifecycle.
package node

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"contrib.go.opencensus.io/exporter/jaeger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/casper-gadget/gadget/db/kv"
	"github.com/prysmaticlabs/casper-gadget/gadget/flags"
	"github.com/prysmaticlabs/casper-gadget/gadget/ledger"
	"github.com/prysmaticlabs/casper-gadget/gadget/rpc"
	"github.com/prysmaticlabs/casper-gadget/runtime"
	"github.com/prysmaticlabs/casper-gadget/shared/cmd"
	"github.com/prysmaticlabs/casper-gadget/shared/params"
	"github.com/prysmaticlabs/casper-gadget/shared/prometheus"
	"github.com/prysmaticlabs/casper-gadget/shared/tracing"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v2"
)

// GadgetNode handles the lifecycle of the finality gadget. It owns the
// ledger and registers every service around it.
type GadgetNode struct {
	cliCtx   *cli.Context
	ctx      context.Context
	cancel   context.CancelFunc
	lock     sync.RWMutex
	services *runtime.ServiceRegistry
	stop     chan struct{} // Channel to wait for termination notifications.
	genesis  *params.GenesisConfig
	db       *kv.Store
	ledger   *ledger.Ledger
	exporter *jaeger.Exporter
}

// NewGadgetNode creates a new node instance, restores the ledger from the
// journal and registers every required service.
func NewGadgetNode(cliCtx *cli.Context) (*GadgetNode, error) {
	exporter, err := tracing.Setup(&tracing.Config{
		ServiceName:    cliCtx.String(cmd.TracingProcessNameFlag.Name),
		Endpoint:       cliCtx.String(cmd.TracingEndpointFlag.Name),
		SampleFraction: cliCtx.Float64(cmd.TraceSampleFractionFlag.Name),
		Enable:         cliCtx.Bool(cmd.EnableTracingFlag.Name),
	})
	if err != nil {
		return nil, err
	}
	cmd.ConfigureFromContext(cliCtx)

	parent := cliCtx.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	g := &GadgetNode{
		cliCtx:   cliCtx,
		ctx:      ctx,
		cancel:   cancel,
		services: runtime.NewServiceRegistry(),
		stop:     make(chan struct{}),
		exporter: exporter,
	}

	if err := g.loadGenesis(); err != nil {
		cancel()
		return nil, err
	}
	if err := g.startDB(); err != nil {
		cancel()
		return nil, err
	}
	if err := g.startLedger(); err != nil {
		g.closeDB()
		cancel()
		return nil, err
	}
	if err := g.registerServices(); err != nil {
		g.closeDB()
		cancel()
		return nil, err
	}
	return g, nil
}

// Ledger returns the ledger the node serves.
func (g *GadgetNode) Ledger() *ledger.Ledger {
	return g.ledger
}

// Start the node and kick off every registered service. It blocks until the
// node is closed.
func (g *GadgetNode) Start() {
	g.lock.Lock()
	log.WithFields(logrus.Fields{
		"config":  g.genesis.ConfigName,
		"datadir": cmd.Get().DataDir,
	}).Info("Starting finality gadget node")
	g.services.StartAll()
	g.lock.Unlock()

	stop := g.stop
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigc)
		<-sigc
		log.Info("Got interrupt, shutting down...")
		go g.Close()
		for i := 10; i > 0; i-- {
			<-sigc
			if i > 1 {
				log.WithField("times", i-1).Info("Already shutting down, interrupt more to panic")
			}
		}
		panic("Panic closing the gadget node")
	}()

	// Wait for stop channel to be closed.
	<-stop
}

// Close handles graceful shutdown of the system.
func (g *GadgetNode) Close() {
	g.lock.Lock()
	defer g.lock.Unlock()

	log.Info("Stopping finality gadget node")
	g.services.StopAll()
	g.closeDB()
	if g.exporter != nil {
		g.exporter.Flush()
	}
	g.cancel()
	close(g.stop)
}

func (g *GadgetNode) loadGenesis() error {
	path := g.cliCtx.String(flags.GenesisConfigFlag.Name)
	if path == "" {
		log.Warn("No genesis configuration given, using the devnet configuration")
		g.genesis = params.DevnetConfig()
		return g.genesis.Validate()
	}
	cfg, err := params.LoadGenesisConfigFile(path)
	if err != nil {
		return err
	}
	g.genesis = cfg
	return nil
}

func (g *GadgetNode) startDB() error {
	dataDir := cmd.Get().DataDir
	if dataDir == "" {
		return errors.New("data directory is required")
	}
	d, err := kv.NewKVStore(dataDir)
	if err != nil {
		return errors.Wrap(err, "could not open database")
	}
	if cmd.Get().ForceClearDB {
		log.Warn("Removing database")
		if err := d.ClearDB(); err != nil {
			return errors.Wrap(err, "could not clear database")
		}
		if err := d.Close(); err != nil {
			return errors.Wrap(err, "could not close cleared database")
		}
		d, err = kv.NewKVStore(dataDir)
		if err != nil {
			return errors.Wrap(err, "could not open database")
		}
	}
	g.db = d
	log.WithField("path", d.DatabasePath()).Info("Opened gadget database")

	if err := g.checkGenesisDigest(); err != nil {
		g.closeDB()
		return err
	}
	return nil
}

// checkGenesisDigest binds the database to the genesis configuration it was
// created with.
func (g *GadgetNode) checkGenesisDigest() error {
	want, err := GenesisDigest(g.genesis)
	if err != nil {
		return err
	}
	got, ok, err := g.db.GenesisDigest(g.ctx)
	if err != nil {
		return err
	}
	if !ok {
		return g.db.SaveGenesisDigest(g.ctx, want)
	}
	if got != want {
		return errors.Wrapf(ErrGenesisMismatch, "stored %#x, configured %#x", got, want)
	}
	return nil
}

func (g *GadgetNode) startLedger() error {
	journaled := !g.cliCtx.Bool(flags.DisableJournalFlag.Name)
	cfg := &ledger.Config{Genesis: g.genesis}
	if journaled {
		cfg.Journal = g.db
	}
	l, err := ledger.New(cfg)
	if err != nil {
		return err
	}
	if journaled {
		ops, err := g.db.Operations(g.ctx)
		if err != nil {
			return errors.Wrap(err, "could not read journal")
		}
		if err := l.Replay(g.ctx, ops); err != nil {
			return err
		}
	}
	g.ledger = l
	return nil
}

func (g *GadgetNode) registerServices() error {
	// Subscribed only after replay so restored operations are not logged twice.
	if err := g.services.RegisterService(newEventWriter(g.ctx, g.db, g.ledger.EventFeed())); err != nil {
		return err
	}
	if err := g.services.RegisterService(rpc.NewService(g.ctx, &rpc.Config{
		Host:           g.cliCtx.String(flags.RPCHost.Name),
		Port:           g.cliCtx.Int(flags.RPCPort.Name),
		Backend:        g.ledger,
		Events:         g.db,
		AllowedOrigins: strings.Split(g.cliCtx.String(flags.RPCCorsDomain.Name), ","),
	})); err != nil {
		return err
	}
	if g.cliCtx.Bool(cmd.DisableMonitoringFlag.Name) {
		return nil
	}
	addr := fmt.Sprintf("%s:%d",
		g.cliCtx.String(cmd.MonitoringHostFlag.Name),
		g.cliCtx.Int(cmd.MonitoringPortFlag.Name),
	)
	return g.services.RegisterService(prometheus.NewService(addr, g.services))
}

func (g *GadgetNode) closeDB() {
	if g.db == nil {
		return
	}
	if err := g.db.Close(); err != nil {
		log.WithError(err).Error("Failed to close database")
	}
	g.db = nil
}

// GenesisDigest is the keccak256 hash of the YAML encoding of cfg.
func GenesisDigest(cfg *params.GenesisConfig) (common.Hash, error) {
	enc, err := yaml.Marshal(cfg)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "could not encode genesis configuration")
	}
	return crypto.Keccak256Hash(enc), nil
}
