// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/ava-labs/avalanchego/api/metrics"
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/memdb"
	avatrace "github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/config"
	"github.com/ava-labs/hyperamm/pebble"
	"github.com/ava-labs/hyperamm/pool"
	"github.com/ava-labs/hyperamm/router"
	"github.com/ava-labs/hyperamm/rpc"
	"github.com/ava-labs/hyperamm/server"
	"github.com/ava-labs/hyperamm/state"
	"github.com/ava-labs/hyperamm/storage"
	"github.com/ava-labs/hyperamm/token"
	"github.com/ava-labs/hyperamm/trace"
	"github.com/ava-labs/hyperamm/utils"
	"github.com/ava-labs/hyperamm/vm"
)

const (
	baseURL      = "/ext"
	metricsRoute = "metrics"

	vmNamespace   = "vm"
	poolNamespace = "pool"
)

type node struct {
	config *config.Config
	log    logging.Logger
	tracer avatrace.Tracer

	db       database.Database
	vm       *vm.VM
	events   *rpc.WebSocketServer
	pools    []codec.Address
	gatherer metrics.MultiGatherer
}

func newNode(c *config.Config, log logging.Logger) (*node, error) {
	n := &node{config: c, log: log, gatherer: metrics.NewPrefixGatherer()}

	tracer, err := trace.New(c.GetTraceConfig())
	if err != nil {
		return nil, err
	}
	n.tracer = tracer

	if len(c.DataDir) > 0 {
		db, err := storage.New(pebble.NewDefaultConfig(), c.DataDir, storage.StateNamespace, n.gatherer)
		if err != nil {
			return nil, err
		}
		n.db = db
		log.Info("opened database", zap.String("path", c.DataDir))
	} else {
		n.db = memdb.New()
		log.Info("keeping state in memory")
	}

	n.vm, err = vm.New(log, tracer, state.NewDatabase(n.db), c.VM)
	if err != nil {
		return nil, err
	}
	if err := n.gatherer.Register(vmNamespace, n.vm.Registry()); err != nil {
		return nil, err
	}
	n.events = rpc.NewWebSocketServer(n.vm, c.WebSocket)
	if err := n.vm.Subscribe(n.events); err != nil {
		return nil, err
	}
	return n, nil
}

// applyGenesis creates missing tokens with their allocations and deploys
// every pool. Pools already in the database are loaded as they are.
func (n *node) applyGenesis(ctx context.Context) error {
	g, err := n.config.Genesis.Parse()
	if err != nil {
		return err
	}
	nativeSupply, err := n.vm.TotalSupply(ctx, vm.NativeToken)
	if err != nil {
		return err
	}
	if nativeSupply.IsZero() {
		for _, a := range g.Native {
			if err := n.vm.Allocate(ctx, vm.NativeToken, a.To, a.Amount); err != nil {
				return err
			}
		}
	}
	for _, t := range g.Tokens {
		exists, err := token.Exists(ctx, n.vm.State(), t.Address)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if err := n.vm.CreateToken(ctx, t.Address, t.Info); err != nil {
			return err
		}
		for _, a := range t.Allocations {
			if err := n.vm.Allocate(ctx, t.Address, a.To, a.Amount); err != nil {
				return err
			}
		}
		n.log.Info("created token",
			zap.String("symbol", t.Info.Symbol),
			zap.Stringer("address", t.Address),
		)
	}

	registry, poolMetrics, err := pool.NewMetrics()
	if err != nil {
		return err
	}
	if err := n.gatherer.Register(poolNamespace, registry); err != nil {
		return err
	}
	for _, def := range g.Pools {
		p, err := pool.Deploy(ctx, n.vm, def, n.config.Gas, poolMetrics)
		if err != nil {
			return err
		}
		n.pools = append(n.pools, p.Address())
	}
	return nil
}

func (n *node) newServer() (server.Server, error) {
	listener, err := net.Listen("tcp", n.config.GetHTTPAddress())
	if err != nil {
		return nil, err
	}
	srv := server.New(
		baseURL,
		n.log,
		listener,
		server.HTTPConfig{
			ReadTimeout:       n.config.HTTPReadTimeout,
			ReadHeaderTimeout: n.config.HTTPReadTimeout,
			WriteTimeout:      n.config.HTTPWriteTimeout,
		},
		n.config.HTTPAllowedOrigins,
		n.config.HTTPShutdownDelay,
	)

	querier := pool.NewQuerier(n.vm)
	builder, err := router.NewBuilder(querier, n.config.Router)
	if err != nil {
		return nil, err
	}
	service := rpc.NewJSONRPCServer(n.vm, querier, builder, n.pools, n.config.Gas, n.config.VM.MessageFee)
	handler, err := server.NewHandler(n.log, service, rpc.Name)
	if err != nil {
		return nil, err
	}
	if err := srv.AddRoute(handler, rpc.Name, ""); err != nil {
		return nil, err
	}
	if err := srv.AddRoute(n.events, rpc.Name, rpc.WebSocketPath); err != nil {
		return nil, err
	}
	metricsHandler := promhttp.HandlerFor(n.gatherer, promhttp.HandlerOpts{})
	if err := srv.AddRoute(metricsHandler, metricsRoute, ""); err != nil {
		return nil, err
	}
	return srv, nil
}

// run serves until SIGINT or SIGTERM. Messages in flight are settled before
// the vm stops.
func (n *node) run(srv server.Server) error {
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	vmCtx, cancelVM := context.WithCancel(context.Background())
	defer cancelVM()

	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		return n.vm.Run(vmCtx)
	})
	g.Go(srv.Dispatch)
	g.Go(func() error {
		<-gctx.Done()
		n.log.Info("shutting down", zap.Int64("inFlight", n.vm.InFlight()))
		settleCtx, cancel := context.WithTimeout(context.Background(), n.config.SettleTimeout)
		if err := n.vm.Settle(settleCtx); err != nil {
			n.log.Warn("messages left in flight", zap.Error(err))
		}
		cancel()
		cancelVM()
		// hijacked connections outlive the http server
		_ = n.events.Close()
		return srv.Shutdown()
	})
	utils.Outf("{{green}}serving{{/}} %d pools at http://%s%s\n", len(n.pools), n.config.GetHTTPAddress(), rpc.JSONRPCEndpoint)
	return g.Wait()
}

func (n *node) close() error {
	return errors.Join(n.tracer.Close(), n.db.Close())
}
