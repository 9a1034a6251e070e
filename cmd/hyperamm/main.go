// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// hyperamm boots the pools of a genesis and serves them over JSON-RPC.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/akamensky/argparse"
	"github.com/ava-labs/avalanchego/utils/logging"
	"go.uber.org/zap"

	"github.com/ava-labs/hyperamm/config"
	"github.com/ava-labs/hyperamm/consts"
	"github.com/ava-labs/hyperamm/utils"
)

func main() {
	parser := argparse.NewParser(consts.Name, "AMM pools as actors")
	configPath := parser.String("c", "config", &argparse.Options{
		Help: "path to a .json, .yaml or .yml config",
	})
	dataDir := parser.String("d", "data-dir", &argparse.Options{
		Help: "pebble directory, overrides the config",
	})
	logLevel := parser.String("l", "log-level", &argparse.Options{
		Help: "log level, overrides the config",
	})
	if err := parser.Parse(os.Args); err != nil {
		fmt.Fprint(os.Stderr, parser.Usage(err))
		os.Exit(2)
	}

	c, err := loadConfig(*configPath, *dataDir, *logLevel)
	if err != nil {
		utils.Outf("{{red}}invalid config:{{/}} %v\n", err)
		os.Exit(1)
	}
	log := newLogger(c)
	err = run(c, log)
	if err != nil {
		log.Error("exited", zap.Error(err))
	}
	log.Stop()
	if err != nil {
		os.Exit(1)
	}
}

func loadConfig(path, dataDir, logLevel string) (*config.Config, error) {
	var (
		c   *config.Config
		err error
	)
	if len(path) > 0 {
		c, err = config.Load(path)
	} else {
		c, err = config.New(nil)
	}
	if err != nil {
		return nil, err
	}
	if len(dataDir) > 0 {
		c.DataDir = dataDir
	}
	if len(logLevel) > 0 {
		c.LogLevel = logLevel
		c.LogDisplayLevel = logLevel
	}
	return c, c.Verify()
}

func run(c *config.Config, log logging.Logger) error {
	n, err := newNode(c, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := n.close(); err != nil {
			log.Warn("failed to close node", zap.Error(err))
		}
	}()
	if err := n.applyGenesis(context.Background()); err != nil {
		return err
	}
	srv, err := n.newServer()
	if err != nil {
		return err
	}
	return n.run(srv)
}
