// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"os"
	"path/filepath"

	"github.com/ava-labs/avalanchego/utils/logging"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ava-labs/hyperamm/config"
	"github.com/ava-labs/hyperamm/consts"
)

// newLogger writes to stdout at the display level and, when a log directory
// is configured, to a rotated JSON file at the log level.
func newLogger(c *config.Config) logging.Logger {
	consoleCore := logging.NewWrappedCore(c.GetLogDisplayLevel(), os.Stdout, logging.Colors.ConsoleEncoder())
	if len(c.LogDir) == 0 {
		return logging.NewLogger("", consoleCore)
	}
	rw := &lumberjack.Logger{
		Filename:   filepath.Join(c.LogDir, consts.Name+".log"),
		MaxSize:    c.LogMaxSize, // megabytes
		MaxBackups: c.LogMaxFiles,
		Compress:   true,
	}
	fileCore := logging.NewWrappedCore(c.GetLogLevel(), rw, logging.JSON.FileEncoder())
	return logging.NewLogger("", consoleCore, fileCore)
}
