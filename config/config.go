// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ava-labs/avalanchego/utils/logging"
	"gopkg.in/yaml.v2"

	"github.com/ava-labs/hyperamm/consts"
	"github.com/ava-labs/hyperamm/pool"
	"github.com/ava-labs/hyperamm/router"
	"github.com/ava-labs/hyperamm/rpc"
	"github.com/ava-labs/hyperamm/trace"
	"github.com/ava-labs/hyperamm/vm"
)

const (
	defaultLogLevel          = "info"
	defaultLogDisplayLevel   = "info"
	defaultLogMaxSize        = 64 // MB
	defaultLogMaxFiles       = 8
	defaultHTTPHost          = "127.0.0.1"
	defaultHTTPPort          = 9650
	defaultHTTPReadTimeout   = 10 * time.Second
	defaultHTTPWriteTimeout  = 30 * time.Second
	defaultHTTPShutdownDelay = 5 * time.Second
	defaultSettleTimeout     = 10 * time.Second
)

type Config struct {
	// Logging
	LogLevel        string `json:"logLevel"        yaml:"logLevel"`
	LogDisplayLevel string `json:"logDisplayLevel" yaml:"logDisplayLevel"`
	LogDir          string `json:"logDir"          yaml:"logDir"` // empty logs to stdout only
	LogMaxSize      int    `json:"logMaxSize"      yaml:"logMaxSize"`
	LogMaxFiles     int    `json:"logMaxFiles"     yaml:"logMaxFiles"`

	// HTTP
	HTTPHost           string        `json:"httpHost"           yaml:"httpHost"`
	HTTPPort           uint16        `json:"httpPort"           yaml:"httpPort"`
	HTTPReadTimeout    time.Duration `json:"httpReadTimeout"    yaml:"httpReadTimeout"`
	HTTPWriteTimeout   time.Duration `json:"httpWriteTimeout"   yaml:"httpWriteTimeout"`
	HTTPShutdownDelay  time.Duration `json:"httpShutdownDelay"  yaml:"httpShutdownDelay"`
	HTTPAllowedOrigins []string      `json:"httpAllowedOrigins" yaml:"httpAllowedOrigins"`

	// DataDir holds the pebble database. State is kept in memory when it is
	// empty.
	DataDir string `json:"dataDir" yaml:"dataDir"`

	// SettleTimeout bounds how long shutdown waits for messages in flight.
	SettleTimeout time.Duration `json:"settleTimeout" yaml:"settleTimeout"`

	Trace     trace.Config        `json:"trace"     yaml:"trace"`
	VM        vm.Config           `json:"vm"        yaml:"vm"`
	Gas       pool.Gas            `json:"gas"       yaml:"gas"`
	Router    router.Config       `json:"router"    yaml:"router"`
	WebSocket rpc.WebSocketConfig `json:"webSocket" yaml:"webSocket"`

	Genesis Genesis `json:"genesis" yaml:"genesis"`
}

// New parses a JSON config. Fields missing from [b] keep their defaults.
func New(b []byte) (*Config, error) {
	c := &Config{}
	c.setDefault()
	if len(b) > 0 {
		if err := json.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config %s: %w", string(b), err)
		}
	}
	if err := c.Verify(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewYAML is New for YAML documents.
func NewYAML(b []byte) (*Config, error) {
	c := &Config{}
	c.setDefault()
	if len(b) > 0 {
		if err := yaml.UnmarshalStrict(b, c); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}
	if err := c.Verify(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads the config at [path], choosing the format by extension.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return NewYAML(b)
	default:
		return New(b)
	}
}

func (c *Config) setDefault() {
	c.LogLevel = defaultLogLevel
	c.LogDisplayLevel = defaultLogDisplayLevel
	c.LogMaxSize = defaultLogMaxSize
	c.LogMaxFiles = defaultLogMaxFiles
	c.HTTPHost = defaultHTTPHost
	c.HTTPPort = defaultHTTPPort
	c.HTTPReadTimeout = defaultHTTPReadTimeout
	c.HTTPWriteTimeout = defaultHTTPWriteTimeout
	c.HTTPShutdownDelay = defaultHTTPShutdownDelay
	c.HTTPAllowedOrigins = []string{"*"}
	c.SettleTimeout = defaultSettleTimeout
	c.Trace = trace.Config{
		Enabled:         false,
		TraceSampleRate: 1,
		AppName:         consts.Name,
	}
	c.VM = vm.NewDefaultConfig()
	c.Gas = pool.NewDefaultGas()
	c.Router = router.NewDefaultConfig()
	c.WebSocket = rpc.NewDefaultWebSocketConfig()
}

func (c *Config) Verify() error {
	if _, err := logging.ToLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: logLevel: %w", ErrInvalidConfig, err)
	}
	if _, err := logging.ToLevel(c.LogDisplayLevel); err != nil {
		return fmt.Errorf("%w: logDisplayLevel: %w", ErrInvalidConfig, err)
	}
	if c.VM.MailboxSize <= 0 {
		return fmt.Errorf("%w: mailbox size %d", ErrInvalidConfig, c.VM.MailboxSize)
	}
	if c.WebSocket.MaxPendingMessages <= 0 {
		return fmt.Errorf("%w: websocket pending messages %d", ErrInvalidConfig, c.WebSocket.MaxPendingMessages)
	}
	if c.WebSocket.PongWait <= 0 || c.WebSocket.WriteWait <= 0 {
		return fmt.Errorf("%w: websocket timeouts must be positive", ErrInvalidConfig)
	}
	if err := c.Router.Verify(); err != nil {
		return fmt.Errorf("%w: router: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) GetLogLevel() logging.Level {
	l, _ := logging.ToLevel(c.LogLevel)
	return l
}

func (c *Config) GetLogDisplayLevel() logging.Level {
	l, _ := logging.ToLevel(c.LogDisplayLevel)
	return l
}

func (c *Config) GetTraceConfig() *trace.Config {
	tc := c.Trace
	return &tc
}

func (c *Config) GetHTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.HTTPHost, c.HTTPPort)
}
