// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/consts"
	"github.com/ava-labs/hyperamm/pricing"
	"github.com/ava-labs/hyperamm/token"
)

func bech32(t *testing.T) (codec.Address, string) {
	addr := codec.CreateAddress(consts.UserAddressID, ids.GenerateTestID())
	s, err := codec.AddressBech32(consts.HRP, addr)
	require.NoError(t, err)
	return addr, s
}

func TestDefaults(t *testing.T) {
	require := require.New(t)
	c, err := New(nil)
	require.NoError(err)
	require.Equal(logging.Info, c.GetLogLevel())
	require.Equal("127.0.0.1:9650", c.GetHTTPAddress())
	require.Equal(uint64(50_000), c.Gas.Swap)
	require.Equal(3, c.Router.MaxHops)
	require.Equal(1024, c.WebSocket.MaxPendingMessages)
	require.False(c.GetTraceConfig().Enabled)
	require.Empty(c.DataDir)
}

func TestJSONOverrides(t *testing.T) {
	require := require.New(t)
	c, err := New([]byte(`{"logLevel":"debug","httpPort":9000,"vm":{"messageFee":5,"mailboxSize":16},"gas":{"swap":7}}`))
	require.NoError(err)
	require.Equal(logging.Debug, c.GetLogLevel())
	require.Equal(uint16(9000), c.HTTPPort)
	require.Equal(uint64(5), c.VM.MessageFee)
	require.Equal(uint64(7), c.Gas.Swap)
	// untouched nested fields keep their defaults
	require.Equal(uint64(100_000), c.Gas.Deposit)

	_, err = New([]byte(`{"logLevel":"loud"}`))
	require.ErrorIs(err, ErrInvalidConfig)
	_, err = New([]byte(`{"router":{"slippageBps":10000,"maxHops":1}}`))
	require.ErrorIs(err, ErrInvalidConfig)
	_, err = New([]byte(`{"webSocket":{"maxPendingMessages":0}}`))
	require.ErrorIs(err, ErrInvalidConfig)
}

func TestLoadYAML(t *testing.T) {
	require := require.New(t)
	minter, minterS := bech32(t)
	admin, adminS := bech32(t)
	ben, benS := bech32(t)
	user, userS := bech32(t)

	doc := fmt.Sprintf(`
logLevel: warn
httpReadTimeout: 3s
genesis:
  minter: %[1]s
  native:
    %[4]s: "100.5"
  tokens:
    - symbol: FOO
      decimals: 6
      allocations:
        %[4]s: "1000"
    - symbol: BAR
      name: Bar Token
      decimals: 9
  pools:
    - kind: pair
      admin: %[2]s
      tokens: [FOO, BAR]
      fees:
        denominator: 1000
        poolNumerator: 3
        beneficiaryNumerator: 2
        referrerNumerator: 1
        beneficiary: %[3]s
        threshold:
          FOO: "0.5"
    - kind: stable
      admin: %[2]s
      tokens: [FOO, BAR]
      amp: 100
      fees:
        denominator: 10000
        poolNumerator: 4
`, minterS, adminS, benS, userS)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(os.WriteFile(path, []byte(doc), 0o600))

	c, err := Load(path)
	require.NoError(err)
	require.Equal(logging.Warn, c.GetLogLevel())
	require.Equal(3*time.Second, c.HTTPReadTimeout)

	g, err := c.Genesis.Parse()
	require.NoError(err)
	require.Equal(minter, g.Minter)
	require.Len(g.Native, 1)
	require.Equal(user, g.Native[0].To)
	require.Equal(uint64(100_500_000_000), g.Native[0].Amount.Uint64())

	require.Len(g.Tokens, 2)
	foo := g.Tokens[0]
	require.Equal(token.Address(minter, "FOO"), foo.Address)
	require.Equal(uint64(1_000_000_000), foo.Allocations[0].Amount.Uint64())
	require.Equal("FOO", foo.Info.Name)
	require.Equal("Bar Token", g.Tokens[1].Info.Name)

	require.Len(g.Pools, 2)
	pair := g.Pools[0]
	require.Equal(pricing.ConstantProductID, pair.Kind)
	require.Equal(admin, pair.Admin)
	require.Equal(ben, pair.Fees.Beneficiary)
	require.Equal(uint64(500_000), pair.Fees.Threshold[foo.Address].Uint64())
	stable := g.Pools[1]
	require.Equal([]uint8{6, 9}, stable.Decimals)
	require.NotEqual(pair.Address(), stable.Address())
}

func TestGenesisErrors(t *testing.T) {
	_, minter := bech32(t)
	_, admin := bech32(t)
	fees := Fees{Denominator: 1000, PoolNumerator: 3}
	tests := []struct {
		name    string
		genesis Genesis
		err     error
	}{
		{
			name:    "bad minter",
			genesis: Genesis{Minter: "nope", Tokens: []Token{{Symbol: "FOO"}}},
			err:     ErrInvalidAddress,
		},
		{
			name: "duplicate symbol",
			genesis: Genesis{
				Minter: minter,
				Tokens: []Token{{Symbol: "FOO"}, {Symbol: "FOO"}},
			},
			err: ErrDuplicateSymbol,
		},
		{
			name: "unknown symbol",
			genesis: Genesis{
				Minter: minter,
				Tokens: []Token{{Symbol: "FOO"}},
				Pools:  []Pool{{Kind: "pair", Admin: admin, Tokens: []string{"FOO", "BAR"}, Fees: fees}},
			},
			err: ErrUnknownSymbol,
		},
		{
			name: "unknown kind",
			genesis: Genesis{
				Minter: minter,
				Tokens: []Token{{Symbol: "FOO"}, {Symbol: "BAR"}},
				Pools:  []Pool{{Kind: "weighted", Admin: admin, Tokens: []string{"FOO", "BAR"}, Fees: fees}},
			},
			err: pricing.ErrUnknownModel,
		},
		{
			name: "bad amount",
			genesis: Genesis{
				Minter: minter,
				Tokens: []Token{{Symbol: "FOO", Allocations: map[string]string{minter: "1.5"}}},
			},
			err: ErrInvalidAmount,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.genesis.Parse()
			require.ErrorIs(t, err, tt.err)
		})
	}
}
