// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package testvm boots an in-memory vm for tests.
package testvm

import (
	"context"
	"testing"
	"time"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/consts"
	"github.com/ava-labs/hyperamm/event"
	"github.com/ava-labs/hyperamm/state"
	"github.com/ava-labs/hyperamm/token"
	"github.com/ava-labs/hyperamm/trace"
	"github.com/ava-labs/hyperamm/vm"
)

const (
	settleTimeout = 5 * time.Second
	recorderSize  = 1024
)

type Env struct {
	t        *testing.T
	VM       *vm.VM
	Recorder *event.Recorder

	// Minter owns every token created with [Env.Token].
	Minter codec.Address
}

// New returns an environment whose vm charges [fee] per delivery.
func New(t *testing.T, fee uint64) *Env {
	cfg := vm.NewDefaultConfig()
	cfg.MessageFee = fee
	v, err := vm.New(logging.NoLog{}, trace.Noop(), state.NewDatabase(memdb.New()), cfg)
	require.NoError(t, err)
	recorder, err := event.NewRecorder(recorderSize)
	require.NoError(t, err)
	require.NoError(t, v.Subscribe(recorder))
	return &Env{
		t:        t,
		VM:       v,
		Recorder: recorder,
		Minter:   User(),
	}
}

// User returns a fresh user address.
func User() codec.Address {
	return codec.CreateAddress(consts.UserAddressID, ids.GenerateTestID())
}

// Actor returns a fresh address no actor is registered at.
func Actor() codec.Address {
	return codec.CreateAddress(consts.PoolAddressID, ids.GenerateTestID())
}

// Token creates a token owned by [Env.Minter].
func (e *Env) Token(symbol string, decimals uint8) codec.Address {
	tok := token.Address(e.Minter, symbol)
	require.NoError(e.t, e.VM.CreateToken(context.Background(), tok, &token.Info{
		Name:     symbol,
		Symbol:   symbol,
		Decimals: decimals,
		Owner:    e.Minter,
	}))
	return tok
}

func (e *Env) Fund(tok, to codec.Address, amount uint64) {
	require.NoError(e.t, e.VM.Allocate(context.Background(), tok, to, uint256.NewInt(amount)))
}

// Start runs the vm until the test ends.
func (e *Env) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.VM.Run(ctx) }()
	e.t.Cleanup(func() {
		cancel()
		require.NoError(e.t, <-done)
	})
}

// Send submits a message and waits for every resulting message to be
// handled.
func (e *Env) Send(from, to codec.Address, value uint64, assets []token.Amount, payload []byte) {
	require.NoError(e.t, e.VM.Send(context.Background(), &vm.Message{
		From:    from,
		To:      to,
		Value:   value,
		Assets:  assets,
		Payload: payload,
	}))
	e.Settle()
}

func (e *Env) Settle() {
	ctx, cancel := context.WithTimeout(context.Background(), settleTimeout)
	defer cancel()
	require.NoError(e.t, e.VM.Settle(ctx))
}

func (e *Env) Balance(tok, owner codec.Address) *uint256.Int {
	b, err := e.VM.Balance(context.Background(), tok, owner)
	require.NoError(e.t, err)
	return b
}

func (e *Env) Supply(tok codec.Address) *uint256.Int {
	s, err := e.VM.TotalSupply(context.Background(), tok)
	require.NoError(e.t, err)
	return s
}

// Amount is shorthand for a single asset.
func Amount(tok codec.Address, amount uint64) token.Amount {
	return token.Amount{Token: tok, Amount: uint256.NewInt(amount)}
}
