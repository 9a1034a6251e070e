// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package testvm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/hyperamm/token"
	"github.com/ava-labs/hyperamm/vm"
)

func TestEnvTransfer(t *testing.T) {
	require := require.New(t)
	env := New(t, 10)
	foo := env.Token("FOO", 6)
	from, to := User(), User()
	env.Fund(vm.NativeToken, from, 1_000)
	env.Fund(foo, from, 50)
	require.Equal(uint64(50), env.Supply(foo).Uint64())
	env.Start()

	env.Send(from, to, 100, nil, nil)
	require.Equal(uint64(900), env.Balance(vm.NativeToken, from).Uint64())
	// the delivery fee is taken from the value
	require.Equal(uint64(90), env.Balance(vm.NativeToken, to).Uint64())

	env.Send(from, to, 10, []token.Amount{Amount(foo, 20)}, nil)
	require.Equal(uint64(30), env.Balance(foo, from).Uint64())
	require.Equal(uint64(20), env.Balance(foo, to).Uint64())
	require.Equal(uint64(90), env.Balance(vm.NativeToken, to).Uint64())
	require.Equal(uint64(50), env.Supply(foo).Uint64())
}
