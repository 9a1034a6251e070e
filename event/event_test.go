// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package event

import (
	"context"
	"errors"
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/consts"
)

func TestNotifyAll(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	errFailed := errors.New("failed")

	calls := 0
	ok := SubscriptionFunc[int]{AcceptF: func(context.Context, int) error {
		calls++
		return nil
	}}
	bad := SubscriptionFunc[int]{AcceptF: func(context.Context, int) error {
		return errFailed
	}}
	require.NoError(NotifyAll[int](ctx, 1, ok, ok))
	require.Equal(2, calls)
	require.ErrorIs(NotifyAll[int](ctx, 1, ok, bad), errFailed)
	require.Equal(3, calls)
}

func TestRecorder(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	poolA := codec.CreateAddress(consts.PoolAddressID, ids.GenerateTestID())
	poolB := codec.CreateAddress(consts.PoolAddressID, ids.GenerateTestID())

	r, err := NewRecorder(3)
	require.NoError(err)
	require.NoError(r.Accept(ctx, &Event{Pool: poolA, Kind: Exchange, CallID: 1}))
	require.NoError(r.Accept(ctx, &Event{Pool: poolB, Kind: Exchange, CallID: 2}))
	require.NoError(r.Accept(ctx, &Event{Pool: poolA, Kind: Cancelled, CallID: 3}))
	require.NoError(r.Accept(ctx, &Event{Pool: poolA, Kind: Exchange, CallID: 4}))

	require.Len(r.Events(codec.EmptyAddress), 3)
	require.Len(r.Events(poolA), 2)
	e, ok := r.Last(poolA, Cancelled)
	require.True(ok)
	require.Equal(uint64(3), e.CallID)
	_, ok = r.Last(poolB, Cancelled)
	require.False(ok)
}

func TestKindString(t *testing.T) {
	require := require.New(t)
	require.Equal("exchange", Exchange.String())
	require.Equal("unknown(99)", Kind(99).String())
	b, err := Cancelled.MarshalText()
	require.NoError(err)
	require.Equal("cancelled", string(b))
}
