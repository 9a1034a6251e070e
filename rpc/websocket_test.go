// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/event"
	"github.com/ava-labs/hyperamm/testvm"
	"github.com/ava-labs/hyperamm/token"
	"github.com/ava-labs/hyperamm/vm"
)

func dial(t *testing.T, f *fixture) *WebSocketClient {
	cli, err := NewWebSocketClient(f.uri)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cli.Close() })
	return cli
}

func TestEventStream(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	subscribed := dial(t, f)
	everything := dial(t, f)
	elsewhere := dial(t, f)
	require.NoError(subscribed.Subscribe(f.pool))
	require.NoError(everything.Subscribe())
	require.NoError(elsewhere.Subscribe(testvm.Actor()))
	require.Eventually(func() bool { return f.ws.Listeners() == 3 }, time.Second, time.Millisecond)

	trader := testvm.User()
	f.Fund(vm.NativeToken, trader, 1_000_000)
	f.Fund(f.foo, trader, 100)
	reply, err := f.cli.BuildRoute(ctx, &RouteArgs{
		CallID:   4,
		TokenIn:  f.foo,
		TokenOut: f.bar,
		Amount:   uint256.NewInt(100),
	})
	require.NoError(err)
	f.Send(trader, reply.Pool, reply.Value, []token.Amount{testvm.Amount(f.foo, 100)}, reply.Payload)

	for _, cli := range []*WebSocketClient{subscribed, everything} {
		var e *event.Event
		for e == nil || e.Kind != event.Exchange {
			e, err = cli.ListenForEvent()
			require.NoError(err)
		}
		require.Equal(f.pool, e.Pool)
		require.Equal(uint64(4), e.CallID)
		require.Equal(trader, e.Sender)
		require.Equal(f.bar, e.Out[0].Token)
		require.Equal(uint64(180), e.Out[0].Amount.Uint64())
	}

	// other pools are filtered out
	require.NoError(elsewhere.conn.SetReadDeadline(time.Now().Add(50 * time.Millisecond)))
	_, err = elsewhere.ListenForEvent()
	require.Error(err)

	// queued events are flushed before the close frame
	require.NoError(f.ws.Close())
	for {
		if _, err := subscribed.ListenForEvent(); err != nil {
			break
		}
	}
	require.Zero(f.ws.Listeners())
}

func TestEventStreamIgnoresUnsubscribed(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	cli := dial(t, f)

	// no subscribe message yet
	require.NoError(cli.conn.WriteMessage(websocket.BinaryMessage, []byte{0xff}))
	require.Never(func() bool { return f.ws.Listeners() > 0 }, 50*time.Millisecond, 5*time.Millisecond)

	require.NoError(cli.Subscribe(f.pool))
	require.Eventually(func() bool { return f.ws.Listeners() == 1 }, time.Second, time.Millisecond)
}

func TestEventMessage(t *testing.T) {
	require := require.New(t)
	pool := testvm.Actor()
	tok := testvm.User()
	e := &event.Event{
		Pool:      pool,
		Kind:      event.WithdrawLiquidity,
		CallID:    9,
		Sender:    testvm.User(),
		Recipient: testvm.User(),
		Out:       []token.Amount{testvm.Amount(tok, 5)},
		LP:        uint256.NewInt(3),
		Reason:    "slippage",
	}
	b, err := PackEventMessage(e)
	require.NoError(err)
	require.Equal(EventMode, b[0])
	got, err := UnpackEventMessage(b[1:])
	require.NoError(err)
	require.Equal(e, got)

	_, err = UnpackEventMessage(append(b[1:], 0))
	require.ErrorIs(err, codec.ErrTrailingBytes)

	b, err = PackSubscribeMessage([]codec.Address{pool})
	require.NoError(err)
	require.Equal(SubscribeMode, b[0])
	pools, err := UnpackSubscribeMessage(b[1:])
	require.NoError(err)
	require.Equal([]codec.Address{pool}, pools)
}
