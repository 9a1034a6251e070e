// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/hyperamm/actions"
	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/fees"
	"github.com/ava-labs/hyperamm/pool"
	"github.com/ava-labs/hyperamm/pricing"
	"github.com/ava-labs/hyperamm/router"
	"github.com/ava-labs/hyperamm/server"
	"github.com/ava-labs/hyperamm/testvm"
	"github.com/ava-labs/hyperamm/token"
	"github.com/ava-labs/hyperamm/vm"
)

const testFee = 10

var testGas = pool.Gas{Swap: 100, Deposit: 200, Withdraw: 200, Call: 50}

type fixture struct {
	*testvm.Env

	cli  *JSONRPCClient
	ws   *WebSocketServer
	uri  string
	pool codec.Address
	foo  codec.Address
	bar  codec.Address
}

// newFixture serves a FOO/BAR pair holding (1000, 2000).
func newFixture(t *testing.T) *fixture {
	require := require.New(t)
	env := testvm.New(t, testFee)
	foo := env.Token("FOO", 9)
	bar := env.Token("BAR", 9)

	_, metrics, err := pool.NewMetrics()
	require.NoError(err)
	p, err := pool.Deploy(context.Background(), env.VM, &pool.Definition{
		Kind:   pricing.ConstantProductID,
		Admin:  testvm.User(),
		Tokens: []codec.Address{foo, bar},
		Fees: &fees.Params{
			Denominator:   1_000,
			PoolNumerator: 6,
		},
	}, testGas, metrics)
	require.NoError(err)
	ws := NewWebSocketServer(env.VM, NewDefaultWebSocketConfig())
	require.NoError(env.VM.Subscribe(ws))
	env.Start()

	provider := testvm.User()
	env.Fund(vm.NativeToken, provider, 1_000_000)
	env.Fund(foo, provider, 1_000)
	env.Fund(bar, provider, 2_000)
	payload, err := actions.BuildDepositPayload(1, false, nil, codec.EmptyAddress, codec.EmptyAddress)
	require.NoError(err)
	env.Send(provider, p.Address(), 1_000, []token.Amount{testvm.Amount(foo, 1_000), testvm.Amount(bar, 2_000)}, payload)

	querier := pool.NewQuerier(env.VM)
	builder, err := router.NewBuilder(querier, router.NewDefaultConfig())
	require.NoError(err)
	service := NewJSONRPCServer(env.VM, querier, builder, []codec.Address{p.Address()}, testGas, testFee)
	handler, err := server.NewHandler(logging.NoLog{}, service, Name)
	require.NoError(err)
	mux := http.NewServeMux()
	mux.Handle(JSONRPCEndpoint, handler)
	mux.Handle(WebSocketEndpoint, ws)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	t.Cleanup(func() { _ = ws.Close() })

	return &fixture{
		Env:  env,
		cli:  NewJSONRPCClient(srv.URL),
		ws:   ws,
		uri:  srv.URL,
		pool: p.Address(),
		foo:  foo,
		bar:  bar,
	}
}

func TestPingAndPools(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	ok, err := f.cli.Ping(ctx)
	require.NoError(err)
	require.True(ok)

	pools, err := f.cli.Pools(ctx)
	require.NoError(err)
	require.Equal([]codec.Address{f.pool}, pools)

	info, supply, err := f.cli.Token(ctx, f.foo)
	require.NoError(err)
	require.Equal("FOO", info.Symbol)
	require.Equal(uint64(1_000), supply.Uint64())

	lpBalance, err := f.cli.Balance(ctx, token.LPAddress(f.pool), f.pool)
	require.NoError(err)
	require.True(lpBalance.IsZero())
}

func TestPoolQueries(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	details, err := f.cli.Details(ctx, f.pool)
	require.NoError(err)
	require.True(details.Active)
	require.Equal(token.LPAddress(f.pool), details.LPToken)

	tokens, err := f.cli.Tokens(ctx, f.pool)
	require.NoError(err)
	require.Equal([]codec.Address{f.foo, f.bar}, tokens)

	b, err := f.cli.Balances(ctx, f.pool)
	require.NoError(err)
	require.Equal(uint64(2_000), b.Reserves[1].Amount.Uint64())
	require.Equal(b.LPSupply, b.LPTotalSupply)

	params, err := f.cli.FeeParams(ctx, f.pool)
	require.NoError(err)
	require.Equal(uint64(6), params.PoolNumerator)

	acc, err := f.cli.AccumulatedFees(ctx, f.pool)
	require.NoError(err)
	require.Empty(acc)

	res, err := f.cli.ExpectedExchange(ctx, f.pool, uint256.NewInt(100), f.foo, f.bar)
	require.NoError(err)
	require.Equal(uint64(180), res.AmountOut.Uint64())

	spend, err := f.cli.ExpectedSpend(ctx, f.pool, uint256.NewInt(180), f.foo, f.bar)
	require.NoError(err)
	require.GreaterOrEqual(spend.AmountOut.Uint64(), uint64(180))

	w, err := f.cli.ExpectedWithdraw(ctx, f.pool, b.LPSupply)
	require.NoError(err)
	require.Equal(uint64(1_000), w.Amounts[0].Uint64())
	require.Equal(uint64(2_000), w.Amounts[1].Uint64())

	d, err := f.cli.ExpectedDeposit(ctx, f.pool, []token.Amount{testvm.Amount(f.foo, 100), testvm.Amount(f.bar, 200)}, false)
	require.NoError(err)
	require.False(d.LP.IsZero())

	_, err = f.cli.Details(ctx, testvm.Actor())
	require.ErrorContains(err, ErrUnknownPool.Error())
	_, err = f.cli.ExpectedExchange(ctx, f.pool, nil, f.foo, f.bar)
	require.ErrorContains(err, ErrMissingAmount.Error())
}

func TestBuildPayloads(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	recipient := testvm.User()

	payload, err := f.cli.BuildSwapPayload(ctx, &SwapPayloadArgs{
		CallID:    7,
		OutToken:  f.bar,
		Expected:  uint256.NewInt(170),
		Recipient: recipient,
	})
	require.NoError(err)
	op, err := actions.Unmarshal(payload)
	require.NoError(err)
	swap, ok := op.(*actions.Swap)
	require.True(ok)
	require.Equal(uint64(7), swap.CallID)
	require.Equal(f.bar, swap.OutToken)
	require.Equal(recipient, swap.Recipient)

	_, err = f.cli.BuildSwapPayload(ctx, &SwapPayloadArgs{CallID: 7})
	require.ErrorContains(err, ErrMissingToken.Error())

	payload, err = f.cli.BuildWithdrawPayload(ctx, &WithdrawPayloadArgs{
		CallID:   8,
		Expected: []*uint256.Int{uint256.NewInt(5)},
		OutToken: f.foo,
	})
	require.NoError(err)
	op, err = actions.Unmarshal(payload)
	require.NoError(err)
	withdraw, ok := op.(*actions.WithdrawLiquidity)
	require.True(ok)
	require.Equal(f.foo, withdraw.OutToken)

	_, err = f.cli.BuildDepositPayload(ctx, &DepositPayloadArgs{CallID: 9, AutoChange: true})
	require.NoError(err)
}

func TestBuildRoute(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	trader := testvm.User()
	f.Fund(vm.NativeToken, trader, 1_000_000)
	f.Fund(f.foo, trader, 100)

	reply, err := f.cli.BuildRoute(ctx, &RouteArgs{
		CallID:   3,
		TokenIn:  f.foo,
		TokenOut: f.bar,
		Amount:   uint256.NewInt(100),
	})
	require.NoError(err)
	require.Equal(f.pool, reply.Pool)
	require.Equal(uint64(180), reply.Route.AmountOut.Uint64())
	// 50 bps below 180
	require.Equal(uint64(179), reply.Route.MinOut.Uint64())
	require.Equal(testGas.Swap+2*testFee, reply.Value)

	f.Send(trader, reply.Pool, reply.Value, []token.Amount{testvm.Amount(f.foo, 100)}, reply.Payload)
	require.Equal(uint64(180), f.Balance(f.bar, trader).Uint64())

	_, err = f.cli.BuildRoute(ctx, &RouteArgs{TokenIn: f.foo, TokenOut: testvm.Actor(), Amount: uint256.NewInt(1)})
	require.ErrorContains(err, router.ErrNoPath.Error())
}
