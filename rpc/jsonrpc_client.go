// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"strings"

	avarpc "github.com/ava-labs/avalanchego/utils/rpc"
	"github.com/holiman/uint256"

	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/fees"
	"github.com/ava-labs/hyperamm/pool"
	"github.com/ava-labs/hyperamm/pricing"
	"github.com/ava-labs/hyperamm/token"
)

type JSONRPCClient struct {
	requester avarpc.EndpointRequester
}

// NewJSONRPCClient talks to the node serving at [uri].
func NewJSONRPCClient(uri string) *JSONRPCClient {
	uri = strings.TrimSuffix(uri, "/")
	uri += JSONRPCEndpoint
	return &JSONRPCClient{requester: avarpc.NewEndpointRequester(uri)}
}

func (cli *JSONRPCClient) send(ctx context.Context, method string, args any, reply any) error {
	return cli.requester.SendRequest(ctx, Name+"."+method, args, reply)
}

func (cli *JSONRPCClient) Ping(ctx context.Context) (bool, error) {
	resp := new(PingReply)
	err := cli.send(ctx, "ping", nil, resp)
	return resp.Success, err
}

func (cli *JSONRPCClient) Pools(ctx context.Context) ([]codec.Address, error) {
	resp := new(PoolsReply)
	err := cli.send(ctx, "pools", nil, resp)
	return resp.Pools, err
}

func (cli *JSONRPCClient) Token(ctx context.Context, tok codec.Address) (*token.Info, *uint256.Int, error) {
	resp := new(TokenReply)
	err := cli.send(ctx, "token", &TokenArgs{Token: tok}, resp)
	return resp.Info, resp.TotalSupply, err
}

func (cli *JSONRPCClient) Balance(ctx context.Context, tok codec.Address, owner codec.Address) (*uint256.Int, error) {
	resp := new(BalanceReply)
	err := cli.send(ctx, "balance", &BalanceArgs{Token: tok, Owner: owner}, resp)
	return resp.Amount, err
}

func (cli *JSONRPCClient) Details(ctx context.Context, addr codec.Address) (*pool.Details, error) {
	resp := new(DetailsReply)
	err := cli.send(ctx, "details", &PoolArgs{Pool: addr}, resp)
	return resp.Details, err
}

func (cli *JSONRPCClient) Tokens(ctx context.Context, addr codec.Address) ([]codec.Address, error) {
	resp := new(TokensReply)
	err := cli.send(ctx, "tokens", &PoolArgs{Pool: addr}, resp)
	return resp.Tokens, err
}

func (cli *JSONRPCClient) Balances(ctx context.Context, addr codec.Address) (*pool.Balances, error) {
	resp := new(BalancesReply)
	err := cli.send(ctx, "balances", &PoolArgs{Pool: addr}, resp)
	return resp.Balances, err
}

func (cli *JSONRPCClient) AccumulatedFees(ctx context.Context, addr codec.Address) (map[codec.Address]fees.Accumulated, error) {
	resp := new(AccumulatedFeesReply)
	err := cli.send(ctx, "accumulatedFees", &PoolArgs{Pool: addr}, resp)
	return resp.Fees, err
}

func (cli *JSONRPCClient) FeeParams(ctx context.Context, addr codec.Address) (*fees.Params, error) {
	resp := new(FeeParamsReply)
	err := cli.send(ctx, "feeParams", &PoolArgs{Pool: addr}, resp)
	return resp.Params, err
}

func (cli *JSONRPCClient) ExpectedExchange(
	ctx context.Context,
	addr codec.Address,
	amount *uint256.Int,
	tokenIn codec.Address,
	tokenOut codec.Address,
) (*pricing.ExchangeResult, error) {
	resp := new(ExchangeReply)
	err := cli.send(ctx, "expectedExchange", &ExchangeArgs{
		Pool:     addr,
		Amount:   amount,
		TokenIn:  tokenIn,
		TokenOut: tokenOut,
	}, resp)
	return resp.Result, err
}

func (cli *JSONRPCClient) ExpectedSpend(
	ctx context.Context,
	addr codec.Address,
	amountOut *uint256.Int,
	tokenIn codec.Address,
	tokenOut codec.Address,
) (*pricing.ExchangeResult, error) {
	resp := new(ExchangeReply)
	err := cli.send(ctx, "expectedSpend", &ExchangeArgs{
		Pool:     addr,
		Amount:   amountOut,
		TokenIn:  tokenIn,
		TokenOut: tokenOut,
	}, resp)
	return resp.Result, err
}

func (cli *JSONRPCClient) ExpectedDeposit(
	ctx context.Context,
	addr codec.Address,
	assets []token.Amount,
	autoChange bool,
) (*pricing.DepositResult, error) {
	resp := new(DepositReply)
	err := cli.send(ctx, "expectedDeposit", &DepositArgs{
		Pool:       addr,
		Assets:     assets,
		AutoChange: autoChange,
	}, resp)
	return resp.Result, err
}

func (cli *JSONRPCClient) ExpectedWithdraw(ctx context.Context, addr codec.Address, lp *uint256.Int) (*pricing.WithdrawResult, error) {
	resp := new(WithdrawReply)
	err := cli.send(ctx, "expectedWithdraw", &WithdrawArgs{Pool: addr, LP: lp}, resp)
	return resp.Result, err
}

func (cli *JSONRPCClient) ExpectedWithdrawOne(
	ctx context.Context,
	addr codec.Address,
	lp *uint256.Int,
	tokenOut codec.Address,
) (*pricing.WithdrawResult, error) {
	resp := new(WithdrawReply)
	err := cli.send(ctx, "expectedWithdraw", &WithdrawArgs{Pool: addr, LP: lp, TokenOut: tokenOut}, resp)
	return resp.Result, err
}

func (cli *JSONRPCClient) BuildSwapPayload(ctx context.Context, args *SwapPayloadArgs) ([]byte, error) {
	resp := new(PayloadReply)
	err := cli.send(ctx, "buildSwapPayload", args, resp)
	return resp.Payload, err
}

func (cli *JSONRPCClient) BuildDepositPayload(ctx context.Context, args *DepositPayloadArgs) ([]byte, error) {
	resp := new(PayloadReply)
	err := cli.send(ctx, "buildDepositPayload", args, resp)
	return resp.Payload, err
}

func (cli *JSONRPCClient) BuildWithdrawPayload(ctx context.Context, args *WithdrawPayloadArgs) ([]byte, error) {
	resp := new(PayloadReply)
	err := cli.send(ctx, "buildWithdrawPayload", args, resp)
	return resp.Payload, err
}

func (cli *JSONRPCClient) BuildRoute(ctx context.Context, args *RouteArgs) (*RouteReply, error) {
	resp := new(RouteReply)
	err := cli.send(ctx, "buildRoute", args, resp)
	return resp, err
}
