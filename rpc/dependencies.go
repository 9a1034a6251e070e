// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"

	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/holiman/uint256"

	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/fees"
	"github.com/ava-labs/hyperamm/pool"
	"github.com/ava-labs/hyperamm/pricing"
	"github.com/ava-labs/hyperamm/router"
	"github.com/ava-labs/hyperamm/state"
	"github.com/ava-labs/hyperamm/token"
	"github.com/ava-labs/hyperamm/vm"
)

var (
	_ VM            = (*vm.VM)(nil)
	_ Querier       = (*pool.Querier)(nil)
	_ router.Quoter = (*pool.Querier)(nil)
)

type VM interface {
	Logger() logging.Logger
	Tracer() trace.Tracer
	State() state.Immutable
	Balance(ctx context.Context, tok codec.Address, owner codec.Address) (*uint256.Int, error)
	TotalSupply(ctx context.Context, tok codec.Address) (*uint256.Int, error)
}

// Querier is the read-only view of the pools served over JSON-RPC.
type Querier interface {
	router.Quoter

	ExpectedSpend(
		ctx context.Context,
		addr codec.Address,
		amountOut *uint256.Int,
		tokenIn codec.Address,
		tokenOut codec.Address,
	) (*pricing.ExchangeResult, error)
	ExpectedDeposit(ctx context.Context, addr codec.Address, assets []token.Amount, autoChange bool) (*pricing.DepositResult, error)
	ExpectedWithdraw(ctx context.Context, addr codec.Address, lp *uint256.Int) (*pricing.WithdrawResult, error)
	ExpectedWithdrawOne(
		ctx context.Context,
		addr codec.Address,
		lp *uint256.Int,
		tokenOut codec.Address,
	) (*pricing.WithdrawResult, error)
	Balances(ctx context.Context, addr codec.Address) (*pool.Balances, error)
	AccumulatedFees(ctx context.Context, addr codec.Address) (map[codec.Address]fees.Accumulated, error)
	FeeParams(ctx context.Context, addr codec.Address) (*fees.Params, error)
	Details(ctx context.Context, addr codec.Address) (*pool.Details, error)
}
