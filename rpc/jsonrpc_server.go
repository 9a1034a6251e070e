// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ava-labs/avalanchego/utils/math"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/ava-labs/hyperamm/actions"
	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/fees"
	"github.com/ava-labs/hyperamm/pool"
	"github.com/ava-labs/hyperamm/pricing"
	"github.com/ava-labs/hyperamm/router"
	"github.com/ava-labs/hyperamm/token"
)

type JSONRPCServer struct {
	vm      VM
	querier Querier
	builder *router.Builder

	pools      []codec.Address
	gas        pool.Gas
	messageFee uint64
}

// NewJSONRPCServer serves the pools in [pools]. [gas] and [messageFee] are
// used to price the value a built route must carry.
func NewJSONRPCServer(
	vm VM,
	querier Querier,
	builder *router.Builder,
	pools []codec.Address,
	gas pool.Gas,
	messageFee uint64,
) *JSONRPCServer {
	return &JSONRPCServer{
		vm:         vm,
		querier:    querier,
		builder:    builder,
		pools:      slices.Clone(pools),
		gas:        gas,
		messageFee: messageFee,
	}
}

func (j *JSONRPCServer) checkPool(addr codec.Address) error {
	if !slices.Contains(j.pools, addr) {
		return fmt.Errorf("%w: %s", ErrUnknownPool, addr)
	}
	return nil
}

type PingReply struct {
	Success bool `json:"success"`
}

func (j *JSONRPCServer) Ping(_ *http.Request, _ *struct{}, reply *PingReply) error {
	j.vm.Logger().Info("ping")
	reply.Success = true
	return nil
}

type PoolsReply struct {
	Pools []codec.Address `json:"pools"`
}

func (j *JSONRPCServer) Pools(_ *http.Request, _ *struct{}, reply *PoolsReply) error {
	reply.Pools = slices.Clone(j.pools)
	return nil
}

type TokenArgs struct {
	Token codec.Address `json:"token"`
}

type TokenReply struct {
	Info        *token.Info  `json:"info"`
	TotalSupply *uint256.Int `json:"totalSupply"`
}

func (j *JSONRPCServer) Token(req *http.Request, args *TokenArgs, reply *TokenReply) error {
	ctx, span := j.vm.Tracer().Start(req.Context(), "JSONRPCServer.Token")
	defer span.End()

	info, err := token.GetInfo(ctx, j.vm.State(), args.Token)
	if err != nil {
		return err
	}
	supply, err := j.vm.TotalSupply(ctx, args.Token)
	if err != nil {
		return err
	}
	reply.Info = info
	reply.TotalSupply = supply
	return nil
}

type BalanceArgs struct {
	Token codec.Address `json:"token"`
	Owner codec.Address `json:"owner"`
}

type BalanceReply struct {
	Amount *uint256.Int `json:"amount"`
}

func (j *JSONRPCServer) Balance(req *http.Request, args *BalanceArgs, reply *BalanceReply) error {
	ctx, span := j.vm.Tracer().Start(req.Context(), "JSONRPCServer.Balance")
	defer span.End()

	amount, err := j.vm.Balance(ctx, args.Token, args.Owner)
	if err != nil {
		return err
	}
	reply.Amount = amount
	return nil
}

type PoolArgs struct {
	Pool codec.Address `json:"pool"`
}

type DetailsReply struct {
	Details *pool.Details `json:"details"`
}

func (j *JSONRPCServer) Details(req *http.Request, args *PoolArgs, reply *DetailsReply) error {
	ctx, span := j.vm.Tracer().Start(req.Context(), "JSONRPCServer.Details")
	defer span.End()

	if err := j.checkPool(args.Pool); err != nil {
		return err
	}
	d, err := j.querier.Details(ctx, args.Pool)
	if err != nil {
		return err
	}
	reply.Details = d
	return nil
}

type TokensReply struct {
	Tokens []codec.Address `json:"tokens"`
}

func (j *JSONRPCServer) Tokens(req *http.Request, args *PoolArgs, reply *TokensReply) error {
	ctx, span := j.vm.Tracer().Start(req.Context(), "JSONRPCServer.Tokens")
	defer span.End()

	if err := j.checkPool(args.Pool); err != nil {
		return err
	}
	tokens, err := j.querier.Tokens(ctx, args.Pool)
	if err != nil {
		return err
	}
	reply.Tokens = tokens
	return nil
}

type BalancesReply struct {
	Balances *pool.Balances `json:"balances"`
}

func (j *JSONRPCServer) Balances(req *http.Request, args *PoolArgs, reply *BalancesReply) error {
	ctx, span := j.vm.Tracer().Start(req.Context(), "JSONRPCServer.Balances")
	defer span.End()

	if err := j.checkPool(args.Pool); err != nil {
		return err
	}
	b, err := j.querier.Balances(ctx, args.Pool)
	if err != nil {
		return err
	}
	reply.Balances = b
	return nil
}

type AccumulatedFeesReply struct {
	Fees map[codec.Address]fees.Accumulated `json:"fees"`
}

func (j *JSONRPCServer) AccumulatedFees(req *http.Request, args *PoolArgs, reply *AccumulatedFeesReply) error {
	ctx, span := j.vm.Tracer().Start(req.Context(), "JSONRPCServer.AccumulatedFees")
	defer span.End()

	if err := j.checkPool(args.Pool); err != nil {
		return err
	}
	acc, err := j.querier.AccumulatedFees(ctx, args.Pool)
	if err != nil {
		return err
	}
	reply.Fees = acc
	return nil
}

type FeeParamsReply struct {
	Params *fees.Params `json:"params"`
}

func (j *JSONRPCServer) FeeParams(req *http.Request, args *PoolArgs, reply *FeeParamsReply) error {
	ctx, span := j.vm.Tracer().Start(req.Context(), "JSONRPCServer.FeeParams")
	defer span.End()

	if err := j.checkPool(args.Pool); err != nil {
		return err
	}
	p, err := j.querier.FeeParams(ctx, args.Pool)
	if err != nil {
		return err
	}
	reply.Params = p
	return nil
}

type ExchangeArgs struct {
	Pool     codec.Address `json:"pool"`
	Amount   *uint256.Int  `json:"amount"`
	TokenIn  codec.Address `json:"tokenIn"`
	TokenOut codec.Address `json:"tokenOut"`
}

type ExchangeReply struct {
	Result *pricing.ExchangeResult `json:"result"`
}

// ExpectedExchange prices a swap of exactly [ExchangeArgs.Amount] of the
// input token.
func (j *JSONRPCServer) ExpectedExchange(req *http.Request, args *ExchangeArgs, reply *ExchangeReply) error {
	ctx, span := j.vm.Tracer().Start(req.Context(), "JSONRPCServer.ExpectedExchange")
	defer span.End()

	if err := j.checkExchange(args); err != nil {
		return err
	}
	res, err := j.querier.ExpectedExchange(ctx, args.Pool, args.Amount, args.TokenIn, args.TokenOut)
	if err != nil {
		return err
	}
	reply.Result = res
	return nil
}

// ExpectedSpend reads [ExchangeArgs.Amount] as the output wanted.
func (j *JSONRPCServer) ExpectedSpend(req *http.Request, args *ExchangeArgs, reply *ExchangeReply) error {
	ctx, span := j.vm.Tracer().Start(req.Context(), "JSONRPCServer.ExpectedSpend")
	defer span.End()

	if err := j.checkExchange(args); err != nil {
		return err
	}
	res, err := j.querier.ExpectedSpend(ctx, args.Pool, args.Amount, args.TokenIn, args.TokenOut)
	if err != nil {
		return err
	}
	reply.Result = res
	return nil
}

func (j *JSONRPCServer) checkExchange(args *ExchangeArgs) error {
	if err := j.checkPool(args.Pool); err != nil {
		return err
	}
	if args.Amount == nil {
		return ErrMissingAmount
	}
	return nil
}

type DepositArgs struct {
	Pool       codec.Address  `json:"pool"`
	Assets     []token.Amount `json:"assets"`
	AutoChange bool           `json:"autoChange"`
}

type DepositReply struct {
	Result *pricing.DepositResult `json:"result"`
}

func (j *JSONRPCServer) ExpectedDeposit(req *http.Request, args *DepositArgs, reply *DepositReply) error {
	ctx, span := j.vm.Tracer().Start(req.Context(), "JSONRPCServer.ExpectedDeposit")
	defer span.End()

	if err := j.checkPool(args.Pool); err != nil {
		return err
	}
	for _, a := range args.Assets {
		if a.Amount == nil {
			return fmt.Errorf("%w: %s", ErrMissingAmount, a.Token)
		}
	}
	res, err := j.querier.ExpectedDeposit(ctx, args.Pool, args.Assets, args.AutoChange)
	if err != nil {
		return err
	}
	reply.Result = res
	return nil
}

type WithdrawArgs struct {
	Pool codec.Address `json:"pool"`
	LP   *uint256.Int  `json:"lp"`
	// TokenOut selects a single coin withdrawal when set.
	TokenOut codec.Address `json:"tokenOut"`
}

type WithdrawReply struct {
	Result *pricing.WithdrawResult `json:"result"`
}

func (j *JSONRPCServer) ExpectedWithdraw(req *http.Request, args *WithdrawArgs, reply *WithdrawReply) error {
	ctx, span := j.vm.Tracer().Start(req.Context(), "JSONRPCServer.ExpectedWithdraw")
	defer span.End()

	if err := j.checkPool(args.Pool); err != nil {
		return err
	}
	if args.LP == nil {
		return ErrMissingAmount
	}
	var (
		res *pricing.WithdrawResult
		err error
	)
	if args.TokenOut == codec.EmptyAddress {
		res, err = j.querier.ExpectedWithdraw(ctx, args.Pool, args.LP)
	} else {
		res, err = j.querier.ExpectedWithdrawOne(ctx, args.Pool, args.LP, args.TokenOut)
	}
	if err != nil {
		return err
	}
	reply.Result = res
	return nil
}

type PayloadReply struct {
	Payload []byte `json:"payload"`
}

type SwapPayloadArgs struct {
	CallID    uint64        `json:"callID"`
	OutToken  codec.Address `json:"outToken"`
	Expected  *uint256.Int  `json:"expected"`
	Recipient codec.Address `json:"recipient"`
	Referrer  codec.Address `json:"referrer"`
}

func (*JSONRPCServer) BuildSwapPayload(_ *http.Request, args *SwapPayloadArgs, reply *PayloadReply) error {
	if args.OutToken == codec.EmptyAddress {
		return ErrMissingToken
	}
	payload, err := actions.BuildSwapPayload(args.CallID, args.OutToken, args.Expected, args.Recipient, args.Referrer)
	if err != nil {
		return err
	}
	reply.Payload = payload
	return nil
}

type DepositPayloadArgs struct {
	CallID     uint64        `json:"callID"`
	AutoChange bool          `json:"autoChange"`
	ExpectedLP *uint256.Int  `json:"expectedLP"`
	Recipient  codec.Address `json:"recipient"`
	Referrer   codec.Address `json:"referrer"`
}

func (*JSONRPCServer) BuildDepositPayload(_ *http.Request, args *DepositPayloadArgs, reply *PayloadReply) error {
	payload, err := actions.BuildDepositPayload(args.CallID, args.AutoChange, args.ExpectedLP, args.Recipient, args.Referrer)
	if err != nil {
		return err
	}
	reply.Payload = payload
	return nil
}

type WithdrawPayloadArgs struct {
	CallID   uint64         `json:"callID"`
	Expected []*uint256.Int `json:"expected"`
	// OutToken selects a single coin withdrawal when set. Only the first
	// expected amount is used then.
	OutToken  codec.Address `json:"outToken"`
	Recipient codec.Address `json:"recipient"`
	Referrer  codec.Address `json:"referrer"`
}

func (*JSONRPCServer) BuildWithdrawPayload(_ *http.Request, args *WithdrawPayloadArgs, reply *PayloadReply) error {
	var (
		payload []byte
		err     error
	)
	if args.OutToken == codec.EmptyAddress {
		payload, err = actions.BuildWithdrawPayload(args.CallID, args.Expected, args.Recipient, args.Referrer)
	} else {
		var expected *uint256.Int
		if len(args.Expected) > 0 {
			expected = args.Expected[0]
		}
		payload, err = actions.BuildWithdrawOneCoinPayload(args.CallID, args.OutToken, expected, args.Recipient, args.Referrer)
	}
	if err != nil {
		return err
	}
	reply.Payload = payload
	return nil
}

type RouteArgs struct {
	CallID    uint64        `json:"callID"`
	TokenIn   codec.Address `json:"tokenIn"`
	TokenOut  codec.Address `json:"tokenOut"`
	Amount    *uint256.Int  `json:"amount"`
	Recipient codec.Address `json:"recipient"`
	Referrer  codec.Address `json:"referrer"`
}

type RouteReply struct {
	Route *router.Route `json:"route"`
	// Pool is where the input and the payload are sent.
	Pool    codec.Address `json:"pool"`
	Payload []byte        `json:"payload"`
	// Value is the native value the transfer to Pool must carry.
	Value uint64 `json:"value"`
}

// BuildRoute finds the path with the largest output between two tokens over
// every served pool.
func (j *JSONRPCServer) BuildRoute(req *http.Request, args *RouteArgs, reply *RouteReply) error {
	ctx, span := j.vm.Tracer().Start(req.Context(), "JSONRPCServer.BuildRoute")
	defer span.End()

	if args.Amount == nil {
		return ErrMissingAmount
	}
	route, err := j.bestRoute(ctx, args.TokenIn, args.TokenOut, args.Amount)
	if err != nil {
		return err
	}
	payload, err := route.Payload(args.CallID, args.Recipient, args.Referrer)
	if err != nil {
		return err
	}
	value, err := pool.RouteValue(j.gas.Swap, j.messageFee, len(route.Steps))
	if err != nil {
		return err
	}
	value, err = math.Add(value, j.messageFee)
	if err != nil {
		return err
	}
	j.vm.Logger().Debug("built route",
		zap.Stringer("tokenIn", args.TokenIn),
		zap.Stringer("tokenOut", args.TokenOut),
		zap.Int("hops", len(route.Steps)),
		zap.Stringer("amountOut", route.AmountOut),
	)
	reply.Route = route
	reply.Pool = route.Pool()
	reply.Payload = payload
	reply.Value = value
	return nil
}

func (j *JSONRPCServer) bestRoute(ctx context.Context, from, to codec.Address, amount *uint256.Int) (*router.Route, error) {
	g, err := router.NewGraph(ctx, j.querier, j.pools)
	if err != nil {
		return nil, err
	}
	return j.builder.Best(ctx, g, from, to, amount)
}
