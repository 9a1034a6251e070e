// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/fees"
	"github.com/ava-labs/hyperamm/pricing"
	"github.com/ava-labs/hyperamm/storage"
	"github.com/ava-labs/hyperamm/token"
	"github.com/ava-labs/hyperamm/vm"
)

// Details is the static description of a pool.
type Details struct {
	Address  codec.Address   `json:"address"`
	Kind     string          `json:"kind"`
	Admin    codec.Address   `json:"admin"`
	LPToken  codec.Address   `json:"lpToken"`
	Tokens   []codec.Address `json:"tokens"`
	Decimals []uint8         `json:"decimals,omitempty"`
	Amp      uint64          `json:"amp,omitempty"`
	Active   bool            `json:"active"`
}

// Balances are the reserves of a pool next to its LP supply. LPTotalSupply
// is read from the LP token and always equals LPSupply between two
// operations.
type Balances struct {
	Reserves      []token.Amount `json:"reserves"`
	LPSupply      *uint256.Int   `json:"lpSupply"`
	LPTotalSupply *uint256.Int   `json:"lpTotalSupply"`
}

// Querier answers read-only questions about pools. Every query runs on the
// goroutine of the pool it reads, between two of its messages, and never
// changes state.
type Querier struct {
	vm *vm.VM
}

func NewQuerier(v *vm.VM) *Querier {
	return &Querier{vm: v}
}

// view runs [f] against the record of [addr].
func (q *Querier) view(ctx context.Context, addr codec.Address, f func(context.Context, *storage.Pool) error) error {
	return q.vm.Query(ctx, addr, func(ctx context.Context, a vm.Actor) error {
		if _, ok := a.(*Pool); !ok {
			return fmt.Errorf("%w: %s", ErrNotPool, addr)
		}
		rec, err := storage.LoadPool(ctx, q.vm.State(), addr)
		if err != nil {
			return err
		}
		return f(ctx, rec)
	})
}

func (q *Querier) model(ctx context.Context, addr codec.Address, f func(*storage.Pool, pricing.Model) error) error {
	return q.view(ctx, addr, func(_ context.Context, rec *storage.Pool) error {
		m, err := rec.Model()
		if err != nil {
			return err
		}
		return f(rec, m)
	})
}

func pair(rec *storage.Pool, in, out codec.Address) (int, int, error) {
	i, ok := rec.Index(in)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s", ErrUnknownToken, in)
	}
	j, ok := rec.Index(out)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s", ErrUnknownToken, out)
	}
	if i == j {
		return 0, 0, ErrSameToken
	}
	return i, j, nil
}

func (q *Querier) Tokens(ctx context.Context, addr codec.Address) ([]codec.Address, error) {
	var tokens []codec.Address
	err := q.view(ctx, addr, func(_ context.Context, rec *storage.Pool) error {
		tokens = rec.Tokens
		return nil
	})
	return tokens, err
}

// ExpectedExchange prices a swap of [amount] of [tokenIn].
func (q *Querier) ExpectedExchange(
	ctx context.Context,
	addr codec.Address,
	amount *uint256.Int,
	tokenIn codec.Address,
	tokenOut codec.Address,
) (*pricing.ExchangeResult, error) {
	var res *pricing.ExchangeResult
	err := q.model(ctx, addr, func(rec *storage.Pool, m pricing.Model) error {
		i, j, err := pair(rec, tokenIn, tokenOut)
		if err != nil {
			return err
		}
		res, err = m.ExpectedExchange(i, j, amount, false)
		return err
	})
	return res, err
}

// ExpectedSpend returns the swap of [tokenIn] that yields at least
// [amountOut] of [tokenOut].
func (q *Querier) ExpectedSpend(
	ctx context.Context,
	addr codec.Address,
	amountOut *uint256.Int,
	tokenIn codec.Address,
	tokenOut codec.Address,
) (*pricing.ExchangeResult, error) {
	var res *pricing.ExchangeResult
	err := q.model(ctx, addr, func(rec *storage.Pool, m pricing.Model) error {
		i, j, err := pair(rec, tokenIn, tokenOut)
		if err != nil {
			return err
		}
		res, err = m.ExpectedSpend(i, j, amountOut, false)
		return err
	})
	return res, err
}

func (q *Querier) ExpectedDeposit(
	ctx context.Context,
	addr codec.Address,
	assets []token.Amount,
	autoChange bool,
) (*pricing.DepositResult, error) {
	var res *pricing.DepositResult
	err := q.model(ctx, addr, func(rec *storage.Pool, m pricing.Model) error {
		amounts := make([]*uint256.Int, len(rec.Tokens))
		for i := range amounts {
			amounts[i] = new(uint256.Int)
		}
		for _, a := range assets {
			i, ok := rec.Index(a.Token)
			if !ok {
				return fmt.Errorf("%w: %s", ErrUnknownToken, a.Token)
			}
			if _, overflow := amounts[i].AddOverflow(amounts[i], a.Amount); overflow {
				return pricing.ErrOverflow
			}
		}
		var err error
		res, err = m.ExpectedDeposit(amounts, autoChange, false)
		return err
	})
	return res, err
}

func (q *Querier) ExpectedWithdraw(ctx context.Context, addr codec.Address, lp *uint256.Int) (*pricing.WithdrawResult, error) {
	var res *pricing.WithdrawResult
	err := q.model(ctx, addr, func(_ *storage.Pool, m pricing.Model) error {
		var err error
		res, err = m.ExpectedWithdraw(lp)
		return err
	})
	return res, err
}

func (q *Querier) ExpectedWithdrawOne(
	ctx context.Context,
	addr codec.Address,
	lp *uint256.Int,
	tokenOut codec.Address,
) (*pricing.WithdrawResult, error) {
	var res *pricing.WithdrawResult
	err := q.model(ctx, addr, func(rec *storage.Pool, m pricing.Model) error {
		out, ok := rec.Index(tokenOut)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownToken, tokenOut)
		}
		var err error
		res, err = m.ExpectedWithdrawOne(lp, out, false)
		return err
	})
	return res, err
}

func (q *Querier) Balances(ctx context.Context, addr codec.Address) (*Balances, error) {
	var b *Balances
	err := q.view(ctx, addr, func(ctx context.Context, rec *storage.Pool) error {
		supply, err := token.TotalSupply(ctx, q.vm.State(), rec.LPToken)
		if err != nil {
			return err
		}
		b = &Balances{
			Reserves:      amountsOf(rec.Tokens, rec.Reserves),
			LPSupply:      rec.LPSupply.Clone(),
			LPTotalSupply: supply,
		}
		return nil
	})
	return b, err
}

// AccumulatedFees returns the fee shares held by the pool per token.
func (q *Querier) AccumulatedFees(ctx context.Context, addr codec.Address) (map[codec.Address]fees.Accumulated, error) {
	var acc map[codec.Address]fees.Accumulated
	err := q.view(ctx, addr, func(_ context.Context, rec *storage.Pool) error {
		acc = rec.Ledger.Snapshot()
		return nil
	})
	return acc, err
}

func (q *Querier) FeeParams(ctx context.Context, addr codec.Address) (*fees.Params, error) {
	var p *fees.Params
	err := q.view(ctx, addr, func(_ context.Context, rec *storage.Pool) error {
		p = rec.Fees.Copy()
		return nil
	})
	return p, err
}

func (q *Querier) Details(ctx context.Context, addr codec.Address) (*Details, error) {
	var d *Details
	err := q.view(ctx, addr, func(_ context.Context, rec *storage.Pool) error {
		d = &Details{
			Address:  rec.Address,
			Kind:     rec.Kind.String(),
			Admin:    rec.Admin,
			LPToken:  rec.LPToken,
			Tokens:   rec.Tokens,
			Decimals: rec.Decimals,
			Amp:      rec.Amp,
			Active:   rec.Active,
		}
		return nil
	})
	return d, err
}

func amountsOf(tokens []codec.Address, amounts []*uint256.Int) []token.Amount {
	out := make([]token.Amount, len(tokens))
	for i, tok := range tokens {
		out[i] = token.Amount{Token: tok, Amount: amounts[i].Clone()}
	}
	return out
}
