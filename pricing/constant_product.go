// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pricing

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/ava-labs/hyperamm/fees"
)

// maxSpendAdjustments bounds the upward correction of a rounded spend
// estimate.
const maxSpendAdjustments = 64

var _ Model = (*ConstantProduct)(nil)

// ConstantProduct prices a two token pool on x*y=k with the fee taken from
// the input.
type ConstantProduct struct {
	st *State
}

func NewConstantProduct(st *State) (Model, error) {
	if err := st.verify(); err != nil {
		return nil, err
	}
	if len(st.Tokens) != 2 {
		return nil, ErrInvalidTokens
	}
	return &ConstantProduct{st: st}, nil
}

func (*ConstantProduct) Kind() Kind {
	return ConstantProductID
}

func (c *ConstantProduct) ExpectedExchange(in, out int, amount *uint256.Int, referrer bool) (*ExchangeResult, error) {
	if err := checkPair(in, out, 2); err != nil {
		return nil, err
	}
	return c.swap(c.st.Reserves, in, out, amount, referrer)
}

// swap prices [amount] of token [in] against [reserves]:
// out = reserveOut - ceil(reserveIn*reserveOut/(reserveIn+net)).
func (c *ConstantProduct) swap(reserves []*uint256.Int, in, out int, amount *uint256.Int, referrer bool) (*ExchangeResult, error) {
	if amount == nil || amount.IsZero() {
		return nil, ErrZeroInput
	}
	rin, rout := reserves[in], reserves[out]
	if rin.IsZero() || rout.IsZero() {
		return nil, ErrReservesZero
	}
	fee := c.st.fee(amount, referrer)
	net, err := sub(amount, fee.Total)
	if err != nil {
		return nil, err
	}
	den, err := add(rin, net)
	if err != nil {
		return nil, err
	}
	amountOut, err := mulDiv(rout, net, den)
	if err != nil {
		return nil, err
	}
	if amountOut.IsZero() {
		return nil, ErrZeroOutput
	}
	next := cloneAll(reserves)
	if next[in], err = add(rin, new(uint256.Int).Sub(amount, fee.Leaving())); err != nil {
		return nil, err
	}
	next[out] = new(uint256.Int).Sub(rout, amountOut)
	return &ExchangeResult{
		In:        in,
		Out:       out,
		AmountIn:  amount.Clone(),
		AmountOut: amountOut,
		Fee:       fee,
		Reserves:  next,
	}, nil
}

// ExpectedSpend returns the exchange that yields at least [amountOut]:
// newOut = reserveOut - amountOut, newIn = ceil(reserveIn*reserveOut/newOut),
// in = ceil((newIn-reserveIn)*denominator/(denominator-sum)).
func (c *ConstantProduct) ExpectedSpend(in, out int, amountOut *uint256.Int, referrer bool) (*ExchangeResult, error) {
	if err := checkPair(in, out, 2); err != nil {
		return nil, err
	}
	if amountOut == nil || amountOut.IsZero() {
		return nil, ErrZeroInput
	}
	rin, rout := c.st.Reserves[in], c.st.Reserves[out]
	if rin.IsZero() || rout.IsZero() {
		return nil, ErrReservesZero
	}
	if !amountOut.Lt(rout) {
		return nil, ErrInsufficientLiquidity
	}
	newOut := new(uint256.Int).Sub(rout, amountOut)
	newIn, err := mulDivCeil(rin, rout, newOut)
	if err != nil {
		return nil, err
	}
	net := new(uint256.Int).Sub(newIn, rin)
	return spendFor(net, c.st.Fees, amountOut, func(amount *uint256.Int) (*ExchangeResult, error) {
		return c.swap(c.st.Reserves, in, out, amount, referrer)
	})
}

// spendFor grosses the net input up by the fee rate and then corrects for
// rounding until [exchange] produces at least [amountOut].
func spendFor(
	net *uint256.Int,
	p *fees.Params,
	amountOut *uint256.Int,
	exchange func(*uint256.Int) (*ExchangeResult, error),
) (*ExchangeResult, error) {
	d := u(p.Denominator)
	amountIn, err := mulDivCeil(net, d, new(uint256.Int).Sub(d, u(p.Numerator())))
	if err != nil {
		return nil, err
	}
	if amountIn.IsZero() {
		amountIn = u(1)
	}
	for i := 0; i < maxSpendAdjustments; i++ {
		r, err := exchange(amountIn)
		switch {
		case err == nil && !r.AmountOut.Lt(amountOut):
			return r, nil
		case err != nil && !errors.Is(err, ErrZeroOutput):
			return nil, err
		}
		if amountIn, err = add(amountIn, u(1)); err != nil {
			return nil, err
		}
	}
	return nil, ErrNoConvergence
}

func (c *ConstantProduct) ExpectedDeposit(amounts []*uint256.Int, autoChange bool, referrer bool) (*DepositResult, error) {
	if err := checkAmounts(c.st, amounts); err != nil {
		return nil, err
	}
	if c.st.LPSupply.IsZero() {
		return c.initialDeposit(amounts)
	}
	if !autoChange {
		return proportionalDeposit(c.st, amounts)
	}
	return c.autoChangeDeposit(amounts, referrer)
}

// initialDeposit mints sqrt(a0*a1).
func (c *ConstantProduct) initialDeposit(amounts []*uint256.Int) (*DepositResult, error) {
	if !allPositive(amounts) {
		return nil, ErrInitialDepositIncomplete
	}
	k, err := mul(amounts[0], amounts[1])
	if err != nil {
		return nil, err
	}
	lp := sqrt(k)
	if lp.IsZero() {
		return nil, ErrOutputInsufficientLiquidityMinted
	}
	reserves := make([]*uint256.Int, 2)
	for i := range reserves {
		if reserves[i], err = add(c.st.Reserves[i], amounts[i]); err != nil {
			return nil, err
		}
	}
	return &DepositResult{
		Amounts:  cloneAll(amounts),
		Change:   zeros(2),
		LP:       lp,
		Fees:     zeroSplits(2),
		Step1LP:  lp.Clone(),
		Step3LP:  new(uint256.Int),
		Reserves: reserves,
		LPSupply: lp.Clone(),
	}, nil
}

// autoChangeDeposit deposits proportionally, swaps part of the surplus token
// so the rest matches the post-swap ratio and deposits that too. Dust of the
// final proportional step stays in the pool.
func (c *ConstantProduct) autoChangeDeposit(amounts []*uint256.Int, referrer bool) (*DepositResult, error) {
	var (
		lp1     = new(uint256.Int)
		taken1  = zeros(2)
		change1 = cloneAll(amounts)
		err     error
	)
	if allPositive(amounts) {
		lp1, taken1, change1, err = proportional(amounts, c.st.Reserves, c.st.LPSupply)
		switch {
		case errors.Is(err, ErrOutputInsufficientLiquidityMinted):
			lp1, taken1, change1 = new(uint256.Int), zeros(2), cloneAll(amounts)
		case err != nil:
			return nil, err
		}
	}
	reserves1 := make([]*uint256.Int, 2)
	for i := range reserves1 {
		if reserves1[i], err = add(c.st.Reserves[i], taken1[i]); err != nil {
			return nil, err
		}
	}
	supply1, err := add(c.st.LPSupply, lp1)
	if err != nil {
		return nil, err
	}
	base := &DepositResult{
		Amounts:  taken1,
		Change:   change1,
		LP:       lp1,
		Fees:     zeroSplits(2),
		Step1LP:  lp1.Clone(),
		Step3LP:  new(uint256.Int),
		Reserves: reserves1,
		LPSupply: supply1,
	}

	// The surplus token is the one whose leftover is worth more relative to
	// its reserve.
	l0, err := mul(change1[0], reserves1[1])
	if err != nil {
		return nil, err
	}
	l1, err := mul(change1[1], reserves1[0])
	if err != nil {
		return nil, err
	}
	k, o := 0, 1
	if l1.Gt(l0) {
		k, o = 1, 0
	}
	delta := change1[k]
	if delta.IsZero() {
		return finalize(base)
	}

	spend, err := c.autoChangeSpend(reserves1[k], delta)
	if err != nil {
		return nil, err
	}
	if spend.IsZero() || !spend.Lt(delta) {
		return finalize(base)
	}
	step2, err := c.swap(reserves1, k, o, spend, referrer)
	if errors.Is(err, ErrZeroOutput) {
		return finalize(base)
	}
	if err != nil {
		return nil, err
	}
	amounts3 := make([]*uint256.Int, 2)
	amounts3[k] = new(uint256.Int).Sub(delta, spend)
	amounts3[o] = step2.AmountOut.Clone()
	lp3, _, _, err := proportional(amounts3, step2.Reserves, supply1)
	if errors.Is(err, ErrOutputInsufficientLiquidityMinted) {
		return finalize(base)
	}
	if err != nil {
		return nil, err
	}

	reserves := make([]*uint256.Int, 2)
	for i := range reserves {
		if reserves[i], err = add(step2.Reserves[i], amounts3[i]); err != nil {
			return nil, err
		}
	}
	supply, err := add(supply1, lp3)
	if err != nil {
		return nil, err
	}
	taken := cloneAll(taken1)
	taken[k] = new(uint256.Int).Add(taken1[k], delta)
	change := cloneAll(change1)
	change[k] = new(uint256.Int)
	fs := zeroSplits(2)
	fs[k] = step2.Fee
	return &DepositResult{
		Amounts:  taken,
		Change:   change,
		LP:       new(uint256.Int).Add(lp1, lp3),
		Fees:     fs,
		Step1LP:  lp1.Clone(),
		Step2:    step2,
		Step3LP:  lp3,
		Reserves: reserves,
		LPSupply: supply,
	}, nil
}

func finalize(r *DepositResult) (*DepositResult, error) {
	if r.LP.IsZero() {
		return nil, ErrOutputInsufficientLiquidityMinted
	}
	return r, nil
}

// autoChangeSpend solves s^2 + p*s - q = 0 for the part [s] of [delta] to
// swap against a reserve [x], with f = sum/denominator:
// p = x*(2d-sum)/(d-sum), q = x*delta*d/(d-sum).
func (c *ConstantProduct) autoChangeSpend(x, delta *uint256.Int) (*uint256.Int, error) {
	var (
		d   = u(c.st.Fees.Denominator)
		n   = u(c.st.Fees.Numerator())
		dn  = new(uint256.Int).Sub(d, n)
		d2n = new(uint256.Int).Sub(new(uint256.Int).Mul(d, u(2)), n)
	)
	p, err := mulDiv(x, d2n, dn)
	if err != nil {
		return nil, err
	}
	xd, err := mul(x, delta)
	if err != nil {
		return nil, err
	}
	q, err := mulDiv(xd, d, dn)
	if err != nil {
		return nil, err
	}
	p2, err := mul(p, p)
	if err != nil {
		return nil, err
	}
	q4, err := mul(q, u(4))
	if err != nil {
		return nil, err
	}
	disc, err := add(p2, q4)
	if err != nil {
		return nil, err
	}
	root := sqrt(disc)
	if root.Lt(p) {
		return new(uint256.Int), nil
	}
	return new(uint256.Int).Rsh(new(uint256.Int).Sub(root, p), 1), nil
}

func (c *ConstantProduct) ExpectedWithdraw(lp *uint256.Int) (*WithdrawResult, error) {
	return proportionalWithdraw(c.st, lp)
}

// ExpectedWithdrawOne withdraws pro-rata and swaps the other token into
// token [out] against the remaining reserves.
func (c *ConstantProduct) ExpectedWithdrawOne(lp *uint256.Int, out int, referrer bool) (*WithdrawResult, error) {
	if out < 0 || out > 1 {
		return nil, ErrInvalidIndex
	}
	w, err := proportionalWithdraw(c.st, lp)
	if err != nil {
		return nil, err
	}
	other := 1 - out
	if w.Amounts[other].IsZero() {
		return w, nil
	}
	s, err := c.swap(w.Reserves, other, out, w.Amounts[other], referrer)
	if err != nil {
		return nil, err
	}
	amounts := zeros(2)
	amounts[out] = new(uint256.Int).Add(w.Amounts[out], s.AmountOut)
	fs := zeroSplits(2)
	fs[other] = s.Fee
	return &WithdrawResult{
		LP:       w.LP,
		Amounts:  amounts,
		Fees:     fs,
		Reserves: s.Reserves,
		LPSupply: w.LPSupply,
	}, nil
}
