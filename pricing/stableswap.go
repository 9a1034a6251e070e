// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pricing

import (
	"github.com/holiman/uint256"

	"github.com/ava-labs/hyperamm/fees"
)

// DefaultAmp is the amplification coefficient of a stable pool that does
// not configure one.
const DefaultAmp = 200

// MaxDecimals bounds the precision of a stable pool token.
const MaxDecimals = 36

var _ Model = (*Stableswap)(nil)

// Stableswap prices an N token pool on the curve invariant
//
//	A*n^n*sum(x_i) + D = A*D*n^n + D^(n+1)/(n^n*prod(x_i))
//
// over balances normalized to the largest token precision.
type Stableswap struct {
	st    *State
	n     int
	amp   uint64
	rates []*uint256.Int
}

func NewStableswap(st *State) (Model, error) {
	if err := st.verify(); err != nil {
		return nil, err
	}
	if len(st.Decimals) != len(st.Tokens) {
		return nil, ErrInvalidDecimals
	}
	amp := st.Amp
	if amp == 0 {
		amp = DefaultAmp
	}
	var maxDecimals uint8
	for _, d := range st.Decimals {
		if d > MaxDecimals {
			return nil, ErrInvalidDecimals
		}
		if d > maxDecimals {
			maxDecimals = d
		}
	}
	rates := make([]*uint256.Int, len(st.Decimals))
	for i, d := range st.Decimals {
		rates[i] = new(uint256.Int).Exp(u(10), u(uint64(maxDecimals-d)))
	}
	return &Stableswap{
		st:    st,
		n:     len(st.Tokens),
		amp:   amp,
		rates: rates,
	}, nil
}

func (*Stableswap) Kind() Kind {
	return StableswapID
}

func (s *Stableswap) ann() *uint256.Int {
	return new(uint256.Int).Mul(u(s.amp), u(uint64(s.n)))
}

func (s *Stableswap) xp(balances []*uint256.Int) ([]*uint256.Int, error) {
	xp := make([]*uint256.Int, len(balances))
	for i, b := range balances {
		v, err := mul(b, s.rates[i])
		if err != nil {
			return nil, err
		}
		xp[i] = v
	}
	return xp, nil
}

// getD solves the invariant for D:
// D = (Ann*S + D_P*n)*D / ((Ann-1)*D + (n+1)*D_P), D_P = D^(n+1)/(n^n*prod(x)).
func (s *Stableswap) getD(xp []*uint256.Int) (*uint256.Int, error) {
	sum := new(uint256.Int)
	for _, x := range xp {
		var err error
		if sum, err = add(sum, x); err != nil {
			return nil, err
		}
	}
	if sum.IsZero() {
		return new(uint256.Int), nil
	}
	var (
		n    = u(uint64(s.n))
		ann  = s.ann()
		d    = sum.Clone()
		annS = new(uint256.Int)
		err  error
	)
	if annS, err = mul(ann, sum); err != nil {
		return nil, err
	}
	for i := 0; i < maxIterations; i++ {
		dp := d.Clone()
		for _, x := range xp {
			if x.IsZero() {
				return nil, ErrReservesZero
			}
			if dp, err = mulDiv(dp, d, new(uint256.Int).Mul(x, n)); err != nil {
				return nil, err
			}
		}
		prev := d
		num, err := add(annS, new(uint256.Int).Mul(dp, n))
		if err != nil {
			return nil, err
		}
		den, err := mul(new(uint256.Int).Sub(ann, u(1)), d)
		if err != nil {
			return nil, err
		}
		dpn, err := mul(dp, u(uint64(s.n+1)))
		if err != nil {
			return nil, err
		}
		if den, err = add(den, dpn); err != nil {
			return nil, err
		}
		if d, err = mulDiv(num, d, den); err != nil {
			return nil, err
		}
		if !absDiff(d, prev).Gt(u(1)) {
			return d, nil
		}
	}
	return nil, ErrNoConvergence
}

// solveY iterates y = (y^2 + c) / (2y + b - D) where [others] are the
// balances of every token except the one solved for.
func (s *Stableswap) solveY(others []*uint256.Int, d *uint256.Int) (*uint256.Int, error) {
	var (
		n   = u(uint64(s.n))
		ann = s.ann()
		c   = d.Clone()
		sum = new(uint256.Int)
		err error
	)
	for _, x := range others {
		if x.IsZero() {
			return nil, ErrReservesZero
		}
		if sum, err = add(sum, x); err != nil {
			return nil, err
		}
		if c, err = mulDiv(c, d, new(uint256.Int).Mul(x, n)); err != nil {
			return nil, err
		}
	}
	if c, err = mulDiv(c, d, new(uint256.Int).Mul(ann, n)); err != nil {
		return nil, err
	}
	b, err := add(sum, new(uint256.Int).Div(d, ann))
	if err != nil {
		return nil, err
	}
	y := d.Clone()
	for i := 0; i < maxIterations; i++ {
		prev := y
		y2, err := mul(y, y)
		if err != nil {
			return nil, err
		}
		num, err := add(y2, c)
		if err != nil {
			return nil, err
		}
		den, err := add(new(uint256.Int).Lsh(y, 1), b)
		if err != nil {
			return nil, err
		}
		if den, err = sub(den, d); err != nil {
			return nil, err
		}
		if y, err = div(num, den); err != nil {
			return nil, err
		}
		if !absDiff(y, prev).Gt(u(1)) {
			return y, nil
		}
	}
	return nil, ErrNoConvergence
}

// getY returns the balance of token [j] that keeps D when token [i] has
// balance [x].
func (s *Stableswap) getY(i, j int, x *uint256.Int, xp []*uint256.Int, d *uint256.Int) (*uint256.Int, error) {
	others := make([]*uint256.Int, 0, s.n-1)
	for k := range xp {
		switch k {
		case i:
			others = append(others, x)
		case j:
		default:
			others = append(others, xp[k])
		}
	}
	return s.solveY(others, d)
}

// getYD returns the balance of token [i] for invariant [d].
func (s *Stableswap) getYD(i int, xp []*uint256.Int, d *uint256.Int) (*uint256.Int, error) {
	others := make([]*uint256.Int, 0, s.n-1)
	for k := range xp {
		if k != i {
			others = append(others, xp[k])
		}
	}
	return s.solveY(others, d)
}

func (s *Stableswap) ExpectedExchange(in, out int, amount *uint256.Int, referrer bool) (*ExchangeResult, error) {
	if err := checkPair(in, out, s.n); err != nil {
		return nil, err
	}
	if amount == nil || amount.IsZero() {
		return nil, ErrZeroInput
	}
	fee := s.st.fee(amount, referrer)
	net, err := sub(amount, fee.Total)
	if err != nil {
		return nil, err
	}
	xp, err := s.xp(s.st.Reserves)
	if err != nil {
		return nil, err
	}
	d, err := s.getD(xp)
	if err != nil {
		return nil, err
	}
	scaled, err := mul(net, s.rates[in])
	if err != nil {
		return nil, err
	}
	x, err := add(xp[in], scaled)
	if err != nil {
		return nil, err
	}
	y, err := s.getY(in, out, x, xp, d)
	if err != nil {
		return nil, err
	}
	// dy = (xp[out] - y - 1) / rate[out]
	limit, err := add(y, u(1))
	if err != nil {
		return nil, err
	}
	if !xp[out].Gt(limit) {
		return nil, ErrZeroOutput
	}
	dy := new(uint256.Int).Sub(xp[out], limit)
	dy.Div(dy, s.rates[out])
	if dy.IsZero() {
		return nil, ErrZeroOutput
	}
	if !dy.Lt(s.st.Reserves[out]) {
		return nil, ErrInsufficientLiquidity
	}
	next := cloneAll(s.st.Reserves)
	if next[in], err = add(next[in], new(uint256.Int).Sub(amount, fee.Leaving())); err != nil {
		return nil, err
	}
	next[out] = new(uint256.Int).Sub(next[out], dy)
	return &ExchangeResult{
		In:        in,
		Out:       out,
		AmountIn:  amount.Clone(),
		AmountOut: dy,
		Fee:       fee,
		Reserves:  next,
	}, nil
}

// ExpectedSpend inverts the exchange: the balance of [out] after paying
// [amountOut] fixes the balance [in] must reach.
func (s *Stableswap) ExpectedSpend(in, out int, amountOut *uint256.Int, referrer bool) (*ExchangeResult, error) {
	if err := checkPair(in, out, s.n); err != nil {
		return nil, err
	}
	if amountOut == nil || amountOut.IsZero() {
		return nil, ErrZeroInput
	}
	if !amountOut.Lt(s.st.Reserves[out]) {
		return nil, ErrInsufficientLiquidity
	}
	xp, err := s.xp(s.st.Reserves)
	if err != nil {
		return nil, err
	}
	d, err := s.getD(xp)
	if err != nil {
		return nil, err
	}
	delta, err := mul(amountOut, s.rates[out])
	if err != nil {
		return nil, err
	}
	if delta, err = add(delta, u(1)); err != nil {
		return nil, err
	}
	y, err := sub(xp[out], delta)
	if err != nil {
		return nil, ErrInsufficientLiquidity
	}
	x, err := s.getY(out, in, y, xp, d)
	if err != nil {
		return nil, err
	}
	var net *uint256.Int
	if x.Gt(xp[in]) {
		if net, err = ceilDiv(new(uint256.Int).Sub(x, xp[in]), s.rates[in]); err != nil {
			return nil, err
		}
	} else {
		net = u(1)
	}
	return spendFor(net, s.st.Fees, amountOut, func(amount *uint256.Int) (*ExchangeResult, error) {
		return s.ExpectedExchange(in, out, amount, referrer)
	})
}

func (s *Stableswap) ExpectedDeposit(amounts []*uint256.Int, autoChange bool, referrer bool) (*DepositResult, error) {
	if err := checkAmounts(s.st, amounts); err != nil {
		return nil, err
	}
	if s.st.LPSupply.IsZero() || autoChange {
		return s.imbalancedDeposit(amounts, referrer)
	}
	return proportionalDeposit(s.st, amounts)
}

// imbalancedDeposit mints supply*(D2-D0)/D0 where D2 is the invariant of
// the new balances less the imbalance fee charged on each token's distance
// from its ideal balance D1*old/D0. The first deposit mints D1.
func (s *Stableswap) imbalancedDeposit(amounts []*uint256.Int, referrer bool) (*DepositResult, error) {
	initial := s.st.LPSupply.IsZero()
	if initial && !allPositive(amounts) {
		return nil, ErrInitialDepositIncomplete
	}
	old := s.st.Reserves
	next := make([]*uint256.Int, s.n)
	for i := range next {
		var err error
		if next[i], err = add(old[i], amounts[i]); err != nil {
			return nil, err
		}
	}
	var (
		d0  = new(uint256.Int)
		err error
	)
	if !initial {
		xp0, err := s.xp(old)
		if err != nil {
			return nil, err
		}
		if d0, err = s.getD(xp0); err != nil {
			return nil, err
		}
	}
	xp1, err := s.xp(next)
	if err != nil {
		return nil, err
	}
	d1, err := s.getD(xp1)
	if err != nil {
		return nil, err
	}
	if !d1.Gt(d0) {
		return nil, ErrOutputInsufficientLiquidityMinted
	}
	result := &DepositResult{
		Amounts: cloneAll(amounts),
		Change:  zeros(s.n),
		Fees:    zeroSplits(s.n),
		Step3LP: new(uint256.Int),
	}
	if initial {
		result.LP = d1
		result.Step1LP = d1.Clone()
		result.Reserves = next
		result.LPSupply = d1.Clone()
		return result, nil
	}

	reserves := make([]*uint256.Int, s.n)
	forD2 := make([]*uint256.Int, s.n)
	for i := range next {
		ideal, err := mulDiv(d1, old[i], d0)
		if err != nil {
			return nil, err
		}
		split, err := fees.ComputeImbalance(absDiff(ideal, next[i]), s.st.Fees, s.n)
		if err != nil {
			return nil, err
		}
		if !referrer {
			split = split.WithoutReferrer()
		}
		result.Fees[i] = split
		if reserves[i], err = sub(next[i], split.Leaving()); err != nil {
			return nil, err
		}
		if forD2[i], err = sub(next[i], split.Total); err != nil {
			return nil, err
		}
	}
	xp2, err := s.xp(forD2)
	if err != nil {
		return nil, err
	}
	d2, err := s.getD(xp2)
	if err != nil {
		return nil, err
	}
	if !d2.Gt(d0) {
		return nil, ErrOutputInsufficientLiquidityMinted
	}
	lp, err := mulDiv(s.st.LPSupply, new(uint256.Int).Sub(d2, d0), d0)
	if err != nil {
		return nil, err
	}
	if lp.IsZero() {
		return nil, ErrOutputInsufficientLiquidityMinted
	}
	result.LP = lp
	result.Step1LP = lp.Clone()
	result.Reserves = reserves
	if result.LPSupply, err = add(s.st.LPSupply, lp); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Stableswap) ExpectedWithdraw(lp *uint256.Int) (*WithdrawResult, error) {
	return proportionalWithdraw(s.st, lp)
}

// ExpectedWithdrawOne burns [lp] for token [out] only. Every token is
// charged the imbalance fee on its distance from a proportional withdrawal;
// the fee on [out] is the difference to the fee-less output.
func (s *Stableswap) ExpectedWithdrawOne(lp *uint256.Int, out int, referrer bool) (*WithdrawResult, error) {
	if out < 0 || out >= s.n {
		return nil, ErrInvalidIndex
	}
	if lp == nil || lp.IsZero() {
		return nil, ErrZeroInput
	}
	supply := s.st.LPSupply
	if lp.Gt(supply) {
		return nil, ErrInsufficientLPSupply
	}
	// the last lp must withdraw every token
	if lp.Eq(supply) {
		return nil, ErrWithdrawAllOneToken
	}
	xp, err := s.xp(s.st.Reserves)
	if err != nil {
		return nil, err
	}
	d0, err := s.getD(xp)
	if err != nil {
		return nil, err
	}
	burnt, err := mulDiv(lp, d0, supply)
	if err != nil {
		return nil, err
	}
	d1 := new(uint256.Int).Sub(d0, burnt)
	newY, err := s.getYD(out, xp, d1)
	if err != nil {
		return nil, err
	}

	reduced := make([]*uint256.Int, s.n)
	for j := range xp {
		scaled, err := mulDiv(xp[j], d1, d0)
		if err != nil {
			return nil, err
		}
		var expected *uint256.Int
		if j == out {
			expected = absDiff(scaled, newY)
		} else {
			expected = new(uint256.Int).Sub(xp[j], scaled)
		}
		feeNorm := fees.ImbalanceTotal(expected, s.st.Fees, s.n)
		if reduced[j], err = sub(xp[j], feeNorm); err != nil {
			return nil, err
		}
	}
	yReduced, err := s.getYD(out, reduced, d1)
	if err != nil {
		return nil, err
	}
	limit, err := add(yReduced, u(1))
	if err != nil {
		return nil, err
	}
	if !reduced[out].Gt(limit) {
		return nil, ErrZeroOutput
	}
	dy := new(uint256.Int).Sub(reduced[out], limit)
	dy.Div(dy, s.rates[out])
	if dy.IsZero() {
		return nil, ErrZeroOutput
	}
	dy0 := new(uint256.Int)
	if xp[out].Gt(newY) {
		dy0.Sub(xp[out], newY)
		dy0.Div(dy0, s.rates[out])
	}
	total := new(uint256.Int)
	if dy0.Gt(dy) {
		total.Sub(dy0, dy)
	}
	split := fees.SplitTotal(total, s.st.Fees)
	if !referrer {
		split = split.WithoutReferrer()
	}
	leaving, err := add(dy, split.Leaving())
	if err != nil {
		return nil, err
	}
	reserves := cloneAll(s.st.Reserves)
	if reserves[out], err = sub(reserves[out], leaving); err != nil {
		return nil, ErrInsufficientLiquidity
	}
	amounts := zeros(s.n)
	amounts[out] = dy
	fs := zeroSplits(s.n)
	fs[out] = split
	return &WithdrawResult{
		LP:       lp.Clone(),
		Amounts:  amounts,
		Fees:     fs,
		Reserves: reserves,
		LPSupply: new(uint256.Int).Sub(supply, lp),
	}, nil
}
