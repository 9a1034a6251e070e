// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fees

import "github.com/holiman/uint256"

// Split is the fee charged on an amount, divided between its recipients.
// Total == Pool + Beneficiary + Referrer always holds.
type Split struct {
	Total       *uint256.Int `json:"total"`
	Pool        *uint256.Int `json:"pool"`
	Beneficiary *uint256.Int `json:"beneficiary"`
	Referrer    *uint256.Int `json:"referrer"`
}

// Zero returns an empty split.
func Zero() Split {
	return Split{
		Total:       new(uint256.Int),
		Pool:        new(uint256.Int),
		Beneficiary: new(uint256.Int),
		Referrer:    new(uint256.Int),
	}
}

// Compute returns the fee charged on [amount]:
// total = ceil(amount*sum/denominator), with the beneficiary and referrer
// shares rounded down and the remainder kept by the pool.
func Compute(amount *uint256.Int, p *Params) Split {
	n := p.Numerator()
	if n == 0 || amount.IsZero() {
		return Zero()
	}
	return SplitTotal(ceilMulDiv(amount, uint256.NewInt(n), uint256.NewInt(p.Denominator)), p)
}

// ComputeImbalance returns the fee charged on the imbalanced part [amount]
// of a deposit or single-coin withdrawal from an [n] token pool:
// total = ceil(amount*sum*n / (denominator*4*(n-1))).
func ComputeImbalance(amount *uint256.Int, p *Params, n int) (Split, error) {
	if n < 2 {
		return Split{}, ErrInvalidImbalanceSize
	}
	num := p.Numerator()
	if num == 0 || amount.IsZero() {
		return Zero(), nil
	}
	return SplitTotal(ImbalanceTotal(amount, p, n), p), nil
}

// ImbalanceTotal is the total of ComputeImbalance for an amount that may be
// expressed in normalized units.
func ImbalanceTotal(amount *uint256.Int, p *Params, n int) *uint256.Int {
	var (
		num = new(uint256.Int).Mul(uint256.NewInt(p.Numerator()), uint256.NewInt(uint64(n)))
		den = new(uint256.Int).Mul(uint256.NewInt(p.Denominator), uint256.NewInt(uint64(4*(n-1))))
	)
	return ceilMulDiv(amount, num, den)
}

// SplitTotal divides an already computed fee [total] between the pool, the
// beneficiary and the referrer.
func SplitTotal(total *uint256.Int, p *Params) Split {
	n := p.Numerator()
	if n == 0 || total.IsZero() {
		return Zero()
	}
	var (
		sum    = uint256.NewInt(n)
		ben, _ = new(uint256.Int).MulDivOverflow(total, uint256.NewInt(p.BeneficiaryNumerator), sum)
		ref, _ = new(uint256.Int).MulDivOverflow(total, uint256.NewInt(p.ReferrerNumerator), sum)
	)
	pool := new(uint256.Int).Sub(total, ben)
	pool.Sub(pool, ref)
	return Split{
		Total:       total.Clone(),
		Pool:        pool,
		Beneficiary: ben,
		Referrer:    ref,
	}
}

// WithoutReferrer moves the referrer share to the pool.
func (s Split) WithoutReferrer() Split {
	return Split{
		Total:       s.Total.Clone(),
		Pool:        new(uint256.Int).Add(s.Pool, s.Referrer),
		Beneficiary: s.Beneficiary.Clone(),
		Referrer:    new(uint256.Int),
	}
}

// Leaving is the part of the fee that does not stay in the reserves.
func (s Split) Leaving() *uint256.Int {
	return new(uint256.Int).Add(s.Beneficiary, s.Referrer)
}

// Add returns the element-wise sum of s and o.
func (s Split) Add(o Split) Split {
	return Split{
		Total:       new(uint256.Int).Add(s.Total, o.Total),
		Pool:        new(uint256.Int).Add(s.Pool, o.Pool),
		Beneficiary: new(uint256.Int).Add(s.Beneficiary, o.Beneficiary),
		Referrer:    new(uint256.Int).Add(s.Referrer, o.Referrer),
	}
}

// ceilMulDiv returns ceil(x*y/d), saturating on overflow.
func ceilMulDiv(x, y, d *uint256.Int) *uint256.Int {
	z, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return new(uint256.Int).SetAllOne()
	}
	if !new(uint256.Int).MulMod(x, y, d).IsZero() {
		z.AddUint64(z, 1)
	}
	return z
}
