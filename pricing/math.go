// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pricing

import "github.com/holiman/uint256"

// maxIterations bounds the Newton solvers.
const maxIterations = 255

func u(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func add(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

func sub(x, y *uint256.Int) (*uint256.Int, error) {
	z, underflow := new(uint256.Int).SubOverflow(x, y)
	if underflow {
		return nil, ErrUnderflow
	}
	return z, nil
}

func mul(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

func div(x, y *uint256.Int) (*uint256.Int, error) {
	if y.IsZero() {
		return nil, ErrDivisionByZero
	}
	return new(uint256.Int).Div(x, y), nil
}

func ceilDiv(x, y *uint256.Int) (*uint256.Int, error) {
	if y.IsZero() {
		return nil, ErrDivisionByZero
	}
	z, r := new(uint256.Int).DivMod(x, y, new(uint256.Int))
	if !r.IsZero() {
		return add(z, u(1))
	}
	return z, nil
}

// mulDiv returns floor(x*y/d) using a 512 bit intermediate.
func mulDiv(x, y, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, ErrDivisionByZero
	}
	z, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

// mulDivCeil returns ceil(x*y/d) using a 512 bit intermediate.
func mulDivCeil(x, y, d *uint256.Int) (*uint256.Int, error) {
	z, err := mulDiv(x, y, d)
	if err != nil {
		return nil, err
	}
	if !new(uint256.Int).MulMod(x, y, d).IsZero() {
		return add(z, u(1))
	}
	return z, nil
}

func sqrt(x *uint256.Int) *uint256.Int {
	return new(uint256.Int).Sqrt(x)
}

func minOf(x, y *uint256.Int) *uint256.Int {
	if x.Lt(y) {
		return x
	}
	return y
}

// absDiff returns |x-y|.
func absDiff(x, y *uint256.Int) *uint256.Int {
	if x.Lt(y) {
		return new(uint256.Int).Sub(y, x)
	}
	return new(uint256.Int).Sub(x, y)
}

func cloneAll(vs []*uint256.Int) []*uint256.Int {
	c := make([]*uint256.Int, len(vs))
	for i, v := range vs {
		c[i] = v.Clone()
	}
	return c
}

func zeros(n int) []*uint256.Int {
	vs := make([]*uint256.Int, n)
	for i := range vs {
		vs[i] = new(uint256.Int)
	}
	return vs
}

func allPositive(vs []*uint256.Int) bool {
	for _, v := range vs {
		if v == nil || v.IsZero() {
			return false
		}
	}
	return true
}
