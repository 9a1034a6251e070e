// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pricing

import (
	"github.com/holiman/uint256"

	"github.com/ava-labs/hyperamm/fees"
)

// proportional mints against the limiting token of [amounts]:
// lp = min(amounts[i]*supply/reserves[i]) and takes
// ceil(reserves[i]*lp/supply) of every token, which never exceeds
// amounts[i]. The remainder is returned as change.
func proportional(amounts, reserves []*uint256.Int, supply *uint256.Int) (*uint256.Int, []*uint256.Int, []*uint256.Int, error) {
	if supply.IsZero() {
		return nil, nil, nil, ErrInsufficientLPSupply
	}
	var lp *uint256.Int
	for i, a := range amounts {
		if reserves[i].IsZero() {
			return nil, nil, nil, ErrReservesZero
		}
		l, err := mulDiv(a, supply, reserves[i])
		if err != nil {
			return nil, nil, nil, err
		}
		if lp == nil || l.Lt(lp) {
			lp = l
		}
	}
	if lp.IsZero() {
		return nil, nil, nil, ErrOutputInsufficientLiquidityMinted
	}
	taken := make([]*uint256.Int, len(amounts))
	change := make([]*uint256.Int, len(amounts))
	for i, a := range amounts {
		d, err := mulDivCeil(reserves[i], lp, supply)
		if err != nil {
			return nil, nil, nil, err
		}
		// Rounding up can only reach the offered amount.
		d = minOf(d, a)
		taken[i] = d
		change[i] = new(uint256.Int).Sub(a, d)
	}
	return lp, taken, change, nil
}

// proportionalDeposit is a deposit that returns any excess of the
// non-limiting tokens.
func proportionalDeposit(st *State, amounts []*uint256.Int) (*DepositResult, error) {
	lp, taken, change, err := proportional(amounts, st.Reserves, st.LPSupply)
	if err != nil {
		return nil, err
	}
	reserves := make([]*uint256.Int, len(taken))
	for i, d := range taken {
		if reserves[i], err = add(st.Reserves[i], d); err != nil {
			return nil, err
		}
	}
	supply, err := add(st.LPSupply, lp)
	if err != nil {
		return nil, err
	}
	return &DepositResult{
		Amounts:  taken,
		Change:   change,
		LP:       lp,
		Fees:     zeroSplits(len(taken)),
		Step1LP:  lp.Clone(),
		Step3LP:  new(uint256.Int),
		Reserves: reserves,
		LPSupply: supply,
	}, nil
}

// proportionalWithdraw returns floor(reserves[i]*lp/supply) of every token.
func proportionalWithdraw(st *State, lp *uint256.Int) (*WithdrawResult, error) {
	if lp == nil || lp.IsZero() {
		return nil, ErrZeroInput
	}
	if lp.Gt(st.LPSupply) {
		return nil, ErrInsufficientLPSupply
	}
	var (
		amounts  = make([]*uint256.Int, len(st.Reserves))
		reserves = make([]*uint256.Int, len(st.Reserves))
		nonZero  bool
		err      error
	)
	for i, r := range st.Reserves {
		if amounts[i], err = mulDiv(r, lp, st.LPSupply); err != nil {
			return nil, err
		}
		if !amounts[i].IsZero() {
			nonZero = true
		}
		reserves[i] = new(uint256.Int).Sub(r, amounts[i])
	}
	if !nonZero {
		return nil, ErrZeroOutput
	}
	return &WithdrawResult{
		LP:       lp.Clone(),
		Amounts:  amounts,
		Fees:     zeroSplits(len(amounts)),
		Reserves: reserves,
		LPSupply: new(uint256.Int).Sub(st.LPSupply, lp),
	}, nil
}

func zeroSplits(n int) []fees.Split {
	s := make([]fees.Split, n)
	for i := range s {
		s[i] = fees.Zero()
	}
	return s
}

func checkAmounts(st *State, amounts []*uint256.Int) error {
	if len(amounts) != len(st.Tokens) {
		return ErrInvalidAmounts
	}
	for _, a := range amounts {
		if a == nil {
			return ErrInvalidAmounts
		}
	}
	return nil
}
