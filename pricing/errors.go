// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pricing

import "errors"

var (
	ErrUnknownModel = errors.New("unknown pricing model")
	ErrUnsupported  = errors.New("operation not supported by pricing model")

	ErrOverflow        = errors.New("arithmetic overflow")
	ErrUnderflow       = errors.New("arithmetic underflow")
	ErrDivisionByZero  = errors.New("division by zero")
	ErrNoConvergence   = errors.New("solver did not converge")
	ErrInvalidTokens   = errors.New("invalid pool tokens")
	ErrInvalidIndex    = errors.New("invalid token index")
	ErrInvalidAmounts  = errors.New("invalid amounts")
	ErrZeroInput       = errors.New("zero input")
	ErrZeroOutput      = errors.New("zero output")
	ErrReservesZero    = errors.New("reserves are zero")
	ErrMissingFees     = errors.New("missing fee params")
	ErrInvalidDecimals = errors.New("invalid decimals")
	ErrInvalidAmp      = errors.New("invalid amplification coefficient")

	ErrInsufficientLiquidity             = errors.New("insufficient liquidity")
	ErrOutputInsufficientLiquidityMinted = errors.New("insufficient liquidity minted")
	ErrInitialDepositIncomplete          = errors.New("initial deposit must include every token")
	ErrInsufficientLPSupply              = errors.New("insufficient lp supply")
	ErrWithdrawAllOneToken               = errors.New("cannot withdraw the whole supply as one token")
)
