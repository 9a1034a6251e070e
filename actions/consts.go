// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

// Operation type IDs. The first byte of every payload.
const (
	SwapID uint8 = iota
	DepositLiquidityID
	WithdrawLiquidityID
	RefundID
	SetFeeParamsID
	WithdrawBeneficiaryFeeID
	WithdrawReferrerFeeID
	SetActiveID
)

// Reason explains why funds were returned.
type Reason uint8

const (
	ReasonUnknown Reason = iota
	ReasonLowGas
	ReasonWrongRate
	ReasonInactive
	ReasonInvalidRoute
	ReasonInvalidAmounts
	ReasonUnknownToken
	ReasonInsufficientLiquidity
	ReasonBounced
	ReasonUnauthorized
)

func (r Reason) String() string {
	switch r {
	case ReasonLowGas:
		return "low gas"
	case ReasonWrongRate:
		return "wrong rate"
	case ReasonInactive:
		return "inactive"
	case ReasonInvalidRoute:
		return "invalid route"
	case ReasonInvalidAmounts:
		return "invalid amounts"
	case ReasonUnknownToken:
		return "unknown token"
	case ReasonInsufficientLiquidity:
		return "insufficient liquidity"
	case ReasonBounced:
		return "bounced"
	case ReasonUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}
