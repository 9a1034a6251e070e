// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fees

import "errors"

var (
	ErrZeroDenominator      = errors.New("fee denominator is zero")
	ErrNumeratorTooLarge    = errors.New("fee numerators must sum below the denominator")
	ErrMissingBeneficiary   = errors.New("beneficiary numerator set without beneficiary")
	ErrNumeratorOverflow    = errors.New("fee numerator overflow")
	ErrInvalidThreshold     = errors.New("invalid threshold")
	ErrTooManyThresholds    = errors.New("too many thresholds")
	ErrInvalidLedgerRecord  = errors.New("invalid ledger record")
	ErrInvalidImbalanceSize = errors.New("imbalance fee requires at least two tokens")
)
