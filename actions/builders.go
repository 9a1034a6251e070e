// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/consts"
)

// BuildSwapPayload returns the payload of a single pool swap.
func BuildSwapPayload(
	callID uint64,
	outToken codec.Address,
	expected *uint256.Int,
	recipient codec.Address,
	referrer codec.Address,
) ([]byte, error) {
	return Marshal(&Swap{
		CallID:         callID,
		OutToken:       outToken,
		ExpectedAmount: expected,
		Recipient:      recipient,
		Referrer:       referrer,
	})
}

// NewRouteSwap returns the swap the first pool of [steps] must receive.
func NewRouteSwap(callID uint64, steps []Step, recipient, referrer codec.Address) (*Swap, error) {
	if len(steps) == 0 {
		return nil, ErrEmptyRoute
	}
	if len(steps) > consts.MaxRouteSteps+1 {
		return nil, fmt.Errorf("%w: %d", ErrTooManySteps, len(steps))
	}
	seen := make(map[codec.Address]struct{}, len(steps))
	for _, s := range steps {
		if s.Pool == codec.EmptyAddress {
			return nil, ErrMissingPool
		}
		if s.OutToken == codec.EmptyAddress {
			return nil, ErrMissingOutToken
		}
		if _, ok := seen[s.Pool]; ok {
			return nil, ErrDuplicateRouteHop
		}
		seen[s.Pool] = struct{}{}
	}
	first := steps[0]
	var next []Step
	if len(steps) > 1 {
		next = steps[1:]
	}
	return &Swap{
		CallID:         callID,
		OutToken:       first.OutToken,
		ExpectedAmount: first.ExpectedAmount,
		Recipient:      recipient,
		Referrer:       referrer,
		Tokens:         first.Tokens,
		Next:           next,
	}, nil
}

// BuildCrossPoolPayload returns the payload for a transfer to
// steps[0].Pool that is swapped along every step in order.
func BuildCrossPoolPayload(callID uint64, steps []Step, recipient, referrer codec.Address) ([]byte, error) {
	s, err := NewRouteSwap(callID, steps, recipient, referrer)
	if err != nil {
		return nil, err
	}
	return Marshal(s)
}

// BuildDepositPayload returns the payload of a liquidity deposit.
func BuildDepositPayload(
	callID uint64,
	autoChange bool,
	expectedLP *uint256.Int,
	recipient codec.Address,
	referrer codec.Address,
) ([]byte, error) {
	return Marshal(&DepositLiquidity{
		CallID:     callID,
		AutoChange: autoChange,
		ExpectedLP: expectedLP,
		Recipient:  recipient,
		Referrer:   referrer,
	})
}

// BuildWithdrawPayload returns the payload of a pro-rata withdrawal.
func BuildWithdrawPayload(
	callID uint64,
	expected []*uint256.Int,
	recipient codec.Address,
	referrer codec.Address,
) ([]byte, error) {
	if len(expected) > consts.MaxPoolTokens {
		return nil, ErrTooManyAmounts
	}
	return Marshal(&WithdrawLiquidity{
		CallID:          callID,
		ExpectedAmounts: expected,
		Recipient:       recipient,
		Referrer:        referrer,
	})
}

// BuildWithdrawOneCoinPayload returns the payload of a withdrawal paid in
// [outToken] only.
func BuildWithdrawOneCoinPayload(
	callID uint64,
	outToken codec.Address,
	expected *uint256.Int,
	recipient codec.Address,
	referrer codec.Address,
) ([]byte, error) {
	if outToken == codec.EmptyAddress {
		return nil, ErrMissingOutToken
	}
	w := &WithdrawLiquidity{
		CallID:    callID,
		OutToken:  outToken,
		Recipient: recipient,
		Referrer:  referrer,
	}
	if expected != nil {
		w.ExpectedAmounts = []*uint256.Int{expected}
	}
	return Marshal(w)
}
