// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import smath "github.com/ava-labs/avalanchego/utils/math"

// Gas is the native value a pool keeps for handling each operation. Any
// value attached beyond it travels on with the operation's output.
type Gas struct {
	Swap     uint64 `json:"swap" yaml:"swap"`
	Deposit  uint64 `json:"deposit" yaml:"deposit"`
	Withdraw uint64 `json:"withdraw" yaml:"withdraw"`
	Call     uint64 `json:"call" yaml:"call"`
}

func NewDefaultGas() Gas {
	return Gas{
		Swap:     50_000,
		Deposit:  100_000,
		Withdraw: 100_000,
		Call:     10_000,
	}
}

// RouteValue is the value a swap over [hops] pools must carry once the
// first delivery fee has been taken: every hop keeps [swap] and every
// message after the first costs [messageFee].
func RouteValue(swap, messageFee uint64, hops int) (uint64, error) {
	perHop, err := smath.Add(swap, messageFee)
	if err != nil {
		return 0, err
	}
	return smath.Mul(perHop, uint64(hops))
}

// required returns the value an operation keeping [keep] needs to send
// its single output message.
func required(keep, messageFee uint64) (uint64, error) {
	return smath.Add(keep, messageFee)
}
