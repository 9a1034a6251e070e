// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package utils

import (
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
	"github.com/ava-labs/avalanchego/utils/perms"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	formatter "github.com/onsi/ginkgo/v2/formatter"
)

var (
	ErrNegativeAmount  = errors.New("amount is negative")
	ErrTooManyDecimals = errors.New("amount has too many decimal places")
	ErrAmountOverflow  = errors.New("amount does not fit in 256 bits")
)

func ToID(bytes []byte) ids.ID {
	return ids.ID(hashing.ComputeHash256Array(bytes))
}

func InitSubDirectory(rootPath string, name string) (string, error) {
	p := path.Join(rootPath, name)
	return p, os.MkdirAll(p, perms.ReadWriteExecute)
}

// Outputs to stdout.
//
// e.g.,
//
//	Outf("{{green}}{{bold}}pool %s{{/}}", addr)
//
// ref.
// https://github.com/onsi/ginkgo/blob/v2.0.0/formatter/formatter.go#L52-L73
func Outf(format string, args ...interface{}) {
	s := formatter.F(format, args...)
	fmt.Fprint(formatter.ColorableStdOut, s)
}

// FormatAmount renders [amount] base units of a token with [decimals]
// places.
func FormatAmount(amount *uint256.Int, decimals uint8) string {
	if amount == nil {
		amount = new(uint256.Int)
	}
	d := decimal.NewFromBigInt(amount.ToBig(), -int32(decimals))
	return d.StringFixed(int32(decimals))
}

// ParseAmount is the inverse of [FormatAmount]. Inputs with more precision
// than [decimals] are rejected rather than rounded.
func ParseAmount(s string, decimals uint8) (*uint256.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	if d.Sign() < 0 {
		return nil, ErrNegativeAmount
	}
	d = d.Shift(int32(decimals))
	if !d.IsInteger() {
		return nil, fmt.Errorf("%w: %s", ErrTooManyDecimals, s)
	}
	v, overflow := uint256.FromBig(d.BigInt())
	if overflow {
		return nil, ErrAmountOverflow
	}
	return v, nil
}

func Map[T any, R any](f func(T) R, a []T) []R {
	b := make([]R, len(a))
	for i, v := range a {
		b[i] = f(v)
	}
	return b
}
