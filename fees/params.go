// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fees

import (
	"bytes"
	"fmt"

	"github.com/holiman/uint256"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/consts"

	smath "github.com/ava-labs/avalanchego/utils/math"
)

// MaxThresholds bounds each threshold table.
const MaxThresholds = 64

// Params is the fee configuration of a single pool. All rates are
// Numerator/Denominator of the input amount.
type Params struct {
	Denominator          uint64        `json:"denominator"`
	PoolNumerator        uint64        `json:"poolNumerator"`
	BeneficiaryNumerator uint64        `json:"beneficiaryNumerator"`
	ReferrerNumerator    uint64        `json:"referrerNumerator"`
	Beneficiary          codec.Address `json:"beneficiary"`

	// Threshold is the beneficiary amount per token that triggers a push.
	// Tokens without an entry accumulate until withdrawn.
	Threshold map[codec.Address]*uint256.Int `json:"threshold"`
	// ReferrerThreshold is the referrer amount per token that triggers a
	// push. Tokens without an entry are paid out immediately.
	ReferrerThreshold map[codec.Address]*uint256.Int `json:"referrerThreshold"`
}

// Numerator returns the sum of the pool, beneficiary and referrer numerators.
func (p *Params) Numerator() uint64 {
	n, err := p.numerator()
	if err != nil {
		return consts.MaxUint64
	}
	return n
}

func (p *Params) numerator() (uint64, error) {
	n, err := smath.Add(p.PoolNumerator, p.BeneficiaryNumerator)
	if err != nil {
		return 0, ErrNumeratorOverflow
	}
	n, err = smath.Add(n, p.ReferrerNumerator)
	if err != nil {
		return 0, ErrNumeratorOverflow
	}
	return n, nil
}

func (p *Params) Verify() error {
	if p.Denominator == 0 {
		return ErrZeroDenominator
	}
	n, err := p.numerator()
	if err != nil {
		return err
	}
	if n >= p.Denominator {
		return fmt.Errorf("%w: %d >= %d", ErrNumeratorTooLarge, n, p.Denominator)
	}
	if p.BeneficiaryNumerator > 0 && p.Beneficiary == codec.EmptyAddress {
		return ErrMissingBeneficiary
	}
	if len(p.Threshold) > MaxThresholds || len(p.ReferrerThreshold) > MaxThresholds {
		return ErrTooManyThresholds
	}
	for _, v := range p.Threshold {
		if v == nil {
			return ErrInvalidThreshold
		}
	}
	for _, v := range p.ReferrerThreshold {
		if v == nil {
			return ErrInvalidThreshold
		}
	}
	return nil
}

// Copy returns a deep copy of p.
func (p *Params) Copy() *Params {
	c := *p
	c.Threshold = copyThresholds(p.Threshold)
	c.ReferrerThreshold = copyThresholds(p.ReferrerThreshold)
	return &c
}

func copyThresholds(m map[codec.Address]*uint256.Int) map[codec.Address]*uint256.Int {
	c := make(map[codec.Address]*uint256.Int, len(m))
	for k, v := range m {
		if v != nil {
			c[k] = v.Clone()
		}
	}
	return c
}

func (p *Params) Size() int {
	return 4*consts.Uint64Len + codec.AddressLen +
		2*consts.IntLen +
		(len(p.Threshold)+len(p.ReferrerThreshold))*(codec.AddressLen+consts.Uint256Len)
}

func (p *Params) Marshal(pk *codec.Packer) {
	pk.PackUint64(p.Denominator)
	pk.PackUint64(p.PoolNumerator)
	pk.PackUint64(p.BeneficiaryNumerator)
	pk.PackUint64(p.ReferrerNumerator)
	pk.PackAddress(p.Beneficiary)
	packThresholds(pk, p.Threshold)
	packThresholds(pk, p.ReferrerThreshold)
}

func UnmarshalParams(pk *codec.Packer) (*Params, error) {
	var p Params
	p.Denominator = pk.UnpackUint64(true)
	p.PoolNumerator = pk.UnpackUint64(false)
	p.BeneficiaryNumerator = pk.UnpackUint64(false)
	p.ReferrerNumerator = pk.UnpackUint64(false)
	pk.UnpackAddress(&p.Beneficiary)
	var err error
	if p.Threshold, err = unpackThresholds(pk); err != nil {
		return nil, err
	}
	if p.ReferrerThreshold, err = unpackThresholds(pk); err != nil {
		return nil, err
	}
	if err := pk.Err(); err != nil {
		return nil, err
	}
	return &p, p.Verify()
}

// SortedTokens returns the keys of m in byte order.
func SortedTokens[V any](m map[codec.Address]V) []codec.Address {
	keys := maps.Keys(m)
	slices.SortFunc(keys, func(a, b codec.Address) int {
		return bytes.Compare(a[:], b[:])
	})
	return keys
}

func packThresholds(pk *codec.Packer, m map[codec.Address]*uint256.Int) {
	pk.PackInt(uint32(len(m)))
	for _, k := range SortedTokens(m) {
		pk.PackAddress(k)
		pk.PackUint256(m[k])
	}
}

func unpackThresholds(pk *codec.Packer) (map[codec.Address]*uint256.Int, error) {
	l := int(pk.UnpackInt(false))
	if l > MaxThresholds {
		return nil, ErrTooManyThresholds
	}
	m := make(map[codec.Address]*uint256.Int, l)
	for i := 0; i < l; i++ {
		var k codec.Address
		pk.UnpackAddress(&k)
		m[k] = pk.UnpackUint256(false)
	}
	return m, nil
}
