// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import (
	"github.com/ava-labs/avalanchego/utils/set"
	"github.com/holiman/uint256"

	"github.com/ava-labs/hyperamm/consts"
)

// OptionalPacker records which of a sequence of optional fields are present
// in a bitset [b] and packs only the present ones into [ip].
type OptionalPacker struct {
	b      set.Bits64
	offset uint8
	ip     *Packer
}

// NewOptionalWriter returns an OptionalPacker backed by a new Packer with an
// initial capacity of [initial].
func NewOptionalWriter(initial int) *OptionalPacker {
	return &OptionalPacker{
		ip: NewWriter(initial, consts.MaxInt),
	}
}

// NewOptionalReader reads the bitset from [p] and returns an OptionalPacker
// reading fields from [p].
func (p *Packer) NewOptionalReader() *OptionalPacker {
	o := &OptionalPacker{
		ip: p,
	}
	o.b = set.Bits64(o.ip.UnpackUint64(false))
	return o
}

func (o *OptionalPacker) setBit() {
	if o.offset > consts.MaxUint64Offset {
		o.ip.addErr(ErrTooManyItems)
		return
	}
	o.b.Add(uint(o.offset))
	o.offset++
}

func (o *OptionalPacker) skipBit() {
	if o.offset > consts.MaxUint64Offset {
		o.ip.addErr(ErrTooManyItems)
		return
	}
	o.offset++
}

func (o *OptionalPacker) checkBit() bool {
	result := o.b.Contains(uint(o.offset))
	o.offset++
	return result
}

// PackUint64 packs [l] if it is not 0.
func (o *OptionalPacker) PackUint64(l uint64) {
	if l == 0 {
		o.skipBit()
		return
	}
	o.ip.PackUint64(l)
	o.setBit()
}

// UnpackUint64 returns 0 when the field is absent.
func (o *OptionalPacker) UnpackUint64() uint64 {
	if o.checkBit() {
		return o.ip.UnpackUint64(true)
	}
	return 0
}

// PackAddress packs [addr] if it is not empty.
func (o *OptionalPacker) PackAddress(addr Address) {
	if addr == EmptyAddress {
		o.skipBit()
		return
	}
	o.ip.PackAddress(addr)
	o.setBit()
}

// UnpackAddress sets [dest] to EmptyAddress when the field is absent.
func (o *OptionalPacker) UnpackAddress(dest *Address) {
	if o.checkBit() {
		o.ip.UnpackAddress(dest)
	} else {
		*dest = EmptyAddress
	}
}

// PackUint256 packs [v] if it is not nil or zero.
func (o *OptionalPacker) PackUint256(v *uint256.Int) {
	if v == nil || v.IsZero() {
		o.skipBit()
		return
	}
	o.ip.PackUint256(v)
	o.setBit()
}

// UnpackUint256 returns zero when the field is absent.
func (o *OptionalPacker) UnpackUint256() *uint256.Int {
	if o.checkBit() {
		return o.ip.UnpackUint256(true)
	}
	return new(uint256.Int)
}

// PackOptional packs the bitset followed by the present fields.
func (p *Packer) PackOptional(o *OptionalPacker) {
	p.PackUint64(uint64(o.b))
	p.PackFixedBytes(o.ip.Bytes())
}

// Done asserts that no bits are set above the largest read offset.
func (o *OptionalPacker) Done() {
	if o.offset == consts.MaxUint64Offset+1 {
		return
	}
	var maxSet set.Bits64
	maxSet.Add(uint(o.offset))
	if o.b < maxSet {
		return
	}
	o.ip.addErr(ErrInvalidBitset)
}

// Err returns any error associated with the inner Packer.
func (o *OptionalPacker) Err() error {
	return o.ip.Err()
}
