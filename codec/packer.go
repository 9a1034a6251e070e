// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/holiman/uint256"

	"github.com/ava-labs/hyperamm/consts"
)

// Packer is a wrapper struct for the Packer struct
// from avalanchego/utils/wrappers/packing.go. A bool [required] parameter is
// added to many unpacking methods, which signals the packer to add an error
// if the expected method does not unpack properly.
type Packer struct {
	p *wrappers.Packer
}

// NewReader returns a Packer instance with the initial byte slice set to
// [src] and a MaxSize of [limit].
func NewReader(src []byte, limit int) *Packer {
	return &Packer{
		p: &wrappers.Packer{Bytes: src, MaxSize: limit},
	}
}

// NewWriter returns a Packer instance with an initial size of [initial] and a
// MaxSize set to [limit].
func NewWriter(initial, limit int) *Packer {
	return &Packer{
		p: &wrappers.Packer{MaxSize: limit, Bytes: make([]byte, 0, initial)},
	}
}

func (p *Packer) PackID(src ids.ID) {
	p.p.PackFixedBytes(src[:])
}

// UnpackID unpacks an avalanchego ID into [dest]. If [required] is true,
// and the unpacked bytes are empty, Packer will add an ErrFieldNotPopulated error.
func (p *Packer) UnpackID(required bool, dest *ids.ID) {
	copy((*dest)[:], p.p.UnpackFixedBytes(consts.IDLen))
	if required && *dest == ids.Empty {
		p.addErr(fmt.Errorf("%w: ID field is not populated", ErrFieldNotPopulated))
	}
}

func (p *Packer) PackAddress(a Address) {
	p.p.PackFixedBytes(a[:])
}

func (p *Packer) UnpackAddress(dest *Address) {
	copy((*dest)[:], p.p.UnpackFixedBytes(AddressLen))
}

// PackAddresses packs a length-prefixed list of addresses.
func (p *Packer) PackAddresses(addrs []Address) {
	p.p.PackInt(uint32(len(addrs)))
	for _, a := range addrs {
		p.PackAddress(a)
	}
}

// UnpackAddresses unpacks at most [limit] addresses.
func (p *Packer) UnpackAddresses(limit int, required bool) []Address {
	l := int(p.UnpackInt(required))
	if l > limit {
		p.addErr(fmt.Errorf("%w: %d > %d", ErrTooManyItems, l, limit))
		return nil
	}
	if l == 0 {
		return nil
	}
	addrs := make([]Address, l)
	for i := range addrs {
		p.UnpackAddress(&addrs[i])
	}
	return addrs
}

// PackUint256 packs [v] as a 32 byte big-endian word. A nil value is packed
// as zero.
func (p *Packer) PackUint256(v *uint256.Int) {
	if v == nil {
		v = new(uint256.Int)
	}
	b := v.Bytes32()
	p.p.PackFixedBytes(b[:])
}

// UnpackUint256 unpacks a 32 byte word. If [required] is true and the value
// is zero, Packer will add an ErrFieldNotPopulated error.
func (p *Packer) UnpackUint256(required bool) *uint256.Int {
	b := p.p.UnpackFixedBytes(consts.Uint256Len)
	v := new(uint256.Int)
	if len(b) != consts.Uint256Len {
		return v
	}
	v.SetBytes32(b)
	if required && v.IsZero() {
		p.addErr(fmt.Errorf("%w: Uint256 field is not populated", ErrFieldNotPopulated))
	}
	return v
}

// PackUint256s packs a length-prefixed list of amounts.
func (p *Packer) PackUint256s(vs []*uint256.Int) {
	p.p.PackInt(uint32(len(vs)))
	for _, v := range vs {
		p.PackUint256(v)
	}
}

// UnpackUint256s unpacks at most [limit] amounts.
func (p *Packer) UnpackUint256s(limit int) []*uint256.Int {
	l := int(p.UnpackInt(false))
	if l > limit {
		p.addErr(fmt.Errorf("%w: %d > %d", ErrTooManyItems, l, limit))
		return nil
	}
	if l == 0 {
		return nil
	}
	vs := make([]*uint256.Int, l)
	for i := range vs {
		vs[i] = p.UnpackUint256(false)
	}
	return vs
}

func (p *Packer) PackByte(b byte) {
	p.p.PackByte(b)
}

func (p *Packer) UnpackByte() byte {
	return p.p.UnpackByte()
}

func (p *Packer) PackBool(src bool) {
	p.p.PackBool(src)
}

func (p *Packer) UnpackBool() bool {
	return p.p.UnpackBool()
}

func (p *Packer) PackInt(v uint32) {
	p.p.PackInt(v)
}

// UnpackInt unpacks an int. If [required] is set to true and
// the int is 0, an ErrFieldNotPopulated error is added to the packer.
func (p *Packer) UnpackInt(required bool) uint32 {
	v := p.p.UnpackInt()
	if required && v == 0 {
		p.addErr(fmt.Errorf("%w: Int field is not populated", ErrFieldNotPopulated))
	}
	return v
}

func (p *Packer) PackUint64(v uint64) {
	p.p.PackLong(v)
}

// UnpackUint64 unpacks a uint64. If [required] is set to true and
// the value is 0, an ErrFieldNotPopulated error is added to the packer.
func (p *Packer) UnpackUint64(required bool) uint64 {
	v := p.p.UnpackLong()
	if required && v == 0 {
		p.addErr(fmt.Errorf("%w: Uint64 field is not populated", ErrFieldNotPopulated))
	}
	return v
}

func (p *Packer) PackBytes(b []byte) {
	p.p.PackBytes(b)
}

// UnpackBytes unpacks [limit] bytes into [dest]. Otherwise
// if [limit] >= 0, UnpackBytes unpacks a byte slice array into [dest].
func (p *Packer) UnpackBytes(limit int, required bool, dest *[]byte) {
	if limit >= 0 {
		*dest = p.p.UnpackLimitedBytes(uint32(limit))
	} else {
		*dest = p.p.UnpackBytes()
	}
	if required && len(*dest) == 0 {
		p.addErr(fmt.Errorf("%w: Bytes field is not populated", ErrFieldNotPopulated))
	}
}

func (p *Packer) PackFixedBytes(b []byte) {
	p.p.PackFixedBytes(b)
}

func (p *Packer) UnpackFixedBytes(size int, dest *[]byte) {
	copy((*dest), p.p.UnpackFixedBytes(size))
}

func (p *Packer) PackString(s string) {
	p.p.PackStr(s)
}

func (p *Packer) UnpackString(required bool) string {
	str := p.p.UnpackStr()
	if required && len(str) == 0 {
		p.addErr(fmt.Errorf("%w: String field is not populated", ErrFieldNotPopulated))
	}
	return str
}

// Empty is called after parsing a byte array to ensure there is no data left to consume.
func (p *Packer) Empty() bool {
	return p.p.Offset == len(p.p.Bytes)
}

// Done adds ErrTrailingBytes if the reader was not fully consumed.
func (p *Packer) Done() {
	if !p.Empty() {
		p.addErr(fmt.Errorf("%w: %d unread", ErrTrailingBytes, len(p.p.Bytes)-p.p.Offset))
	}
}

func (p *Packer) Err() error {
	return p.p.Err
}

func (p *Packer) Offset() int {
	return p.p.Offset
}

func (p *Packer) Bytes() []byte {
	return p.p.Bytes
}

func (p *Packer) addErr(err error) {
	p.p.Add(err)
}
