// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

import (
	"github.com/holiman/uint256"

	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/consts"
)

var (
	_ Operation = (*DepositLiquidity)(nil)
	_ Operation = (*WithdrawLiquidity)(nil)
)

// DepositLiquidity adds the carried assets to the receiving pool and mints
// LP to [Recipient]. With [AutoChange] the pool rebalances an uneven
// deposit instead of returning the excess.
type DepositLiquidity struct {
	CallID     uint64        `json:"callID"`
	AutoChange bool          `json:"autoChange"`
	ExpectedLP *uint256.Int  `json:"expectedLP"`
	Recipient  codec.Address `json:"recipient"`
	Referrer   codec.Address `json:"referrer"`
}

func (*DepositLiquidity) GetTypeID() uint8 {
	return DepositLiquidityID
}

func (d *DepositLiquidity) GetCallID() uint64 {
	return d.CallID
}

func (*DepositLiquidity) Size() int {
	return consts.Uint64Len + consts.BoolLen + consts.Uint64Len + consts.Uint256Len + 2*codec.AddressLen
}

func (d *DepositLiquidity) Marshal(p *codec.Packer) {
	p.PackUint64(d.CallID)
	p.PackBool(d.AutoChange)
	op := codec.NewOptionalWriter(consts.Uint256Len + 2*codec.AddressLen)
	op.PackUint256(d.ExpectedLP)
	op.PackAddress(d.Recipient)
	op.PackAddress(d.Referrer)
	p.PackOptional(op)
}

func UnmarshalDepositLiquidity(p *codec.Packer) (Operation, error) {
	var d DepositLiquidity
	d.CallID = p.UnpackUint64(false)
	d.AutoChange = p.UnpackBool()
	op := p.NewOptionalReader()
	d.ExpectedLP = op.UnpackUint256()
	op.UnpackAddress(&d.Recipient)
	op.UnpackAddress(&d.Referrer)
	op.Done()
	return &d, p.Err()
}

// WithdrawLiquidity burns the carried LP. With [OutToken] set the whole
// withdrawal is paid in that token.
type WithdrawLiquidity struct {
	CallID    uint64        `json:"callID"`
	OutToken  codec.Address `json:"outToken"`
	Recipient codec.Address `json:"recipient"`
	Referrer  codec.Address `json:"referrer"`

	// ExpectedAmounts is parallel to the pool tokens, or holds the single
	// bound on OutToken. Empty means no bound.
	ExpectedAmounts []*uint256.Int `json:"expectedAmounts"`
}

func (*WithdrawLiquidity) GetTypeID() uint8 {
	return WithdrawLiquidityID
}

func (w *WithdrawLiquidity) GetCallID() uint64 {
	return w.CallID
}

func (w *WithdrawLiquidity) Size() int {
	return consts.Uint64Len + consts.Uint64Len + 3*codec.AddressLen +
		consts.IntLen + len(w.ExpectedAmounts)*consts.Uint256Len
}

func (w *WithdrawLiquidity) Marshal(p *codec.Packer) {
	p.PackUint64(w.CallID)
	op := codec.NewOptionalWriter(3 * codec.AddressLen)
	op.PackAddress(w.OutToken)
	op.PackAddress(w.Recipient)
	op.PackAddress(w.Referrer)
	p.PackOptional(op)
	p.PackUint256s(w.ExpectedAmounts)
}

func UnmarshalWithdrawLiquidity(p *codec.Packer) (Operation, error) {
	var w WithdrawLiquidity
	w.CallID = p.UnpackUint64(false)
	op := p.NewOptionalReader()
	op.UnpackAddress(&w.OutToken)
	op.UnpackAddress(&w.Recipient)
	op.UnpackAddress(&w.Referrer)
	op.Done()
	w.ExpectedAmounts = p.UnpackUint256s(consts.MaxPoolTokens)
	return &w, p.Err()
}

// SingleCoin reports whether the withdrawal is paid in one token.
func (w *WithdrawLiquidity) SingleCoin() bool {
	return w.OutToken != codec.EmptyAddress
}
