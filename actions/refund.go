// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

import (
	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/consts"
)

var _ Operation = (*Refund)(nil)

// Refund accompanies funds a pool returns to the actor that sent them. A
// pool receiving a Refund passes the funds on to [Recipient].
type Refund struct {
	CallID    uint64        `json:"callID"`
	Recipient codec.Address `json:"recipient"`
	Reason    Reason        `json:"reason"`
}

func (*Refund) GetTypeID() uint8 {
	return RefundID
}

func (r *Refund) GetCallID() uint64 {
	return r.CallID
}

func (*Refund) Size() int {
	return consts.Uint64Len + codec.AddressLen + consts.ByteLen
}

func (r *Refund) Marshal(p *codec.Packer) {
	p.PackUint64(r.CallID)
	p.PackAddress(r.Recipient)
	p.PackByte(byte(r.Reason))
}

func UnmarshalRefund(p *codec.Packer) (Operation, error) {
	var r Refund
	r.CallID = p.UnpackUint64(false)
	p.UnpackAddress(&r.Recipient)
	r.Reason = Reason(p.UnpackByte())
	if err := p.Err(); err != nil {
		return nil, err
	}
	if r.Recipient == codec.EmptyAddress {
		return nil, ErrInvalidRecipient
	}
	return &r, nil
}
