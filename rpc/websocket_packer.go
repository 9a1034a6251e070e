// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"fmt"

	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/consts"
	"github.com/ava-labs/hyperamm/event"
	"github.com/ava-labs/hyperamm/token"
)

const (
	SubscribeMode byte = 0
	EventMode     byte = 1

	// maxEventAmounts bounds each amount list of a packed event.
	maxEventAmounts = 256
	// maxSubscribedPools bounds a single subscribe message.
	maxSubscribedPools = 1024
)

// PackSubscribeMessage asks for the events of [pools]. No pools subscribes
// to every pool.
func PackSubscribeMessage(pools []codec.Address) ([]byte, error) {
	p := codec.NewWriter(1+consts.IntLen+len(pools)*codec.AddressLen, consts.NetworkSizeLimit)
	p.PackByte(SubscribeMode)
	p.PackAddresses(pools)
	return p.Bytes(), p.Err()
}

// UnpackSubscribeMessage expects [msg] without its mode byte.
func UnpackSubscribeMessage(msg []byte) ([]codec.Address, error) {
	p := codec.NewReader(msg, consts.NetworkSizeLimit)
	pools := p.UnpackAddresses(maxSubscribedPools, false)
	p.Done()
	return pools, p.Err()
}

func PackEventMessage(e *event.Event) ([]byte, error) {
	p := codec.NewWriter(256, consts.NetworkSizeLimit)
	p.PackByte(EventMode)
	p.PackAddress(e.Pool)
	p.PackByte(byte(e.Kind))
	p.PackUint64(e.CallID)
	p.PackAddress(e.Sender)
	p.PackAddress(e.Recipient)
	packAmounts(p, e.In)
	packAmounts(p, e.Out)
	packAmounts(p, e.Fees)
	p.PackBool(e.LP != nil)
	if e.LP != nil {
		p.PackUint256(e.LP)
	}
	p.PackString(e.Reason)
	return p.Bytes(), p.Err()
}

// UnpackEventMessage expects [msg] without its mode byte.
func UnpackEventMessage(msg []byte) (*event.Event, error) {
	p := codec.NewReader(msg, consts.NetworkSizeLimit)
	e := &event.Event{}
	p.UnpackAddress(&e.Pool)
	e.Kind = event.Kind(p.UnpackByte())
	e.CallID = p.UnpackUint64(false)
	p.UnpackAddress(&e.Sender)
	p.UnpackAddress(&e.Recipient)
	var err error
	if e.In, err = unpackAmounts(p); err != nil {
		return nil, err
	}
	if e.Out, err = unpackAmounts(p); err != nil {
		return nil, err
	}
	if e.Fees, err = unpackAmounts(p); err != nil {
		return nil, err
	}
	if p.UnpackBool() {
		e.LP = p.UnpackUint256(false)
	}
	e.Reason = p.UnpackString(false)
	p.Done()
	if err := p.Err(); err != nil {
		return nil, err
	}
	return e, nil
}

func packAmounts(p *codec.Packer, amounts []token.Amount) {
	p.PackInt(uint32(len(amounts)))
	for _, a := range amounts {
		p.PackAddress(a.Token)
		p.PackUint256(a.Amount)
	}
}

func unpackAmounts(p *codec.Packer) ([]token.Amount, error) {
	l := int(p.UnpackInt(false))
	if l > maxEventAmounts {
		return nil, fmt.Errorf("%w: %d amounts", ErrTooManyAmounts, l)
	}
	if l == 0 {
		return nil, p.Err()
	}
	amounts := make([]token.Amount, l)
	for i := range amounts {
		p.UnpackAddress(&amounts[i].Token)
		amounts[i].Amount = p.UnpackUint256(false)
	}
	return amounts, p.Err()
}
