// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/consts"
)

var _ Operation = (*Swap)(nil)

// Step is one hop of a route: swap at [Pool] (which must hold [Tokens])
// into [OutToken], receiving at least [ExpectedAmount].
type Step struct {
	Pool           codec.Address   `json:"pool"`
	Tokens         []codec.Address `json:"tokens"`
	OutToken       codec.Address   `json:"outToken"`
	ExpectedAmount *uint256.Int    `json:"expectedAmount"`
}

func (s *Step) size() int {
	return 2*codec.AddressLen + codec.AddressesLen(s.Tokens) + consts.Uint256Len
}

func (s *Step) marshal(p *codec.Packer) {
	p.PackAddress(s.Pool)
	p.PackAddresses(s.Tokens)
	p.PackAddress(s.OutToken)
	p.PackUint256(s.ExpectedAmount)
}

func unmarshalStep(p *codec.Packer) Step {
	var s Step
	p.UnpackAddress(&s.Pool)
	s.Tokens = p.UnpackAddresses(consts.MaxPoolTokens, false)
	p.UnpackAddress(&s.OutToken)
	s.ExpectedAmount = p.UnpackUint256(false)
	return s
}

// Swap exchanges the carried asset for [OutToken] at the receiving pool.
// When [Next] is not empty the output is forwarded along it instead of
// being paid to [Recipient].
type Swap struct {
	CallID         uint64        `json:"callID"`
	OutToken       codec.Address `json:"outToken"`
	ExpectedAmount *uint256.Int  `json:"expectedAmount"`
	Recipient      codec.Address `json:"recipient"`
	Referrer       codec.Address `json:"referrer"`

	// Tokens optionally pins the tokens the receiving pool must hold.
	Tokens []codec.Address `json:"tokens"`
	Next   []Step          `json:"next"`
}

func (*Swap) GetTypeID() uint8 {
	return SwapID
}

func (s *Swap) GetCallID() uint64 {
	return s.CallID
}

func (s *Swap) Size() int {
	size := consts.Uint64Len + codec.AddressLen +
		consts.Uint64Len + consts.Uint256Len + 2*codec.AddressLen +
		codec.AddressesLen(s.Tokens) + consts.IntLen
	for i := range s.Next {
		size += s.Next[i].size()
	}
	return size
}

func (s *Swap) Marshal(p *codec.Packer) {
	p.PackUint64(s.CallID)
	p.PackAddress(s.OutToken)
	op := codec.NewOptionalWriter(consts.Uint256Len + 2*codec.AddressLen)
	op.PackUint256(s.ExpectedAmount)
	op.PackAddress(s.Recipient)
	op.PackAddress(s.Referrer)
	p.PackOptional(op)
	p.PackAddresses(s.Tokens)
	p.PackInt(uint32(len(s.Next)))
	for i := range s.Next {
		s.Next[i].marshal(p)
	}
}

func UnmarshalSwap(p *codec.Packer) (Operation, error) {
	var s Swap
	s.CallID = p.UnpackUint64(false)
	p.UnpackAddress(&s.OutToken)
	op := p.NewOptionalReader()
	s.ExpectedAmount = op.UnpackUint256()
	op.UnpackAddress(&s.Recipient)
	op.UnpackAddress(&s.Referrer)
	op.Done()
	s.Tokens = p.UnpackAddresses(consts.MaxPoolTokens, false)
	steps := int(p.UnpackInt(false))
	if steps > consts.MaxRouteSteps {
		return nil, fmt.Errorf("%w: %d", ErrTooManySteps, steps)
	}
	if steps > 0 {
		s.Next = make([]Step, steps)
		for i := range s.Next {
			s.Next[i] = unmarshalStep(p)
		}
	}
	if err := p.Err(); err != nil {
		return nil, err
	}
	if s.OutToken == codec.EmptyAddress {
		return nil, ErrMissingOutToken
	}
	for i := range s.Next {
		if s.Next[i].Pool == codec.EmptyAddress {
			return nil, ErrMissingPool
		}
		if s.Next[i].OutToken == codec.EmptyAddress {
			return nil, ErrMissingOutToken
		}
	}
	return &s, nil
}

// Forward returns the destination and payload of the next hop.
func (s *Swap) Forward() (codec.Address, *Swap, bool) {
	if len(s.Next) == 0 {
		return codec.EmptyAddress, nil, false
	}
	step := s.Next[0]
	return step.Pool, &Swap{
		CallID:         s.CallID,
		OutToken:       step.OutToken,
		ExpectedAmount: step.ExpectedAmount,
		Recipient:      s.Recipient,
		Referrer:       s.Referrer,
		Tokens:         step.Tokens,
		Next:           s.Next[1:],
	}, true
}

// Expected returns the minimum acceptable output.
func (s *Swap) Expected() *uint256.Int {
	if s.ExpectedAmount == nil {
		return new(uint256.Int)
	}
	return s.ExpectedAmount
}
