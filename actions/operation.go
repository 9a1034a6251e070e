// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

import (
	"fmt"

	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/consts"
)

// Operation is the decoded payload of a message sent to a pool.
type Operation interface {
	GetTypeID() uint8
	GetCallID() uint64
	Size() int
	Marshal(p *codec.Packer)
}

var Parser *codec.TypeParser[Operation]

func init() {
	Parser = codec.NewTypeParser[Operation]()
	errs := []error{
		Parser.Register(SwapID, &Swap{}, UnmarshalSwap),
		Parser.Register(DepositLiquidityID, &DepositLiquidity{}, UnmarshalDepositLiquidity),
		Parser.Register(WithdrawLiquidityID, &WithdrawLiquidity{}, UnmarshalWithdrawLiquidity),
		Parser.Register(RefundID, &Refund{}, UnmarshalRefund),
		Parser.Register(SetFeeParamsID, &SetFeeParams{}, UnmarshalSetFeeParams),
		Parser.Register(WithdrawBeneficiaryFeeID, &WithdrawBeneficiaryFee{}, UnmarshalWithdrawBeneficiaryFee),
		Parser.Register(WithdrawReferrerFeeID, &WithdrawReferrerFee{}, UnmarshalWithdrawReferrerFee),
		Parser.Register(SetActiveID, &SetActive{}, UnmarshalSetActive),
	}
	for _, err := range errs {
		if err != nil {
			panic(err)
		}
	}
}

// Marshal encodes [op] prefixed by its type ID.
func Marshal(op Operation) ([]byte, error) {
	id, _, ok := Parser.LookupType(op)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnregisteredAction, op)
	}
	p := codec.NewWriter(consts.ByteLen+op.Size(), consts.NetworkSizeLimit)
	p.PackByte(id)
	op.Marshal(p)
	if err := p.Err(); err != nil {
		return nil, err
	}
	return p.Bytes(), nil
}

// Unmarshal decodes a payload produced by Marshal.
func Unmarshal(b []byte) (Operation, error) {
	if len(b) == 0 {
		return nil, ErrEmptyPayload
	}
	p := codec.NewReader(b, consts.NetworkSizeLimit)
	id := p.UnpackByte()
	f, ok := Parser.LookupIndex(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOperation, id)
	}
	op, err := f(p)
	if err != nil {
		return nil, err
	}
	p.Done()
	if err := p.Err(); err != nil {
		return nil, err
	}
	return op, nil
}

// RecipientOr returns [recipient], or [fallback] when none was named.
func RecipientOr(recipient, fallback codec.Address) codec.Address {
	if recipient == codec.EmptyAddress {
		return fallback
	}
	return recipient
}
