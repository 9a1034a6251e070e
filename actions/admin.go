// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

import (
	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/consts"
	"github.com/ava-labs/hyperamm/fees"
)

var (
	_ Operation = (*SetFeeParams)(nil)
	_ Operation = (*WithdrawBeneficiaryFee)(nil)
	_ Operation = (*WithdrawReferrerFee)(nil)
	_ Operation = (*SetActive)(nil)
)

// SetFeeParams replaces the fee configuration of a pool. Only the pool
// admin may send it.
type SetFeeParams struct {
	CallID uint64       `json:"callID"`
	Params *fees.Params `json:"params"`
}

func (*SetFeeParams) GetTypeID() uint8 {
	return SetFeeParamsID
}

func (s *SetFeeParams) GetCallID() uint64 {
	return s.CallID
}

func (s *SetFeeParams) Size() int {
	if s.Params == nil {
		return consts.Uint64Len + (&fees.Params{}).Size()
	}
	return consts.Uint64Len + s.Params.Size()
}

func (s *SetFeeParams) Marshal(p *codec.Packer) {
	p.PackUint64(s.CallID)
	params := s.Params
	if params == nil {
		params = &fees.Params{}
	}
	params.Marshal(p)
}

func UnmarshalSetFeeParams(p *codec.Packer) (Operation, error) {
	var s SetFeeParams
	s.CallID = p.UnpackUint64(false)
	params, err := fees.UnmarshalParams(p)
	if err != nil {
		return nil, err
	}
	s.Params = params
	return &s, nil
}

// WithdrawBeneficiaryFee pays out everything the pool holds for the
// beneficiary. Only the beneficiary may send it.
type WithdrawBeneficiaryFee struct {
	CallID uint64 `json:"callID"`
}

func (*WithdrawBeneficiaryFee) GetTypeID() uint8 {
	return WithdrawBeneficiaryFeeID
}

func (w *WithdrawBeneficiaryFee) GetCallID() uint64 {
	return w.CallID
}

func (*WithdrawBeneficiaryFee) Size() int {
	return consts.Uint64Len
}

func (w *WithdrawBeneficiaryFee) Marshal(p *codec.Packer) {
	p.PackUint64(w.CallID)
}

func UnmarshalWithdrawBeneficiaryFee(p *codec.Packer) (Operation, error) {
	w := &WithdrawBeneficiaryFee{CallID: p.UnpackUint64(false)}
	return w, p.Err()
}

// WithdrawReferrerFee pays out everything the pool holds for the sender.
type WithdrawReferrerFee struct {
	CallID uint64 `json:"callID"`
}

func (*WithdrawReferrerFee) GetTypeID() uint8 {
	return WithdrawReferrerFeeID
}

func (w *WithdrawReferrerFee) GetCallID() uint64 {
	return w.CallID
}

func (*WithdrawReferrerFee) Size() int {
	return consts.Uint64Len
}

func (w *WithdrawReferrerFee) Marshal(p *codec.Packer) {
	p.PackUint64(w.CallID)
}

func UnmarshalWithdrawReferrerFee(p *codec.Packer) (Operation, error) {
	w := &WithdrawReferrerFee{CallID: p.UnpackUint64(false)}
	return w, p.Err()
}

// SetActive enables or disables swaps and deposits. Only the pool admin may
// send it.
type SetActive struct {
	CallID uint64 `json:"callID"`
	Active bool   `json:"active"`
}

func (*SetActive) GetTypeID() uint8 {
	return SetActiveID
}

func (s *SetActive) GetCallID() uint64 {
	return s.CallID
}

func (*SetActive) Size() int {
	return consts.Uint64Len + consts.BoolLen
}

func (s *SetActive) Marshal(p *codec.Packer) {
	p.PackUint64(s.CallID)
	p.PackBool(s.Active)
}

func UnmarshalSetActive(p *codec.Packer) (Operation, error) {
	var s SetActive
	s.CallID = p.UnpackUint64(false)
	s.Active = p.UnpackBool()
	return &s, p.Err()
}
