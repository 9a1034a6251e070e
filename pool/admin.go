// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"github.com/ava-labs/hyperamm/actions"
	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/event"
)

// Direct calls are accepted whether or not the pool is active.

func (h *handler) setFeeParams(o *actions.SetFeeParams) error {
	if reason, ok := h.authorize(h.rec.Admin); !ok {
		return h.refund(o, h.msg.From, reason)
	}
	if o.Params == nil || o.Params.Verify() != nil {
		return h.refund(o, h.msg.From, actions.ReasonInvalidAmounts)
	}
	h.rec.Fees = o.Params.Copy()
	h.dirty = true
	h.returnRest()
	h.metrics.operations.WithLabelValues("setFeeParams").Inc()
	h.c.Emit(&event.Event{
		Pool:   h.address,
		Kind:   event.FeeParamsUpdated,
		CallID: o.CallID,
		Sender: h.msg.From,
	})
	return nil
}

func (h *handler) setActive(o *actions.SetActive) error {
	if reason, ok := h.authorize(h.rec.Admin); !ok {
		return h.refund(o, h.msg.From, reason)
	}
	h.rec.Active = o.Active
	h.dirty = true
	h.returnRest()
	h.metrics.operations.WithLabelValues("setActive").Inc()
	reason := "inactive"
	if o.Active {
		reason = "active"
	}
	h.c.Emit(&event.Event{
		Pool:   h.address,
		Kind:   event.ActiveChanged,
		CallID: o.CallID,
		Sender: h.msg.From,
		Reason: reason,
	})
	return nil
}

// withdrawBeneficiaryFee pays every beneficiary entry regardless of its
// threshold.
func (h *handler) withdrawBeneficiaryFee(o *actions.WithdrawBeneficiaryFee) error {
	if reason, ok := h.authorize(h.rec.Fees.Beneficiary); !ok {
		return h.refund(o, h.msg.From, reason)
	}
	for _, p := range h.rec.Ledger.FlushBeneficiary(h.rec.Fees.Beneficiary) {
		h.pay(o.CallID, p)
		h.dirty = true
	}
	h.returnRest()
	h.metrics.operations.WithLabelValues("withdrawBeneficiaryFee").Inc()
	return nil
}

// withdrawReferrerFee pays everything held for the sender.
func (h *handler) withdrawReferrerFee(o *actions.WithdrawReferrerFee) error {
	if reason, ok := h.authorize(h.msg.From); !ok {
		return h.refund(o, h.msg.From, reason)
	}
	for _, p := range h.rec.Ledger.FlushReferrer(h.msg.From) {
		h.pay(o.CallID, p)
		h.dirty = true
	}
	h.returnRest()
	h.metrics.operations.WithLabelValues("withdrawReferrerFee").Inc()
	return nil
}

// authorize checks the call value and that the message comes from
// [caller].
func (h *handler) authorize(caller codec.Address) (actions.Reason, bool) {
	switch {
	case h.msg.Value < h.gas.Call:
		return actions.ReasonLowGas, false
	case caller == codec.EmptyAddress || h.msg.From != caller:
		return actions.ReasonUnauthorized, false
	default:
		return actions.ReasonUnknown, true
	}
}

// returnRest sends the sender whatever the call did not use.
func (h *handler) returnRest() {
	rest := h.msg.Value - h.gas.Call
	if rest == 0 && len(h.msg.Assets) == 0 {
		return
	}
	h.c.Send(h.msg.From, rest, h.msg.Assets, nil)
}
