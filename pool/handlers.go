// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"context"
	"errors"

	"github.com/holiman/uint256"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/ava-labs/hyperamm/actions"
	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/event"
	"github.com/ava-labs/hyperamm/fees"
	"github.com/ava-labs/hyperamm/pricing"
	"github.com/ava-labs/hyperamm/storage"
	"github.com/ava-labs/hyperamm/token"
	"github.com/ava-labs/hyperamm/vm"
)

// handler applies one operation to a loaded pool record.
type handler struct {
	*Pool

	c   *vm.Context
	msg *vm.Message
	rec *storage.Pool

	// dirty is set once [rec] must be written back.
	dirty bool
}

func (h *handler) swap(s *actions.Swap) error {
	recipient := actions.RecipientOr(s.Recipient, h.msg.From)
	need, err := RouteValue(h.gas.Swap, h.c.MessageFee(), 1+len(s.Next))
	if err != nil || h.msg.Value < need {
		return h.refund(s, recipient, actions.ReasonLowGas)
	}
	if !h.rec.Active {
		return h.refund(s, recipient, actions.ReasonInactive)
	}
	if len(s.Tokens) > 0 && !slices.Equal(s.Tokens, h.rec.Tokens) {
		return h.refund(s, recipient, actions.ReasonInvalidRoute)
	}
	in, amount, ok := h.single()
	if !ok {
		return h.refund(s, recipient, actions.ReasonInvalidAmounts)
	}
	i, iok := h.rec.Index(in)
	j, jok := h.rec.Index(s.OutToken)
	if !iok || !jok || i == j {
		return h.refund(s, recipient, actions.ReasonUnknownToken)
	}
	model, err := h.rec.Model()
	if err != nil {
		return err
	}
	res, err := model.ExpectedExchange(i, j, amount, s.Referrer != codec.EmptyAddress)
	if err != nil {
		return h.refund(s, recipient, reasonFor(err))
	}
	if res.AmountOut.Lt(s.Expected()) {
		return h.refund(s, recipient, actions.ReasonWrongRate)
	}

	h.rec.Reserves = res.Reserves
	h.dirty = true
	h.accrue(s.CallID, in, res.Fee, s.Referrer)

	out := []token.Amount{{Token: s.OutToken, Amount: res.AmountOut}}
	value := h.msg.Value - h.gas.Swap
	if next, fwd, ok := s.Forward(); ok {
		// Later hops return their output to the recipient resolved here.
		fwd.Recipient = recipient
		payload, err := actions.Marshal(fwd)
		if err != nil {
			return err
		}
		h.c.Send(next, value, out, payload)
	} else {
		h.c.Send(recipient, value, out, nil)
	}
	h.metrics.operations.WithLabelValues("swap").Inc()
	h.c.Emit(&event.Event{
		Pool:      h.address,
		Kind:      event.Exchange,
		CallID:    s.CallID,
		Sender:    h.msg.From,
		Recipient: recipient,
		In:        h.msg.Assets,
		Out:       out,
		Fees:      []token.Amount{{Token: in, Amount: res.Fee.Total}},
	})
	return nil
}

func (h *handler) deposit(ctx context.Context, d *actions.DepositLiquidity) error {
	recipient := actions.RecipientOr(d.Recipient, h.msg.From)
	if !h.hasValue(h.gas.Deposit) {
		return h.refund(d, recipient, actions.ReasonLowGas)
	}
	if !h.rec.Active {
		return h.refund(d, recipient, actions.ReasonInactive)
	}
	if len(h.msg.Assets) == 0 {
		return h.refund(d, recipient, actions.ReasonInvalidAmounts)
	}
	amounts := make([]*uint256.Int, len(h.rec.Tokens))
	for i := range amounts {
		amounts[i] = new(uint256.Int)
	}
	for _, a := range h.msg.Assets {
		i, ok := h.rec.Index(a.Token)
		if !ok {
			return h.refund(d, recipient, actions.ReasonUnknownToken)
		}
		if _, overflow := amounts[i].AddOverflow(amounts[i], a.Amount); overflow {
			return h.refund(d, recipient, actions.ReasonInvalidAmounts)
		}
	}
	model, err := h.rec.Model()
	if err != nil {
		return err
	}
	res, err := model.ExpectedDeposit(amounts, d.AutoChange, d.Referrer != codec.EmptyAddress)
	if err != nil {
		return h.refund(d, recipient, reasonFor(err))
	}
	if d.ExpectedLP != nil && res.LP.Lt(d.ExpectedLP) {
		return h.refund(d, recipient, actions.ReasonWrongRate)
	}

	h.rec.Reserves = res.Reserves
	h.rec.LPSupply = res.LPSupply
	h.dirty = true
	for i, split := range res.Fees {
		h.accrue(d.CallID, h.rec.Tokens[i], split, d.Referrer)
	}
	if err := h.c.Mint(ctx, h.rec.LPToken, res.LP); err != nil {
		return err
	}
	change := nonZero(h.rec.Tokens, res.Change)
	out := append([]token.Amount{{Token: h.rec.LPToken, Amount: res.LP}}, change...)
	h.c.Send(recipient, h.msg.Value-h.gas.Deposit, out, nil)
	h.metrics.operations.WithLabelValues("deposit").Inc()
	h.c.Emit(&event.Event{
		Pool:      h.address,
		Kind:      event.DepositLiquidity,
		CallID:    d.CallID,
		Sender:    h.msg.From,
		Recipient: recipient,
		In:        nonZero(h.rec.Tokens, res.Amounts),
		Out:       change,
		Fees:      feeTotals(h.rec.Tokens, res.Fees),
		LP:        res.LP,
	})
	return nil
}

func (h *handler) withdraw(ctx context.Context, w *actions.WithdrawLiquidity) error {
	recipient := actions.RecipientOr(w.Recipient, h.msg.From)
	if !h.hasValue(h.gas.Withdraw) {
		return h.refund(w, recipient, actions.ReasonLowGas)
	}
	if !h.rec.Active {
		return h.refund(w, recipient, actions.ReasonInactive)
	}
	lpToken, lp, ok := h.single()
	if !ok || lpToken != h.rec.LPToken {
		return h.refund(w, recipient, actions.ReasonInvalidAmounts)
	}
	model, err := h.rec.Model()
	if err != nil {
		return err
	}

	var res *pricing.WithdrawResult
	if w.SingleCoin() {
		out, ok := h.rec.Index(w.OutToken)
		if !ok {
			return h.refund(w, recipient, actions.ReasonUnknownToken)
		}
		if len(w.ExpectedAmounts) > 1 {
			return h.refund(w, recipient, actions.ReasonInvalidAmounts)
		}
		res, err = model.ExpectedWithdrawOne(lp, out, w.Referrer != codec.EmptyAddress)
		if err != nil {
			return h.refund(w, recipient, reasonFor(err))
		}
		if len(w.ExpectedAmounts) == 1 && res.Amounts[out].Lt(w.ExpectedAmounts[0]) {
			return h.refund(w, recipient, actions.ReasonWrongRate)
		}
	} else {
		if n := len(w.ExpectedAmounts); n != 0 && n != len(h.rec.Tokens) {
			return h.refund(w, recipient, actions.ReasonInvalidAmounts)
		}
		res, err = model.ExpectedWithdraw(lp)
		if err != nil {
			return h.refund(w, recipient, reasonFor(err))
		}
		for i, expected := range w.ExpectedAmounts {
			if expected != nil && res.Amounts[i].Lt(expected) {
				return h.refund(w, recipient, actions.ReasonWrongRate)
			}
		}
	}

	h.rec.Reserves = res.Reserves
	h.rec.LPSupply = res.LPSupply
	h.dirty = true
	for i, split := range res.Fees {
		h.accrue(w.CallID, h.rec.Tokens[i], split, w.Referrer)
	}
	if err := h.c.Burn(ctx, h.rec.LPToken, lp); err != nil {
		return err
	}
	out := nonZero(h.rec.Tokens, res.Amounts)
	h.c.Send(recipient, h.msg.Value-h.gas.Withdraw, out, nil)
	h.metrics.operations.WithLabelValues("withdraw").Inc()
	h.c.Emit(&event.Event{
		Pool:      h.address,
		Kind:      event.WithdrawLiquidity,
		CallID:    w.CallID,
		Sender:    h.msg.From,
		Recipient: recipient,
		In:        h.msg.Assets,
		Out:       out,
		Fees:      feeTotals(h.rec.Tokens, res.Fees),
		LP:        lp,
	})
	return nil
}

// refund returns everything [h.msg] carried to its sender. A sender that is
// itself a pool passes the funds on to [recipient].
func (h *handler) refund(op actions.Operation, recipient codec.Address, reason actions.Reason) error {
	payload, err := actions.Marshal(&actions.Refund{
		CallID:    op.GetCallID(),
		Recipient: recipient,
		Reason:    reason,
	})
	if err != nil {
		return err
	}
	h.c.Send(h.msg.From, h.msg.Value, h.msg.Assets, payload)
	h.metrics.refunds.WithLabelValues(reason.String()).Inc()
	h.c.Log().Debug("refunding operation",
		zap.Stringer("pool", h.address),
		zap.Uint8("op", op.GetTypeID()),
		zap.Uint64("callID", op.GetCallID()),
		zap.Stringer("from", h.msg.From),
		zap.Stringer("reason", reason),
	)
	h.c.Emit(&event.Event{
		Pool:      h.address,
		Kind:      event.Cancelled,
		CallID:    op.GetCallID(),
		Sender:    h.msg.From,
		Recipient: recipient,
		In:        h.msg.Assets,
		Reason:    reason.String(),
	})
	return nil
}

// accrue records the beneficiary and referrer shares of [split] and sends
// every entry that reached its threshold.
func (h *handler) accrue(callID uint64, tok codec.Address, split fees.Split, referrer codec.Address) {
	for _, p := range h.rec.Ledger.Accrue(tok, split, referrer, h.rec.Fees) {
		h.pay(callID, p)
	}
}

func (h *handler) pay(callID uint64, p fees.Payout) {
	out := []token.Amount{{Token: p.Token, Amount: p.Amount}}
	h.c.Send(p.To, 0, out, nil)
	h.metrics.payouts.Inc()
	h.c.Emit(&event.Event{
		Pool:      h.address,
		Kind:      event.FeesPaid,
		CallID:    callID,
		Recipient: p.To,
		Out:       out,
	})
}

// single returns the only asset carried by the message.
func (h *handler) single() (codec.Address, *uint256.Int, bool) {
	if len(h.msg.Assets) != 1 || h.msg.Assets[0].Amount.IsZero() {
		return codec.EmptyAddress, nil, false
	}
	a := h.msg.Assets[0]
	return a.Token, a.Amount, true
}

// hasValue reports whether the message pays for [keep] and one outgoing
// message.
func (h *handler) hasValue(keep uint64) bool {
	need, err := required(keep, h.c.MessageFee())
	return err == nil && h.msg.Value >= need
}

func reasonFor(err error) actions.Reason {
	switch {
	case errors.Is(err, pricing.ErrInsufficientLiquidity),
		errors.Is(err, pricing.ErrInsufficientLPSupply),
		errors.Is(err, pricing.ErrWithdrawAllOneToken),
		errors.Is(err, pricing.ErrReservesZero),
		errors.Is(err, pricing.ErrZeroOutput),
		errors.Is(err, pricing.ErrOutputInsufficientLiquidityMinted):
		return actions.ReasonInsufficientLiquidity
	default:
		return actions.ReasonInvalidAmounts
	}
}

func nonZero(tokens []codec.Address, amounts []*uint256.Int) []token.Amount {
	var out []token.Amount
	for i, a := range amounts {
		if a != nil && !a.IsZero() {
			out = append(out, token.Amount{Token: tokens[i], Amount: a})
		}
	}
	return out
}

func feeTotals(tokens []codec.Address, splits []fees.Split) []token.Amount {
	var out []token.Amount
	for i, s := range splits {
		if s.Total != nil && !s.Total.IsZero() {
			out = append(out, token.Amount{Token: tokens[i], Amount: s.Total})
		}
	}
	return out
}
