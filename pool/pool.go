// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ava-labs/hyperamm/actions"
	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/event"
	"github.com/ava-labs/hyperamm/storage"
	"github.com/ava-labs/hyperamm/vm"

	oteltrace "go.opentelemetry.io/otel/trace"
)

var _ vm.Actor = (*Pool)(nil)

// Pool is the actor of a single liquidity pool. Everything it knows lives
// in the pool record, so handlers reload it for every message.
type Pool struct {
	address codec.Address
	gas     Gas
	metrics *Metrics
}

func New(address codec.Address, gas Gas, metrics *Metrics) *Pool {
	return &Pool{
		address: address,
		gas:     gas,
		metrics: metrics,
	}
}

func (p *Pool) Address() codec.Address {
	return p.address
}

func (p *Pool) Gas() Gas {
	return p.gas
}

// Receive applies the operation carried by [msg]. Operations that cannot be
// applied are refunded to the sender; only failures to read or write state
// are returned.
func (p *Pool) Receive(ctx context.Context, c *vm.Context, msg *vm.Message) error {
	ctx, span := c.Tracer().Start(ctx, "Pool.Receive", oteltrace.WithAttributes(
		attribute.String("pool", p.address.String()),
		attribute.Bool("bounced", msg.Bounced),
	))
	defer span.End()

	if msg.Bounced {
		p.returned(c, msg)
		return nil
	}
	op, err := actions.Unmarshal(msg.Payload)
	if err != nil {
		p.donate(c, msg, err)
		return nil
	}
	span.SetAttributes(attribute.Int("op", int(op.GetTypeID())))
	if r, ok := op.(*actions.Refund); ok {
		p.passOn(c, msg, r)
		return nil
	}

	rec, err := storage.GetPool(ctx, c.State(), p.address)
	if err != nil {
		return err
	}
	h := &handler{Pool: p, c: c, msg: msg, rec: rec}
	switch o := op.(type) {
	case *actions.Swap:
		err = h.swap(o)
	case *actions.DepositLiquidity:
		err = h.deposit(ctx, o)
	case *actions.WithdrawLiquidity:
		err = h.withdraw(ctx, o)
	case *actions.SetFeeParams:
		err = h.setFeeParams(o)
	case *actions.SetActive:
		err = h.setActive(o)
	case *actions.WithdrawBeneficiaryFee:
		err = h.withdrawBeneficiaryFee(o)
	case *actions.WithdrawReferrerFee:
		err = h.withdrawReferrerFee(o)
	default:
		p.donate(c, msg, fmt.Errorf("%w: %T", ErrUnsupportedOperation, op))
		return nil
	}
	if err != nil {
		return err
	}
	if !h.dirty {
		return nil
	}
	return storage.SetPool(ctx, c.State(), rec)
}

// donate keeps a transfer that carries no operation. The funds are owned by
// the pool but are not part of its reserves.
func (p *Pool) donate(c *vm.Context, msg *vm.Message, reason error) {
	p.metrics.donations.Inc()
	c.Log().Debug("keeping transfer",
		zap.Stringer("pool", p.address),
		zap.Stringer("from", msg.From),
		zap.Uint64("value", msg.Value),
		zap.Bool("bounced", msg.Bounced),
		zap.Error(reason),
	)
	c.Emit(&event.Event{
		Pool:   p.address,
		Kind:   event.Donation,
		Sender: msg.From,
		In:     msg.Assets,
		Reason: reason.Error(),
	})
}

// passOn hands funds refunded by a later hop of a route to the route
// recipient.
func (p *Pool) passOn(c *vm.Context, msg *vm.Message, r *actions.Refund) {
	if r.Recipient == codec.EmptyAddress || r.Recipient == p.address {
		p.donate(c, msg, ErrNoRecipient)
		return
	}
	c.Send(r.Recipient, msg.Value, msg.Assets, nil)
	c.Log().Debug("passing on refund",
		zap.Stringer("pool", p.address),
		zap.Stringer("from", msg.From),
		zap.Stringer("recipient", r.Recipient),
		zap.Uint64("callID", r.CallID),
		zap.Stringer("reason", r.Reason),
	)
}

// returned handles a message the pool sent that could not be delivered.
// Output of a route hop goes to the route recipient; anything else is
// kept.
func (p *Pool) returned(c *vm.Context, msg *vm.Message) {
	var (
		recipient codec.Address
		callID    uint64
	)
	if op, err := actions.Unmarshal(msg.Payload); err == nil {
		callID = op.GetCallID()
		switch o := op.(type) {
		case *actions.Swap:
			recipient = o.Recipient
		case *actions.Refund:
			recipient = o.Recipient
		}
	}
	if recipient == codec.EmptyAddress || recipient == msg.From || recipient == p.address {
		p.donate(c, msg, ErrReturned)
		return
	}
	c.Send(recipient, msg.Value, msg.Assets, nil)
	p.metrics.refunds.WithLabelValues(actions.ReasonBounced.String()).Inc()
	c.Emit(&event.Event{
		Pool:      p.address,
		Kind:      event.Cancelled,
		CallID:    callID,
		Sender:    msg.From,
		Recipient: recipient,
		Out:       msg.Assets,
		Reason:    actions.ReasonBounced.String(),
	})
}
