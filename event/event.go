// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package event

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/token"
	"github.com/ava-labs/hyperamm/utils"
)

var _ Subscription[struct{}] = (*SubscriptionFunc[struct{}])(nil)

type Kind uint8

const (
	Exchange Kind = iota
	DepositLiquidity
	WithdrawLiquidity
	Cancelled
	FeesPaid
	Donation
	FeeParamsUpdated
	ActiveChanged
)

func (k Kind) String() string {
	switch k {
	case Exchange:
		return "exchange"
	case DepositLiquidity:
		return "depositLiquidity"
	case WithdrawLiquidity:
		return "withdrawLiquidity"
	case Cancelled:
		return "cancelled"
	case FeesPaid:
		return "feesPaid"
	case Donation:
		return "donation"
	case FeeParamsUpdated:
		return "feeParamsUpdated"
	case ActiveChanged:
		return "activeChanged"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Event is emitted by a pool after a message has been handled. CallID is
// echoed from the operation that produced it.
type Event struct {
	Pool      codec.Address  `json:"pool"`
	Kind      Kind           `json:"kind"`
	CallID    uint64         `json:"callID"`
	Sender    codec.Address  `json:"sender"`
	Recipient codec.Address  `json:"recipient"`
	In        []token.Amount `json:"in,omitempty"`
	Out       []token.Amount `json:"out,omitempty"`
	Fees      []token.Amount `json:"fees,omitempty"`
	LP        *uint256.Int   `json:"lp,omitempty"`
	Reason    string         `json:"reason,omitempty"`
}

// Subscription defines how to consume events
type Subscription[T any] interface {
	// Accept returns fatal errors
	Accept(ctx context.Context, t T) error
	// Close returns fatal errors
	Close() error
}

type SubscriptionFunc[T any] struct {
	AcceptF func(ctx context.Context, t T) error
}

func (s SubscriptionFunc[T]) Accept(ctx context.Context, t T) error {
	return s.AcceptF(ctx, t)
}

func (SubscriptionFunc[_]) Close() error {
	return nil
}

// NotifyAll delivers [e] to every subscription and joins their errors.
func NotifyAll[T any](ctx context.Context, e T, subs ...Subscription[T]) error {
	var errs []error
	for _, sub := range subs {
		if err := sub.Accept(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps the most recent events it accepts.
type Recorder struct {
	events *utils.BoundedBuffer[*Event]
}

var _ Subscription[*Event] = (*Recorder)(nil)

func NewRecorder(size int) (*Recorder, error) {
	b, err := utils.NewBoundedBuffer[*Event](size)
	if err != nil {
		return nil, err
	}
	return &Recorder{events: b}, nil
}

func (r *Recorder) Accept(_ context.Context, e *Event) error {
	r.events.Insert(e)
	return nil
}

func (*Recorder) Close() error {
	return nil
}

// Events returns recorded events from oldest to newest, optionally filtered
// by [pool]. An empty pool matches every event.
func (r *Recorder) Events(pool codec.Address) []*Event {
	all := r.events.Items()
	if pool == codec.EmptyAddress {
		return all
	}
	filtered := make([]*Event, 0, len(all))
	for _, e := range all {
		if e.Pool == pool {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// Last returns the most recent event of [kind] from [pool], if any.
func (r *Recorder) Last(pool codec.Address, kind Kind) (*Event, bool) {
	events := r.Events(pool)
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Kind == kind {
			return events[i], true
		}
	}
	return nil, false
}
