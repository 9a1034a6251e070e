// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"context"
	"fmt"

	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/holiman/uint256"

	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/event"
	"github.com/ava-labs/hyperamm/state"
	"github.com/ava-labs/hyperamm/token"
)

// Context collects the effects of a single handler. Writes go to a private
// view of state and outbound messages are only sent once the handler
// returns, so a handler is atomic with respect to its own state.
type Context struct {
	vm   *VM
	self codec.Address
	view *state.View

	outbox []*Message
	events []*event.Event
}

func (c *Context) Self() codec.Address {
	return c.self
}

// State is the handler's view of state. Actors should only write keys they
// own.
func (c *Context) State() state.Mutable {
	return c.view
}

func (c *Context) Log() logging.Logger {
	return c.vm.log
}

func (c *Context) Tracer() trace.Tracer {
	return c.vm.tracer
}

// MessageFee is the native value consumed by the delivery of every message.
func (c *Context) MessageFee() uint64 {
	return c.vm.config.MessageFee
}

// Balance returns the actor's balance of [tok], including effects of the
// current handler.
func (c *Context) Balance(ctx context.Context, tok codec.Address) (*uint256.Int, error) {
	return token.Balance(ctx, c.view, tok, c.self)
}

// Send queues a message to [to]. Value and assets are debited from the actor
// when the handler returns.
func (c *Context) Send(to codec.Address, value uint64, assets []token.Amount, payload []byte) {
	c.outbox = append(c.outbox, &Message{
		From:    c.self,
		To:      to,
		Value:   value,
		Assets:  assets,
		Payload: payload,
	})
}

// Mint creates [amount] of [tok] in the actor's own balance. The actor must
// own the token.
func (c *Context) Mint(ctx context.Context, tok codec.Address, amount *uint256.Int) error {
	if err := c.checkOwner(ctx, tok); err != nil {
		return err
	}
	return token.Mint(ctx, c.view, tok, c.self, amount)
}

// Burn destroys [amount] of [tok] held by the actor. The actor must own the
// token.
func (c *Context) Burn(ctx context.Context, tok codec.Address, amount *uint256.Int) error {
	if err := c.checkOwner(ctx, tok); err != nil {
		return err
	}
	return token.Burn(ctx, c.view, tok, c.self, amount)
}

func (c *Context) checkOwner(ctx context.Context, tok codec.Address) error {
	info, err := token.GetInfo(ctx, c.view, tok)
	if err != nil {
		return err
	}
	if info.Owner != c.self {
		return fmt.Errorf("%w: %s is owned by %s", ErrNotOwner, tok, info.Owner)
	}
	return nil
}

// Emit records [e]. Events are published after the handler commits.
func (c *Context) Emit(e *event.Event) {
	c.events = append(c.events, e)
}

// debitOutbox takes everything queued by the handler out of the actor's
// balances.
func (c *Context) debitOutbox(ctx context.Context) error {
	for _, msg := range c.outbox {
		if err := verifyAssets(msg.Assets); err != nil {
			return err
		}
		if err := token.Debit(ctx, c.view, NativeToken, c.self, uint256.NewInt(msg.Value)); err != nil {
			return fmt.Errorf("%w: sending value to %s", err, msg.To)
		}
		for _, a := range msg.Assets {
			if err := token.Debit(ctx, c.view, a.Token, c.self, a.Amount); err != nil {
				return fmt.Errorf("%w: sending %s to %s", err, a.Token, msg.To)
			}
		}
	}
	return nil
}

func verifyAssets(assets []token.Amount) error {
	for _, a := range assets {
		if a.Amount == nil {
			return ErrInvalidAsset
		}
		if a.Token == NativeToken {
			return ErrNativeAsset
		}
	}
	return nil
}
