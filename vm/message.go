// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"context"
	"sync"

	"github.com/ava-labs/avalanchego/utils/buffer"
	"github.com/holiman/uint256"

	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/token"
)

// NativeToken is the token native value is denominated in.
var NativeToken = codec.EmptyAddress

// Message is a one-way transfer from one address to another. Value and
// Assets leave [From] when the message is sent and reach [To] when it is
// delivered.
type Message struct {
	ID      uint64
	From    codec.Address
	To      codec.Address
	Value   uint64
	Assets  []token.Amount
	Payload []byte

	// Bounced is set when the message is returned to [From] because [To]
	// could not handle it. The payload is the one originally sent.
	Bounced bool
}

// Asset returns the amount of [tok] carried by the message.
func (m *Message) Asset(tok codec.Address) *uint256.Int {
	total := new(uint256.Int)
	for _, a := range m.Assets {
		if a.Token == tok {
			total.Add(total, a.Amount)
		}
	}
	return total
}

func (m *Message) bounce() *Message {
	return &Message{
		From:    m.To,
		To:      m.From,
		Value:   m.Value,
		Assets:  m.Assets,
		Payload: m.Payload,
		Bounced: true,
	}
}

// Actor reacts to messages delivered to [Address]. Receive is never called
// concurrently for the same actor.
type Actor interface {
	Address() codec.Address

	// Receive handles a delivered message. The value and assets of [msg]
	// are already credited to the actor. Returning an error discards every
	// effect of the handler and bounces [msg] back to its sender.
	Receive(ctx context.Context, c *Context, msg *Message) error
}

type query struct {
	f    func(context.Context) error
	done chan error
}

// mailbox is an unbounded FIFO of messages and queries for one actor.
// Senders never block, so actors may message each other in cycles.
type mailbox struct {
	l      sync.Mutex
	queue  buffer.Deque[any]
	signal chan struct{}
}

func newMailbox(size int) *mailbox {
	return &mailbox{
		queue:  buffer.NewUnboundedDeque[any](size),
		signal: make(chan struct{}, 1),
	}
}

func (m *mailbox) push(item any) {
	m.l.Lock()
	defer m.l.Unlock()

	m.queue.PushRight(item)
	select {
	case m.signal <- struct{}{}:
	default:
	}
}

func (m *mailbox) pop() (any, bool) {
	m.l.Lock()
	defer m.l.Unlock()

	return m.queue.PopLeft()
}
