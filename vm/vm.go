// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/consts"
	"github.com/ava-labs/hyperamm/event"
	"github.com/ava-labs/hyperamm/state"
	"github.com/ava-labs/hyperamm/token"

	oteltrace "go.opentelemetry.io/otel/trace"
)

const settleInterval = time.Millisecond

type Config struct {
	// MessageFee is consumed from the value of every delivered message.
	MessageFee uint64 `json:"messageFee" yaml:"messageFee"`
	// MailboxSize is the initial capacity of each actor mailbox.
	MailboxSize int `json:"mailboxSize" yaml:"mailboxSize"`
}

func NewDefaultConfig() Config {
	return Config{
		MessageFee:  1_000,
		MailboxSize: 256,
	}
}

type entry struct {
	actor Actor
	box   *mailbox
}

// VM delivers messages between actors. Every actor runs on its own
// goroutine and handles one message at a time.
type VM struct {
	log      logging.Logger
	tracer   trace.Tracer
	config   Config
	metrics  *metrics
	registry *prometheus.Registry

	// commitLock serializes every write to [state].
	commitLock sync.Mutex
	state      state.Mutable

	actorsLock sync.RWMutex
	actors     map[codec.Address]*entry
	subs       []event.Subscription[*event.Event]

	nextID   atomic.Uint64
	inFlight atomic.Int64
	running  atomic.Bool
}

func New(log logging.Logger, tracer trace.Tracer, db state.Mutable, config Config) (*VM, error) {
	registry, metrics, err := newMetrics()
	if err != nil {
		return nil, err
	}
	return &VM{
		log:      log,
		tracer:   tracer,
		config:   config,
		metrics:  metrics,
		registry: registry,
		state:    db,
		actors:   make(map[codec.Address]*entry),
	}, nil
}

func (vm *VM) Registry() *prometheus.Registry {
	return vm.registry
}

func (vm *VM) Config() Config {
	return vm.config
}

func (vm *VM) Tracer() trace.Tracer {
	return vm.tracer
}

func (vm *VM) Logger() logging.Logger {
	return vm.log
}

// Register adds [a] to the set of actors. Actors must be registered before
// [VM.Run].
func (vm *VM) Register(a Actor) error {
	vm.actorsLock.Lock()
	defer vm.actorsLock.Unlock()

	if vm.running.Load() {
		return ErrRunning
	}
	addr := a.Address()
	if addr.Type() == consts.UserAddressID {
		return fmt.Errorf("%w: actor %s has a user address", ErrInvalidAddress, addr)
	}
	if _, ok := vm.actors[addr]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateActor, addr)
	}
	vm.actors[addr] = &entry{actor: a, box: newMailbox(vm.config.MailboxSize)}
	vm.log.Debug("registered actor", zap.Stringer("address", addr))
	return nil
}

func (vm *VM) Subscribe(sub event.Subscription[*event.Event]) error {
	vm.actorsLock.Lock()
	defer vm.actorsLock.Unlock()

	if vm.running.Load() {
		return ErrRunning
	}
	vm.subs = append(vm.subs, sub)
	return nil
}

func (vm *VM) actor(addr codec.Address) (*entry, bool) {
	vm.actorsLock.RLock()
	defer vm.actorsLock.RUnlock()

	e, ok := vm.actors[addr]
	return e, ok
}

// Run processes mailboxes until [ctx] is cancelled.
func (vm *VM) Run(ctx context.Context) error {
	vm.actorsLock.Lock()
	if !vm.running.CompareAndSwap(false, true) {
		vm.actorsLock.Unlock()
		return ErrRunning
	}
	entries := make([]*entry, 0, len(vm.actors))
	for _, e := range vm.actors {
		entries = append(entries, e)
	}
	vm.actorsLock.Unlock()
	defer vm.running.Store(false)

	vm.log.Info("starting vm", zap.Int("actors", len(entries)))
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})
	for _, e := range entries {
		e := e
		g.Go(func() error {
			return vm.loop(gctx, e)
		})
	}
	err := g.Wait()
	for _, e := range entries {
		vm.flushQueries(e)
	}
	vm.log.Info("stopped vm", zap.Error(err))
	return err
}

func (vm *VM) loop(ctx context.Context, e *entry) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.box.signal:
		}
		for {
			item, ok := e.box.pop()
			if !ok {
				break
			}
			switch it := item.(type) {
			case *Message:
				vm.deliver(ctx, e, it)
			case *query:
				it.done <- it.f(ctx)
			}
			if ctx.Err() != nil {
				return nil
			}
		}
	}
}

// flushQueries fails queries left in a mailbox after the vm stopped.
// Messages stay queued for the next run.
func (vm *VM) flushQueries(e *entry) {
	var keep []any
	for {
		item, ok := e.box.pop()
		if !ok {
			break
		}
		if q, ok := item.(*query); ok {
			q.done <- ErrQueryInterrupted
			continue
		}
		keep = append(keep, item)
	}
	for _, item := range keep {
		e.box.push(item)
	}
}

// Query runs [f] on the goroutine of the actor at [addr], so it observes the
// actor between two messages.
func (vm *VM) Query(ctx context.Context, addr codec.Address, f func(context.Context, Actor) error) error {
	e, ok := vm.actor(addr)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownActor, addr)
	}
	if !vm.running.Load() {
		return f(ctx, e.actor)
	}
	q := &query{
		f:    func(ctx context.Context) error { return f(ctx, e.actor) },
		done: make(chan error, 1),
	}
	e.box.push(q)
	select {
	case err := <-q.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Settle blocks until no message is in flight.
func (vm *VM) Settle(ctx context.Context) error {
	t := time.NewTicker(settleInterval)
	defer t.Stop()

	for vm.inFlight.Load() > 0 {
		select {
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// InFlight returns the number of messages sent but not yet handled.
func (vm *VM) InFlight() int64 {
	return vm.inFlight.Load()
}

// Send submits a message from an external account. Value and assets are
// debited from [msg.From] immediately.
func (vm *VM) Send(ctx context.Context, msg *Message) error {
	if _, ok := vm.actor(msg.From); ok {
		return fmt.Errorf("%w: %s", ErrActorSender, msg.From)
	}
	if err := verifyAssets(msg.Assets); err != nil {
		return err
	}
	err := vm.Update(ctx, func(mu state.Mutable) error {
		if err := token.Debit(ctx, mu, NativeToken, msg.From, uint256.NewInt(msg.Value)); err != nil {
			return err
		}
		for _, a := range msg.Assets {
			if err := token.Debit(ctx, mu, a.Token, msg.From, a.Amount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	out := *msg
	out.Bounced = false
	vm.enqueue(ctx, &out)
	return nil
}

// Update applies [f] to state atomically. It is used for setup that happens
// outside of any actor.
func (vm *VM) Update(ctx context.Context, f func(state.Mutable) error) error {
	vm.commitLock.Lock()
	defer vm.commitLock.Unlock()

	view := state.NewView(vm.state)
	if err := f(view); err != nil {
		return err
	}
	return view.Commit(ctx)
}

// CreateToken registers [tok] with [info].
func (vm *VM) CreateToken(ctx context.Context, tok codec.Address, info *token.Info) error {
	return vm.Update(ctx, func(mu state.Mutable) error {
		return token.Create(ctx, mu, tok, info)
	})
}

// Allocate mints [amount] of [tok] to [to] outside of any actor. It is used
// for genesis balances and the native value token.
func (vm *VM) Allocate(ctx context.Context, tok codec.Address, to codec.Address, amount *uint256.Int) error {
	return vm.Update(ctx, func(mu state.Mutable) error {
		return token.Mint(ctx, mu, tok, to, amount)
	})
}

func (vm *VM) Balance(ctx context.Context, tok codec.Address, owner codec.Address) (*uint256.Int, error) {
	return token.Balance(ctx, vm.state, tok, owner)
}

func (vm *VM) TotalSupply(ctx context.Context, tok codec.Address) (*uint256.Int, error) {
	return token.TotalSupply(ctx, vm.state, tok)
}

func (vm *VM) State() state.Immutable {
	return vm.state
}

func (vm *VM) enqueue(ctx context.Context, msg *Message) {
	msg.ID = vm.nextID.Inc()
	vm.inFlight.Inc()
	vm.metrics.sent.Inc()
	vm.metrics.inFlight.Inc()

	if e, ok := vm.actor(msg.To); ok {
		e.box.push(msg)
		return
	}
	defer vm.done()

	// No handler: user accounts and returning messages are credited,
	// anything else goes back to the sender.
	value, fee := vm.takeFee(msg.Value)
	if msg.Bounced || msg.To.Type() == consts.UserAddressID {
		delivered := *msg
		delivered.Value = value
		if err := vm.Update(ctx, func(mu state.Mutable) error {
			if err := credit(ctx, mu, &delivered); err != nil {
				return err
			}
			return token.Destroy(ctx, mu, NativeToken, uint256.NewInt(fee))
		}); err != nil {
			vm.log.Error("failed to credit message",
				zap.Uint64("id", msg.ID),
				zap.Stringer("to", msg.To),
				zap.Error(err),
			)
			return
		}
		vm.metrics.credited.Inc()
		vm.metrics.feesSpent.Add(float64(fee))
		return
	}
	if err := vm.Update(ctx, func(mu state.Mutable) error {
		return token.Destroy(ctx, mu, NativeToken, uint256.NewInt(fee))
	}); err != nil {
		vm.log.Error("failed to charge message fee", zap.Uint64("id", msg.ID), zap.Error(err))
	}
	vm.metrics.feesSpent.Add(float64(fee))
	vm.metrics.bounced.Inc()
	vm.log.Debug("bouncing message to unknown address",
		zap.Uint64("id", msg.ID),
		zap.Stringer("from", msg.From),
		zap.Stringer("to", msg.To),
	)
	b := msg.bounce()
	b.Value = value
	vm.enqueue(ctx, b)
}

func (vm *VM) done() {
	vm.inFlight.Dec()
	vm.metrics.inFlight.Dec()
}

func (vm *VM) takeFee(value uint64) (uint64, uint64) {
	fee := vm.config.MessageFee
	if fee > value {
		fee = value
	}
	return value - fee, fee
}

func credit(ctx context.Context, mu state.Mutable, msg *Message) error {
	if err := token.Credit(ctx, mu, NativeToken, msg.To, uint256.NewInt(msg.Value)); err != nil {
		return err
	}
	for _, a := range msg.Assets {
		if err := token.Credit(ctx, mu, a.Token, msg.To, a.Amount); err != nil {
			return err
		}
	}
	return nil
}

func (vm *VM) deliver(ctx context.Context, e *entry, msg *Message) {
	defer vm.done()

	self := e.actor.Address()
	ctx, span := vm.tracer.Start(ctx, "VM.deliver", oteltrace.WithAttributes(
		attribute.String("to", self.String()),
		attribute.Int64("id", int64(msg.ID)),
		attribute.Bool("bounced", msg.Bounced),
	))
	defer span.End()
	start := time.Now()

	value, fee := vm.takeFee(msg.Value)
	delivered := *msg
	delivered.Value = value

	view := state.NewView(vm.state)
	c := &Context{vm: vm, self: self, view: view}
	err := credit(ctx, view, &delivered)
	if err == nil {
		err = e.actor.Receive(ctx, c, &delivered)
	}
	if err == nil {
		err = c.debitOutbox(ctx)
	}
	if err != nil {
		view.Discard()
		vm.metrics.failed.Inc()
		span.RecordError(err)
		vm.log.Warn("handler failed",
			zap.Stringer("actor", self),
			zap.Uint64("id", msg.ID),
			zap.Bool("bounced", msg.Bounced),
			zap.Error(err),
		)
		vm.returnFunds(ctx, &delivered, fee)
		return
	}

	vm.commitLock.Lock()
	err = view.Commit(ctx)
	if err == nil {
		err = token.Destroy(ctx, vm.state, NativeToken, uint256.NewInt(fee))
	}
	vm.commitLock.Unlock()
	if err != nil {
		vm.log.Error("failed to commit handler", zap.Stringer("actor", self), zap.Uint64("id", msg.ID), zap.Error(err))
		return
	}
	vm.metrics.feesSpent.Add(float64(fee))
	vm.metrics.delivered.Inc()

	for _, out := range c.outbox {
		vm.enqueue(ctx, out)
	}
	for _, ev := range c.events {
		if err := event.NotifyAll(ctx, ev, vm.subs...); err != nil {
			vm.log.Warn("event subscriber failed", zap.Stringer("actor", self), zap.Error(err))
		}
	}
	vm.metrics.handle.Observe(time.Since(start).Seconds())
}

// returnFunds undoes a failed delivery. A fresh message is bounced to its
// sender; a message that was already bouncing is kept by the actor so funds
// never circulate forever.
func (vm *VM) returnFunds(ctx context.Context, delivered *Message, fee uint64) {
	if delivered.Bounced {
		if err := vm.Update(ctx, func(mu state.Mutable) error {
			if err := credit(ctx, mu, delivered); err != nil {
				return err
			}
			return token.Destroy(ctx, mu, NativeToken, uint256.NewInt(fee))
		}); err != nil {
			vm.log.Error("failed to keep bounced funds", zap.Uint64("id", delivered.ID), zap.Error(err))
		}
		return
	}
	if err := vm.Update(ctx, func(mu state.Mutable) error {
		return token.Destroy(ctx, mu, NativeToken, uint256.NewInt(fee))
	}); err != nil {
		vm.log.Error("failed to charge message fee", zap.Uint64("id", delivered.ID), zap.Error(err))
	}
	vm.metrics.bounced.Inc()
	vm.enqueue(ctx, delivered.bounce())
}
