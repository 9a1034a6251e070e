// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/ava-labs/avalanchego/utils/set"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/event"
)

var _ event.Subscription[*event.Event] = (*WebSocketServer)(nil)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

type WebSocketConfig struct {
	// MaxPendingMessages is the number of events queued per connection
	// before new ones are dropped.
	MaxPendingMessages int           `json:"maxPendingMessages" yaml:"maxPendingMessages"`
	MaxReadMessageSize int64         `json:"maxReadMessageSize" yaml:"maxReadMessageSize"`
	WriteWait          time.Duration `json:"writeWait"          yaml:"writeWait"`
	PongWait           time.Duration `json:"pongWait"           yaml:"pongWait"`
}

func NewDefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		MaxPendingMessages: 1024,
		MaxReadMessageSize: 64 * 1024,
		WriteWait:          10 * time.Second,
		PongWait:           60 * time.Second,
	}
}

// WebSocketServer streams pool events to the connections that subscribed to
// them. It is registered with the vm as an event subscription.
type WebSocketServer struct {
	vm     VM
	config WebSocketConfig

	lock   sync.RWMutex
	conns  set.Set[*connection]
	closed bool
}

func NewWebSocketServer(vm VM, config WebSocketConfig) *WebSocketServer {
	return &WebSocketServer{
		vm:     vm,
		config: config,
		conns:  set.NewSet[*connection](0),
	}
}

// ServeHTTP upgrades the request and starts pumping events to it.
func (w *WebSocketServer) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	wsConn, err := upgrader.Upgrade(rw, r, nil)
	if err != nil {
		w.vm.Logger().Debug("failed to upgrade", zap.Error(err))
		return
	}
	c := &connection{
		s:    w,
		conn: wsConn,
		send: make(chan []byte, w.config.MaxPendingMessages),
	}

	w.lock.Lock()
	if w.closed {
		w.lock.Unlock()
		_ = wsConn.Close()
		return
	}
	w.conns.Add(c)
	w.lock.Unlock()

	go c.writePump()
	go c.readPump()
}

// Listeners returns the number of connections that subscribed.
func (w *WebSocketServer) Listeners() int {
	w.lock.RLock()
	defer w.lock.RUnlock()

	count := 0
	for c := range w.conns {
		if c.subscribed() {
			count++
		}
	}
	return count
}

// Accept publishes [e] to every connection subscribed to its pool. Slow
// connections drop the event.
func (w *WebSocketServer) Accept(ctx context.Context, e *event.Event) error {
	_, span := w.vm.Tracer().Start(ctx, "WebSocketServer.Accept")
	defer span.End()

	w.lock.RLock()
	defer w.lock.RUnlock()

	var msg []byte
	for c := range w.conns {
		if !c.wants(e.Pool) {
			continue
		}
		if msg == nil {
			b, err := PackEventMessage(e)
			if err != nil {
				return err
			}
			msg = b
		}
		if !c.enqueue(msg) {
			w.vm.Logger().Verbo("dropping event to subscribed connection",
				zap.Stringer("pool", e.Pool),
				zap.Stringer("kind", e.Kind),
			)
		}
	}
	return nil
}

// Close stops every connection. Connections opened afterwards are refused.
func (w *WebSocketServer) Close() error {
	w.lock.Lock()
	defer w.lock.Unlock()

	w.closed = true
	for c := range w.conns {
		c.deactivate()
	}
	w.conns.Clear()
	return nil
}

func (w *WebSocketServer) remove(c *connection) {
	w.lock.Lock()
	defer w.lock.Unlock()

	w.conns.Remove(c)
}

func (w *WebSocketServer) handle(c *connection, msg []byte) {
	log := w.vm.Logger()
	if len(msg) == 0 {
		log.Debug("dropping empty message")
		return
	}
	switch msg[0] {
	case SubscribeMode:
		pools, err := UnpackSubscribeMessage(msg[1:])
		if err != nil {
			log.Debug("failed to unpack subscription", zap.Error(err))
			return
		}
		c.subscribe(pools)
		log.Debug("added event listener", zap.Int("pools", len(pools)))
	default:
		log.Debug("unexpected message type",
			zap.Int("len", len(msg)),
			zap.Uint8("mode", msg[0]),
		)
	}
}

type connection struct {
	s    *WebSocketServer
	conn *websocket.Conn

	lock   sync.Mutex
	send   chan []byte
	closed bool

	// nil until the first subscribe message; empty means every pool
	pools set.Set[codec.Address]
}

func (c *connection) subscribe(pools []codec.Address) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.pools = set.Of(pools...)
}

func (c *connection) subscribed() bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.pools != nil
}

func (c *connection) wants(pool codec.Address) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.closed || c.pools == nil {
		return false
	}
	return c.pools.Len() == 0 || c.pools.Contains(pool)
}

func (c *connection) enqueue(msg []byte) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *connection) deactivate() {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *connection) readPump() {
	defer func() {
		c.s.remove(c)
		c.deactivate()
		_ = c.conn.Close()
	}()

	cfg := c.s.config
	c.conn.SetReadLimit(cfg.MaxReadMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	})
	for {
		_, reader, err := c.conn.NextReader()
		if err != nil {
			if websocket.IsUnexpectedCloseError(
				err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
			) {
				c.s.vm.Logger().Debug("unexpected close in websockets", zap.Error(err))
			}
			return
		}
		msg, err := io.ReadAll(reader)
		if err != nil {
			c.s.vm.Logger().Debug("failed to read websockets message", zap.Error(err))
			return
		}
		c.s.handle(c, msg)
	}
}

func (c *connection) writePump() {
	cfg := c.s.config
	ticker := time.NewTicker(cfg.PongWait * 9 / 10)
	defer func() {
		c.s.remove(c)
		c.deactivate()
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait)); err != nil {
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
				c.s.vm.Logger().Debug("closing the connection",
					zap.String("reason", "failed to write message"),
					zap.Error(err),
				)
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
