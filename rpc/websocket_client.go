// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/ava-labs/hyperamm/codec"
	"github.com/ava-labs/hyperamm/event"
)

type WebSocketClient struct {
	conn *websocket.Conn
	wl   sync.Mutex
	rl   sync.Mutex
	cl   sync.Once
}

// NewWebSocketClient dials the event stream of the node serving at [uri].
// An http scheme is replaced with ws.
func NewWebSocketClient(uri string) (*WebSocketClient, error) {
	uri = strings.TrimSuffix(uri, "/")
	uri = strings.Replace(uri, "http", "ws", 1)
	uri += WebSocketEndpoint
	conn, resp, err := websocket.DefaultDialer.Dial(uri, nil)
	if err != nil {
		return nil, err
	}
	// not using resp for now
	resp.Body.Close()
	return &WebSocketClient{conn: conn}, nil
}

// Subscribe replaces the pools whose events are streamed. No pools streams
// every pool.
func (c *WebSocketClient) Subscribe(pools ...codec.Address) error {
	msg, err := PackSubscribeMessage(pools)
	if err != nil {
		return err
	}
	c.wl.Lock()
	defer c.wl.Unlock()

	return c.conn.WriteMessage(websocket.BinaryMessage, msg)
}

// ListenForEvent blocks until the next event arrives.
func (c *WebSocketClient) ListenForEvent() (*event.Event, error) {
	c.rl.Lock()
	defer c.rl.Unlock()

	_, msg, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	if len(msg) == 0 || msg[0] != EventMode {
		return nil, ErrUnexpectedMode
	}
	return UnpackEventMessage(msg[1:])
}

func (c *WebSocketClient) Close() error {
	var err error
	c.cl.Do(func() {
		err = c.conn.Close()
	})
	return err
}
