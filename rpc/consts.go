// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

const (
	Name            = "amm"
	JSONRPCEndpoint = "/ext/amm"

	// WebSocketPath is served below [JSONRPCEndpoint].
	WebSocketPath     = "/ws"
	WebSocketEndpoint = JSONRPCEndpoint + WebSocketPath
)
