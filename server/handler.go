// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"net/http"
	"time"

	"github.com/ava-labs/avalanchego/utils/json"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/gorilla/rpc/v2"
	"go.uber.org/zap"
)

// NewHandler serves the exported methods of [service] as JSON-RPC methods
// named "<name>.<method>".
func NewHandler(log logging.Logger, service any, name string) (http.Handler, error) {
	newServer := rpc.NewServer()
	codec := json.NewCodec()
	newServer.RegisterCodec(codec, "application/json")
	newServer.RegisterCodec(codec, "application/json;charset=UTF-8")
	if err := newServer.RegisterService(service, name); err != nil {
		return nil, err
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		newServer.ServeHTTP(w, r)
		log.Debug("served request",
			zap.String("service", name),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	}), nil
}
