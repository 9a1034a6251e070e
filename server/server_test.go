// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func TestRouter(t *testing.T) {
	require := require.New(t)
	r := newRouter()
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	require.NoError(r.AddRouter("/ext/amm", "", ok))
	require.Error(r.AddRouter("/ext/amm", "", ok))
	require.NoError(r.AddRouter("/ext/amm", "/health", ok))

	_, err := r.GetHandler("/ext/amm", "/health")
	require.NoError(err)
	_, err = r.GetHandler("/ext/other", "")
	require.ErrorIs(err, errUnknownBaseURL)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ext/amm/health", nil))
	require.Equal(http.StatusOK, rec.Code)
	require.Equal("ok", rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ext/missing", nil))
	require.Equal(http.StatusNotFound, rec.Code)
}

type echoService struct{}

type EchoArgs struct {
	Message string `json:"message"`
}

type EchoReply struct {
	Message string `json:"message"`
}

func (*echoService) Echo(_ *http.Request, args *EchoArgs, reply *EchoReply) error {
	reply.Message = strings.ToUpper(args.Message)
	return nil
}

func TestServerDispatch(t *testing.T) {
	require := require.New(t)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(err)

	wrapped := atomic.NewBool(false)
	s := New("/ext", logging.NoLog{}, listener, HTTPConfig{ReadTimeout: time.Second}, []string{"*"}, time.Second,
		WrapperFunc(func(h http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				wrapped.Store(true)
				h.ServeHTTP(w, r)
			})
		}),
	)
	handler, err := NewHandler(logging.NoLog{}, &echoService{}, "echo")
	require.NoError(err)
	require.NoError(s.AddRoute(handler, "amm", ""))

	done := make(chan error, 1)
	go func() { done <- s.Dispatch() }()

	body := `{"jsonrpc":"2.0","id":1,"method":"echo.echo","params":{"message":"hi"}}`
	resp, err := http.Post("http://"+listener.Addr().String()+"/ext/amm", "application/json", strings.NewReader(body))
	require.NoError(err)
	b, err := io.ReadAll(resp.Body)
	require.NoError(err)
	require.NoError(resp.Body.Close())
	require.Equal(http.StatusOK, resp.StatusCode)
	require.Contains(string(b), `"HI"`)
	require.True(wrapped.Load())

	require.NoError(s.Shutdown())
	require.NoError(<-done)
}
