package httpserver

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chainsafe/bridge-rewarder/pkg/config"
)

func TestNew(t *testing.T) {
	srv := New(config.ServerConfig{Host: "127.0.0.1", Port: 9090}, http.NotFoundHandler())
	assert.Equal(t, "127.0.0.1:9090", srv.Addr)
	assert.Equal(t, defaultReadTimeout, srv.ReadTimeout)
}

func TestServeAndWait_StopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	srv := &http.Server{Addr: addr, Handler: http.NotFoundHandler()}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- ServeAndWait(ctx, zap.NewNop(), srv, time.Second) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusNotFound
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServeAndWait_ListenError(t *testing.T) {
	srv := &http.Server{Addr: "127.0.0.1:-1", Handler: http.NotFoundHandler()}

	err := ServeAndWait(context.Background(), zap.NewNop(), srv, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http server failed")
}

func TestServeAndWait_NilServer(t *testing.T) {
	require.Error(t, ServeAndWait(context.Background(), zap.NewNop(), nil, time.Second))
}
