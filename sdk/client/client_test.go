package client

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/handscope/internal/server"
	"github.com/lox/handscope/poker"
)

func startServer(t *testing.T, opts ...server.Option) *httptest.Server {
	t.Helper()
	config := server.DefaultConfig()
	config.Server.LogLevel = "error"
	srv := server.New(config, log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel}), opts...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func newClient(t *testing.T, url string) (*Client, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	c, err := New(url, WithLogger(zerolog.New(&logs).Level(zerolog.DebugLevel)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, &logs
}

func TestNewNormalizesURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://localhost:8080", "http://localhost:8080/api/table"},
		{"http://localhost:8080/", "http://localhost:8080/api/table"},
		{"ws://localhost:8080/ws", "http://localhost:8080/api/table"},
		{"wss://example.com/ws", "https://example.com/api/table"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := New(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.endpoint("/api/table", nil))
		})
	}

	for _, bad := range []string{"ftp://x", "localhost:8080", "http://", "://"} {
		_, err := New(bad)
		assert.Error(t, err, bad)
	}
}

func TestClientHTTP(t *testing.T) {
	ts := startServer(t)
	c, logs := newClient(t, ts.URL)
	ctx := context.Background()

	resp, err := c.Analyze(ctx, "As", "Ks")
	require.NoError(t, err)
	assert.Equal(t, poker.StartingHandKey("AKs"), resp.Key)
	assert.Equal(t, 4, resp.Analysis.Strength.Value)
	assert.Contains(t, logs.String(), "request completed")

	batch, err := c.Batch(ctx, [][2]string{{"7c", "2h"}, {"Qd", "Qc"}})
	require.NoError(t, err)
	require.Len(t, batch.Results, 2)
	assert.Equal(t, poker.StartingHandKey("QQ"), batch.Results[1].Key)

	table, err := c.Table(ctx, "TT+")
	require.NoError(t, err)
	assert.Equal(t, 5, table.Size)

	full, err := c.Table(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 169, full.Size)
}

func TestClientAPIErrors(t *testing.T) {
	ts := startServer(t)
	c, _ := newClient(t, ts.URL)
	ctx := context.Background()

	_, err := c.Analyze(ctx, "As", "As")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "duplicate")

	// History is off by default.
	_, err = c.History(ctx, 5)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestClientStream(t *testing.T) {
	ts := startServer(t)
	c, _ := newClient(t, ts.URL+"/ws")
	ctx := context.Background()

	_, err := c.Stream(ctx, "As", "Ks")
	require.ErrorIs(t, err, ErrNotConnected)

	require.NoError(t, c.Connect(ctx))

	resp, err := c.Stream(ctx, "Jh", "Th")
	require.NoError(t, err)
	assert.Equal(t, poker.StartingHandKey("JTs"), resp.Key)
	assert.True(t, resp.Analysis.Has("Straight Flush"))

	_, err = c.Stream(ctx, "Jh", "Jh")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")

	// The connection survives an error reply.
	resp, err = c.Stream(ctx, "2c", "2d")
	require.NoError(t, err)
	assert.Equal(t, poker.StartingHandKey("22"), resp.Key)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}

func TestClientStreamAfterIdle(t *testing.T) {
	// The server drops peers that miss pongs for longer than 300ms.
	ts := startServer(t, server.WithKeepalive(50*time.Millisecond, 300*time.Millisecond))
	c, _ := newClient(t, ts.URL)
	ctx := context.Background()

	require.NoError(t, c.Connect(ctx))
	resp, err := c.Stream(ctx, "As", "Ks")
	require.NoError(t, err)
	assert.Equal(t, poker.StartingHandKey("AKs"), resp.Key)

	time.Sleep(time.Second)

	resp, err = c.Stream(ctx, "Jh", "Th")
	require.NoError(t, err)
	assert.Equal(t, poker.StartingHandKey("JTs"), resp.Key)
}

func TestClientStreamServerGone(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	config := server.DefaultConfig()
	config.Server.LogLevel = "error"
	srv := server.New(config, log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel}))
	serveCtx, stop := context.WithCancel(context.Background())
	defer stop()
	done := make(chan error, 1)
	go func() { done <- srv.Serve(serveCtx, ln) }()

	c, _ := newClient(t, "http://"+ln.Addr().String())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.Eventually(t, func() bool { return c.Connect(ctx) == nil }, 5*time.Second, 10*time.Millisecond)
	_, err = c.Stream(ctx, "As", "Ks")
	require.NoError(t, err)

	stop()
	require.NoError(t, <-done)

	_, err = c.Stream(ctx, "Jh", "Th")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotConnected)

	// The broken connection was dropped.
	_, err = c.Stream(ctx, "Jh", "Th")
	assert.ErrorIs(t, err, ErrNotConnected)
}
