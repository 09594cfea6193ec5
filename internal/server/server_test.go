package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/handscope/internal/history"
	"github.com/lox/handscope/poker"
	"github.com/lox/handscope/sdk/protocol"
)

var testTime = time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)

type memoryRecorder struct {
	mu      sync.Mutex
	entries []history.Entry
	err     error
}

func (m *memoryRecorder) Record(_ context.Context, e history.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *memoryRecorder) Recent(_ context.Context, limit int) ([]history.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []history.Entry
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

func (m *memoryRecorder) all() []history.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]history.Entry(nil), m.entries...)
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	clock := quartz.NewMock(t)
	clock.Set(testTime)

	config := DefaultConfig()
	config.Server.LogLevel = "error"
	config.Limits.MaxBatch = 3

	s := New(config, quietLogger(), append([]Option{WithClock(clock)}, opts...)...)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]string{"status": "ok"}, decode[map[string]string](t, resp))
}

func TestAnalyzeEndpoint(t *testing.T) {
	rec := &memoryRecorder{}
	_, ts := newTestServer(t, WithRecorder(rec))

	resp := postJSON(t, ts.URL+"/api/analyze", `{"cards":["K♠","A♠"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[protocol.AnalyzeResponse](t, resp)
	assert.NotEmpty(t, body.ID)
	assert.Equal(t, poker.StartingHandKey("AKs"), body.Key)
	assert.Equal(t, testTime, body.AnalyzedAt)
	assert.Equal(t, poker.CategoryExtremelyStrong, body.Analysis.Strength.Category)
	assert.True(t, body.Analysis.Has("Royal Flush"))

	entries := rec.all()
	require.Len(t, entries, 1)
	assert.Equal(t, body.ID, entries[0].ID)
	assert.Equal(t, testTime, entries[0].CreatedAt)
}

func TestAnalyzeEndpointErrors(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"invalid card", `{"cards":["Zz","As"]}`, http.StatusBadRequest},
		{"duplicate card", `{"cards":["As","A♠"]}`, http.StatusBadRequest},
		{"one card", `{"cards":["As"]}`, http.StatusBadRequest},
		{"bad json", `{"cards":`, http.StatusBadRequest},
		{"unknown field", `{"hand":["As","Ks"]}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/api/analyze", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.NotEmpty(t, decode[protocol.ErrorResponse](t, resp).Error)
		})
	}

	resp, err := http.Get(ts.URL + "/api/analyze")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, http.MethodPost, resp.Header.Get("Allow"))
}

func TestRecorderFailureDoesNotFailRequest(t *testing.T) {
	_, ts := newTestServer(t, WithRecorder(&memoryRecorder{err: errors.New("disk full")}))

	resp := postJSON(t, ts.URL+"/api/analyze", `{"cards":["7c","2h"]}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBatchEndpoint(t *testing.T) {
	rec := &memoryRecorder{}
	_, ts := newTestServer(t, WithRecorder(rec))

	resp := postJSON(t, ts.URL+"/api/batch", `{"hands":[["As","Ks"],["7c","2h"],["Qd","Qc"]]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[protocol.BatchResponse](t, resp)
	require.Len(t, body.Results, 3)
	assert.Equal(t, poker.StartingHandKey("AKs"), body.Results[0].Key)
	assert.Equal(t, poker.StartingHandKey("72o"), body.Results[1].Key)
	assert.Equal(t, poker.StartingHandKey("QQ"), body.Results[2].Key)
	assert.Len(t, rec.all(), 3)

	resp = postJSON(t, ts.URL+"/api/batch", `{"hands":[["As","Ks"],["As","Ks"],["As","Ks"],["As","Ks"]]}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/batch", `{"hands":[["As","Ks"],["Xx","Ks"]]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[protocol.ErrorResponse](t, resp).Error, "hand 2")

	resp = postJSON(t, ts.URL+"/api/batch", `{"hands":[["As"]]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTableEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/table")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[protocol.TableResponse](t, resp)
	assert.Equal(t, 169, body.Size)
	assert.Equal(t, 1326, body.Combos)
	require.Len(t, body.Hands, 169)
	assert.Equal(t, poker.StartingHandKey("AA"), body.Hands[0].Key)
	assert.Equal(t, poker.CategoryExtremelyStrong, body.Hands[0].Strength.Category)

	resp2, err := http.Get(ts.URL + "/api/table?range=JJ%2B")
	require.NoError(t, err)
	defer resp2.Body.Close()
	body = decode[protocol.TableResponse](t, resp2)
	assert.Equal(t, 4, body.Size)

	resp3, err := http.Get(ts.URL + "/api/table?range=XYZ")
	require.NoError(t, err)
	defer resp3.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp3.StatusCode)
}

func TestHistoryEndpoint(t *testing.T) {
	_, disabled := newTestServer(t)
	resp, err := http.Get(disabled.URL + "/api/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	rec := &memoryRecorder{}
	_, ts := newTestServer(t, WithRecorder(rec))
	postJSON(t, ts.URL+"/api/analyze", `{"cards":["As","Ks"]}`)
	postJSON(t, ts.URL+"/api/analyze", `{"cards":["7c","2h"]}`)

	resp2, err := http.Get(ts.URL + "/api/history?limit=1")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)

	body := decode[protocol.HistoryResponse](t, resp2)
	require.Len(t, body.Entries, 1)
	assert.Equal(t, poker.StartingHandKey("72o"), body.Entries[0].Key)

	resp3, err := http.Get(ts.URL + "/api/history?limit=zero")
	require.NoError(t, err)
	defer resp3.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp3.StatusCode)
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, payload string) protocol.Message {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(payload)))
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg protocol.Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocketAnalyze(t *testing.T) {
	rec := &memoryRecorder{}
	_, ts := newTestServer(t, WithRecorder(rec))
	conn := dialWS(t, ts)

	msg := roundTrip(t, conn, `{"type":"analyze","cards":["Kh","Kd"]}`)
	require.Equal(t, protocol.TypeAnalysis, msg.Type)
	require.NotNil(t, msg.AnalyzeResponse)
	assert.Equal(t, poker.StartingHandKey("KK"), msg.Key)
	assert.Equal(t, testTime, msg.AnalyzedAt)

	// The connection stays open for further requests.
	msg = roundTrip(t, conn, `{"type":"analyze","cards":["As","As"]}`)
	assert.Equal(t, protocol.TypeError, msg.Type)
	assert.Contains(t, msg.Error, "duplicate")

	msg = roundTrip(t, conn, `{"type":"subscribe"}`)
	assert.Equal(t, protocol.TypeError, msg.Type)
	assert.Contains(t, msg.Error, "unknown message type")

	msg = roundTrip(t, conn, `not json`)
	assert.Equal(t, protocol.TypeError, msg.Type)

	msg = roundTrip(t, conn, `{"type":"analyze","cards":["As"]}`)
	assert.Equal(t, protocol.TypeError, msg.Type)

	assert.Len(t, rec.all(), 1)
}

func TestReload(t *testing.T) {
	s, ts := newTestServer(t)

	updated := DefaultConfig()
	updated.Server.LogLevel = "error"
	updated.Limits.MaxBatch = 1
	s.Reload(updated)

	resp := postJSON(t, ts.URL+"/api/batch", `{"hands":[["As","Ks"],["Qs","Js"]]}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	config := DefaultConfig()
	config.Server.LogLevel = "error"
	s := New(config, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	base := "http://" + ln.Addr().String()
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return openConns(s) == 1 }, 5*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.Zero(t, openConns(s), "websocket handlers still running after Serve returned")

	// The open connection was closed by the server.
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)

	_, err = http.Post(base+"/api/analyze", "application/json", bytes.NewBufferString(`{}`))
	assert.Error(t, err)
}

func openConns(s *Server) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// blockingRecorder holds Record until release is closed.
type blockingRecorder struct {
	memoryRecorder
	entered chan struct{}
	release chan struct{}
}

func (b *blockingRecorder) Record(ctx context.Context, e history.Entry) error {
	close(b.entered)
	<-b.release
	return b.memoryRecorder.Record(ctx, e)
}

func TestServeWaitsForWebSocketHandlers(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	rec := &blockingRecorder{entered: make(chan struct{}), release: make(chan struct{})}
	config := DefaultConfig()
	config.Server.LogLevel = "error"
	s := New(config, quietLogger(), WithRecorder(rec))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	var conn *websocket.Conn
	require.Eventually(t, func() bool {
		conn, _, err = websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws", nil)
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"analyze","cards":["As","Kd"]}`)))
	select {
	case <-rec.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("analysis never reached the recorder")
	}

	cancel()
	select {
	case <-done:
		t.Fatal("Serve returned while a handler was still recording")
	case <-time.After(200 * time.Millisecond):
	}

	close(rec.release)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.Len(t, rec.all(), 1)
}

func TestWebSocketDropsSilentPeer(t *testing.T) {
	config := DefaultConfig()
	config.Server.LogLevel = "error"
	s := New(config, quietLogger(), WithKeepalive(50*time.Millisecond, 300*time.Millisecond))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	// Never reading means pings go unanswered.
	dialWS(t, ts)
	require.Eventually(t, func() bool { return openConns(s) == 1 }, 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return openConns(s) == 0 }, 5*time.Second, 20*time.Millisecond)
}

func TestWebSocketKeepsReadingPeer(t *testing.T) {
	config := DefaultConfig()
	config.Server.LogLevel = "error"
	s := New(config, quietLogger(), WithKeepalive(50*time.Millisecond, 300*time.Millisecond))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	conn := dialWS(t, ts)
	replies := make(chan protocol.Message, 1)
	go func() {
		for {
			var msg protocol.Message
			if err := conn.ReadJSON(&msg); err != nil {
				close(replies)
				return
			}
			replies <- msg
		}
	}()

	time.Sleep(900 * time.Millisecond)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"analyze","cards":["Qh","Qd"]}`)))
	select {
	case msg, ok := <-replies:
		require.True(t, ok, "connection dropped while the peer answered pings")
		assert.Equal(t, poker.StartingHandKey("QQ"), msg.Key)
	case <-time.After(5 * time.Second):
		t.Fatal("no reply")
	}
}
