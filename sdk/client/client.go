// Package client talks to a handscope analysis service over HTTP and
// WebSocket.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lox/handscope/sdk/protocol"
)

const defaultStreamTimeout = 30 * time.Second

// ErrNotConnected is returned by Stream before Connect succeeds.
var ErrNotConnected = errors.New("websocket not connected")

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets a custom logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// Client is a handscope service client. HTTP calls are safe for concurrent
// use; Stream calls are serialized over one WebSocket.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger zerolog.Logger

	mu sync.Mutex
	ws *wsSession
}

// New creates a client for serverURL, which may use an http, https, ws or
// wss scheme and may end in /ws.
func New(serverURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	case "http", "https":
	default:
		return nil, fmt.Errorf("invalid server URL %q: unsupported scheme", serverURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q: missing host", serverURL)
	}
	u.Path = strings.TrimSuffix(strings.TrimSuffix(u.Path, "/"), "/ws")

	c := &Client{
		base:   u,
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path += path
	u.RawQuery = query.Encode()
	return u.String()
}

// Analyze requests one analysis.
func (c *Client) Analyze(ctx context.Context, card1, card2 string) (*protocol.AnalyzeResponse, error) {
	var resp protocol.AnalyzeResponse
	req := protocol.AnalyzeRequest{Cards: []string{card1, card2}}
	if err := c.do(ctx, http.MethodPost, c.endpoint("/api/analyze", nil), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Batch requests many analyses; results keep request order.
func (c *Client) Batch(ctx context.Context, hands [][2]string) (*protocol.BatchResponse, error) {
	req := protocol.BatchRequest{Hands: make([][]string, len(hands))}
	for i, h := range hands {
		req.Hands[i] = []string{h[0], h[1]}
	}

	var resp protocol.BatchResponse
	if err := c.do(ctx, http.MethodPost, c.endpoint("/api/batch", nil), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Table fetches the strength table, optionally filtered by range notation.
func (c *Client) Table(ctx context.Context, rangeNotation string) (*protocol.TableResponse, error) {
	query := url.Values{}
	if rangeNotation != "" {
		query.Set("range", rangeNotation)
	}

	var resp protocol.TableResponse
	if err := c.do(ctx, http.MethodGet, c.endpoint("/api/table", query), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History fetches up to limit recent analyses; zero uses the server default.
func (c *Client) History(ctx context.Context, limit int) (*protocol.HistoryResponse, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp protocol.HistoryResponse
	if err := c.do(ctx, http.MethodGet, c.endpoint("/api/history", query), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", method).
		Str("url", endpoint).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr protocol.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Error == "" {
			apiErr.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// wsSession is one WebSocket connection plus the goroutine reading it. The
// read loop answers server pings between Stream calls.
type wsSession struct {
	conn    *websocket.Conn
	replies chan protocol.Message
	stop    chan struct{}
	done    chan struct{}
	err     error // read error, set before done is closed

	closeOnce sync.Once
}

// Connect opens the WebSocket used by Stream.
func (c *Client) Connect(ctx context.Context) error {
	u := *c.base
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path += "/ws"

	c.logger.Info().Str("url", u.String()).Msg("connecting to server")
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	ws := &wsSession{
		conn:    conn,
		replies: make(chan protocol.Message, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.readMessages(ws)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ws != nil {
		_ = c.ws.close()
	}
	c.ws = ws
	return nil
}

// readMessages continuously reads the connection, handing replies to Stream.
// Reading keeps the default ping handler answering the server's pings.
func (c *Client) readMessages(ws *wsSession) {
	defer close(ws.done)

	for {
		var msg protocol.Message
		if err := ws.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn().Err(err).Msg("websocket read failed")
			}
			ws.err = err
			return
		}

		select {
		case ws.replies <- msg:
		case <-ws.stop:
			return
		}
	}
}

// next waits for the reply to the frame just written.
func (ws *wsSession) next(ctx context.Context, deadline time.Time) (protocol.Message, error) {
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	select {
	case msg := <-ws.replies:
		return msg, nil
	case <-ws.done:
		// A reply may have landed just before the connection failed.
		select {
		case msg := <-ws.replies:
			return msg, nil
		default:
		}
		if ws.err == nil {
			return protocol.Message{}, errors.New("connection closed")
		}
		return protocol.Message{}, ws.err
	case <-ctx.Done():
		return protocol.Message{}, ctx.Err()
	case <-timer.C:
		return protocol.Message{}, errors.New("timed out waiting for reply")
	}
}

func (ws *wsSession) close() error {
	var err error
	ws.closeOnce.Do(func() {
		close(ws.stop)
		_ = ws.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		err = ws.conn.Close()
		<-ws.done
	})
	return err
}

// Stream analyzes a hand over the WebSocket. Server-side failures come back
// as errors carrying the server's message. A transport failure or an
// abandoned reply drops the connection; call Connect again to resume.
func (c *Client) Stream(ctx context.Context, card1, card2 string) (*protocol.AnalyzeResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ws := c.ws
	if ws == nil {
		return nil, ErrNotConnected
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultStreamTimeout)
	}
	_ = ws.conn.SetWriteDeadline(deadline)

	if err := ws.conn.WriteJSON(protocol.NewAnalyzeMessage(card1, card2)); err != nil {
		c.dropLocked()
		return nil, fmt.Errorf("send analyze: %w", err)
	}

	msg, err := ws.next(ctx, deadline)
	if err != nil {
		// A late reply would otherwise answer the next call.
		c.dropLocked()
		return nil, fmt.Errorf("read analysis: %w", err)
	}

	switch msg.Type {
	case protocol.TypeAnalysis:
		if msg.AnalyzeResponse == nil {
			return nil, errors.New("empty analysis message")
		}
		c.logger.Debug().Str("id", msg.ID).Str("key", string(msg.Key)).Msg("analysis received")
		return msg.AnalyzeResponse, nil
	case protocol.TypeError:
		return nil, errors.New(msg.Error)
	default:
		return nil, fmt.Errorf("unexpected message type %q", msg.Type)
	}
}

func (c *Client) dropLocked() {
	if c.ws == nil {
		return
	}
	_ = c.ws.close()
	c.ws = nil
}

// Close closes the WebSocket if one is open.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ws == nil {
		return nil
	}
	err := c.ws.close()
	c.ws = nil
	return err
}
