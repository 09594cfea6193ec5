package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lox/handscope/sdk/protocol"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Default time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Default ping period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

// wsConn serializes writes; gorilla allows one concurrent writer.
type wsConn struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
}

func (c *wsConn) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

func (c *wsConn) writeControl(messageType int, data []byte) error {
	return c.conn.WriteControl(messageType, data, time.Now().Add(writeWait))
}

func (c *wsConn) close() {
	c.closeOnce.Do(func() {
		_ = c.writeControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		_ = c.conn.Close() // Ignore close errors during shutdown
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.handlers.Add(1)
	defer s.handlers.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	c := &wsConn{conn: conn}
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		c.close()
		return
	}
	s.conns[c] = struct{}{}
	total := len(s.conns)
	s.mu.Unlock()
	s.logger.Info("Client connected", "remote", r.RemoteAddr, "total", total)

	defer func() {
		s.mu.Lock()
		delete(s.conns, c)
		total := len(s.conns)
		s.mu.Unlock()
		_ = conn.Close()
		s.logger.Info("Client disconnected", "remote", r.RemoteAddr, "total", total)
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	s.clock.TickerFunc(ctx, s.pingPeriod, func() error {
		return c.writeControl(websocket.PingMessage, nil)
	}, "ws", "ping")

	s.readLoop(ctx, c)
}

func (s *Server) readLoop(ctx context.Context, c *wsConn) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(s.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(s.pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("WebSocket error", "error", err)
			}
			return
		}

		reply := s.handleMessage(ctx, data)
		if err := c.writeJSON(reply); err != nil {
			s.logger.Debug("Failed to write message", "error", err)
			return
		}
	}
}

// handleMessage answers one inbound frame. Every frame gets exactly one reply.
func (s *Server) handleMessage(ctx context.Context, data []byte) protocol.Message {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return protocol.NewErrorMessage(fmt.Errorf("invalid message: %w", err))
	}

	switch msg.Type {
	case protocol.TypeAnalyze:
		if len(msg.Cards) != 2 {
			return protocol.NewErrorMessage(fmt.Errorf("expected 2 cards, got %d", len(msg.Cards)))
		}
		resp, err := s.Analyze(ctx, msg.Cards[0], msg.Cards[1])
		if err != nil {
			return protocol.NewErrorMessage(err)
		}
		return protocol.NewAnalysisMessage(resp)
	case "":
		return protocol.NewErrorMessage(errors.New("missing message type"))
	default:
		return protocol.NewErrorMessage(fmt.Errorf("unknown message type %q", msg.Type))
	}
}

// closeConnections closes every open WebSocket and refuses new ones.
func (s *Server) closeConnections() {
	s.mu.Lock()
	s.closing = true
	conns := make([]*wsConn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.close()
	}
}
