package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/lox/handscope/internal/history"
	"github.com/lox/handscope/poker"
	"github.com/lox/handscope/sdk/analysis"
	"github.com/lox/handscope/sdk/protocol"
)

const (
	shutdownTimeout = 5 * time.Second
	maxBodyBytes    = 1 << 20
)

// Recorder persists analyses and lists recent ones.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) error
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

// Server serves hand analyses over HTTP and WebSocket.
type Server struct {
	config   atomic.Pointer[Config]
	logger   *log.Logger
	clock    quartz.Clock
	recorder Recorder
	upgrader websocket.Upgrader

	pingPeriod time.Duration
	pongWait   time.Duration

	mu       sync.Mutex
	closing  bool
	conns    map[*wsConn]struct{}
	handlers sync.WaitGroup
}

// Option customizes a Server.
type Option func(*Server)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clock quartz.Clock) Option {
	return func(s *Server) {
		s.clock = clock
	}
}

// WithRecorder records every successful analysis.
func WithRecorder(r Recorder) Option {
	return func(s *Server) {
		s.recorder = r
	}
}

// WithKeepalive sets how often WebSocket peers are pinged and how long the
// server waits for a pong before dropping them. ping must be below pong.
func WithKeepalive(ping, pong time.Duration) Option {
	return func(s *Server) {
		s.pingPeriod = ping
		s.pongWait = pong
	}
}

// New creates a server for config.
func New(config *Config, logger *log.Logger, opts ...Option) *Server {
	s := &Server{
		logger: logger.WithPrefix("server"),
		clock:  quartz.NewReal(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		pingPeriod: pingPeriod,
		pongWait:   pongWait,
		conns:      make(map[*wsConn]struct{}),
	}
	s.config.Store(config)
	s.logger.SetLevel(config.Level())
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reload swaps in a new config. Limits, history defaults and the log level
// apply to the next request; the listen address only changes on restart.
func (s *Server) Reload(config *Config) {
	old := s.config.Swap(config)
	s.logger.SetLevel(config.Level())
	if old.Address() != config.Address() {
		s.logger.Warn("Listen address change requires a restart", "current", old.Address(), "configured", config.Address())
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/analyze", s.handleAnalyze)
	mux.HandleFunc("/api/batch", s.handleBatch)
	mux.HandleFunc("/api/table", s.handleTable)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	addr := s.config.Load().Address()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully, closing open WebSocket connections. It returns once every
// WebSocket handler has exited.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("Starting analysis server", "addr", ln.Addr().String())
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("Shutting down analysis server")
		s.closeConnections()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)

		// Shutdown does not track hijacked connections.
		s.closeConnections()
		s.handlers.Wait()
		return err
	})
	return g.Wait()
}

// Analyze runs one analysis, stamps it with an ID and time, and records it.
func (s *Server) Analyze(ctx context.Context, card1, card2 string) (*protocol.AnalyzeResponse, error) {
	start := s.clock.Now()
	a, err := analysis.AnalyzeStartingHand(card1, card2)
	if err != nil {
		return nil, err
	}

	resp := s.stamp(a, start)
	s.record(ctx, resp)
	s.logger.Debug("Analyzed hand", "id", resp.ID, "key", resp.Key, "duration", s.clock.Since(start, "analyze"))
	return resp, nil
}

func (s *Server) stamp(a analysis.HandAnalysis, at time.Time) *protocol.AnalyzeResponse {
	return &protocol.AnalyzeResponse{
		ID:         uuid.NewString(),
		Key:        a.Key,
		AnalyzedAt: at.UTC(),
		Analysis:   a,
	}
}

// record failures are logged but never fail the request.
func (s *Server) record(ctx context.Context, resp *protocol.AnalyzeResponse) {
	if s.recorder == nil {
		return
	}
	err := s.recorder.Record(ctx, history.Entry{
		ID:        resp.ID,
		Key:       resp.Key,
		Cards:     resp.Analysis.Cards,
		Strength:  resp.Analysis.Strength,
		CreatedAt: resp.AnalyzedAt,
	})
	if err != nil {
		s.logger.Warn("Failed to record analysis", "id", resp.ID, "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req protocol.AnalyzeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Cards) != 2 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("expected 2 cards, got %d", len(req.Cards)))
		return
	}

	resp, err := s.Analyze(r.Context(), req.Cards[0], req.Cards[1])
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req protocol.BatchRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	limits := s.config.Load().Limits
	if len(req.Hands) > limits.MaxBatch {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Errorf("batch of %d hands exceeds limit of %d", len(req.Hands), limits.MaxBatch))
		return
	}

	pairs := make([][2]string, len(req.Hands))
	for i, hand := range req.Hands {
		if len(hand) != 2 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("hand %d: expected 2 cards, got %d", i+1, len(hand)))
			return
		}
		pairs[i] = [2]string{hand[0], hand[1]}
	}

	start := s.clock.Now()
	results, err := analysis.AnalyzeBatch(r.Context(), pairs, limits.Workers)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	resp := protocol.BatchResponse{Results: make([]protocol.AnalyzeResponse, len(results))}
	for i, a := range results {
		stamped := s.stamp(a, start)
		s.record(r.Context(), stamped)
		resp.Results[i] = *stamped
	}
	s.logger.Debug("Analyzed batch", "hands", len(results), "duration", s.clock.Since(start, "batch"))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	rng, err := analysis.ParseRange(r.URL.Query().Get("range"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusOK, protocol.NewTableResponse(rng))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	if s.recorder == nil {
		writeError(w, http.StatusNotFound, errors.New("history is disabled"))
		return
	}

	limit := s.config.Load().History.RecentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = n
	}

	entries, err := s.recorder.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to load history", "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("failed to load history"))
		return
	}

	resp := protocol.HistoryResponse{Entries: make([]protocol.HistoryEntry, len(entries))}
	for i, e := range entries {
		resp.Entries[i] = protocol.HistoryEntry(e)
	}
	writeJSON(w, http.StatusOK, resp)
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
	return false
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// statusFor maps card errors to 400 and everything else to 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, poker.ErrInvalidCardFormat), errors.Is(err, poker.ErrDuplicateCard):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) // Client may have gone away
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, protocol.ErrorResponse{Error: err.Error()})
}
