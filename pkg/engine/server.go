package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/textmock/textmock/internal/registry"
	"github.com/textmock/textmock/pkg/logging"
)

// Server runs the mock HTTP server. The transport concerns live here;
// matching and rendering stay in the core packages.
type Server struct {
	addr    string
	holder  *registry.Holder
	log     *slog.Logger
	metrics *Metrics
	handler *Handler

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	running    bool
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) ServerOption {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics enables Prometheus instrumentation and the scrape endpoint.
func WithMetrics(m *Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// NewServer creates a server bound to addr, serving the registry
// published by holder.
func NewServer(addr string, holder *registry.Holder, opts ...ServerOption) *Server {
	s := &Server{
		addr:   addr,
		holder: holder,
		log:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = NewHandler(holder)
	s.handler.SetLogger(s.log)
	if s.metrics != nil {
		s.handler.OnNoMatch(s.metrics.RecordMiss)
	}
	return s
}

// Handler returns the mock handler, for tests and embedding.
func (s *Server) Handler() *Handler {
	return s.handler
}

// Start binds the listener and begins serving in the background. Binding
// happens synchronously so port conflicts surface as the return value.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("server already running")
	}

	var chain http.Handler = s.handler
	if s.metrics != nil {
		chain = s.metrics.Wrap(chain)
	}
	chain = LogRequests(s.log, chain)

	mux := http.NewServeMux()
	if s.metrics != nil {
		mux.Handle(MetricsPath, s.metrics.Handler())
	}
	mux.Handle("/", chain)

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.running = true

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("server error", "error", err)
		}
	}()

	s.log.Info("mock server listening", "addr", listener.Addr().String(),
		"definitions", s.holder.Get().Len())
	return nil
}

// Addr returns the bound address, useful when the configured port is 0.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts the server down, waiting for in-flight requests
// up to the context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false
	return s.httpServer.Shutdown(ctx)
}
