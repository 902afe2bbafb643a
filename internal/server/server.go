package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/vigil-governance/vigil/internal/callerauth"
	"github.com/vigil-governance/vigil/internal/gate"
)

// Server is the vigil HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	handlers   *Handlers
	logger     *slog.Logger
}

// Handler returns the root HTTP handler for use in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServerConfig holds all dependencies and configuration for creating a Server.
type ServerConfig struct {
	Gate         *gate.Gate
	Ontology     OntologyPinger
	Ledger       LedgerPinger
	CallerAuth   *callerauth.Manager
	Logger       *slog.Logger

	Port                int
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	MaxRequestBodyBytes int64
	CORSAllowedOrigins  []string // ["*"] permits all.
	CompleteFailClosed  bool
}

// New creates a new HTTP server with all routes configured.
func New(cfg ServerConfig) *Server {
	h := NewHandlers(HandlersDeps{
		Gate:                cfg.Gate,
		Ontology:            cfg.Ontology,
		Ledger:              cfg.Ledger,
		Logger:              cfg.Logger,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
		CompleteFailClosed:  cfg.CompleteFailClosed,
	})

	mux := http.NewServeMux()
	mux.Handle("POST /validate", http.HandlerFunc(h.HandleValidate))
	mux.Handle("GET /health", http.HandlerFunc(h.HandleHealth))
	mux.Handle("GET /readyz", http.HandlerFunc(h.HandleReady))

	// Middleware chain (outermost executes first), per SPEC_FULL.md §4.3:
	// request ID → security headers → CORS → tracing → logging → recovery
	// → caller-auth → handler.
	var handler http.Handler = mux
	handler = callerAuthMiddleware(cfg.CallerAuth, handler)
	handler = recoveryMiddleware(cfg.Logger, handler)
	handler = loggingMiddleware(cfg.Logger, handler)
	handler = tracingMiddleware(handler)
	handler = corsMiddleware(cfg.CORSAllowedOrigins, handler)
	handler = securityHeadersMiddleware(handler)
	handler = requestIDMiddleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  2 * cfg.ReadTimeout,
		},
		handler:  handler,
		handlers: h,
		logger:   cfg.Logger,
	}
}

// Handlers returns the underlying Handlers, for tests.
func (s *Server) Handlers() *Handlers {
	return s.handlers
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
