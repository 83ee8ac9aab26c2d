// Package httpapi serves the answer and retrieval endpoints over HTTP.
//
// Routes:
//
//	POST /ask       {query} -> {answer, similarities, used_fallback}
//	POST /retrieve  {query, top_k?, threshold?} -> retrieval result
//	GET  /healthz   liveness
//	GET  /readyz    index summary, 503 until an index is loaded
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/faqbot/internal/core/ports/driving"
	"github.com/custodia-labs/faqbot/internal/logger"
)

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("httpapi: retrieval service is required")

// DefaultRequestTimeout bounds each request when Config.RequestTimeout is zero.
const DefaultRequestTimeout = 60 * time.Second

// Ports aggregates the driving ports used by the HTTP server.
type Ports struct {
	Retrieval driving.RetrievalService

	// Answer is optional. Without it POST /ask responds 503.
	Answer driving.AnswerService
}

// Config configures the HTTP server.
type Config struct {
	// Addr is the listen address, e.g. ":8000".
	Addr string

	// RequestTimeout bounds each request.
	RequestTimeout time.Duration

	// AllowedOrigins for CORS. Empty allows any origin.
	AllowedOrigins []string
}

// Server is the HTTP API server.
type Server struct {
	ports   Ports
	cfg     Config
	handler http.Handler
}

// NewServer creates a server. The router is built once and is safe for
// concurrent use.
func NewServer(ports Ports, cfg Config) (*Server, error) {
	if ports.Retrieval == nil {
		return nil, ErrMissingRetrievalService
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}

	s := &Server{ports: ports, cfg: cfg}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("Listening on %s", s.cfg.Addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
