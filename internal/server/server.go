// Package server wires the HTTP API for flakewatch.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"flakewatch/internal/config"
	"flakewatch/internal/server/handlers"
	"flakewatch/internal/server/middleware"
)

// Server is the HTTP server for the ingestion and triage API.
type Server struct {
	httpServer *http.Server
}

// New creates a new API server. metricsHandler may be nil when metrics are
// disabled.
func New(addr string, store handlers.StoreFactory, pipeline handlers.Dispatcher,
	cfg *config.Config, metricsHandler http.Handler, log *slog.Logger) *Server {

	h := handlers.New(store, pipeline, log)
	auth := middleware.RequireBearerToken(cfg.IngestToken)
	limited := middleware.RateLimit(cfg.IngestRateLimit, cfg.IngestRateBurst)

	mux := http.NewServeMux()

	// Ingestion: auth before parsing, rate limit behind auth so anonymous
	// traffic cannot exhaust the bucket.
	mux.Handle("POST /api/executions", auth(limited(http.HandlerFunc(h.ReportExecution))))

	// Authenticated read APIs
	mux.Handle("GET /api/executions/{id}", auth(http.HandlerFunc(h.GetExecution)))
	mux.Handle("GET /api/defects", auth(http.HandlerFunc(h.ListDefects)))
	mux.Handle("GET /api/defects/{id}", auth(http.HandlerFunc(h.GetDefect)))
	mux.Handle("GET /api/flaky", auth(http.HandlerFunc(h.ListFlakyTests)))
	mux.Handle("GET /api/rules", auth(http.HandlerFunc(h.ListRules)))

	mux.HandleFunc("GET /healthz", h.Health)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return s.Shutdown(shutDownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
