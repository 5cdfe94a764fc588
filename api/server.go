// Package api provides the HTTP REST API for report generation.
//
// Endpoints:
//
//	POST /api/outline        - synthesize a report outline for a topic
//	POST /api/report         - generate a full report (JSON, via Genkit Flow)
//	POST /api/report/stream  - generate a full report (SSE stream)
//	POST /api/export         - encode a report as docx or pdf
//	GET  /health             - liveness probe
//	GET  /ready              - readiness probe
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: HTTP middleware (recovery, request ID, logging)
//   - health.go: health check endpoints
//   - outline.go: outline synthesis endpoint
//   - report.go: report generation endpoints (sync + SSE)
//   - export.go: document export endpoint
//   - response.go: JSON response helpers
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bogoseo/bogoseo/internal/log"
	"github.com/bogoseo/bogoseo/internal/outline"
	"github.com/bogoseo/bogoseo/internal/report"
)

const (
	// DefaultAddr is the default address for the HTTP server.
	DefaultAddr = "127.0.0.1:3400"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout prevents Slowloris-style slow header attacks.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout must cover a full report stream, which generates
	// every section of an outline against a rate-limited model.
	WriteTimeout = 15 * time.Minute

	// IdleTimeout is the keep-alive limit between requests.
	IdleTimeout = 120 * time.Second
)

// Server is the HTTP server for the report API.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger

	health  *HealthHandler
	outline *OutlineHandler
	report  *ReportHandler
	export  *ExportHandler
}

// NewServer creates a server with all routes registered.
func NewServer(pool *pgxpool.Pool, synthesizer *outline.Synthesizer, reportFlow *report.Flow, logger log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		mux:     mux,
		logger:  logger,
		health:  NewHealthHandler(pool, logger),
		outline: NewOutlineHandler(synthesizer, logger),
		report:  NewReportHandler(reportFlow, logger),
		export:  NewExportHandler(logger),
	}

	s.health.RegisterRoutes(mux)
	s.outline.RegisterRoutes(mux)
	s.report.RegisterRoutes(mux)
	s.export.RegisterRoutes(mux)

	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery, request ID, logging, handler.
func (s *Server) Handler() http.Handler {
	return chain(s.mux, recoveryMiddleware, requestIDMiddleware, loggingMiddleware)
}

// Run starts the server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
