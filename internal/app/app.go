// Package app assembles the application: configuration, database pool,
// Genkit, and the report pipeline components, with ordered teardown.
package app

import (
	"errors"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bogoseo/bogoseo/internal/config"
	"github.com/bogoseo/bogoseo/internal/emissions"
	"github.com/bogoseo/bogoseo/internal/ingest"
	"github.com/bogoseo/bogoseo/internal/knowledge"
	"github.com/bogoseo/bogoseo/internal/log"
	"github.com/bogoseo/bogoseo/internal/outline"
	"github.com/bogoseo/bogoseo/internal/question"
	"github.com/bogoseo/bogoseo/internal/report"
	"github.com/bogoseo/bogoseo/internal/section"
)

// App holds every initialized component. Obtain one with Setup and
// release it with Close.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	DBPool   *pgxpool.Pool

	Knowledge *knowledge.Store
	Emissions *emissions.Store
	Ingester  *ingest.Ingester

	Synthesizer  *outline.Synthesizer
	Orchestrator *report.Orchestrator
	ReportFlow   *report.Flow

	rewriter  *question.Rewriter
	generator *section.Generator

	dbCleanup   func()
	otelCleanup func()
}

// Close releases resources in reverse initialization order.
func (a *App) Close() error {
	var errs []error
	if a.dbCleanup != nil {
		a.dbCleanup()
		a.dbCleanup = nil
	}
	if a.otelCleanup != nil {
		a.otelCleanup()
		a.otelCleanup = nil
	}
	return errors.Join(errs...)
}
