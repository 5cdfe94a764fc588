package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"golang.org/x/time/rate"

	"github.com/bogoseo/bogoseo/db"
	"github.com/bogoseo/bogoseo/internal/config"
	"github.com/bogoseo/bogoseo/internal/emissions"
	"github.com/bogoseo/bogoseo/internal/ingest"
	"github.com/bogoseo/bogoseo/internal/knowledge"
	"github.com/bogoseo/bogoseo/internal/log"
	"github.com/bogoseo/bogoseo/internal/observability"
	"github.com/bogoseo/bogoseo/internal/outline"
	"github.com/bogoseo/bogoseo/internal/question"
	"github.com/bogoseo/bogoseo/internal/report"
	"github.com/bogoseo/bogoseo/internal/section"
)

// Setup initializes the application. On failure everything already
// initialized is torn down before the error is returned.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger}
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	a.otelCleanup = provideTracing(ctx, cfg, logger)

	pool, dbCleanup, err := provideDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.dbCleanup = dbCleanup
	a.DBPool = pool

	g, err := provideGenkit(ctx)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}
	a.Embedder = embedder

	a.Knowledge = knowledge.New(knowledge.NewQueries(pool), embedder, logger)
	a.Emissions = emissions.NewStore(pool, logger)
	a.Ingester = ingest.New(a.Knowledge, manifestPath(), logger)

	model := cfg.FullModelName()
	a.Synthesizer, err = outline.New(g, model, logger)
	if err != nil {
		return nil, err
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	a.rewriter = question.New(g, model, logger)
	a.generator = section.New(g, model, a.Knowledge, a.Emissions, limiter, cfg.TopK, logger)
	a.Orchestrator = report.New(a.rewriter, a.generator, logger)
	a.ReportFlow = report.NewFlow(g, a.Orchestrator)

	return a, nil
}

func provideTracing(ctx context.Context, cfg *config.Config, logger log.Logger) func() {
	if !cfg.Observability.Enabled {
		return func() {}
	}
	shutdown, err := observability.Setup(ctx, observability.Config{
		AgentHost:   cfg.Observability.AgentHost,
		Environment: cfg.Observability.Environment,
		ServiceName: cfg.Observability.ServiceName,
	})
	if err != nil || shutdown == nil {
		logger.Warn("tracing setup failed, continuing without traces", "error", err)
		return func() {}
	}
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}

func provideGenkit(ctx context.Context) (*genkit.Genkit, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit")
	}
	return g, nil
}

// provideDBPool runs migrations, then opens a pool that registers the
// pgvector types on every new connection.
func provideDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, func(), error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, pool.Close, nil
}

// manifestPath places the ingestion manifest under the user config
// directory, next to where the config file lives.
func manifestPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".bogoseo", "ingest_manifest.json")
}
