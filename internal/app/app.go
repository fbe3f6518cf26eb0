package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"

	"github.com/pickstreak/pickstreak/external/oddsapi"
	"github.com/pickstreak/pickstreak/internal/config"
	"github.com/pickstreak/pickstreak/internal/domain/slate"
	cacherepo "github.com/pickstreak/pickstreak/internal/infrastructure/repository/cache"
	"github.com/pickstreak/pickstreak/internal/infrastructure/repository/postgres"
	"github.com/pickstreak/pickstreak/internal/interfaces/httpapi"
	basecache "github.com/pickstreak/pickstreak/internal/platform/cache"
	idgen "github.com/pickstreak/pickstreak/internal/platform/id"
	"github.com/pickstreak/pickstreak/internal/platform/logging"
	"github.com/pickstreak/pickstreak/internal/platform/resilience"
	"github.com/pickstreak/pickstreak/internal/usecase"
)

func NewHTTPServer(cfg config.Config, logger *logging.Logger, requestLogger *slog.Logger) (*http.Server, func(context.Context) error, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if requestLogger == nil {
		requestLogger = slog.Default()
	}

	dbURL := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Connect("postgres", dbURL,
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithDBName(dbNameFromURL(dbURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}

	loc, err := time.LoadLocation(cfg.SlateTimezone)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("load slate timezone %q: %w", cfg.SlateTimezone, err)
	}

	slateRepo := buildSlateRepository(cfg, db)
	pickRepo := postgres.NewPickRepository(db)
	scoreRepo := postgres.NewScoringRepository(db)

	provider := oddsapi.NewClient(oddsapi.ClientConfig{
		BaseURL:    cfg.OddsAPIBaseURL,
		APIKey:     cfg.OddsAPIKey,
		Timeout:    cfg.OddsAPITimeout,
		MaxRetries: cfg.OddsAPIMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.OddsAPICircuitEnabled,
			FailureThreshold: cfg.OddsAPICircuitFailureCount,
			OpenTimeout:      cfg.OddsAPICircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.OddsAPICircuitHalfOpenMaxReq,
		},
	})

	slateSvc := usecase.NewSlateService(
		slateRepo,
		pickRepo,
		provider,
		idgen.NewRandomGenerator(),
		cfg.SlateSports,
		loc,
		logger,
	)
	finalizeSvc := usecase.NewFinalizeService(slateRepo, pickRepo, scoreRepo, loc, logger)
	scoreSyncSvc := usecase.NewScoreSyncService(
		slateRepo,
		pickRepo,
		provider,
		finalizeSvc,
		cfg.ScoreSyncWorkers,
		logger,
	)

	handler := httpapi.NewHandler(slateSvc, scoreSyncSvc, finalizeSvc, db.PingContext, requestLogger)
	router := httpapi.NewRouter(handler, requestLogger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		_ = db.Close()
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	cleanup := func(context.Context) error {
		return db.Close()
	}

	return server, cleanup, nil
}

func buildSlateRepository(cfg config.Config, db *sqlx.DB) slate.Repository {
	repo := postgres.NewSlateRepository(db)
	if !cfg.CacheEnabled {
		return repo
	}
	return cacherepo.NewSlateRepository(repo, basecache.NewStore(cfg.CacheTTL))
}
