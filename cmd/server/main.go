package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"eligo/internal/assess"
	"eligo/internal/assess/adapters"
	assesshandler "eligo/internal/assess/handler"
	assessmetrics "eligo/internal/assess/metrics"
	"eligo/internal/audit"
	"eligo/internal/eligibility"
	"eligo/internal/linkage"
	"eligo/internal/match"
	"eligo/internal/platform/config"
	"eligo/internal/platform/httpserver"
	"eligo/internal/platform/logger"
	platformredis "eligo/internal/platform/redis"
	"eligo/internal/pool"
	"eligo/internal/token"
	httptransport "eligo/internal/transport/http"
)

// main wires dependencies and owns the server lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	// Optional infrastructure first; the service degrades to in-memory
	// stores when neither Postgres nor Redis is configured.
	var db *sql.DB
	if cfg.PostgresURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			return err
		}
		defer db.Close()
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	health := map[string]httptransport.HealthChecker{}

	var poolStore pool.Store
	if db != nil {
		pg, err := pool.NewPostgresStore(db)
		if err != nil {
			return err
		}
		poolStore = pg
		health["postgres"] = pg
	} else {
		mem, err := pool.NewInMemoryStoreFromFile(cfg.PoolSnapshotPath)
		if err != nil {
			return err
		}
		poolStore = mem
		log.Info("using in-memory candidate pool", "snapshot", cfg.PoolSnapshotPath)
	}
	if redisClient != nil {
		poolStore = pool.NewCachedStore(poolStore, redisClient, cfg.Redis.CacheTTL, log)
		health["redis"] = redisClient
	}

	var auditStore audit.Store
	if db != nil {
		pgAudit, err := audit.NewPostgresStore(db)
		if err != nil {
			return err
		}
		auditStore = pgAudit
	} else {
		auditStore = audit.NewInMemoryStore()
	}

	auditOpts := []audit.Option{audit.WithLogger(log)}
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaAuditTopic)
		if err != nil {
			return err
		}
		defer sink.Close()
		auditOpts = append(auditOpts, audit.WithSink(sink))
		log.Info("audit events mirrored to kafka", "topic", cfg.KafkaAuditTopic)
	}
	auditor := audit.NewPublisher(auditStore, auditOpts...)

	// Core engines.
	matcher := match.New(match.WithAmbiguityLimit(cfg.AmbiguityLimit))
	scorer := linkage.NewFieldScorer(matcher)
	linker, err := linkage.NewEngine(scorer, cfg.Linkage, linkage.WithLogger(log))
	if err != nil {
		return err
	}
	decider, err := eligibility.NewEngine(cfg.Decision, eligibility.WithLogger(log))
	if err != nil {
		return err
	}

	// Upstream signal services.
	perception, err := adapters.NewPerceptionClient(cfg.PerceptionURL, cfg.SignalTimeout)
	if err != nil {
		return err
	}
	risk, err := adapters.NewRiskClient(cfg.RiskURL, cfg.SignalTimeout)
	if err != nil {
		return err
	}

	service, err := assess.NewService(
		perception,
		risk,
		poolStore,
		linker,
		decider,
		auditor,
		assess.WithMetrics(assessmetrics.New()),
		assess.WithLogger(log),
	)
	if err != nil {
		return err
	}

	var tokenOpts []token.Option
	if cfg.APIClientID != "" && cfg.APIClientSecretHash != "" {
		tokenOpts = append(tokenOpts, token.WithClient(token.Client{
			ID:         cfg.APIClientID,
			SecretHash: cfg.APIClientSecretHash,
		}))
	}
	tokens, err := token.NewService(cfg.JWTSigningKey, tokenOpts...)
	if err != nil {
		return err
	}
	// The exchange endpoint only exists when a client is registered.
	var exchange *token.Service
	if len(tokenOpts) > 0 {
		exchange = tokens
	}

	handler := assesshandler.New(service, auditor, log)
	router := httptransport.NewRouter(httptransport.Deps{
		Assess:    handler,
		Validator: tokens,
		Logger:    log,
		Tokens:    exchange,
		TokenTTL:  cfg.TokenTTL,
		Health:    health,
	})

	srv := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting eligo", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
