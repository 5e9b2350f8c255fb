// Package main is the entry point for the discovery API server.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/pazarnet/discovery/internal/api"
	"github.com/pazarnet/discovery/internal/archive"
	"github.com/pazarnet/discovery/internal/audit"
	"github.com/pazarnet/discovery/internal/auth"
	"github.com/pazarnet/discovery/internal/boost"
	"github.com/pazarnet/discovery/internal/config"
	"github.com/pazarnet/discovery/internal/db"
	"github.com/pazarnet/discovery/internal/health"
	"github.com/pazarnet/discovery/internal/impression"
	"github.com/pazarnet/discovery/internal/listing"
	"github.com/pazarnet/discovery/internal/middleware"
	"github.com/pazarnet/discovery/internal/ranking"
	"github.com/pazarnet/discovery/internal/tracing"
	"github.com/pazarnet/discovery/internal/trust"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (environment variables take precedence)")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("Discovery API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "config", cfg.LogSummary())

	// Tracing
	tracerProvider, err := tracing.NewProvider(tracing.Config{
		ServiceName:  "discovery-api",
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		OTLPEndpoint: cfg.TracingEndpoint,
		SamplingRate: 1.0,
		InsecureMode: cfg.Env != "production",
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// Stores: Postgres when configured, in-memory otherwise.
	var (
		dbConn      *sql.DB
		listings    listing.Repository
		trustSource trust.Provider
		auditor     audit.Repository
		boosts      boost.Store
		impressions impression.Repository
		impSource   archive.ImpressionSource
	)
	if cfg.DatabaseURL != "" {
		dbConn, err = db.Open(cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer dbConn.Close()

		listings = listing.NewPostgresRepositoryWithCap(dbConn, cfg.RankFetchCap)
		trustSource = trust.NewPostgresProvider(dbConn)
		pgAuditor := audit.NewPostgresRepository(dbConn)
		auditor = pgAuditor
		boosts = boost.NewPostgresStore(dbConn, pgAuditor)
		pgImpressions := impression.NewPostgresRepository(dbConn)
		impressions = pgImpressions
		impSource = pgImpressions
	} else {
		logger.Warn("no DATABASE_URL configured, running on in-memory stores")
		listings = listing.NewInMemoryRepositoryWithCap(cfg.RankFetchCap)
		trustSource = trust.NewInMemoryProvider()
		auditor = audit.NewInMemoryRepository()
		boosts = boost.NewInMemoryStore(auditor)
		memImpressions := impression.NewInMemoryRepository()
		impressions = memImpressions
		impSource = memImpressions
	}

	// Redis: trust snapshot cache and shared rate limit state.
	middlewareMetrics := middleware.NewMetrics()
	var redisClient *redis.Client
	var rateLimitStore middleware.RateLimitStore = middleware.NewInMemoryRateLimitStore()
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()

		trustSource = trust.NewCachedProvider(trustSource, redisClient, trust.DefaultCacheTTL)
		rateLimitStore = middleware.NewRedisRateLimitStore(redisClient, middlewareMetrics)
	}

	// Metrics registry
	registry := prometheus.NewRegistry()
	rankMetrics := ranking.NewMetrics()
	impMetrics := impression.NewMetrics()
	for _, register := range []func(prometheus.Registerer) error{
		middlewareMetrics.Register,
		rankMetrics.Register,
		impMetrics.Register,
	} {
		if err := register(registry); err != nil {
			logger.Error("failed to register metrics", "error", err)
			os.Exit(1)
		}
	}

	// Scoring weights
	weights, weightsVersion, err := ranking.LoadCalibration(cfg.RankCalibrationPath)
	if err != nil {
		logger.Warn("calibration load failed, using default weights", "error", err)
	}

	recorder := impression.NewRecorder(impressions, impMetrics, impression.DefaultBufferSize)

	engine := ranking.NewEngine(listings, trustSource, boosts, ranking.Options{
		Weights:         weights,
		WeightsVersion:  weightsVersion,
		ColdStartWindow: time.Duration(cfg.RankColdStartDays) * 24 * time.Hour,
		Metrics:         rankMetrics,
		Recorder:        recorder,
	})

	// Archive exporter (optional)
	var archiveHandlers *api.ArchiveHandlers
	if cfg.ArchiveBucket != "" {
		exporter, err := archive.New(archive.Config{
			Bucket:          cfg.ArchiveBucket,
			AccessKeyID:     cfg.ArchiveAccessKeyID,
			SecretAccessKey: cfg.ArchiveSecretAccessKey,
			Endpoint:        cfg.ArchiveEndpoint,
		})
		if err != nil {
			logger.Error("failed to initialize archive exporter", "error", err)
			os.Exit(1)
		}
		archiveHandlers = api.NewArchiveHandlers(exporter, impSource, auditor)
	}

	// Health checkers
	var dbChecker, redisChecker api.HealthChecker
	if dbConn != nil {
		dbChecker = health.NewDBChecker(dbConn)
	}
	if redisClient != nil {
		redisChecker = health.NewRedisChecker(redisClient)
	}

	jwtSvc := auth.NewJWTService(cfg.JWTSecret)
	mux := api.Routes(
		jwtSvc,
		api.NewDiscoveryHandlers(engine),
		api.NewBoostHandlers(boosts, auditor),
		archiveHandlers,
		api.NewHealthHandlers(dbChecker, redisChecker),
	)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Middleware chain, outermost first:
	// RequestID -> Tracing -> HTTPMetrics -> Logging -> Recovery -> RateLimiter
	var handler http.Handler = mux
	handler = middleware.RateLimiter(rateLimitStore, middleware.DefaultGlobalLimit(), middleware.TenantKeyFunc())(handler)
	handler = middleware.Recovery(logger)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.HTTPMetrics(middlewareMetrics)(handler)
	if cfg.TracingEnabled {
		handler = middleware.Tracing("discovery-api")(handler)
	}
	handler = middleware.RequestID(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	// Drain buffered impressions before the stores go away.
	recorder.Close()

	if err := tracerProvider.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown tracer provider", "error", err)
	}

	logger.Info("server stopped")
}
