package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"example.com/fittrack/internal/api"
	"example.com/fittrack/internal/auth"
	"example.com/fittrack/internal/config"
	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/generation"
	"example.com/fittrack/internal/logging"
	"example.com/fittrack/internal/outbox"
	"example.com/fittrack/internal/persistence/memory"
	"example.com/fittrack/internal/persistence/migrations"
	"example.com/fittrack/internal/persistence/postgres"
	"example.com/fittrack/internal/provider"
	"example.com/fittrack/internal/ratelimit"
	httptransport "example.com/fittrack/internal/transport/http"
	"example.com/fittrack/internal/validation"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("fittrack api stopped", zap.Error(err))
	}
}

type repositories struct {
	workouts    domain.WorkoutRepository
	catalog     domain.CatalogRepository
	users       domain.UserRepository
	generations generation.Store
}

func run(cfg config.Config, logger *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		repos repositories
		pool  *pgxpool.Pool
	)
	if cfg.PostgresURL != "" {
		var err error
		pool, err = postgres.Connect(ctx, cfg.PostgresURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		applied, err := migrations.Apply(ctx, pool)
		if err != nil {
			return err
		}
		logger.Info("migrations applied", zap.Strings("names", applied))

		repos = repositories{
			workouts:    postgres.NewWorkoutRepository(pool),
			catalog:     postgres.NewCatalogRepository(pool),
			users:       postgres.NewUserRepository(pool),
			generations: postgres.NewGenerationStore(pool),
		}
	} else {
		logger.Warn("POSTGRES_URL not set; using in-memory storage")
		repos = repositories{
			workouts:    memory.NewWorkoutRepository(),
			catalog:     memory.NewCatalogRepository(),
			users:       memory.NewUserRepository(),
			generations: memory.NewGenerationStore(),
		}
	}

	verifier, err := newVerifier(ctx, cfg.Auth, logger)
	if err != nil {
		return err
	}

	validator := validation.New()
	users := domain.NewUserService(repos.users, validator)
	orchestrator := generation.NewOrchestrator(
		repos.generations,
		provider.Chain(ctx, provider.ChainConfig(cfg.Providers), logger),
		generation.WithLogger(logger),
	)
	handler := api.NewHandler(api.Services{
		Workouts:  domain.NewWorkoutService(repos.workouts, validator),
		Catalog:   domain.NewCatalogService(repos.catalog),
		Users:     users,
		Generator: orchestrator,
	}, logger)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	counter, closeCounter, err := newCounter(cfg.RateLimit)
	if err != nil {
		return err
	}
	defer closeCounter()

	limiter := ratelimit.Middleware{
		Counter: counter,
		Limit:   cfg.RateLimit.Requests,
		Window:  cfg.RateLimit.Window,
		Skipper: func(r *http.Request) bool { return r.URL.Path == "/healthz" || r.URL.Path == "/metrics" },
		Logger:  logger,

		TrustForwardedFor: cfg.RateLimit.TrustProxy,
	}
	authn := auth.NewMiddleware(verifier,
		auth.PathPrefixSkipper("/healthz", "/metrics", "/api/exercises", "/api/exercises/"),
		logger,
	)

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address: cfg.HTTPAddress,
		Logger:  logger,
	}, api.Chain(mux,
		api.RequestID,
		api.AccessLog(logger),
		api.CORS(cfg.CORSOrigin),
		limiter.Wrap,
		authn.Wrap,
		api.TouchUser(users, logger),
	))

	g, gctx := errgroup.WithContext(ctx)

	if cfg.OutboxEnabled && pool != nil {
		producer := outbox.NewKafkaProducer(outbox.ProducerConfig{Brokers: cfg.KafkaBrokers, Logger: logger})
		defer producer.Close()

		dispatcher := outbox.NewDispatcher(
			outbox.NewPostgresStore(pool),
			producer,
			outbox.NewSchemaRegistryClient(cfg.SchemaRegistryURL),
			cfg.OutboxPollInterval,
			cfg.OutboxBatchSize,
			outbox.WithLogger(logger),
		)
		g.Go(func() error {
			dispatcher.Start(gctx)
			return nil
		})
	} else {
		logger.Info("outbox dispatcher disabled")
	}

	g.Go(func() error {
		logger.Info("fittrack api listening", zap.String("address", cfg.HTTPAddress))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown failed", zap.Error(err))
		}
		return nil
	})

	return g.Wait()
}

func newVerifier(ctx context.Context, cfg config.AuthConfig, logger *zap.Logger) (auth.Verifier, error) {
	if cfg.JWKSURL != "" {
		logger.Info("verifying RS256 tokens against JWKS", zap.String("url", cfg.JWKSURL))
		return auth.NewJWKSVerifier(ctx, auth.JWKSConfig{URL: cfg.JWKSURL, Issuer: cfg.Issuer, Audience: cfg.Audience})
	}
	logger.Warn("AUTH_JWKS_URL not set; verifying HS256 tokens with the shared secret")
	return auth.NewHMACVerifier(auth.HMACConfig{Secret: cfg.HMACSecret, Issuer: cfg.Issuer, Audience: cfg.Audience})
}

func newCounter(cfg config.RateLimitConfig) (ratelimit.Counter, func(), error) {
	if cfg.RedisURL == "" {
		return ratelimit.NewMemoryCounter(), func() {}, nil
	}
	client, err := ratelimit.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return ratelimit.NewRedisCounter(client), func() { _ = client.Close() }, nil
}
