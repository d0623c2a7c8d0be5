package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/veritas/internal/adapter/eventpublisher"
	"github.com/pscheid92/veritas/internal/adapter/httpserver"
	"github.com/pscheid92/veritas/internal/adapter/memory"
	"github.com/pscheid92/veritas/internal/adapter/metrics"
	"github.com/pscheid92/veritas/internal/adapter/postgres"
	"github.com/pscheid92/veritas/internal/adapter/redis"
	"github.com/pscheid92/veritas/internal/app"
	"github.com/pscheid92/veritas/internal/domain"
	"github.com/pscheid92/veritas/internal/jobs"
	"github.com/pscheid92/veritas/internal/platform/config"
	"github.com/pscheid92/veritas/internal/platform/logging"
	goredis "github.com/redis/go-redis/v9"
)

const leaderLeaseTTL = 2 * time.Minute

type storage struct {
	store  domain.Store
	pool   *pgxpool.Pool
	checks []httpserver.HealthCheck
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupStorage(cfg *config.Config, clock clockwork.Clock, dbMetrics *metrics.DBMetrics) storage {
	if cfg.StoreBackend == config.BackendMemory {
		slog.Warn("Using in-memory store, data is lost on restart")
		return storage{store: memory.NewStore(clock)}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, postgres.NewMetricsTracer(dbMetrics))
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return storage{
		store: postgres.NewStore(pool, clock),
		pool:  pool,
		checks: []httpserver.HealthCheck{
			{Name: "postgres", Check: pool.Ping},
		},
	}
}

func setupRedis(cfg *config.Config, redisMetrics *metrics.RedisMetrics) *goredis.Client {
	if cfg.RedisURL == "" {
		slog.Info("REDIS_URL not set, running without rate limits and status events")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := redis.NewClient(ctx, cfg.RedisURL,
		redis.NewMetricsHook(redisMetrics),
		redis.NewCircuitBreakerHook(redisMetrics),
	)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func instanceID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

func runGracefulShutdown(srv *httpserver.Server, sched *jobs.Scheduler, stopBackground context.CancelFunc) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		if sched != nil {
			sched.Stop(shutdownCtx)
		}
		stopBackground()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "store", cfg.StoreBackend)

	registry := metrics.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)
	lifecycleMetrics := metrics.NewLifecycleMetrics(registry)
	dbMetrics := metrics.NewDBMetrics(registry)
	redisMetrics := metrics.NewRedisMetrics(registry)

	st := setupStorage(cfg, clock, dbMetrics)
	if st.pool != nil {
		defer st.pool.Close()
	}

	backgroundCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	opts := []app.Option{
		app.WithRecorder(lifecycleMetrics),
		app.WithFeedLimit(cfg.FeedLimit),
		app.WithMaxContentLength(cfg.MaxContentLength),
		app.WithSweepBatch(cfg.SweepBatchSize),
	}
	checks := st.checks

	// Pass nil explicitly to the scheduler to avoid a typed-nil lease.
	var lease jobs.Lease
	redisClient := setupRedis(cfg, redisMetrics)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()

		opts = append(opts,
			app.WithRateLimiter(redis.NewActionRateLimiter(redisClient, clock, cfg.ActionRateCapacity, cfg.ActionRatePerMin, redisMetrics)),
			app.WithPublisher(eventpublisher.New(redis.NewStatusPublisher(redisClient))),
		)
		checks = append(checks, httpserver.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
		lease = redis.NewLeaderElector(redisClient, instanceID(), leaderLeaseTTL)

		go redis.NewStatusSubscriber(redisClient).Start(backgroundCtx, func(t domain.Transition) {
			slog.Debug("Status change observed", "rumor_id", t.RumorID, "to", t.To, "trigger", t.Trigger)
		})
	}

	appSvc := app.NewService(st.store, cfg.Rules.Domain(), clock, opts...)

	var sched *jobs.Scheduler
	if cfg.SweepSchedule != "" {
		var err error
		sched, err = jobs.NewScheduler(backgroundCtx, appSvc, cfg.SweepSchedule, lease)
		if err != nil {
			slog.Error("Failed to create sweep scheduler", "error", err)
			os.Exit(1)
		}
		sched.Start()
	}

	srv := httpserver.NewServer(cfg, appSvc,
		httpserver.WithMetrics(httpMetrics, metrics.Handler(registry)),
		httpserver.WithHealthChecks(checks...),
	)

	done := runGracefulShutdown(srv, sched, stopBackground)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
