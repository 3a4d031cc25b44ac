package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/analytics/store"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/service"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/search-server/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "", "path to a .yaml or .toml config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if err := run(cfg); err != nil {
		slog.Error("search server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("search server stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	engine, err := indexer.NewEngine(cfg.Engine)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	tracker, err := analytics.NewRequestTracker(engine, cfg.Tracker.Window)
	if err != nil {
		return fmt.Errorf("creating request tracker: %w", err)
	}
	slog.Info("engine initialized",
		"stop_words", len(cfg.Engine.StopWords),
		"max_results", engine.MaxResults(),
		"tracker_window", tracker.Snapshot().Window,
	)

	checker := health.NewChecker()

	var queryCache *cache.QueryCache
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			namespace := uuid.NewString()
			breaker := resilience.NewCircuitBreaker("redis", resilience.BreakerConfig{
				FailureThreshold: cfg.Redis.BreakerThreshold,
				ResetTimeout:     cfg.Redis.BreakerReset,
			})
			backend := cache.Guard(redisClient, breaker, cfg.Redis.OpTimeout)
			queryCache = cache.New(backend, namespace, cfg.Redis.CacheTTL)
			checker.Register("redis", redisClient.HealthCheck())
			slog.Info("search cache enabled",
				"addr", cfg.Redis.Addr,
				"ttl", cfg.Redis.CacheTTL,
				"namespace", namespace,
			)
		}
	}

	svc := service.New(engine, tracker, queryCache, m)
	checker.Register("engine", health.Static(func() string {
		return fmt.Sprintf("%d documents", svc.Stats().Documents)
	}))

	g, gctx := errgroup.WithContext(ctx)

	var history analytics.SnapshotLister
	if cfg.Postgres.Enabled {
		pg, err := resilience.Retry(ctx, "postgres connect",
			resilience.RetryConfig{MaxAttempts: cfg.Postgres.ConnectAttempts, InitialDelay: 500 * time.Millisecond},
			func(context.Context) (*postgres.Client, error) {
				return postgres.New(cfg.Postgres)
			},
		)
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer pg.Close()
		snapshots := store.NewStore(pg)
		if err := snapshots.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("preparing snapshot schema: %w", err)
		}
		if last, err := snapshots.LatestSnapshot(ctx); err != nil {
			slog.Warn("reading last tracker snapshot failed", "error", err)
		} else if last != nil {
			slog.Info("previous tracker snapshot",
				"captured_at", last.CapturedAt,
				"no_result_requests", last.Stats.NoResultRequests,
				"recorded", last.Stats.Recorded,
			)
		}
		history = snapshots
		checker.Register("postgres", pg.HealthCheck())
		done := snapshots.StartPeriodicSave(gctx, svc, cfg.Tracker.SnapshotInterval)
		g.Go(func() error {
			<-done
			return nil
		})
	}

	if cfg.Kafka.Enabled {
		kc := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.Documents, consumer.HandleMessage(svc, m))
		dc := consumer.New(kc)
		g.Go(func() error {
			return dc.Start(gctx)
		})
		slog.Info("document consumer enabled",
			"brokers", cfg.Kafka.Brokers,
			"topic", cfg.Kafka.Topics.Documents,
			"group", cfg.Kafka.ConsumerGroup,
		)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      newHandler(svc, history, checker, m, cfg.Server),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port, reg)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := shutdownMetrics(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}()
	}

	g.Go(func() error {
		slog.Info("search server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newHandler mounts the search, analytics and health routes behind the
// request-id, metrics and timeout middleware. history may be nil.
func newHandler(
	svc *service.Service,
	history analytics.SnapshotLister,
	checker *health.Checker,
	m *metrics.Metrics,
	cfg config.ServerConfig,
) http.Handler {
	mux := http.NewServeMux()
	handler.New(svc, cfg.DefaultPageSize).RegisterRoutes(mux)
	analytics.NewHandler(svc, history).RegisterRoutes(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.Metrics(m),
		middleware.Timeout(cfg.WriteTimeout),
	)
}
