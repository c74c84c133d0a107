package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/dressrental/internal/auth"
	"github.com/utafrali/dressrental/internal/config"
	"github.com/utafrali/dressrental/internal/event"
	handler "github.com/utafrali/dressrental/internal/handler/http"
	redisrepo "github.com/utafrali/dressrental/internal/repository/redis"
	"github.com/utafrali/dressrental/migrations"
	"github.com/utafrali/dressrental/pkg/database"
	pkgkafka "github.com/utafrali/dressrental/pkg/kafka"
	"github.com/utafrali/dressrental/pkg/middleware"
	"github.com/utafrali/dressrental/pkg/tracing"
)

// ServiceName identifies the API in logs, metrics, traces and event sources.
const ServiceName = "dressrental"

// App wires together all dependencies and runs the dress rental API.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	dlq            *pkgkafka.DLQProducer
	consumers      []*pkgkafka.Consumer
	rateLimiter    *middleware.RateLimiter
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// Infra holds the connections shared by the server and the seeding tool.
type Infra struct {
	Pool     *pgxpool.Pool
	Redis    *redis.Client
	Producer *pkgkafka.Producer
}

// Close releases every connection.
func (i *Infra) Close() error {
	var errs []error
	if i.Producer != nil {
		if err := i.Producer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close kafka producer: %w", err))
		}
	}
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if i.Pool != nil {
		i.Pool.Close()
	}
	return errors.Join(errs...)
}

// OpenInfra connects to PostgreSQL, applies migrations, connects to Redis and
// creates the Kafka producer.
func OpenInfra(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Infra, error) {
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	rdb, err := database.NewRedisClient(ctx, cfg.Redis(), logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()))

	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	return &Infra{Pool: pool, Redis: rdb, Producer: producer}, nil
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, cfg.Tracing(ServiceName))
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	infra, err := OpenInfra(ctx, cfg, logger)
	if err != nil {
		_ = tracerShutdown(context.Background())
		return nil, err
	}

	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, infra.Pool, ServiceName); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}
	if cfg.SlowQuery > 0 {
		database.SetSlowQueryLogging(cfg.SlowQuery, logger)
	}

	// Build the dependency graph.
	eventProducer := event.NewProducer(infra.Producer, logger)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	repos := NewPostgresRepositories(infra.Pool)
	catalogCache := redisrepo.NewCatalogCache(infra.Redis, cfg.CatalogCacheTTL)
	services := NewServices(repos, catalogCache, jwtManager, eventProducer, logger)

	// Notify-me consumer: dress events fan out to matching subscriptions.
	var (
		dlq       *pkgkafka.DLQProducer
		consumers []*pkgkafka.Consumer
	)
	if cfg.NotifyConsumer {
		dlq = pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
		store := redisrepo.NewIdempotencyStore(infra.Redis, cfg.IdempotencyTTL)
		notifier := event.NewNotifier(repos.Subscriptions, event.NewLogSender(logger), logger,
			event.WithDeliveryLog(store))
		consumers = append(consumers, event.NewNotifyConsumer(cfg.KafkaBrokers, notifier, store, dlq, logger))
	}

	healthHandler := newHealthHandler(func(ctx context.Context) error {
		return infra.Pool.Ping(ctx)
	}, infra.Redis, cfg.KafkaBrokers)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)

	// HTTP router.
	router := handler.NewRouter(services, jwtManager.Validate, healthHandler, logger, handler.RouterConfig{
		CORS:           cfg.CORS(),
		RequestTimeout: cfg.RequestTimeout,
		CatalogMaxAge:  cfg.CatalogMaxAge,
		PprofCIDRs:     cfg.PprofAllowedCIDRs,
		RateLimiter:    rateLimiter,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           infra.Pool,
		rdb:            infra.Redis,
		producer:       infra.Producer,
		dlq:            dlq,
		consumers:      consumers,
		rateLimiter:    rateLimiter,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and Kafka consumers, then blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	consumerCtx, stopConsumers := context.WithCancel(ctx)
	defer stopConsumers()

	var wg sync.WaitGroup
	for _, consumer := range a.consumers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Start(consumerCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("kafka consumer error", slog.String("error", err.Error()))
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
	}

	stopConsumers()
	wg.Wait()

	return errors.Join(runErr, a.Shutdown())
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka consumers, dead-letter writer and producer
// 4. Redis client and PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	a.rateLimiter.Close()

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	for _, consumer := range a.consumers {
		if err := consumer.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("kafka dlq close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	infra := &Infra{Pool: a.pool, Redis: a.rdb, Producer: a.producer}
	if err := infra.Close(); err != nil {
		a.logger.Error("connection close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
