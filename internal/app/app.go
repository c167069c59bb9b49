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
	"github.com/sony/gobreaker/v2"

	"github.com/utafrali/storefront/internal/backend"
	"github.com/utafrali/storefront/internal/cart"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/event"
	handler "github.com/utafrali/storefront/internal/handler/http"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/internal/storage"
	"github.com/utafrali/storefront/internal/storage/memory"
	"github.com/utafrali/storefront/internal/storage/postgres"
	redisstore "github.com/utafrali/storefront/internal/storage/redis"
	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/httpclient"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/tracing"
)

const serviceName = "storefront"

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	pool           *pgxpool.Pool
	purger         purger
	carts          *cart.Manager
	events         *event.Producer
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error

	// bgCtx scopes the rate limiter janitor and the cart sweepers.
	bgCtx    context.Context
	bgCancel context.CancelFunc
	bg       sync.WaitGroup
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	healthHandler := health.NewHandler()

	st, err := a.openStorage(ctx, healthHandler)
	if err != nil {
		_ = tracerShutdown(context.Background())
		return nil, err
	}

	a.carts = cart.NewManager(st, cart.ManagerConfig{
		IdleTTL:       time.Duration(cfg.CartIdleMinutes) * time.Minute,
		SweepInterval: time.Duration(cfg.CartSweepSeconds) * time.Second,
		LoadTimeout:   time.Duration(cfg.CartLoadTimeoutMs) * time.Millisecond,
	}, logger)

	// Kafka is optional; without brokers no events are emitted.
	var publisher event.Publisher
	if cfg.EventsEnabled() {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = a.producer
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Info("kafka brokers not configured, domain events disabled")
	}
	a.events = event.NewProducer(publisher, logger)

	// Backend client with circuit breaker.
	baseClient := httpclient.New(httpclient.Config{
		Timeout:         cfg.BackendTimeout(),
		MaxConnsPerHost: 100,
	})
	cbCfg := httpclient.CircuitBreakerConfig{
		Name:         "storefront-backend",
		MaxRequests:  cfg.CBMaxRequests,
		Interval:     time.Duration(cfg.CBInterval) * time.Second,
		Timeout:      time.Duration(cfg.CBTimeout) * time.Second,
		FailureRatio: cfg.CBFailureRatio,
		MinRequests:  cfg.CBMinRequests,
	}
	cbClient := httpclient.NewCircuitBreakerClient(baseClient, cbCfg, logger)
	logger.Info("circuit breaker initialized",
		slog.String("name", cbCfg.Name),
		slog.Uint64("max_requests", uint64(cbCfg.MaxRequests)),
		slog.Int("timeout_seconds", cfg.CBTimeout),
		slog.Uint64("min_requests", uint64(cbCfg.MinRequests)),
	)
	healthHandler.RegisterNonCritical("backend", func(context.Context) error {
		if cbClient.State() == gobreaker.StateOpen {
			return httpclient.ErrCircuitOpen
		}
		return nil
	})
	client := backend.NewHTTPClient(cfg.BackendURL, cbClient, logger)

	// Build the dependency graph.
	services := handler.Services{
		Cart:     service.NewCartService(a.carts, client, a.events, logger),
		Catalog:  service.NewCatalogService(client, logger),
		Checkout: service.NewCheckoutService(a.carts, client, a.events, cfg.PublicBaseURL, logger),
		Profile:  service.NewProfileService(client, logger),
		Admin:    service.NewAdminService(client, logger),
	}

	a.bgCtx, a.bgCancel = context.WithCancel(context.Background())

	router := handler.NewRouter(a.bgCtx, services, healthHandler, handler.RouterConfig{
		ServiceName:    serviceName,
		PprofCIDRs:     cfg.PprofAllowedCIDRs,
		CORS:           middleware.CORSConfig{AllowedOrigins: cfg.CORSAllowedOrigins, Environment: cfg.Environment},
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		SecureCookie:   cfg.SecureCookies(),
		Tokens:         middleware.NewHMACValidator(cfg.JWTSecret),
		CatalogMaxAge:  cfg.CatalogCacheSeconds,
	}, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// openStorage connects the configured cart storage and registers its
// readiness check.
func (a *App) openStorage(ctx context.Context, hh *health.Handler) (storage.Storage, error) {
	cfg := a.cfg
	switch cfg.CartStorage {
	case config.StorageRedis:
		redisCfg := database.DefaultRedisConfig()
		redisCfg.Host = cfg.RedisHost
		redisCfg.Port = cfg.RedisPort
		redisCfg.Password = cfg.RedisPassword
		redisCfg.DB = cfg.RedisDB

		rdb, err := database.NewRedisClient(ctx, redisCfg)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.logger.Info("connected to Redis",
			slog.String("addr", redisCfg.Addr()),
			slog.Int("db", cfg.RedisDB),
		)
		a.rdb = rdb
		st := redisstore.NewStore(rdb, cfg.CartTTLDuration())
		hh.Register("redis", st.Ping)
		return st, nil

	case config.StoragePostgres:
		pgCfg := database.DefaultPostgresConfig()
		pgCfg.Host = cfg.PostgresHost
		pgCfg.Port = cfg.PostgresPort
		pgCfg.User = cfg.PostgresUser
		pgCfg.Password = cfg.PostgresPass
		pgCfg.DBName = cfg.PostgresDB
		pgCfg.SSLMode = cfg.PostgresSSL
		pgCfg.MaxConns = cfg.DBMaxConns
		pgCfg.MinConns = cfg.DBMinConns

		pool, err := database.NewPostgresPool(ctx, &pgCfg, a.logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		a.logger.Info("connected to PostgreSQL",
			slog.String("host", cfg.PostgresHost),
			slog.Int("port", cfg.PostgresPort),
			slog.String("database", cfg.PostgresDB),
		)
		if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
			a.logger.Warn("register pool metrics", slog.String("error", err.Error()))
		}

		if err := database.RunMigrations(ctx, pool, postgres.Migrations(), a.logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		a.logger.Info("database migrations completed")

		if cfg.SlowQueryThresholdMs > 0 {
			database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, a.logger)
		}

		a.pool = pool
		st := postgres.NewStore(pool)
		a.purger = st
		hh.Register("postgres", pool.Ping)
		return st, nil

	default:
		a.logger.Warn("using in-memory cart storage, carts are lost on restart")
		return memory.NewStore(), nil
	}
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	a.bg.Add(1)
	go func() {
		defer a.bg.Done()
		a.carts.Run(a.bgCtx)
	}()

	if a.purger != nil {
		a.bg.Add(1)
		go func() {
			defer a.bg.Done()
			runPurge(a.bgCtx, a.purger,
				time.Duration(a.cfg.CartPurgeIntervalMin)*time.Minute,
				a.cfg.CartTTLDuration(),
				a.logger,
			)
		}()
	}

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order:
// 1. HTTP server (drain in-flight requests)
// 2. Background sweepers and cart stores (flush pending writes)
// 3. Pending events, then the Kafka producer
// 4. Cart storage
// 5. Tracer
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.bgCancel()
	a.bg.Wait()
	a.carts.Close()

	a.events.Wait()
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

type purger interface {
	PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// runPurge deletes persisted carts older than age every interval until ctx
// is cancelled.
func runPurge(ctx context.Context, p purger, every, age time.Duration, logger *slog.Logger) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.PurgeOlderThan(ctx, age)
			if err != nil {
				if ctx.Err() == nil {
					logger.Warn("purge expired carts", slog.String("error", err.Error()))
				}
				continue
			}
			if n > 0 {
				logger.Info("purged expired carts", slog.Int64("count", n))
			}
		}
	}
}
