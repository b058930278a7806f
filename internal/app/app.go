package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kirinyoku/spacebook/internal/clock"
	"github.com/kirinyoku/spacebook/internal/config"
	"github.com/kirinyoku/spacebook/internal/metrics"
	"github.com/kirinyoku/spacebook/internal/notify"
	"github.com/kirinyoku/spacebook/internal/postgres"
	"github.com/kirinyoku/spacebook/internal/redis"
	"github.com/kirinyoku/spacebook/internal/repository"
	"github.com/kirinyoku/spacebook/internal/repository/memory"
	postgresrepo "github.com/kirinyoku/spacebook/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/spacebook/internal/repository/redis"
	"github.com/kirinyoku/spacebook/internal/service"
	"github.com/kirinyoku/spacebook/internal/service/booking"
	"github.com/kirinyoku/spacebook/internal/service/spaces"
	"github.com/kirinyoku/spacebook/internal/service/suggestions"
	httpgin "github.com/kirinyoku/spacebook/internal/transport/http/gin"
	"github.com/kirinyoku/spacebook/internal/worker"
)

type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	httpServer *http.Server
	completion *worker.CompletionWorker
	closers    []func() error
}

func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	store, err := a.openStore(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	rdb, err := redis.New(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}
	if rdb != nil {
		a.closers = append(a.closers, rdb.Close)
	} else {
		logger.Warn("redis disabled: no slot cache, rate limiting or idempotency")
	}

	notifier, err := a.openNotifier(rdb)
	if err != nil {
		a.close()
		return nil, err
	}

	// Initialize repositories
	cache := redisrepo.New(rdb)
	limiter := redisrepo.NewSlidingWindowLimiter(rdb, "bookings", cfg.RateLimit.Limit, cfg.RateLimit.Window)
	idempotencyStore := redisrepo.NewIdempotencyStore(rdb, cfg.Booking.IdempotencyTTL)

	m := metrics.New()
	dispatcher := notify.NewDispatcher(notifier, logger.Named("notify"), m)
	clk := clock.System(cfg.Booking.Location)

	// Initialize services
	services := service.NewServices(store, cache, dispatcher, m, clk, logger, service.Config{
		Spaces:      spaces.Config{SlotCacheTTL: cfg.Booking.SlotCacheTTL},
		Booking:     booking.Config{RequireAvailability: cfg.Booking.RequireAvailability},
		Suggestions: suggestions.Config{MaxRadiusKm: cfg.Suggestions.MaxRadiusKm},
	})

	a.completion = worker.NewCompletionWorker(
		services.Booking,
		cfg.Worker.CompletionInterval,
		cfg.Worker.CompletionBatch,
		m,
		logger.Named("completion"),
	)

	// Initialize Gin router
	router := httpgin.NewRouter(httpgin.Deps{
		Services:       services,
		Idem:           idempotencyStore,
		Limiter:        limiter,
		Metrics:        m,
		Logger:         logger.Named("http"),
		JWTSecret:      cfg.JWT.Secret,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Location:       cfg.Booking.Location,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return a, nil
}

func (a *App) openStore(ctx context.Context) (repository.Store, error) {
	cfg := a.cfg

	if cfg.Storage.Driver == config.StorageMemory {
		a.logger.Warn("using in-memory storage, data is lost on restart")
		return memory.NewStore(), nil
	}

	dsn := cfg.Postgres.DSN()

	if cfg.Storage.MigrateOnStart {
		if err := postgresrepo.Migrate(dsn); err != nil {
			return nil, fmt.Errorf("failed to migrate postgres: %w", err)
		}
		a.logger.Info("database migrations applied")
	}

	pool, err := postgres.New(ctx, postgres.Config{
		DSN:      dsn,
		MaxConns: cfg.Postgres.MaxConns,
		Attempts: cfg.Postgres.ConnectAttempts,
	}, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}
	a.closers = append(a.closers, func() error { pool.Close(); return nil })

	return postgresrepo.NewStore(pool, cfg.Booking.Location), nil
}

func (a *App) openNotifier(rdb *goredis.Client) (notify.Notifier, error) {
	cfg := a.cfg.Notify

	switch cfg.Driver {
	case "redis":
		if rdb == nil {
			return nil, errors.New("NOTIFY_DRIVER=redis needs REDIS_ADDR")
		}
		return notify.NewRedisNotifier(rdb), nil
	case "rabbitmq":
		n, err := notify.NewRabbitMQNotifier(notify.RabbitMQConfig{URL: cfg.RabbitMQURL, QueueName: cfg.RabbitMQQueue})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize rabbitmq: %w", err)
		}
		a.closers = append(a.closers, n.Close)
		return n, nil
	case "kafka":
		n := notify.NewKafkaNotifier(notify.KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
		a.closers = append(a.closers, n.Close)
		return n, nil
	default:
		return notify.NewLogNotifier(a.logger.Named("notify")), nil
	}
}

// close releases resources in reverse order of acquisition.
func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && !errors.Is(err, io.EOF) {
			a.logger.Warn("close resource", zap.Error(err))
		}
	}
	a.closers = nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	defer a.close()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening",
			zap.String("host", a.cfg.Server.Host), zap.Int("port", a.cfg.Server.Port))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Completion worker
	g.Go(func() error {
		return a.completion.Run(gCtx)
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}
