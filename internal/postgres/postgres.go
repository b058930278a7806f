// Package postgres opens the pgx pool used by the booking store.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Config struct {
	DSN      string
	MaxConns int32
	// Attempts is how many times the first ping is tried before giving up.
	Attempts int
}

func New(ctx context.Context, cfg Config, log *zap.Logger) (*pgxpool.Pool, error) {
	const op = "postgres.New"

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 1
	}

	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second
	poolCfg.ConnConfig.RuntimeParams["application_name"] = "spacebook"

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	delay := 500 * time.Millisecond
	for attempt := 1; ; attempt++ {
		ctxPing, cancel := context.WithTimeout(ctx, 3*time.Second)
		err = pool.Ping(ctxPing)
		cancel()
		if err == nil {
			return pool, nil
		}
		if attempt >= cfg.Attempts {
			break
		}

		if log != nil {
			log.Warn("postgres not ready, retrying",
				zap.Int("attempt", attempt), zap.Duration("delay", delay), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			pool.Close()
			return nil, fmt.Errorf("%s:%w", op, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}

	pool.Close()
	return nil, fmt.Errorf("%s:%w", op, err)
}
