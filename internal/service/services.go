package service

import (
	"go.uber.org/zap"

	"github.com/kirinyoku/spacebook/internal/clock"
	"github.com/kirinyoku/spacebook/internal/logger"
	"github.com/kirinyoku/spacebook/internal/metrics"
	"github.com/kirinyoku/spacebook/internal/notify"
	"github.com/kirinyoku/spacebook/internal/repository"
	redis "github.com/kirinyoku/spacebook/internal/repository/redis"
	"github.com/kirinyoku/spacebook/internal/service/booking"
	"github.com/kirinyoku/spacebook/internal/service/spaces"
	"github.com/kirinyoku/spacebook/internal/service/suggestions"
)

type Services struct {
	Spaces      *spaces.Service
	Booking     *booking.Service
	Suggestions *suggestions.Service
}

type Config struct {
	Spaces      spaces.Config
	Booking     booking.Config
	Suggestions suggestions.Config
}

func NewServices(
	store repository.Store,
	cache *redis.Cache,
	dispatcher *notify.Dispatcher,
	m *metrics.Metrics,
	clk clock.Clock,
	log *zap.Logger,
	cfg Config,
) *Services {
	log = logger.OrNop(log)

	return &Services{
		Spaces:      spaces.New(store, cache, clk, log.Named("spaces"), cfg.Spaces),
		Booking:     booking.New(store, clk, dispatcher, m, log.Named("booking"), cfg.Booking),
		Suggestions: suggestions.New(store, clk, m, log.Named("suggestions"), cfg.Suggestions),
	}
}
