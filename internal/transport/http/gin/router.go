package httpgin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/kirinyoku/spacebook/internal/logger"
	"github.com/kirinyoku/spacebook/internal/metrics"
	redisrepo "github.com/kirinyoku/spacebook/internal/repository/redis"
	"github.com/kirinyoku/spacebook/internal/service"
)

// Deps is everything the router needs. Idem and Limiter may be nil when Redis is off.
type Deps struct {
	Services       *service.Services
	Idem           *redisrepo.IdempotencyStore
	Limiter        *redisrepo.SlidingWindowLimiter
	Metrics        *metrics.Metrics
	Logger         *zap.Logger
	JWTSecret      string
	AllowedOrigins []string
	// Location is the wall-clock zone request times are read in.
	Location *time.Location
}

func NewRouter(d Deps, middlewares ...gin.HandlerFunc) *gin.Engine {
	if d.Location == nil {
		d.Location = time.Local
	}
	log := logger.OrNop(d.Logger)

	r := gin.New()

	r.Use(gin.Recovery(), RequestIDMiddleware(), logger.GinMiddleware(log), Metrics(d.Metrics), CORS(d.AllowedOrigins))
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	svcs := d.Services

	// Public reads
	r.GET("/spaces/:id", handleGetSpace(svcs))
	r.GET("/spaces/:id/availability", handleListAvailability(svcs))
	r.GET("/spaces/:id/slots", handleGetSlots(svcs, d.Location))

	authed := r.Group("/", Auth(d.JWTSecret))
	{
		authed.POST("/spaces", handleCreateSpace(svcs))
		authed.PUT("/spaces/:id/availability/:day", handleSetAvailability(svcs))

		authed.POST("/spaces/:id/bookings",
			RateLimit(d.Limiter, log),
			handleCreateBooking(svcs, d.Idem, d.Location),
		)
		authed.GET("/spaces/:id/bookings", handleListSpaceBookings(svcs))

		authed.GET("/bookings/:id", handleGetBooking(svcs))
		authed.POST("/bookings/:id/confirm", handleConfirmBooking(svcs))
		authed.POST("/bookings/:id/reject", handleRejectBooking(svcs))
		authed.POST("/bookings/:id/cancel", handleCancelBooking(svcs))

		authed.GET("/me/bookings", handleListMyBookings(svcs))

		authed.POST("/me/locations", handleSaveLocation(svcs))
		authed.POST("/me/locations/:id/visits", handleRecordVisit(svcs))
		authed.POST("/events", handleCreateEvent(svcs, d.Location))

		authed.POST("/me/suggestions/generate", handleGenerateSuggestions(svcs))
		authed.GET("/me/suggestions", handleListSuggestions(svcs))
		authed.POST("/me/suggestions/:id/dismiss", handleDismissSuggestion(svcs))
	}

	return r
}

// --- Helpers ---

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
