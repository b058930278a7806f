package httpgin

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kirinyoku/spacebook/internal/domain"
	redisrepo "github.com/kirinyoku/spacebook/internal/repository/redis"
	"github.com/kirinyoku/spacebook/internal/service"
	"github.com/kirinyoku/spacebook/internal/service/booking"
)

const idemLockTTL = 30 * time.Second

// @Summary  Request a booking (idempotent)
// @Param    id  path  string  true  "Space ID (uuid)"
// @Param    req body  CreateBookingRequest true "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} BookingResponse
// @Failure  400 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "overlap / idem in progress"
// @Failure  422 {object} ErrorResponse "capacity / idempotency key reused"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /spaces/{id}/bookings [post]
func handleCreateBooking(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	loc *time.Location,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		spaceID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req CreateBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		start, err := parseWallClock(req.StartTime, loc)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: string(booking.ReasonInvalidRange)})
			return
		}
		end, err := parseWallClock(req.EndTime, loc)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: string(booking.ReasonInvalidRange)})
			return
		}

		actor := actorFrom(c)
		ctx := c.Request.Context()

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey, fingerprint string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemBooking(actor, spaceID, idemKey)
			fingerprint = bookingFingerprint(spaceID, req)

			if replayStored(ctx, c, idem, idemStorageKey, idemKey, fingerprint) {
				return
			}

			locked, err := idem.AcquireLock(ctx, idemStorageKey, idemLockTTL)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if replayStored(ctx, c, idem, idemStorageKey, idemKey, fingerprint) {
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{
					Error: "idempotency key in progress",
					Code:  "IDEMPOTENCY_IN_PROGRESS",
				})
				return
			}
		}

		b, err := svcs.Booking.Request(ctx, actor, booking.RequestInput{
			SpaceID:       spaceID,
			Start:         start,
			End:           end,
			AttendeeCount: req.AttendeeCount,
			Notes:         req.Notes,
		})
		if err != nil {
			if idemStorageKey != "" {
				_ = idem.Release(ctx, idemStorageKey)
			}
			respondErr(c, err)
			return
		}

		resp := toBookingResponse(b)

		if idemStorageKey != "" {
			body, _ := json.Marshal(resp)
			_ = idem.SaveResult(ctx, idemStorageKey, redisrepo.StoredResult{
				Status:      http.StatusCreated,
				Fingerprint: fingerprint,
				Body:        string(body),
			})
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// replayStored answers from a finished earlier request under the same key. A key reused
// with a different payload gets 422 instead of the old booking.
func replayStored(
	ctx context.Context,
	c *gin.Context,
	idem *redisrepo.IdempotencyStore,
	storageKey, idemKey, fingerprint string,
) bool {
	res, ok, _ := idem.GetResult(ctx, storageKey)
	if !ok {
		return false
	}
	if res.Fingerprint != fingerprint {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error: "idempotency key was used with a different request",
			Code:  "IDEMPOTENCY_KEY_REUSED",
		})
		return true
	}
	c.Header("Idempotency-Key", idemKey)
	c.Data(res.Status, "application/json; charset=utf-8", []byte(res.Body))
	return true
}

// bookingFingerprint hashes the decoded request, so formatting and key order in the raw
// body do not matter.
func bookingFingerprint(spaceID uuid.UUID, req CreateBookingRequest) string {
	raw, _ := json.Marshal(struct {
		SpaceID uuid.UUID            `json:"space_id"`
		Req     CreateBookingRequest `json:"req"`
	}{spaceID, req})
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// @Summary  List bookings of a space (owner only)
// @Param    id      path   string  true   "Space ID (uuid)"
// @Param    status  query  string  false  "pending|confirmed|rejected|cancelled|completed"
// @Success  200  {array}  BookingResponse
// @Failure  403  {object} ErrorResponse
// @Router   /spaces/{id}/bookings [get]
func handleListSpaceBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		spaceID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		bs, err := svcs.Booking.ListForSpace(c.Request.Context(), actorFrom(c), spaceID, c.Query("status"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toBookingResponses(bs))
	}
}

// @Summary  Get booking (requester or space owner)
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200 {object} BookingResponse
// @Failure  404 {object} ErrorResponse
// @Router   /bookings/{id} [get]
func handleGetBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		b, err := svcs.Booking.Get(c.Request.Context(), actorFrom(c), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toBookingResponse(b))
	}
}

type transitionFunc func(ctx context.Context, actorID, bookingID uuid.UUID) (domain.Booking, error)

func handleTransition(fn transitionFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		b, err := fn(c.Request.Context(), actorFrom(c), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toBookingResponse(b))
	}
}

// @Summary  Confirm a pending booking (owner only)
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200 {object} BookingResponse
// @Failure  409 {object} ErrorResponse "overlap / invalid transition"
// @Router   /bookings/{id}/confirm [post]
func handleConfirmBooking(svcs *service.Services) gin.HandlerFunc {
	return handleTransition(svcs.Booking.Confirm)
}

// @Summary  Reject a pending booking (owner only)
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200 {object} BookingResponse
// @Router   /bookings/{id}/reject [post]
func handleRejectBooking(svcs *service.Services) gin.HandlerFunc {
	return handleTransition(svcs.Booking.Reject)
}

// @Summary  Cancel a booking (requester or owner)
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200 {object} BookingResponse
// @Router   /bookings/{id}/cancel [post]
func handleCancelBooking(svcs *service.Services) gin.HandlerFunc {
	return handleTransition(svcs.Booking.Cancel)
}

// @Summary  My bookings
// @Success  200 {array} BookingResponse
// @Router   /me/bookings [get]
func handleListMyBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		bs, err := svcs.Booking.ListForUser(c.Request.Context(), actorFrom(c))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toBookingResponses(bs))
	}
}
