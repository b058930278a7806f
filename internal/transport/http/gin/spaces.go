package httpgin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kirinyoku/spacebook/internal/service"
)

// @Summary  Create space
// @Param    req body  CreateSpaceRequest true "payload"
// @Success  201 {object} domain.Space
// @Failure  400 {object} ErrorResponse
// @Router   /spaces [post]
func handleCreateSpace(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateSpaceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		sp, err := svcs.Spaces.CreateSpace(c.Request.Context(), actorFrom(c), req.Name, req.Capacity)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, sp)
	}
}

// @Summary  Get space
// @Param    id  path  string  true  "Space ID (uuid)"
// @Success  200  {object}  domain.Space
// @Failure  404  {object}  ErrorResponse
// @Router   /spaces/{id} [get]
func handleGetSpace(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		sp, err := svcs.Spaces.GetSpace(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, sp)
	}
}

// @Summary  Weekly availability
// @Param    id  path  string  true  "Space ID (uuid)"
// @Success  200  {array}  domain.AvailabilityRule
// @Router   /spaces/{id}/availability [get]
func handleListAvailability(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		rules, err := svcs.Spaces.ListAvailability(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, rules, "public, max-age=15")
	}
}

// @Summary  Set availability for one weekday (owner only)
// @Param    id   path  string  true  "Space ID (uuid)"
// @Param    day  path  string  true  "monday..sunday"
// @Param    req  body  SetAvailabilityRequest true "payload"
// @Success  200 {object} domain.AvailabilityRule
// @Failure  403 {object} ErrorResponse
// @Router   /spaces/{id}/availability/{day} [put]
func handleSetAvailability(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req SetAvailabilityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		rule, err := svcs.Spaces.SetAvailability(
			c.Request.Context(),
			actorFrom(c),
			id,
			c.Param("day"),
			*req.IsAvailable,
			toRuleRanges(req.TimeRanges),
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, rule)
	}
}

// @Summary  Bookable slots on a date
// @Param    id    path   string  true  "Space ID (uuid)"
// @Param    date  query  string  true  "YYYY-MM-DD"
// @Success  200  {object}  SlotsResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /spaces/{id}/slots [get]
func handleGetSlots(svcs *service.Services, loc *time.Location) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		date, err := parseDate(c.Query("date"), loc)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		slots, err := svcs.Spaces.Slots(c.Request.Context(), id, date)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, toSlotsResponse(id.String(), date, slots), "public, max-age=15")
	}
}
