package httpgin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kirinyoku/spacebook/internal/service"
)

// @Summary  Save a location
// @Param    req body  SaveLocationRequest true "payload"
// @Success  201 {object} domain.Location
// @Router   /me/locations [post]
func handleSaveLocation(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SaveLocationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		loc, err := svcs.Suggestions.SaveLocation(
			c.Request.Context(),
			actorFrom(c),
			req.Name,
			*req.Latitude,
			*req.Longitude,
			req.RadiusKm,
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, loc)
	}
}

// @Summary  Record a visit to a saved location
// @Param    id  path  string  true  "Location ID (uuid)"
// @Success  200 {object} domain.Location
// @Router   /me/locations/{id}/visits [post]
func handleRecordVisit(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		loc, err := svcs.Suggestions.RecordVisit(c.Request.Context(), actorFrom(c), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, loc)
	}
}

// @Summary  Create event
// @Param    req body  CreateEventRequest true "payload"
// @Success  201 {object} domain.Event
// @Router   /events [post]
func handleCreateEvent(svcs *service.Services, tz *time.Location) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		starts, err := parseWallClock(req.StartsAt, tz)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		ev, err := svcs.Suggestions.CreateEvent(
			c.Request.Context(),
			actorFrom(c),
			req.Title,
			starts,
			*req.Latitude,
			*req.Longitude,
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, ev)
	}
}

// @Summary  Generate suggestions from saved locations
// @Success  200 {object} GenerateSuggestionsResponse
// @Router   /me/suggestions/generate [post]
func handleGenerateSuggestions(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := svcs.Suggestions.Generate(c.Request.Context(), actorFrom(c))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, GenerateSuggestionsResponse{Created: n})
	}
}

// @Summary  My suggestions, best first
// @Success  200 {array} domain.SuggestedClass
// @Router   /me/suggestions [get]
func handleListSuggestions(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svcs.Suggestions.List(c.Request.Context(), actorFrom(c))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// @Summary  Dismiss a suggestion
// @Param    id  path  string  true  "Suggestion ID (uuid)"
// @Success  204 "dismissed"
// @Router   /me/suggestions/{id}/dismiss [post]
func handleDismissSuggestion(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		if err := svcs.Suggestions.Dismiss(c.Request.Context(), actorFrom(c), id); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
