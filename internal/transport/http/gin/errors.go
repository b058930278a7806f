package httpgin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kirinyoku/spacebook/internal/service/booking"
	"github.com/kirinyoku/spacebook/internal/service/spaces"
	"github.com/kirinyoku/spacebook/internal/service/suggestions"
)

func statusForReason(r booking.Reason) int {
	switch r {
	case booking.ReasonMissingField, booking.ReasonValidation, booking.ReasonInvalidRange,
		booking.ReasonInvalidNotes, booking.ReasonInvalidStatus:
		return http.StatusBadRequest
	case booking.ReasonInvalidTransition, booking.ReasonOverlap,
		booking.ReasonConcurrentModification:
		return http.StatusConflict
	case booking.ReasonOutsideAvailability, booking.ReasonCapacityExceeded:
		return http.StatusUnprocessableEntity
	case booking.ReasonForbidden:
		return http.StatusForbidden
	case booking.ReasonNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: "VALIDATION"})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	if e, ok := booking.AsError(err); ok {
		c.JSON(statusForReason(e.Reason), ErrorResponse{Error: e.Message, Code: string(e.Reason)})
		return
	}

	switch {
	// spaces service
	case errors.Is(err, spaces.ErrSpaceNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "space not found", Code: "NOT_FOUND"})
		return
	case errors.Is(err, spaces.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: spaces.ErrForbidden.Error(), Code: "FORBIDDEN"})
		return
	case errors.Is(err, spaces.ErrInvalidSpace):
		badRequest(c, "name and a positive capacity are required")
		return
	case errors.Is(err, spaces.ErrInvalidDay):
		badRequest(c, "day must be a weekday name such as monday")
		return
	// suggestions service
	case errors.Is(err, suggestions.ErrLocationNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "location not found", Code: "NOT_FOUND"})
		return
	case errors.Is(err, suggestions.ErrSuggestionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "suggestion not found", Code: "NOT_FOUND"})
		return
	case errors.Is(err, suggestions.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "not allowed", Code: "FORBIDDEN"})
		return
	case errors.Is(err, suggestions.ErrInvalidInput):
		badRequest(c, "invalid name, time or coordinates")
		return
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: "INTERNAL"})
}
