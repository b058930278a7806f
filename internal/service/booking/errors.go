package booking

import (
	"errors"
	"fmt"

	"github.com/kirinyoku/spacebook/internal/repository"
)

// Kind groups reasons into the categories callers branch on.
type Kind string

const (
	KindValidation             Kind = "VALIDATION"
	KindCapacityExceeded       Kind = "CAPACITY_EXCEEDED"
	KindOverlap                Kind = "OVERLAP"
	KindForbidden              Kind = "FORBIDDEN"
	KindNotFound               Kind = "NOT_FOUND"
	KindConcurrentModification Kind = "CONCURRENT_MODIFICATION"
)

// Reason is the machine-readable code returned to clients.
type Reason string

const (
	ReasonMissingField           Reason = "MISSING_FIELD"
	ReasonValidation             Reason = "VALIDATION"
	ReasonInvalidRange           Reason = "INVALID_RANGE"
	ReasonInvalidNotes           Reason = "INVALID_NOTES"
	ReasonInvalidStatus          Reason = "INVALID_STATUS"
	ReasonInvalidTransition      Reason = "INVALID_TRANSITION"
	ReasonOutsideAvailability    Reason = "OUTSIDE_AVAILABILITY"
	ReasonCapacityExceeded       Reason = "CAPACITY_EXCEEDED"
	ReasonOverlap                Reason = "OVERLAP"
	ReasonForbidden              Reason = "FORBIDDEN"
	ReasonNotFound               Reason = "NOT_FOUND"
	ReasonConcurrentModification Reason = "CONCURRENT_MODIFICATION"
)

// Error is every expected, user-facing failure of the booking workflows.
type Error struct {
	Kind    Kind
	Reason  Reason
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

// Is matches on Reason, so errors.Is(err, booking.ErrOverlap) holds for any overlap error.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Reason == t.Reason
}

func newError(kind Kind, reason Reason, msg string) *Error {
	return &Error{Kind: kind, Reason: reason, Message: msg}
}

func validation(reason Reason, msg string) *Error {
	return newError(KindValidation, reason, msg)
}

var (
	ErrOverlap = newError(KindOverlap, ReasonOverlap,
		"This time slot conflicts with an existing booking")
	ErrCapacityExceeded = newError(KindCapacityExceeded, ReasonCapacityExceeded,
		"The number of attendees exceeds the capacity of this space")
	ErrOutsideAvailability = newError(KindValidation, ReasonOutsideAvailability,
		"The requested time is outside the space's availability")
	ErrForbidden = newError(KindForbidden, ReasonForbidden,
		"You are not allowed to perform this action on this booking")
	ErrSpaceNotFound = newError(KindNotFound, ReasonNotFound,
		"Space not found")
	ErrBookingNotFound = newError(KindNotFound, ReasonNotFound,
		"Booking not found")
	ErrConcurrentModification = newError(KindConcurrentModification, ReasonConcurrentModification,
		"The booking was changed by someone else, please retry")
)

// AsError extracts the typed error from a wrapped chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// translateRepoErr maps storage outcomes that are user-facing onto typed errors.
// notFound picks the message for repository.ErrNotFound.
func translateRepoErr(op string, err error, notFound *Error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return notFound
	case errors.Is(err, repository.ErrOverlap):
		return ErrOverlap
	case errors.Is(err, repository.ErrSerialization):
		return ErrConcurrentModification
	default:
		return fmt.Errorf("%s:%w", op, err)
	}
}
