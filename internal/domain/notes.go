package domain

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

// BookingNotes is the free-form metadata a requester attaches to a booking.
// Scheduling never reads it.
type BookingNotes struct {
	EventTitle                 string `json:"event_title,omitempty" validate:"omitempty,max=200"`
	Description                string `json:"description,omitempty" validate:"omitempty,max=4000"`
	SpecialRequests            string `json:"special_requests,omitempty" validate:"omitempty,max=2000"`
	ContactName                string `json:"contact_name,omitempty" validate:"omitempty,max=200"`
	ContactEmail               string `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone               string `json:"contact_phone,omitempty" validate:"omitempty,max=40"`
	SuggestedContributionCents *int64 `json:"suggested_contribution_cents,omitempty" validate:"omitempty,gte=0"`
}

var (
	notesValidator     *validator.Validate
	notesValidatorOnce sync.Once
)

// Validate checks field formats only; every field is optional.
func (n BookingNotes) Validate() error {
	notesValidatorOnce.Do(func() {
		notesValidator = validator.New()
	})
	return notesValidator.Struct(n)
}
