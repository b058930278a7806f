// Package notify publishes booking lifecycle events to an external delivery system.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kirinyoku/spacebook/internal/domain"
)

type Type string

const (
	TypeRequested Type = "booking.requested"
	TypeConfirmed Type = "booking.confirmed"
	TypeRejected  Type = "booking.rejected"
	TypeCancelled Type = "booking.cancelled"
)

// Notification is the message body every driver publishes as JSON.
type Notification struct {
	Type        Type          `json:"type"`
	RecipientID uuid.UUID     `json:"recipient_id"`
	ActorID     uuid.UUID     `json:"actor_id"`
	BookingID   uuid.UUID     `json:"booking_id"`
	SpaceID     uuid.UUID     `json:"space_id"`
	Status      domain.Status `json:"status"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     time.Time     `json:"end_time"`
	OccurredAt  time.Time     `json:"occurred_at"`
}

// For builds the notification of b for one recipient.
func For(t Type, b domain.Booking, recipient, actor uuid.UUID, at time.Time) Notification {
	return Notification{
		Type:        t,
		RecipientID: recipient,
		ActorID:     actor,
		BookingID:   b.ID,
		SpaceID:     b.SpaceID,
		Status:      b.Status,
		StartTime:   b.Start,
		EndTime:     b.End,
		OccurredAt:  at,
	}
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// FailureCounter is satisfied by *metrics.Metrics.
type FailureCounter interface {
	NotifyFailed(notificationType string)
}

// Dispatcher sends notifications without ever failing the caller: errors are logged
// and counted.
type Dispatcher struct {
	notifier Notifier
	log      *zap.Logger
	failures FailureCounter
	timeout  time.Duration
}

func NewDispatcher(n Notifier, log *zap.Logger, failures FailureCounter) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		notifier: n,
		log:      log,
		failures: failures,
		timeout:  5 * time.Second,
	}
}

// Dispatch runs after the booking transaction committed. The request context may already
// be finishing, so publishing gets its own deadline.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notification) {
	if d == nil || d.notifier == nil {
		return
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	if err := d.notifier.Notify(pctx, n); err != nil {
		d.log.Warn("notification not published",
			zap.String("type", string(n.Type)),
			zap.String("booking_id", n.BookingID.String()),
			zap.String("recipient_id", n.RecipientID.String()),
			zap.Error(err),
		)
		if d.failures != nil {
			d.failures.NotifyFailed(string(n.Type))
		}
	}
}
