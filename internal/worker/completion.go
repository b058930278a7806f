package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kirinyoku/spacebook/internal/domain"
	"github.com/kirinyoku/spacebook/internal/metrics"
	"github.com/kirinyoku/spacebook/internal/service/booking"
)

// Completer is the slice of the booking service the worker drives.
type Completer interface {
	Completable(ctx context.Context, limit int) ([]domain.Booking, error)
	Complete(ctx context.Context, bookingID uuid.UUID) (domain.Booking, error)
}

// CompletionWorker marks confirmed bookings completed once their end time has passed.
type CompletionWorker struct {
	bookings Completer
	interval time.Duration
	batch    int
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func NewCompletionWorker(
	bookings Completer,
	interval time.Duration,
	batch int,
	m *metrics.Metrics,
	log *zap.Logger,
) *CompletionWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	if batch <= 0 {
		batch = 100
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &CompletionWorker{
		bookings: bookings,
		interval: interval,
		batch:    batch,
		metrics:  m,
		log:      log,
	}
}

// Run ticks until ctx is cancelled. It always returns nil so it can sit in an errgroup.
func (w *CompletionWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("completion worker started", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.log.Info("completion worker stopped")
			return nil
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce completes at most one batch and reports how many bookings moved.
func (w *CompletionWorker) RunOnce(ctx context.Context) int {
	due, err := w.bookings.Completable(ctx, w.batch)
	if err != nil {
		w.log.Error("list completable bookings", zap.Error(err))
		w.metrics.Completion("error")
		return 0
	}
	if len(due) == 0 {
		return 0
	}

	done, failed := 0, 0
	for _, b := range due {
		if ctx.Err() != nil {
			w.log.Info("completion interrupted", zap.Int("done", done))
			return done
		}

		if _, err := w.bookings.Complete(ctx, b.ID); err != nil {
			outcome := "error"
			if e, ok := booking.AsError(err); ok && e.Reason == booking.ReasonInvalidTransition {
				// cancelled between listing and completing
				outcome = "skipped"
			} else {
				failed++
			}
			w.metrics.Completion(outcome)
			w.log.Warn("complete booking",
				zap.String("booking_id", b.ID.String()), zap.String("outcome", outcome), zap.Error(err))
			continue
		}

		w.metrics.Completion("completed")
		done++
	}

	w.log.Info("completion batch finished", zap.Int("completed", done), zap.Int("failed", failed))
	return done
}
