package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier only writes notifications to the log. It is the default driver.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	l.log.Info("booking notification",
		zap.String("type", string(n.Type)),
		zap.String("recipient_id", n.RecipientID.String()),
		zap.String("booking_id", n.BookingID.String()),
		zap.String("status", string(n.Status)),
	)
	return nil
}
