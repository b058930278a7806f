package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kirinyoku/spacebook/internal/domain"
)

type failingNotifier struct{ calls int }

func (f *failingNotifier) Notify(context.Context, Notification) error {
	f.calls++
	return errors.New("broker down")
}

type countingFailures struct{ types []string }

func (c *countingFailures) NotifyFailed(t string) { c.types = append(c.types, t) }

func sampleBooking() domain.Booking {
	start := time.Date(2030, time.June, 3, 10, 0, 0, 0, time.UTC)
	return domain.Booking{
		ID:      uuid.New(),
		SpaceID: uuid.New(),
		UserID:  uuid.New(),
		Start:   start,
		End:     start.Add(time.Hour),
		Status:  domain.StatusPending,
	}
}

func TestDispatcherSwallowsAndCountsFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	n := &failingNotifier{}
	failures := &countingFailures{}
	d := NewDispatcher(n, zap.New(core), failures)

	b := sampleBooking()
	d.Dispatch(context.Background(), For(TypeRequested, b, uuid.New(), b.UserID, time.Now()))

	assert.Equal(t, 1, n.calls)
	assert.Equal(t, []string{"booking.requested"}, failures.types)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "notification not published", logs.All()[0].Message)
}

func TestDispatcherIgnoresCancelledRequestContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	var errDuringNotify error
	d := NewDispatcher(notifierFunc(func(ctx context.Context, _ Notification) error {
		called = true
		errDuringNotify = ctx.Err()
		return nil
	}), nil, nil)

	d.Dispatch(ctx, Notification{Type: TypeConfirmed})

	require.True(t, called)
	assert.NoError(t, errDuringNotify)
}

func TestNilDispatcherIsNoop(t *testing.T) {
	var d *Dispatcher
	assert.NotPanics(t, func() { d.Dispatch(context.Background(), Notification{}) })
}

type notifierFunc func(ctx context.Context, n Notification) error

func (f notifierFunc) Notify(ctx context.Context, n Notification) error { return f(ctx, n) }

type fakeWriter struct {
	msgs []kafka.Message
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaNotifierKeysByBooking(t *testing.T) {
	w := &fakeWriter{}
	k := &KafkaNotifier{writer: w}

	b := sampleBooking()
	n := For(TypeRequested, b, uuid.New(), b.UserID, time.Now())
	require.NoError(t, k.Notify(context.Background(), n))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, b.ID.String(), string(w.msgs[0].Key))
	assert.Equal(t, "booking.requested", string(w.msgs[0].Headers[0].Value))

	var decoded Notification
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, b.ID, decoded.BookingID)
	assert.Equal(t, domain.StatusPending, decoded.Status)
}
