package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier writes notifications keyed by booking id so one booking's events stay
// in order on a partition.
type KafkaNotifier struct {
	writer messageWriter
}

func NewKafkaNotifier(cfg KafkaConfig) *KafkaNotifier {
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.Hash{},
			BatchTimeout:           10 * time.Millisecond,
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
	}
}

func (k *KafkaNotifier) Notify(ctx context.Context, n Notification) error {
	const op = "notify.KafkaNotifier.Notify"

	value, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	msg := kafka.Message{
		Key:   []byte(n.BookingID.String()),
		Value: value,
		Time:  n.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(n.Type)},
		},
	}

	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}
