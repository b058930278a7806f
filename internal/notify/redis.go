package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	redisrepo "github.com/kirinyoku/spacebook/internal/repository/redis"
)

// RedisNotifier publishes notifications on a Redis pub/sub channel.
type RedisNotifier struct {
	rdb     *redis.Client
	channel string
}

func NewRedisNotifier(rdb *redis.Client) *RedisNotifier {
	return &RedisNotifier{
		rdb:     rdb,
		channel: redisrepo.ChannelBookingEvents(),
	}
}

func (p *RedisNotifier) Notify(ctx context.Context, n Notification) error {
	const op = "notify.RedisNotifier.Notify"

	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if err := p.rdb.Publish(ctx, p.channel, b).Err(); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}
