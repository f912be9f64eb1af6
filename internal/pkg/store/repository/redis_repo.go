package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQueueAdapter implements interfaces.TaskQueueStore on Redis lists.
// Values are pushed on the left and popped from the right.
type RedisQueueAdapter struct {
	client redis.Cmdable
}

func NewRedisQueueAdapter(client redis.Cmdable) *RedisQueueAdapter {
	return &RedisQueueAdapter{client: client}
}

func (a *RedisQueueAdapter) Push(ctx context.Context, key string, value string) error {
	return a.client.LPush(ctx, key, value).Err()
}

func (a *RedisQueueAdapter) Pop(ctx context.Context, key string, timeout time.Duration) (string, bool, error) {
	res, err := a.client.BRPop(ctx, timeout, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if len(res) != 2 {
		return "", false, errors.New("unexpected BRPOP reply")
	}
	return res[1], true, nil
}

func (a *RedisQueueAdapter) Expire(ctx context.Context, key string, expiration time.Duration) (bool, error) {
	return a.client.Expire(ctx, key, expiration).Result()
}
