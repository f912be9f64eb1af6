package interfaces

import (
	"context"
	"time"
)

// TaskQueueStore is the list storage behind the Redis task transport.
type TaskQueueStore interface {
	Push(ctx context.Context, key string, value string) error
	// Pop blocks up to timeout and returns ok=false when nothing arrived.
	Pop(ctx context.Context, key string, timeout time.Duration) (value string, ok bool, err error)
	Expire(ctx context.Context, key string, expiration time.Duration) (bool, error)
}
