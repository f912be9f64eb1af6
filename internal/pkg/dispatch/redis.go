package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/edgerunner/cypress-mongodb/internal/pkg/consts"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/log_messages"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/logger"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/models"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/store/repository"
	"github.com/edgerunner/cypress-mongodb/internal/service/interfaces"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ReplyKey is the list a consumer pushes the reply for request id onto.
func ReplyKey(queueKey, id string) string {
	return queueKey + consts.ReplyKeySegment + id
}

// RedisTransport pushes requests onto a Redis list and blocks on a
// per-request reply list.
type RedisTransport struct {
	store    interfaces.TaskQueueStore
	queueKey string
	newID    func() string
}

func NewRedisTransport(client redis.Cmdable, queueKey string) *RedisTransport {
	if queueKey == "" {
		queueKey = consts.DefaultQueueKey
	}
	return &RedisTransport{
		store:    repository.NewRedisQueueAdapter(client),
		queueKey: queueKey,
		newID:    uuid.NewString,
	}
}

func (t *RedisTransport) Send(ctx context.Context, op models.Operation, req *models.TaskRequest) (models.Payload, error) {
	task := models.QueuedTask{
		ID:        t.newID(),
		TraceID:   logger.GetTraceID(ctx),
		Operation: op,
		Request:   req,
	}

	data, err := json.Marshal(task)
	if err != nil {
		return models.Payload{}, fmt.Errorf(log_messages.FailedToEncodeTaskRequest, err)
	}

	if err := t.store.Push(ctx, t.queueKey, string(data)); err != nil {
		return models.Payload{}, fmt.Errorf("failed to enqueue task: %w", err)
	}

	wait := consts.DefaultTaskTimeout
	if deadline, ok := ctx.Deadline(); ok {
		wait = time.Until(deadline)
	}

	raw, ok, err := t.store.Pop(ctx, ReplyKey(t.queueKey, task.ID), wait)
	if err != nil {
		if isTimeout(err) {
			return models.Payload{}, ErrReplyTimeout
		}
		return models.Payload{}, fmt.Errorf("failed to wait for task reply: %w", err)
	}
	if !ok {
		return models.Payload{}, ErrReplyTimeout
	}

	var reply models.TaskResponse
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return models.Payload{}, fmt.Errorf(log_messages.FailedToDecodeTaskReply, err)
	}
	if reply.Error != "" {
		return models.Payload{}, &TaskError{Operation: op, Message: reply.Error}
	}
	return reply.Result, nil
}

// isTimeout reports a reply wait that ran out of time. Below one second
// go-redis rounds the BRPOP timeout up, so the socket deadline can fire
// before the context does.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
