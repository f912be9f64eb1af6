package redisqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/edgerunner/cypress-mongodb/internal/pkg/consts"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/dispatch"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/log_messages"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/logger"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/models"
	"github.com/edgerunner/cypress-mongodb/internal/service/interfaces"
)

// TaskConsumer is the handler side of the Redis transport. It pops queued
// tasks, executes them and pushes the reply where the sender is waiting.
type TaskConsumer struct {
	store        interfaces.TaskQueueStore
	executor     dispatch.Executor
	queueKey     string
	replyTTL     time.Duration
	taskTimeout  time.Duration
	pollInterval time.Duration
}

func NewTaskConsumer(store interfaces.TaskQueueStore, executor dispatch.Executor, queueKey string, replyTTL, taskTimeout time.Duration) *TaskConsumer {
	if replyTTL <= 0 {
		replyTTL = consts.DefaultReplyTTL
	}
	if taskTimeout <= 0 {
		taskTimeout = consts.DefaultTaskTimeout
	}
	return &TaskConsumer{
		store:        store,
		executor:     executor,
		queueKey:     queueKey,
		replyTTL:     replyTTL,
		taskTimeout:  taskTimeout,
		pollInterval: consts.RedisPollInterval,
	}
}

// Start consumes until ctx is cancelled.
func (c *TaskConsumer) Start(ctx context.Context) {
	logger.CtxInfo(ctx, log_messages.TaskConsumerStarted, slog.String("queue", c.queueKey))
	defer logger.CtxInfo(ctx, log_messages.TaskConsumerStopped, slog.String("queue", c.queueKey))

	for ctx.Err() == nil {
		raw, ok, err := c.store.Pop(ctx, c.queueKey, c.pollInterval)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.CtxError(ctx, log_messages.ErrorPollingTaskQueue, err, slog.String("queue", c.queueKey))
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.pollInterval):
			}
			continue
		}
		if !ok {
			continue
		}
		_ = c.Handle(ctx, raw)
	}
}

// Handle executes one queued task and publishes its reply. A task that cannot
// be decoded still gets an error reply when its id is readable.
func (c *TaskConsumer) Handle(ctx context.Context, raw string) error {
	var task models.QueuedTask
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		logger.CtxError(ctx, log_messages.ErrorDecodingQueuedTask, err)

		var envelope struct {
			ID      string `json:"id"`
			TraceID string `json:"traceId"`
		}
		if json.Unmarshal([]byte(raw), &envelope) != nil || envelope.ID == "" {
			return err
		}
		ctx = logger.WithTraceID(ctx, envelope.TraceID)
		return c.reply(ctx, envelope.ID, models.TaskResponse{Error: err.Error()})
	}

	if task.TraceID != "" {
		ctx = logger.WithTraceID(ctx, task.TraceID)
	}

	resp := c.execute(ctx, task)
	return c.reply(ctx, task.ID, resp)
}

func (c *TaskConsumer) execute(ctx context.Context, task models.QueuedTask) models.TaskResponse {
	execCtx, cancel := context.WithTimeout(ctx, c.taskTimeout)
	defer cancel()

	if task.Request == nil {
		return models.TaskResponse{Error: fmt.Sprintf(log_messages.InvalidTaskRequest, "missing request")}
	}
	result, err := c.executor.Execute(execCtx, task.Operation, task.Request)
	if err != nil {
		return models.TaskResponse{Error: err.Error()}
	}
	return models.TaskResponse{Result: models.NewPayload(result)}
}

func (c *TaskConsumer) reply(ctx context.Context, id string, resp models.TaskResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		// result could not be encoded; the sender still needs an answer
		data, err = json.Marshal(models.TaskResponse{Error: err.Error()})
		if err != nil {
			return err
		}
	}

	key := dispatch.ReplyKey(c.queueKey, id)
	if err := c.store.Push(ctx, key, string(data)); err != nil {
		logger.CtxError(ctx, log_messages.ErrorPublishingTaskReply, err, slog.String("key", key))
		return err
	}
	if _, err := c.store.Expire(ctx, key, c.replyTTL); err != nil {
		logger.CtxError(ctx, log_messages.ErrorPublishingTaskReply, err, slog.String("key", key))
		return err
	}
	return nil
}
