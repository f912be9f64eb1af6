package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/models"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

// fakeConsumer pops one task from the queue and answers it with reply.
func fakeConsumer(t *testing.T, client *redis.Client, queue string, reply func(models.QueuedTask) models.TaskResponse) <-chan models.QueuedTask {
	t.Helper()
	seen := make(chan models.QueuedTask, 1)
	go func() {
		res, err := client.BRPop(context.Background(), 2*time.Second, queue).Result()
		if err != nil {
			close(seen)
			return
		}
		var task models.QueuedTask
		if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
			close(seen)
			return
		}
		data, _ := json.Marshal(reply(task))
		client.LPush(context.Background(), ReplyKey(queue, task.ID), data)
		seen <- task
	}()
	return seen
}

func TestRedisTransport_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	seen := fakeConsumer(t, client, "tasks", func(task models.QueuedTask) models.TaskResponse {
		return models.TaskResponse{Result: models.NewPayload(bson.M{"acknowledged": true, "deletedCount": 2})}
	})

	transport := NewRedisTransport(client, "tasks")
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	payload, err := transport.Send(ctx, models.OperationDeleteMany, &models.TaskRequest{
		URI:     "mongodb://localhost:27017",
		Options: models.Options{Database: "db", Collection: "users"},
		Filter:  models.NewPayload(bson.M{"active": false}),
	})
	require.NoError(t, err)

	var result models.DeleteResult
	require.NoError(t, payload.Decode(&result))
	assert.True(t, result.Acknowledged)
	assert.Equal(t, int64(2), result.DeletedCount)

	task := <-seen
	assert.Equal(t, models.OperationDeleteMany, task.Operation)
	assert.Equal(t, "users", task.Request.Options.Collection)
	assert.NotEmpty(t, task.ID)
}

func TestRedisTransport_RelaysHandlerError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	fakeConsumer(t, client, "tasks", func(task models.QueuedTask) models.TaskResponse {
		return models.TaskResponse{Error: "ns not found"}
	})

	transport := NewRedisTransport(client, "tasks")
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := transport.Send(ctx, models.OperationDropCollection, &models.TaskRequest{Collection: "ghost"})
	require.Error(t, err)

	var taskErr *TaskError
	require.True(t, errors.As(err, &taskErr))
	assert.Equal(t, "ns not found", taskErr.Message)
	assert.Equal(t, models.OperationDropCollection, taskErr.Operation)
}

func TestRedisTransport_Mocked(t *testing.T) {
	task := models.QueuedTask{
		ID:        "fixed-id",
		Operation: models.OperationFindOne,
		Request:   &models.TaskRequest{URI: "mongodb://x"},
	}
	data, err := json.Marshal(task)
	require.NoError(t, err)

	t.Run("enqueue failure", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		mock.ExpectLPush("q", string(data)).SetErr(errors.New("connection refused"))

		transport := NewRedisTransport(db, "q")
		transport.newID = func() string { return "fixed-id" }

		_, err := transport.Send(context.Background(), task.Operation, task.Request)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to enqueue task")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reply timeout", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		mock.ExpectLPush("q", string(data)).SetVal(1)
		mock.ExpectBRPop(60*time.Second, "q:reply:fixed-id").RedisNil()

		transport := NewRedisTransport(db, "q")
		transport.newID = func() string { return "fixed-id" }

		_, err := transport.Send(context.Background(), task.Operation, task.Request)
		assert.ErrorIs(t, err, ErrReplyTimeout)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("socket timeout while waiting", func(t *testing.T) {
		for name, waitErr := range map[string]error{
			"deadline exceeded": os.ErrDeadlineExceeded,
			"net op error":      &net.OpError{Op: "read", Net: "tcp", Err: os.ErrDeadlineExceeded},
		} {
			t.Run(name, func(t *testing.T) {
				db, mock := redismock.NewClientMock()
				mock.ExpectLPush("q", string(data)).SetVal(1)
				mock.ExpectBRPop(60*time.Second, "q:reply:fixed-id").SetErr(waitErr)

				transport := NewRedisTransport(db, "q")
				transport.newID = func() string { return "fixed-id" }

				_, err := transport.Send(context.Background(), task.Operation, task.Request)
				assert.ErrorIs(t, err, ErrReplyTimeout)
			})
		}
	})

	t.Run("other wait failures are wrapped", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		mock.ExpectLPush("q", string(data)).SetVal(1)
		mock.ExpectBRPop(60*time.Second, "q:reply:fixed-id").SetErr(errors.New("connection reset"))

		transport := NewRedisTransport(db, "q")
		transport.newID = func() string { return "fixed-id" }

		_, err := transport.Send(context.Background(), task.Operation, task.Request)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrReplyTimeout)
		assert.Contains(t, err.Error(), "failed to wait for task reply")
	})

	t.Run("garbled reply", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		mock.ExpectLPush("q", string(data)).SetVal(1)
		mock.ExpectBRPop(60*time.Second, "q:reply:fixed-id").SetVal([]string{"q:reply:fixed-id", "{"})

		transport := NewRedisTransport(db, "q")
		transport.newID = func() string { return "fixed-id" }

		_, err := transport.Send(context.Background(), task.Operation, task.Request)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode task reply")
	})
}

func TestReplyKey(t *testing.T) {
	assert.Equal(t, "mongotask:tasks:reply:abc", ReplyKey("mongotask:tasks", "abc"))
	assert.Equal(t, "mongotask:tasks", NewRedisTransport(nil, "").queueKey)
}
