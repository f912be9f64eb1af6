package client

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/config"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/dispatch"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appConfig(transport string) *config.AppConfig {
	return &config.AppConfig{
		MongoDB: config.MongoDBConfig{
			URI:                   "mongodb://localhost:27017",
			Database:              "db",
			MaxPoolSize:           5,
			MaxConnIdleMinutes:    1,
			ConnectTimeoutSeconds: 1,
		},
		Dispatch: config.DispatchConfig{
			Transport:       transport,
			BaseURL:         "http://localhost:1",
			TimeoutSeconds:  1,
			QueueKey:        "tasks",
			ReplyTTLSeconds: 60,
		},
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	for _, transport := range []string{"local", "http"} {
		t.Run(transport, func(t *testing.T) {
			c, err := New(ctx, appConfig(transport))
			require.NoError(t, err)
			defer c.Close(ctx)

			for _, op := range models.AllOperations() {
				assert.True(t, c.Registry.Registered(op))
			}
		})
	}

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := appConfig("redis")
		cfg.Redis.Addr = mr.Addr()

		c, err := New(ctx, cfg)
		require.NoError(t, err)
		require.NotNil(t, c.redis)
		c.Close(ctx)

		_, err = c.Channel.Dispatch(ctx, models.OperationFindOne, &models.TaskRequest{}).Await(ctx)
		assert.ErrorIs(t, err, dispatch.ErrChannelClosed)
	})

	t.Run("redis unreachable", func(t *testing.T) {
		orig := connectRedis
		defer func() { connectRedis = orig }()
		connectRedis = func(context.Context, config.RedisConfig) (*redis.Client, error) {
			return nil, errors.New("connection refused")
		}

		_, err := New(ctx, appConfig("redis"))
		assert.EqualError(t, err, "connection refused")
	})

	t.Run("unknown transport", func(t *testing.T) {
		_, err := New(ctx, appConfig("carrier-pigeon"))
		assert.ErrorContains(t, err, "carrier-pigeon")
	})
}

func TestValidationFailsBeforeDispatch(t *testing.T) {
	ctx := context.Background()
	cfg := appConfig("http")
	cfg.MongoDB.Database = ""

	c, err := New(ctx, cfg)
	require.NoError(t, err)
	defer c.Close(ctx)

	_, err = c.Commands.FindMany(ctx, map[string]any{}, nil)
	assert.EqualError(t, err, "options.database must be specified")
}
