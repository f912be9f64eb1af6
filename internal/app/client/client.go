package client

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edgerunner/cypress-mongodb/internal/pkg/cleanup"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/commands"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/config"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/consts"
	mongodb "github.com/edgerunner/cypress-mongodb/internal/pkg/db/mongo"
	redisdb "github.com/edgerunner/cypress-mongodb/internal/pkg/db/redis"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/dispatch"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/logger"
	"github.com/edgerunner/cypress-mongodb/internal/service/tasks"
	"github.com/redis/go-redis/v9"
)

var connectRedis = func(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	return redisdb.Connect(ctx, cfg, nil)
}

// Client is the command side wired to one transport. With the local
// transport it also owns the handlers and their MongoDB clients.
type Client struct {
	Commands *commands.Commands
	Registry *commands.Registry
	Channel  *dispatch.Channel

	pool  *mongodb.ClientPool
	redis *redis.Client
}

func New(ctx context.Context, cfg *config.AppConfig) (*Client, error) {
	c := &Client{}

	transport, err := c.buildTransport(ctx, cfg)
	if err != nil {
		return nil, err
	}

	c.Channel = dispatch.NewChannel(transport, dispatch.WithTimeout(cfg.Dispatch.Timeout()))
	c.Commands = commands.New(cfg.MongoDB, c.Channel)
	c.Registry = commands.NewRegistry()
	commands.AddCommands(c.Registry, c.Commands)

	logger.CtxInfo(ctx, "Task client ready", slog.String("transport", cfg.Dispatch.Transport))
	return c, nil
}

func (c *Client) buildTransport(ctx context.Context, cfg *config.AppConfig) (dispatch.Transport, error) {
	switch cfg.Dispatch.Transport {
	case consts.TransportLocal, "":
		c.pool = mongodb.NewClientPool(cfg.MongoDB)
		registry := tasks.NewRegistry()
		tasks.ConfigurePlugin(registry, tasks.NewHandlers(c.pool))
		return dispatch.NewLocalTransport(registry), nil
	case consts.TransportHTTP:
		return dispatch.NewHTTPTransport(cfg.Dispatch.BaseURL, cfg.Dispatch.Timeout()), nil
	case consts.TransportRedis:
		rc, err := connectRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		c.redis = rc
		return dispatch.NewRedisTransport(rc, cfg.Dispatch.QueueKey), nil
	default:
		return nil, fmt.Errorf("unsupported dispatch transport %q", cfg.Dispatch.Transport)
	}
}

// Close drains the channel and releases whatever the transport opened.
func (c *Client) Close(ctx context.Context) {
	cleanup.CleanupResources(ctx, cleanup.Resources{
		Channel:     c.Channel,
		MongoPool:   c.pool,
		RedisClient: c.redis,
	})
}
