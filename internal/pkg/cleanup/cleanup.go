package cleanup

import (
	"context"
	"net/http"
	"time"

	"github.com/edgerunner/cypress-mongodb/internal/pkg/consts"
	mongodb "github.com/edgerunner/cypress-mongodb/internal/pkg/db/mongo"
	redisdb "github.com/edgerunner/cypress-mongodb/internal/pkg/db/redis"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/log_messages"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Resources lists what a process may own. Nil fields are skipped.
type Resources struct {
	Channel      interface{ Close() }
	MongoPool    *mongodb.ClientPool
	RedisClient  *redis.Client
	Server       *http.Server
	OtelShutdown func(context.Context) error
}

// CleanupResources releases resources in dependency order: stop taking
// requests, drain the channel, then close the stores and the exporter.
func CleanupResources(ctx context.Context, r Resources) {
	logger.CtxInfo(ctx, log_messages.CleanupStarted)

	cleanupHTTPServer(r.Server, ctx)
	cleanupChannel(r.Channel, ctx)
	cleanupMongoResource(r.MongoPool, ctx)
	cleanupRedisResource(r.RedisClient, ctx)
	cleanupOtel(r.OtelShutdown, ctx)

	logger.CtxInfo(ctx, log_messages.CleanupCompleted)
}

func cleanupHTTPServer(server *http.Server, ctx context.Context) {
	if server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, consts.ShutdownGracePeriod)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.CtxError(ctx, "Failed to shutdown HTTP server", err)
	} else {
		logger.CtxInfo(ctx, "HTTP server shutdown successfully")
	}
}

func cleanupChannel(channel interface{ Close() }, ctx context.Context) {
	if channel == nil {
		return
	}
	channel.Close()
	logger.CtxInfo(ctx, "Dispatch channel closed")
}

func cleanupMongoResource(pool *mongodb.ClientPool, ctx context.Context) {
	if pool == nil {
		return
	}
	mongoCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Disconnect(mongoCtx); err != nil {
		logger.CtxError(mongoCtx, log_messages.FailedToDisconnectMongoDB, err)
	} else {
		logger.CtxInfo(mongoCtx, "MongoDB clients disconnected successfully")
	}
}

func cleanupRedisResource(client *redis.Client, ctx context.Context) {
	if client == nil {
		return
	}
	if err := redisdb.Disconnect(client); err != nil {
		logger.CtxError(ctx, "Failed to close Redis client", err)
	} else {
		logger.CtxInfo(ctx, "Redis client closed successfully")
	}
}

func cleanupOtel(shutdown func(context.Context) error, ctx context.Context) {
	if shutdown == nil {
		return
	}
	otelCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := shutdown(otelCtx); err != nil {
		logger.CtxError(ctx, "Failed to flush traces", err)
	}
}
