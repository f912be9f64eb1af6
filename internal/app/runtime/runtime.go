package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edgerunner/cypress-mongodb/internal/app/router"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/cleanup"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/config"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/consts"
	mongodb "github.com/edgerunner/cypress-mongodb/internal/pkg/db/mongo"
	redisdb "github.com/edgerunner/cypress-mongodb/internal/pkg/db/redis"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/log_messages"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/logger"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/otel"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/store/repository"
	"github.com/edgerunner/cypress-mongodb/internal/service/redisqueue"
	"github.com/edgerunner/cypress-mongodb/internal/service/tasks"
	"github.com/redis/go-redis/v9"
)

var (
	loadConfig   = config.LoadFromConfig
	setupTracing = otel.Setup
	connectRedis = func(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
		return redisdb.Connect(ctx, cfg, nil)
	}
)

// App is the task handler process. It always serves the HTTP endpoint and
// also runs the queue consumer when the redis transport is selected.
type App struct {
	Cfg          *config.AppConfig
	Pool         *mongodb.ClientPool
	Registry     *tasks.Registry
	RedisClient  *redis.Client
	Consumer     *redisqueue.TaskConsumer
	HTTPServer   *http.Server
	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	cfg, err := loadConfig()
	if err != nil {
		logger.CtxError(ctx, log_messages.FailedLoadingConfiguration, err)
		return nil, err
	}
	logger.Init(cfg.Logging.LogLevel)

	shutdown, err := setupTracing(ctx, cfg.Otel.ServiceName, cfg.Otel.CollectorURL)
	if err != nil {
		logger.CtxError(ctx, "Failed to set up tracing", err)
		return nil, err
	}

	pool := mongodb.NewClientPool(cfg.MongoDB)
	registry := tasks.NewRegistry()
	tasks.ConfigurePlugin(registry, tasks.NewHandlers(pool))

	app := &App{
		Cfg:          cfg,
		Pool:         pool,
		Registry:     registry,
		otelShutdown: shutdown,
	}

	if cfg.Dispatch.Transport == consts.TransportRedis {
		rClient, err := connectRedis(ctx, cfg.Redis)
		if err != nil {
			logger.CtxError(ctx, "Failed to connect to Redis", err)
			_ = shutdown(ctx)
			return nil, err
		}
		app.RedisClient = rClient
		app.Consumer = redisqueue.NewTaskConsumer(
			repository.NewRedisQueueAdapter(rClient),
			registry,
			cfg.Dispatch.QueueKey,
			cfg.Dispatch.ReplyTTL(),
			cfg.Dispatch.Timeout(),
		)
	}

	return app, nil
}

// Run serves until SIGINT, SIGTERM or ctx cancellation, then shuts down.
func (a *App) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	consumerDone := make(chan struct{})
	if a.Consumer != nil {
		go func() {
			defer close(consumerDone)
			a.Consumer.Start(runCtx)
		}()
	} else {
		close(consumerDone)
	}

	engine := router.SetupRouter(a.Cfg.Otel.ServiceName, a.Registry)
	a.HTTPServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.CtxInfo(ctx, "Task handler listening", slog.String("addr", a.HTTPServer.Addr))
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.CtxError(ctx, fmt.Sprintf(log_messages.ServerStartFailure, err), err)
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case <-quit:
	case <-ctx.Done():
	case runErr = <-serverErr:
	}

	cancel()
	select {
	case <-consumerDone:
	case <-time.After(consts.ShutdownGracePeriod):
	}

	a.Shutdown(ctx)
	logger.CtxInfo(ctx, log_messages.ServerExiting)
	return runErr
}

// Shutdown gracefully closes all resources with bounded timeouts.
func (a *App) Shutdown(ctx context.Context) {
	cleanup.CleanupResources(context.WithoutCancel(ctx), cleanup.Resources{
		MongoPool:    a.Pool,
		RedisClient:  a.RedisClient,
		Server:       a.HTTPServer,
		OtelShutdown: a.otelShutdown,
	})
}
