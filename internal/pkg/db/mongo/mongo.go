package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/edgerunner/cypress-mongodb/internal/pkg/config"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/log_messages"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ClientPool keeps one connected client per connection URI for the lifetime
// of the task handler process.
type ClientPool struct {
	cfg       config.MongoDBConfig
	connector MongoConnector

	mu      sync.Mutex
	clients map[string]*mongo.Client
}

func NewClientPool(cfg config.MongoDBConfig) *ClientPool {
	return newClientPoolWithConnector(cfg, &DefaultMongoConnector{})
}

func newClientPoolWithConnector(cfg config.MongoDBConfig, connector MongoConnector) *ClientPool {
	return &ClientPool{
		cfg:       cfg,
		connector: connector,
		clients:   make(map[string]*mongo.Client),
	}
}

// Get returns the client for uri, connecting and pinging it on first use.
func (p *ClientPool) Get(ctx context.Context, uri string) (*mongo.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if client, ok := p.clients[uri]; ok {
		return client, nil
	}

	client, err := connectWithConnector(ctx, p.cfg, uri, p.connector)
	if err != nil {
		return nil, err
	}
	p.clients[uri] = client
	return client, nil
}

// Put registers an already connected client for uri.
func (p *ClientPool) Put(uri string, client *mongo.Client) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clients[uri] = client
}

func (p *ClientPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}

// Disconnect closes every client and empties the pool.
func (p *ClientPool) Disconnect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for uri, client := range p.clients {
		if err := client.Disconnect(ctx); err != nil {
			logger.CtxError(ctx, log_messages.FailedToDisconnectMongoDB, err, slog.String("uri", redactMongoURI(uri)))
			errs = append(errs, fmt.Errorf("disconnect %s: %w", redactMongoURI(uri), err))
		}
		delete(p.clients, uri)
	}
	return errors.Join(errs...)
}

func clientOptions(cfg config.MongoDBConfig, uri string) *options.ClientOptions {
	connectTimeout := cfg.ConnectTimeout()
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(connectTimeout * 2).
		SetHeartbeatInterval(10 * time.Second).
		SetMaxConnIdleTime(cfg.MaxConnIdleTime())

	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	if cfg.MinPoolSize > 0 {
		opts.SetMinPoolSize(cfg.MinPoolSize)
	}
	return opts
}

func connectWithConnector(ctx context.Context, cfg config.MongoDBConfig, uri string, connector MongoConnector) (*mongo.Client, error) {
	// Redact username and password for safe logging
	safeURI := redactMongoURI(uri)

	logger.CtxInfo(ctx, log_messages.ConnectingToMongoDB, slog.String("uri", safeURI))

	client, err := connector.Connect(ctx, clientOptions(cfg, uri))
	if err != nil {
		logger.CtxError(ctx, log_messages.FailedToConnectToMongoDB, err, slog.String("uri", safeURI))
		return nil, err
	}

	if err := connector.Ping(ctx, client); err != nil {
		logger.CtxError(ctx, log_messages.MongoDBPingFailed, err, slog.String("uri", safeURI))
		return nil, err
	}

	logger.CtxInfo(ctx, log_messages.ConnectedToMongoDB, slog.String("uri", safeURI))
	return client, nil
}

// redactMongoURI hides username and password from a MongoDB URI
func redactMongoURI(uri string) string {
	at := strings.LastIndex(uri, "@")
	if at < 0 {
		return uri
	}
	scheme := ""
	if i := strings.Index(uri, "://"); i >= 0 && i < at {
		scheme = uri[:i+3]
	}
	return scheme + "***:***@" + uri[at+1:]
}
