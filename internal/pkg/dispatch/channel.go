package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/edgerunner/cypress-mongodb/internal/pkg/consts"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/log_messages"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/logger"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/models"
	"github.com/google/uuid"
)

// Transport carries one request to the task handlers and returns the raw
// result payload.
type Transport interface {
	Send(ctx context.Context, op models.Operation, req *models.TaskRequest) (models.Payload, error)
}

// Dispatcher is what the command layer depends on.
type Dispatcher interface {
	Dispatch(ctx context.Context, op models.Operation, req *models.TaskRequest) *Future
}

type call struct {
	ctx    context.Context
	op     models.Operation
	req    *models.TaskRequest
	future *Future
}

// Channel serves dispatched requests one at a time in issue order.
type Channel struct {
	transport Transport
	timeout   time.Duration
	calls     chan call
	done      chan struct{}

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

type Option func(*Channel)

// WithTimeout bounds each transport call. Defaults to consts.DefaultTaskTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Channel) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithQueueSize sets how many requests may wait behind the one in flight.
func WithQueueSize(n int) Option {
	return func(c *Channel) {
		if n >= 0 {
			c.calls = make(chan call, n)
		}
	}
}

func NewChannel(transport Transport, opts ...Option) *Channel {
	c := &Channel{
		transport: transport,
		timeout:   consts.DefaultTaskTimeout,
		calls:     make(chan call, consts.DefaultQueueSize),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.run()
	return c
}

// Dispatch queues the request and returns its future. ctx only bounds the
// wait for a queue slot; once queued the request runs to completion.
func (c *Channel) Dispatch(ctx context.Context, op models.Operation, req *models.TaskRequest) *Future {
	f := newFuture()

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		f.reject(ErrChannelClosed)
		return f
	}

	if logger.GetTraceID(ctx) == "" {
		ctx = logger.WithTraceID(ctx, uuid.NewString())
	}

	select {
	case c.calls <- call{ctx: ctx, op: op, req: req, future: f}:
	case <-ctx.Done():
		f.reject(ctx.Err())
	}
	return f
}

// Close stops accepting requests, finishes the queued ones and waits for the
// worker to exit. It is safe to call more than once.
func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.calls)
		c.mu.Unlock()
	})
	<-c.done
}

func (c *Channel) run() {
	defer close(c.done)
	for cl := range c.calls {
		c.serve(cl)
	}
}

func (c *Channel) serve(cl call) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(cl.ctx), c.timeout)
	defer cancel()

	start := time.Now()
	logger.CtxDebug(ctx, log_messages.TaskDispatched, slog.String("operation", cl.op.String()))

	payload, err := c.transport.Send(ctx, cl.op, cl.req)
	if err != nil {
		logger.CtxWarn(ctx, log_messages.TaskSettled,
			slog.String("operation", cl.op.String()),
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)),
		)
		cl.future.reject(err)
		return
	}

	logger.CtxDebug(ctx, log_messages.TaskSettled,
		slog.String("operation", cl.op.String()),
		slog.Duration("elapsed", time.Since(start)),
	)
	cl.future.resolve(payload.Value())
}
