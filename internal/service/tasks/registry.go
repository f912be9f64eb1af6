package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/edgerunner/cypress-mongodb/internal/pkg/consts"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/log_messages"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/logger"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/models"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

var ErrHandlerNotRegistered = errors.New(log_messages.HandlerNotRegistered)

type HandlerFunc func(ctx context.Context, req *models.TaskRequest) (any, error)

// Registry holds one handler slot per operation.
type Registry struct {
	mu       sync.RWMutex
	handlers [models.NumOperations]HandlerFunc
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register sets the handler for op, replacing any previous one.
func (r *Registry) Register(op models.Operation, fn HandlerFunc) error {
	if !op.Valid() {
		return fmt.Errorf("%w: %d", models.ErrUnknownOperation, int(op))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[op] = fn
	return nil
}

func (r *Registry) Registered(op models.Operation) bool {
	if !op.Valid() {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers[op] != nil
}

// Execute runs the handler registered for op inside a client span.
func (r *Registry) Execute(ctx context.Context, op models.Operation, req *models.TaskRequest) (any, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("%w: %d", models.ErrUnknownOperation, int(op))
	}
	if req == nil {
		return nil, fmt.Errorf(log_messages.InvalidTaskRequest, "nil request")
	}
	r.mu.RLock()
	fn := r.handlers[op]
	r.mu.RUnlock()
	if fn == nil {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotRegistered, op)
	}

	collection := req.Options.Collection
	if req.Collection != "" {
		collection = req.Collection
	}

	ctx, span := otel.GetTracer().Start(ctx, "mongodb."+op.String(),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemKey.String(consts.DBSystemMongoDB),
			semconv.DBNameKey.String(req.Options.Database),
			semconv.DBOperationKey.String(op.String()),
			semconv.DBMongoDBCollectionKey.String(collection),
		),
	)
	defer span.End()

	attrs := []slog.Attr{
		slog.String("operation", op.String()),
		slog.String("database", req.Options.Database),
		slog.String("collection", collection),
	}
	logger.CtxInfo(ctx, log_messages.TaskReceived, attrs...)

	start := time.Now()
	result, err := fn(ctx, req)
	elapsed := slog.Duration("elapsed", time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.CtxError(ctx, log_messages.TaskFailed, err, append(attrs, elapsed)...)
		return nil, err
	}

	logger.CtxInfo(ctx, log_messages.TaskCompleted, append(attrs, elapsed)...)
	return result, nil
}

// ConfigurePlugin registers all eleven handlers. Calling it again overwrites
// the same slots.
func ConfigurePlugin(r *Registry, h *Handlers) {
	table := [models.NumOperations]HandlerFunc{
		models.OperationAggregate:        h.Aggregate,
		models.OperationCreateCollection: h.CreateCollection,
		models.OperationDropCollection:   h.DropCollection,
		models.OperationInsertOne:        h.InsertOne,
		models.OperationInsertMany:       h.InsertMany,
		models.OperationDeleteOne:        h.DeleteOne,
		models.OperationDeleteMany:       h.DeleteMany,
		models.OperationFindOne:          h.FindOne,
		models.OperationFindMany:         h.FindMany,
		models.OperationUpdateOne:        h.UpdateOne,
		models.OperationUpdateMany:       h.UpdateMany,
	}
	for i, fn := range table {
		_ = r.Register(models.Operation(i), fn)
	}
	logger.Info(log_messages.PluginConfigured, slog.Int("tasks", models.NumOperations))
}
