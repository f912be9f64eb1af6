package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/edgerunner/cypress-mongodb/internal/pkg/dispatch"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/log_messages"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/logger"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/models"
)

var ErrCommandNotRegistered = errors.New("no command registered for operation")

// Args are the operation-independent arguments of a command. Payload is the
// pipeline, query, document(s) or filter; Update is only read by the update
// operations and Name only by create/drop collection.
type Args struct {
	Payload any
	Update  any
	Name    string
	Options *models.Options
}

type CommandFunc func(ctx context.Context, args Args) (*dispatch.Future, error)

// Registry maps every operation to its command.
type Registry struct {
	mu       sync.RWMutex
	commands [models.NumOperations]CommandFunc
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers fn for op, replacing any previous registration.
func (r *Registry) Add(op models.Operation, fn CommandFunc) error {
	if !op.Valid() {
		return fmt.Errorf("%w: %d", models.ErrUnknownOperation, int(op))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[op] = fn
	return nil
}

func (r *Registry) Registered(op models.Operation) bool {
	if !op.Valid() {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.commands[op] != nil
}

// Run executes the command registered for op.
func (r *Registry) Run(ctx context.Context, op models.Operation, args Args) (*dispatch.Future, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("%w: %d", models.ErrUnknownOperation, int(op))
	}
	r.mu.RLock()
	fn := r.commands[op]
	r.mu.RUnlock()
	if fn == nil {
		return nil, fmt.Errorf("%w: %s", ErrCommandNotRegistered, op)
	}
	return fn(ctx, args)
}

// AddCommands registers all eleven commands of c. Calling it again simply
// overwrites the same slots.
func AddCommands(r *Registry, c *Commands) {
	for _, op := range models.AllOperations() {
		_ = r.Add(op, func(ctx context.Context, args Args) (*dispatch.Future, error) {
			return c.Invoke(ctx, op, args)
		})
	}
	logger.Info(log_messages.PluginConfigured, slog.Int("commands", models.NumOperations))
}

// Invoke runs op with generic arguments.
func (c *Commands) Invoke(ctx context.Context, op models.Operation, args Args) (*dispatch.Future, error) {
	switch op {
	case models.OperationAggregate:
		return c.Aggregate(ctx, args.Payload, args.Options)
	case models.OperationCreateCollection:
		return c.CreateCollection(ctx, args.Name, args.Options)
	case models.OperationDropCollection:
		return c.DropCollection(ctx, args.Name, args.Options)
	case models.OperationInsertOne:
		return c.InsertOne(ctx, args.Payload, args.Options)
	case models.OperationInsertMany:
		return c.InsertMany(ctx, args.Payload, args.Options)
	case models.OperationDeleteOne:
		return c.DeleteOne(ctx, args.Payload, args.Options)
	case models.OperationDeleteMany:
		return c.DeleteMany(ctx, args.Payload, args.Options)
	case models.OperationFindOne:
		return c.FindOne(ctx, args.Payload, args.Options)
	case models.OperationFindMany:
		return c.FindMany(ctx, args.Payload, args.Options)
	case models.OperationUpdateOne:
		return c.UpdateOne(ctx, args.Payload, args.Update, args.Options)
	case models.OperationUpdateMany:
		return c.UpdateMany(ctx, args.Payload, args.Update, args.Options)
	default:
		return nil, fmt.Errorf("%w: %d", models.ErrUnknownOperation, int(op))
	}
}
