package commands

import (
	"context"

	"github.com/edgerunner/cypress-mongodb/internal/pkg/config"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/dispatch"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/models"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/validation"
)

// Commands is the test-facing surface: one method per operation. Each
// method merges the caller options with the environment defaults,
// validates, and dispatches. The returned future resolves to the handler
// result unchanged.
type Commands struct {
	defaults config.MongoDBConfig
	channel  dispatch.Dispatcher
}

func New(defaults config.MongoDBConfig, channel dispatch.Dispatcher) *Commands {
	return &Commands{defaults: defaults, channel: channel}
}

// buildRequest fills uri from the environment and lets non-empty caller
// options win over the environment database and collection.
func (c *Commands) buildRequest(opts *models.Options) *models.TaskRequest {
	req := &models.TaskRequest{
		URI: c.defaults.URI,
		Options: models.Options{
			Database:   c.defaults.Database,
			Collection: c.defaults.Collection,
		},
	}
	if opts == nil {
		return req
	}
	if opts.Database != "" {
		req.Options.Database = opts.Database
	}
	if opts.Collection != "" {
		req.Options.Collection = opts.Collection
	}
	req.Options.FailSilently = opts.FailSilently
	return req
}

func (c *Commands) send(ctx context.Context, op models.Operation, req *models.TaskRequest) *dispatch.Future {
	return c.channel.Dispatch(ctx, op, req)
}

func (c *Commands) Aggregate(ctx context.Context, pipeline any, opts *models.Options) (*dispatch.Future, error) {
	req := c.buildRequest(opts)
	req.Pipeline = models.NewPayload(pipeline)

	if err := validation.ValidateRequest(models.OperationAggregate, req); err != nil {
		return nil, err
	}
	if err := validation.ValidatePipeline(pipeline); err != nil {
		return nil, err
	}
	return c.send(ctx, models.OperationAggregate, req), nil
}

func (c *Commands) FindOne(ctx context.Context, query any, opts *models.Options) (*dispatch.Future, error) {
	return c.find(ctx, models.OperationFindOne, query, opts)
}

func (c *Commands) FindMany(ctx context.Context, query any, opts *models.Options) (*dispatch.Future, error) {
	return c.find(ctx, models.OperationFindMany, query, opts)
}

func (c *Commands) find(ctx context.Context, op models.Operation, query any, opts *models.Options) (*dispatch.Future, error) {
	req := c.buildRequest(opts)
	req.Pipeline = models.NewPayload(query)

	if err := validation.ValidateRequest(op, req); err != nil {
		return nil, err
	}
	if err := validation.ValidateQuery(query); err != nil {
		return nil, err
	}
	return c.send(ctx, op, req), nil
}

func (c *Commands) InsertOne(ctx context.Context, document any, opts *models.Options) (*dispatch.Future, error) {
	req := c.buildRequest(opts)
	req.Document = models.NewPayload(document)

	if err := validation.ValidateRequest(models.OperationInsertOne, req); err != nil {
		return nil, err
	}
	if err := validation.ValidateDocument(document); err != nil {
		return nil, err
	}
	return c.send(ctx, models.OperationInsertOne, req), nil
}

func (c *Commands) InsertMany(ctx context.Context, documents any, opts *models.Options) (*dispatch.Future, error) {
	req := c.buildRequest(opts)
	req.Documents = models.NewPayload(documents)

	if err := validation.ValidateRequest(models.OperationInsertMany, req); err != nil {
		return nil, err
	}
	if err := validation.ValidateDocuments(documents); err != nil {
		return nil, err
	}
	return c.send(ctx, models.OperationInsertMany, req), nil
}

func (c *Commands) DeleteOne(ctx context.Context, filter any, opts *models.Options) (*dispatch.Future, error) {
	return c.delete(ctx, models.OperationDeleteOne, filter, opts)
}

func (c *Commands) DeleteMany(ctx context.Context, filter any, opts *models.Options) (*dispatch.Future, error) {
	return c.delete(ctx, models.OperationDeleteMany, filter, opts)
}

func (c *Commands) delete(ctx context.Context, op models.Operation, filter any, opts *models.Options) (*dispatch.Future, error) {
	req := c.buildRequest(opts)
	req.Filter = models.NewPayload(filter)

	if err := validation.ValidateRequest(op, req); err != nil {
		return nil, err
	}
	if err := validation.ValidateFilter(filter); err != nil {
		return nil, err
	}
	return c.send(ctx, op, req), nil
}

func (c *Commands) UpdateOne(ctx context.Context, filter, update any, opts *models.Options) (*dispatch.Future, error) {
	return c.update(ctx, models.OperationUpdateOne, filter, update, opts)
}

func (c *Commands) UpdateMany(ctx context.Context, filter, update any, opts *models.Options) (*dispatch.Future, error) {
	return c.update(ctx, models.OperationUpdateMany, filter, update, opts)
}

func (c *Commands) update(ctx context.Context, op models.Operation, filter, update any, opts *models.Options) (*dispatch.Future, error) {
	req := c.buildRequest(opts)
	req.Filter = models.NewPayload(filter)
	req.Document = models.NewPayload(update)

	if err := validation.ValidateRequest(op, req); err != nil {
		return nil, err
	}
	if err := validation.ValidateFilter(filter); err != nil {
		return nil, err
	}
	if err := validation.ValidateUpdate(update); err != nil {
		return nil, err
	}
	return c.send(ctx, op, req), nil
}

// CreateCollection creates name in the target database. With
// opts.FailSilently an "already exists" failure resolves normally.
func (c *Commands) CreateCollection(ctx context.Context, name string, opts *models.Options) (*dispatch.Future, error) {
	return c.collection(ctx, models.OperationCreateCollection, name, opts)
}

// DropCollection drops name from the target database. With
// opts.FailSilently a "does not exist" failure resolves normally.
func (c *Commands) DropCollection(ctx context.Context, name string, opts *models.Options) (*dispatch.Future, error) {
	return c.collection(ctx, models.OperationDropCollection, name, opts)
}

func (c *Commands) collection(ctx context.Context, op models.Operation, name string, opts *models.Options) (*dispatch.Future, error) {
	req := c.buildRequest(opts)
	req.Collection = name

	if err := validation.ValidateRequest(op, req); err != nil {
		return nil, err
	}
	return c.send(ctx, op, req), nil
}
