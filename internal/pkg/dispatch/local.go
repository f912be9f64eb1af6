package dispatch

import (
	"context"

	"github.com/edgerunner/cypress-mongodb/internal/pkg/models"
)

// Executor runs a task in process. The task handler registry implements it.
type Executor interface {
	Execute(ctx context.Context, op models.Operation, req *models.TaskRequest) (any, error)
}

// LocalTransport hands requests straight to an Executor without encoding
// them, so results keep their Go types.
type LocalTransport struct {
	executor Executor
}

func NewLocalTransport(executor Executor) *LocalTransport {
	return &LocalTransport{executor: executor}
}

func (t *LocalTransport) Send(ctx context.Context, op models.Operation, req *models.TaskRequest) (models.Payload, error) {
	result, err := t.executor.Execute(ctx, op, req)
	if err != nil {
		return models.Payload{}, NewTaskError(op, err)
	}
	return models.NewPayload(result), nil
}
