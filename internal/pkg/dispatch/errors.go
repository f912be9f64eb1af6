package dispatch

import (
	"errors"

	"github.com/edgerunner/cypress-mongodb/internal/pkg/log_messages"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/models"
)

var (
	ErrChannelClosed = errors.New("dispatch channel is closed")
	ErrReplyTimeout  = errors.New(log_messages.TaskReplyTimeout)
)

// TaskError is a handler failure relayed back through the channel. Message
// is the handler's error text, unchanged.
type TaskError struct {
	Operation models.Operation
	Message   string
	cause     error
}

func NewTaskError(op models.Operation, err error) *TaskError {
	return &TaskError{Operation: op, Message: err.Error(), cause: err}
}

func (e *TaskError) Error() string {
	return e.Message
}

// Unwrap exposes the underlying error when the handler ran in process.
func (e *TaskError) Unwrap() error {
	return e.cause
}
