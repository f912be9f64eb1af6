package models

// Options are the per-call overrides accepted by every command. Empty
// database/collection fall back to the environment configuration.
type Options struct {
	Database     string `json:"database,omitempty" validate:"required"`
	Collection   string `json:"collection,omitempty"`
	FailSilently bool   `json:"failSilently,omitempty"`
}

// TaskRequest is what the command layer sends over the dispatch channel. The
// handler side trusts its shape; validation happens before dispatch.
type TaskRequest struct {
	URI     string  `json:"uri" validate:"required"`
	Options Options `json:"options"`

	// Pipeline holds the aggregation pipeline or the find query.
	Pipeline  Payload `json:"pipeline"`
	Filter    Payload `json:"filter"`
	Document  Payload `json:"document"`
	Documents Payload `json:"documents"`

	// Collection is the target name for createCollection and dropCollection.
	Collection string `json:"collection,omitempty"`
}

// TaskResponse is the reply envelope used by the HTTP and Redis transports.
type TaskResponse struct {
	Result Payload `json:"result"`
	Error  string  `json:"error,omitempty"`
}

// QueuedTask is a request as it sits in the Redis task queue.
type QueuedTask struct {
	ID        string       `json:"id"`
	TraceID   string       `json:"traceId,omitempty"`
	Operation Operation    `json:"operation"`
	Request   *TaskRequest `json:"request"`
}
