package log_messages

// Payload checks performed by the command builders before dispatch.
const (
	PipelineMustBeSpecified  = "Pipeline must be specified"
	PipelineMustBeValid      = "Pipeline must be a valid mongodb aggregation"
	QueryMustBeSpecified     = "Query must be specified"
	QueryMustBeValid         = "Query must be a valid mongodb query object"
	DocumentMustBeSpecified  = "Document must be specified"
	DocumentMustBeValid      = "Document must be a valid mongodb document"
	DocumentsMustBeSpecified = "Documents must be specified"
	DocumentsMustBeValid     = "Documents must be an array of mongodb documents"
	FilterMustBeSpecified    = "Filter must be specified"
	FilterMustBeValid        = "Filter must be a valid mongodb filter object"
	UpdateMustBeSpecified    = "Update must be specified"
	UpdateMustBeValid        = "Update must be a valid mongodb update document"
	CollectionNameRequired   = "Collection name must be specified"
	CollectionNameNotString  = "Collection name must be a string"
	FieldMustBeSpecified     = "%s must be specified"
	FieldIsInvalid           = "%s is invalid"
)

const (
	FailedLoadingConfiguration = "Failed to load configuration: %v"
	ServerStartFailure         = "failed to start server: %v"
	ServerExiting              = "Server exiting"
	CleanupStarted             = "Starting cleanup of resources..."
	CleanupCompleted           = "All resources cleaned up successfully"
	PluginConfigured           = "MongoDB plugin configured"

	ConnectingToMongoDB       = "Connecting to MongoDB"
	ConnectedToMongoDB        = "Successfully connected to MongoDB"
	FailedToConnectToMongoDB  = "Failed to connect to MongoDB"
	MongoDBPingFailed         = "MongoDB ping failed"
	FailedToDisconnectMongoDB = "Failed to disconnect MongoDB client"

	TaskReceived          = "Task received"
	TaskCompleted         = "Task completed"
	TaskFailed            = "Task failed"
	TaskFailureSuppressed = "Task failure suppressed by failSilently"
	TaskDispatched        = "Task dispatched"
	TaskSettled           = "Task settled"
	InvalidTaskRequest    = "invalid task request: %v"
	UnknownTaskOperation  = "unknown task operation"
	HandlerNotRegistered  = "no handler registered for operation"

	ErrorDecodingQueuedTask   = "error decoding queued task"
	ErrorPublishingTaskReply  = "error publishing task reply"
	ErrorPollingTaskQueue     = "error polling task queue"
	TaskConsumerStarted       = "Redis task consumer started"
	TaskConsumerStopped       = "Redis task consumer stopped"
	TaskReplyTimeout          = "timed out waiting for task reply"
	UnexpectedTaskHTTPStatus  = "unexpected task response status %d"
	FailedToEncodeTaskRequest = "failed to encode task request: %w"
	FailedToDecodeTaskReply   = "failed to decode task reply: %w"
)
