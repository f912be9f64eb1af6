package consts

import "time"

const (
	TransportLocal = "local"
	TransportHTTP  = "http"
	TransportRedis = "redis"

	TaskRoutePrefix  = "/tasks"
	HealthCheckRoute = "/health"
	TraceIDHeader    = "X-Trace-Id"

	DefaultQueueKey     = "mongotask:tasks"
	ReplyKeySegment     = ":reply:"
	DefaultQueueSize    = 64
	DefaultTaskTimeout  = 60 * time.Second
	DefaultReplyTTL     = 5 * time.Minute
	RedisPollInterval   = 1 * time.Second
	DefaultServiceName  = "mongo-task-bridge"
	DefaultHTTPBaseURL  = "http://localhost:8080"
	ShutdownGracePeriod = 8 * time.Second
)

const ContentType = "application/json"
