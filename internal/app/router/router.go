package router

import (
	"github.com/edgerunner/cypress-mongodb/internal/app/handlers"
	"github.com/edgerunner/cypress-mongodb/internal/app/middleware"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/consts"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/dispatch"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func SetupRouter(serviceName string, executor dispatch.Executor) *gin.Engine {
	server := gin.New()
	server.Use(gin.Recovery())
	server.Use(otelgin.Middleware(serviceName))
	server.Use(middleware.AttachTraceID())

	healthCheckHandler := handlers.NewHealthCheckHandler()
	server.GET(consts.HealthCheckRoute, healthCheckHandler.HealthCheck)

	taskHandler := handlers.NewTaskHandler(executor)
	server.POST(consts.TaskRoutePrefix+"/:operation", taskHandler.RunTask)

	return server
}
