package middleware

import (
	"log/slog"
	"time"

	"github.com/edgerunner/cypress-mongodb/internal/pkg/consts"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AttachTraceID carries the caller's X-Trace-Id into the request context,
// minting one when absent, and logs each request once it completes.
func AttachTraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(consts.TraceIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}
		ctx := logger.WithTraceID(c.Request.Context(), traceID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(consts.TraceIDHeader, traceID)

		start := time.Now()
		c.Next()

		logger.CtxDebug(ctx, "request completed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("elapsed", time.Since(start)),
		)
	}
}
