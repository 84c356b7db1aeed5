package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const RequestIDHeader = "X-Request-Id"

// RequestLog tags every request with an id and logs it once handled
func RequestLog(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			start = time.Now()
			id    = uuid.NewString()
		)

		c.Header(RequestIDHeader, id)

		c.Next()

		log.Info("request",
			zap.String("request_id", id),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
