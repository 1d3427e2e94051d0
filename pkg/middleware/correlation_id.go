package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/saimali7/tour-crm/pkg/logger"
)

// CorrelationIDHeader is the header name for correlation ID
const CorrelationIDHeader = "X-Request-ID"

// CorrelationID middleware generates or extracts a correlation ID for request
// tracing and makes it visible to logger.WithContext.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(CorrelationIDHeader)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}

		ctx := context.WithValue(c.Request.Context(), logger.CorrelationIDContextKey, correlationID)
		c.Request = c.Request.WithContext(ctx)

		c.Writer.Header().Set(CorrelationIDHeader, correlationID)
		c.Next()
	}
}

// GetCorrelationID extracts correlation ID from the request context
func GetCorrelationID(c *gin.Context) string {
	if id, ok := c.Request.Context().Value(logger.CorrelationIDContextKey).(string); ok {
		return id
	}
	return ""
}
