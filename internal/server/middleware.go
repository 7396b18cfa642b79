package server

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	obsmetrics "github.com/kirapay/kirapay/internal/observability/metrics"
	"github.com/kirapay/kirapay/internal/spacectx"
)

const spaceHeader = "X-Space-ID"

// SpaceRequired resolves the calling space from the request header and
// threads it through the request context. Every tenant-scoped route
// sits behind it.
func SpaceRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(spaceHeader))
		if raw == "" {
			AbortWithError(c, newValidationError("space_id", "missing_space", "missing "+spaceHeader+" header"))
			return
		}
		spaceID, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("space_id", "invalid_space", "invalid "+spaceHeader+" header"))
			return
		}

		ctx := spacectx.WithSpaceID(c.Request.Context(), spaceID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequestID propagates the caller's X-Request-Id or mints one, so log
// lines and the response can be correlated.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader("X-Request-Id"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-Id", requestID)
		c.Next()
	}
}

// MetricsMiddleware records request counts and latency per route.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		obsmetrics.HTTP().ObserveRequest(route, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
