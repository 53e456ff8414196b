package middleware

import (
	"context"
	"fmt"

	"github.com/flexprice/payment-notifier/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/grafana/pyroscope-go"
)

// PyroscopeMiddleware tags profiles taken during a request with its route
func PyroscopeMiddleware(cfg *config.Configuration) gin.HandlerFunc {
	if !cfg.Pyroscope.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		labels := pyroscope.Labels(
			"method", c.Request.Method,
			"endpoint", c.FullPath(),
			"handler", fmt.Sprintf("%s %s", c.Request.Method, c.FullPath()),
		)

		pyroscope.TagWrapper(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
