package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/survey-recon-api/internal/service"
)

// Metrics records method, route and status for every request. The route
// template is preferred over the raw path so path params do not explode
// label cardinality.
func Metrics(metrics *service.MetricsService) gin.HandlerFunc {
	if metrics == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
