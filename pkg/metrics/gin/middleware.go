package gin

import (
	"strconv"
	"time"

	"github.com/RigelNana/baselibrary/pkg/metrics"
	"github.com/gin-gonic/gin"
)

// PrometheusMiddleware records one request sample per routed call. Requests
// that match no route are grouped under "unmatched" so probes for random
// paths do not blow up label cardinality.
func PrometheusMiddleware(serviceName string, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := skipped[c.Request.URL.Path]; ok {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordRequest(serviceName, c.Request.Method+" "+route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
