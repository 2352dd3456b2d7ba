package middleware

import (
	"context"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/grafana/pyroscope-go"
)

// Profiling label names
const (
	ProfilingLabelRoute  = "route"
	ProfilingLabelMethod = "method"
	ProfilingLabelArea   = "area"
)

// Profiling tags CPU samples taken while serving a request with the route,
// method and API area so Pyroscope can break profiles down by endpoint.
// Unmatched routes and skipPaths are not tagged.
func Profiling(skipPaths ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" || slices.Contains(skipPaths, route) {
			c.Next()
			return
		}

		labels := []string{ProfilingLabelRoute, route, ProfilingLabelMethod, c.Request.Method}
		if area := apiArea(route); area != "" {
			labels = append(labels, ProfilingLabelArea, area)
		}

		pyroscope.TagWrapper(c.Request.Context(), pyroscope.Labels(labels...), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// apiArea returns the first resource segment after the version prefix:
// "/api/v1/crm/contacts/:id" gives "crm".
func apiArea(route string) string {
	rest, ok := strings.CutPrefix(route, "/api/")
	if !ok {
		return ""
	}
	parts := strings.Split(rest, "/")
	if len(parts) < 2 || !isVersionSegment(parts[0]) {
		return ""
	}
	if seg := parts[1]; seg != "" && !strings.HasPrefix(seg, ":") {
		return seg
	}
	return ""
}

// isVersionSegment reports whether a path segment is an API version (v1, v2, ...)
func isVersionSegment(segment string) bool {
	if len(segment) < 2 || (segment[0] != 'v' && segment[0] != 'V') {
		return false
	}
	for i := 1; i < len(segment); i++ {
		if segment[i] < '0' || segment[i] > '9' {
			return false
		}
	}
	return true
}
