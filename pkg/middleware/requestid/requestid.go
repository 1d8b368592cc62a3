package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header is the correlation header accepted from upstream proxies and
// echoed back on every response.
const Header = "X-Request-ID"

const contextKey = "request_id"

// Middleware tags each request with a correlation id. An id supplied by
// the caller is trusted as-is; otherwise a fresh UUID is minted.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(contextKey, id)
		c.Writer.Header().Set(Header, id)

		c.Next()
	}
}

// Value returns the correlation id of the request, or the empty string
// when the middleware did not run.
func Value(c *gin.Context) string {
	if v, exists := c.Get(contextKey); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
