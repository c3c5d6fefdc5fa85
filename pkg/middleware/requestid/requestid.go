package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header carries the request id on both the request and the response, so
// callers can supply their own id for cross-service correlation.
const Header = "X-Request-ID"

const contextKey = "request_id"

// Middleware tags each request with an id, minting one when the caller
// did not send a header, and echoes it on the response.
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

// Value returns the request id stored in the Gin context, or an empty
// string before the middleware has run.
func Value(c *gin.Context) string {
	if v, exists := c.Get(contextKey); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
