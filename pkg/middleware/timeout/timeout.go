package timeout

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// New bounds every request context by d. Storage calls observe the deadline while
// waiting for a pooled connection; a non-positive d disables the bound.
func New(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
