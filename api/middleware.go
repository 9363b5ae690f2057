package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestTimeout 给每个请求的上下文加上截止时间，存储访问随之超时
func RequestTimeout(d time.Duration) gin.HandlerFunc {
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
