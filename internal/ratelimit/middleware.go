package ratelimit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Middleware 对一个动作做限流。Redis不可用时放行。
// 处理结果为5xx时撤销这次计数，失败的请求不占用客户端的额度。
func (l *Limiter) Middleware(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, comp, err := l.Allow(c.Request.Context(), action, c.ClientIP())
		if err != nil {
			l.log.Debug("限流检查失败，放行请求", zap.String("action", action), zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "请求过于频繁，请稍后重试"})
			return
		}

		c.Next()

		if c.Writer.Status() < http.StatusInternalServerError {
			comp.Commit()
		}
		comp.RollbackUnlessCommitted()
	}
}
