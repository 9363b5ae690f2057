package apperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Respond 把业务错误映射为 HTTP 响应
func Respond(c *gin.Context, err error) {
	if ie, ok := AsInput(err); ok {
		status := http.StatusBadRequest
		if ie.NotFound {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": ie.Msg})
		return
	}
	if errors.Is(err, ErrUnauthorized) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "请先登录"})
		return
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "服务器内部错误"})
}
