package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// NewEngine 创建 gin 引擎，只信任 trustedProxies 发来的 X-Forwarded-For。
// trustedProxies 为空时 ClientIP 总是连接的对端地址，限流键无法被请求头伪造。
func NewEngine(trustedProxies []string) (*gin.Engine, error) {
	r := gin.New()
	if len(trustedProxies) == 0 {
		trustedProxies = nil
	}
	if err := r.SetTrustedProxies(trustedProxies); err != nil {
		return nil, fmt.Errorf("无效的可信代理配置: %w", err)
	}
	return r, nil
}
