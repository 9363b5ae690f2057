package user

import (
	"github.com/gin-gonic/gin"

	"github.com/SlpAus/games-top100-backend/internal/platform/apperr"
	"github.com/SlpAus/games-top100-backend/pkg/token"
)

// UserIDKey 是 gin 上下文中保存当前用户ID的键
const UserIDKey = "userID"

// SessionMiddleware 解析会话cookie，有效时把用户ID放入上下文。
// 无效或缺失的cookie不会中断请求。
func SessionMiddleware(issuer *token.Issuer, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(cookieName)
		if err == nil && raw != "" {
			if uid, err := issuer.Parse(raw); err == nil {
				c.Set(UserIDKey, uid)
			}
		}
		c.Next()
	}
}

// RequireUser 拒绝没有登录的请求
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUserID(c) == "" {
			apperr.Respond(c, apperr.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUserID 返回当前请求的用户ID，未登录时为空串
func CurrentUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
