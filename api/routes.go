// Package api 注册所有HTTP路由
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/SlpAus/games-top100-backend/internal/game"
	"github.com/SlpAus/games-top100-backend/internal/ratelimit"
	"github.com/SlpAus/games-top100-backend/internal/user"
	"github.com/SlpAus/games-top100-backend/internal/vote"
)

// 限流的动作名，与配置中 rateLimit.rules 的键对应
const (
	ActionLogin    = "login"
	ActionRegister = "register"
	ActionVote     = "vote"
	ActionComment  = "comment"
	ActionProfile  = "profile"
)

// Handlers 汇总各模块的处理器
type Handlers struct {
	Users   *user.Handler
	Games   *game.Handler
	Votes   *vote.Handler
	Limiter *ratelimit.Limiter
}

// SetupRoutes 注册项目的所有API路由
func SetupRoutes(router *gin.Engine, h Handlers) {
	limit := func(action string) gin.HandlerFunc {
		if h.Limiter == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return h.Limiter.Middleware(action)
	}
	auth := user.RequireUser()

	api := router.Group("/api")
	{
		// 账号相关的路由 /api/auth
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", limit(ActionRegister), h.Users.Register)
			authRoutes.POST("/login", limit(ActionLogin), h.Users.Login)
			authRoutes.POST("/logout", h.Users.Logout)
			authRoutes.GET("/me", auth, h.Users.Me)
			authRoutes.DELETE("/me", auth, h.Users.DeleteMe)
		}

		api.PUT("/profile", auth, limit(ActionProfile), h.Users.UpdateProfile)

		// 游戏相关的路由 /api/games
		gameRoutes := api.Group("/games")
		{
			gameRoutes.GET("", h.Games.SearchGames)
			gameRoutes.GET("/:id", h.Games.GetGame)
		}

		// 投票相关的路由 /api/votes
		voteRoutes := api.Group("/votes", auth)
		{
			voteRoutes.GET("/mine", h.Votes.GetMyVotes)
			voteRoutes.PUT("/:position", limit(ActionVote), h.Votes.CastVote)
			voteRoutes.PUT("/:position/comment", limit(ActionComment), h.Votes.UpdateComment)
		}

		// 排行榜 /api/top
		api.GET("/top", h.Votes.GetRankedList)
		api.GET("/top/statistics", h.Votes.GetStatistics)
	}
}
