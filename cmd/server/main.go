package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SlpAus/games-top100-backend/api"
	"github.com/SlpAus/games-top100-backend/internal/catalog"
	"github.com/SlpAus/games-top100-backend/internal/game"
	"github.com/SlpAus/games-top100-backend/internal/platform/apperr"
	"github.com/SlpAus/games-top100-backend/internal/platform/config"
	"github.com/SlpAus/games-top100-backend/internal/platform/database"
	"github.com/SlpAus/games-top100-backend/internal/platform/health"
	"github.com/SlpAus/games-top100-backend/internal/platform/logging"
	"github.com/SlpAus/games-top100-backend/internal/platform/shutdown"
	"github.com/SlpAus/games-top100-backend/internal/platform/startup"
	"github.com/SlpAus/games-top100-backend/internal/ratelimit"
	"github.com/SlpAus/games-top100-backend/internal/user"
	"github.com/SlpAus/games-top100-backend/internal/vote"
	"github.com/SlpAus/games-top100-backend/pkg/lifecycle"
	"github.com/SlpAus/games-top100-backend/pkg/token"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("加载配置失败: " + err.Error())
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		panic("初始化日志失败: " + err.Error())
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)
	apperr.Logger = log.Named("apperr")
	gin.SetMode(cfg.Server.Mode)

	db, err := database.InitDB(cfg.Database, log)
	if err != nil {
		log.Fatal("数据库初始化失败", zap.Error(err))
	}
	if err := startup.Migrate(db, log); err != nil {
		log.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 1. 连接Redis并获取初始 run_id，失败时以降级模式启动
	ctx := context.Background()
	rdb, connected := database.InitRedis(ctx, cfg.Database.Redis, log)
	var runID string
	if connected {
		if runID, err = health.RunID(ctx, rdb); err != nil {
			log.Warn("无法获取Redis run_id", zap.Error(err))
			connected = false
		}
	}
	status := health.NewStatus(log, connected, runID)

	// 2. 组装各模块
	games := game.NewRepository(db)
	users := user.NewRepository(db)
	cache := vote.NewListCache(rdb, cfg.Voting.ListCacheTTL, status, log)
	voteSvc := vote.NewService(
		vote.NewStore(db), games, users,
		vote.NewScorer(cfg.Voting.VotesPerUser, cfg.Voting.MaxScore),
		cache, log,
	)
	userSvc := user.NewService(db, users, voteSvc, cfg.Auth.BcryptCost, log)

	issuer, err := token.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	if err != nil {
		log.Fatal("初始化会话签发器失败", zap.Error(err))
	}
	if cfg.Auth.JWTSecret == "" {
		log.Warn("未配置 auth.jwtSecret，使用随机密钥，重启后所有会话失效")
	}

	rules := make(map[string]ratelimit.Rule, len(cfg.RateLimit.Rules))
	for action, r := range cfg.RateLimit.Rules {
		rules[action] = ratelimit.Rule{Limit: r.Limit, Window: r.Window}
	}
	limiter := ratelimit.NewLimiter(rdb, rules, status, log)

	if err := user.RegisterValidators(); err != nil {
		log.Fatal("注册校验器失败", zap.Error(err))
	}

	// 3. 后台服务
	gracefulMgr := lifecycle.NewManager("graceful", log)
	forcefulMgr := lifecycle.NewManager("forceful", log)
	coordinator := shutdown.NewCoordinator(gracefulMgr, forcefulMgr, log)
	coordinator.OnClose(func() error { return database.Close(db) })
	coordinator.OnClose(rdb.Close)

	checker := health.NewChecker(rdb, status, startup.RebuildCache(voteSvc), log)
	log.Info("正在执行启动后健康检查...")
	checker.PerformCheck(ctx)
	if err := gracefulMgr.Go("redis-health", checker.Run); err != nil {
		log.Fatal("启动健康检查器失败", zap.Error(err))
	}

	if cfg.Catalog.CronSpec != "" && cfg.Catalog.BaseURL != "" {
		syncer := catalog.NewSyncerFromConfig(cfg.Catalog, db, games, log)
		syncer.OnImport(voteSvc.InvalidateCache)
		coordinator.OnClose(func() error { syncer.Close(); return nil })

		scheduler, err := catalog.NewScheduler(cfg.Catalog.CronSpec, syncer, log)
		if err != nil {
			log.Fatal("初始化目录同步计划失败", zap.Error(err))
		}
		force, err := forcefulMgr.NewServiceHandle("catalog-sync")
		if err != nil {
			log.Fatal("注册目录同步失败", zap.Error(err))
		}
		if err := gracefulMgr.Go("catalog-cron", func(h *lifecycle.Handle) { scheduler.Run(h, force) }); err != nil {
			log.Fatal("启动目录同步失败", zap.Error(err))
		}
	}

	// 4. HTTP
	r, err := api.NewEngine(cfg.Server.TrustedProxies)
	if err != nil {
		log.Fatal("初始化HTTP引擎失败", zap.Error(err))
	}
	r.Use(logging.GinLogger(log), logging.GinRecovery(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.Cors.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(api.RequestTimeout(cfg.Server.RequestTimeout))
	r.Use(user.SessionMiddleware(issuer, cfg.Auth.CookieName))

	r.Static(strings.TrimSuffix(game.ImageBaseURL, "/"), cfg.Catalog.ImageDir)

	api.SetupRoutes(r, api.Handlers{
		Users: user.NewHandler(userSvc, issuer, user.CookieConfig{
			Name:   cfg.Auth.CookieName,
			Secure: cfg.Auth.SecureCookie,
		}),
		Games:   game.NewHandler(games),
		Votes:   vote.NewHandler(voteSvc, cfg.Voting.GamesPerPage),
		Limiter: limiter,
	})

	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("服务器已准备就绪，开始监听", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP服务器异常退出", zap.Error(err))
		}
	}()

	coordinator.ListenForSignalsAndShutdown(server)
}
