package database

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/SlpAus/games-top100-backend/internal/platform/config"
)

// RDB 是一个全局的Redis客户端实例，供项目其他部分使用
var RDB *redis.Client

// InitRedis 创建Redis客户端并测试连接。
// 连接失败不会阻止启动，限流和缓存会在健康检查恢复前降级运行。
func InitRedis(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (*redis.Client, bool) {
	RDB = redis.NewClient(&redis.Options{
		Addr:        cfg.Address,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := RDB.Ping(pingCtx).Err(); err != nil {
		log.Warn("无法连接到Redis，以降级模式启动", zap.String("address", cfg.Address), zap.Error(err))
		return RDB, false
	}

	log.Info("Redis 连接成功", zap.String("address", cfg.Address))
	return RDB, true
}
