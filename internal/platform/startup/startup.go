// Package startup 负责应用启动时的数据库迁移和缓存恢复
package startup

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SlpAus/games-top100-backend/internal/game"
	"github.com/SlpAus/games-top100-backend/internal/platform/metadata"
	"github.com/SlpAus/games-top100-backend/internal/user"
	"github.com/SlpAus/games-top100-backend/internal/vote"
)

// Migrate 按依赖顺序迁移所有表
func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("开始迁移数据库...")

	steps := []func(*gorm.DB) error{
		metadata.PrimeDB,
		game.PrimeDB,
		user.PrimeDB,
		vote.PrimeDB,
	}
	for _, step := range steps {
		if err := step(db); err != nil {
			return err
		}
	}

	log.Info("数据库迁移完成")
	return nil
}

// CacheInvalidator 是 Redis 恢复后需要清理的缓存
type CacheInvalidator interface {
	InvalidateCache(ctx context.Context) error
}

// RebuildCache 在 Redis 重启或恢复后丢弃可能过期的排行缓存。
// 投票数据只存在于数据库中，缓存作废后会按需重新生成。
func RebuildCache(caches ...CacheInvalidator) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		for _, c := range caches {
			if err := c.InvalidateCache(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}
