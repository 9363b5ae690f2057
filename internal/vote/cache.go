package vote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/SlpAus/games-top100-backend/internal/platform/metadata"
)

// HealthReporter 报告Redis当前是否可用
type HealthReporter interface {
	IsRedisHealthy() bool
}

// ListCache 在Redis中缓存排行榜和统计结果。
// 每次写入投票都会让代数加一，旧代数下的缓存随之失效并自然过期。
// nil 的 *ListCache 表示不使用缓存。
type ListCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	health HealthReporter
	log    *zap.Logger
}

func NewListCache(rdb *redis.Client, ttl time.Duration, health HealthReporter, log *zap.Logger) *ListCache {
	if rdb == nil || ttl <= 0 {
		return nil
	}
	return &ListCache{rdb: rdb, ttl: ttl, health: health, log: log.Named("list_cache")}
}

func (c *ListCache) usable() bool {
	return c != nil && (c.health == nil || c.health.IsRedisHealthy())
}

func generationKey(gen int64) string {
	return fmt.Sprintf("top:v%d", gen)
}

// Lookup 返回当前代数和命中的数据。
// 调用方在未命中时用同一个代数调用 Store，避免把旧数据写到新代数下。
func (c *ListCache) Lookup(ctx context.Context, field string) (int64, []byte, bool) {
	if !c.usable() {
		return 0, nil, false
	}
	gen, err := c.rdb.Get(ctx, metadata.RedisListGenerationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.log.Warn("读取缓存代数失败", zap.Error(err))
		return 0, nil, false
	}
	data, err := c.rdb.HGet(ctx, generationKey(gen), field).Bytes()
	if errors.Is(err, redis.Nil) {
		return gen, nil, false
	}
	if err != nil {
		c.log.Warn("读取排行榜缓存失败", zap.Error(err))
		return gen, nil, false
	}
	return gen, data, true
}

// Store 把结果写到给定代数下
func (c *ListCache) Store(ctx context.Context, gen int64, field string, data []byte) {
	if !c.usable() {
		return
	}
	key := generationKey(gen)
	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, key, field, data)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warn("写入排行榜缓存失败", zap.Error(err))
	}
}

// Bump 让所有已缓存的结果失效
func (c *ListCache) Bump(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.rdb.Incr(ctx, metadata.RedisListGenerationKey).Err()
}

// Invalidate 在写入之后调用，失败只记录日志。
// Redis不健康时跳过，恢复后由健康检查重建时统一失效。
func (c *ListCache) Invalidate(ctx context.Context) {
	if !c.usable() {
		return
	}
	if err := c.Bump(ctx); err != nil {
		c.log.Warn("使排行榜缓存失效失败", zap.Error(err))
	}
}
