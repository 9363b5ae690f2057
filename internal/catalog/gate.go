// Package catalog 从外部游戏目录和图片站同步游戏数据
package catalog

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Gate 是单槽的准入队列：同一时间最多一个请求在途，相邻两次准入至少间隔 minInterval
type Gate struct {
	slot *semaphore.Weighted
	pace *rate.Limiter
}

func NewGate(minInterval time.Duration) *Gate {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &Gate{
		slot: semaphore.NewWeighted(1),
		pace: rate.NewLimiter(limit, 1),
	}
}

// Do 等待准入后执行 fn，ctx 取消时放弃等待
func (g *Gate) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := g.slot.Acquire(ctx, 1); err != nil {
		return err
	}
	defer g.slot.Release(1)

	if err := g.pace.Wait(ctx); err != nil {
		return err
	}
	return fn(ctx)
}
