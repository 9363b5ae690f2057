package health

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/SlpAus/games-top100-backend/pkg/lifecycle"
)

const (
	checkInterval = 5 * time.Second
	pingTimeout   = 2 * time.Second
)

var runIDPattern = regexp.MustCompile(`run_id:([a-f0-9]+)`)

// RebuildFunc 在Redis恢复或重启后使缓存重新可用
type RebuildFunc func(ctx context.Context) error

// Checker 周期性地检查Redis并驱动 Status
type Checker struct {
	rdb     *redis.Client
	status  *Status
	rebuild RebuildFunc
	log     *zap.Logger
}

func NewChecker(rdb *redis.Client, status *Status, rebuild RebuildFunc, log *zap.Logger) *Checker {
	return &Checker{rdb: rdb, status: status, rebuild: rebuild, log: log.Named("health")}
}

// RunID 从 INFO server 中提取 run_id
func RunID(ctx context.Context, rdb *redis.Client) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	info, err := rdb.Info(ctx, "server").Result()
	if err != nil {
		return "", err
	}
	m := runIDPattern.FindStringSubmatch(info)
	if len(m) < 2 {
		return "", fmt.Errorf("无法在Redis INFO中找到run_id")
	}
	return m[1], nil
}

// PerformCheck 执行一次检查，必要时触发重建
func (c *Checker) PerformCheck(ctx context.Context) {
	runID, err := RunID(ctx, c.rdb)
	if !c.status.Assess(err == nil, runID) {
		return
	}

	if err := c.rebuild(ctx); err != nil {
		c.log.Error("缓存重建失败", zap.Error(err))
		c.status.MarkRebuildComplete(false, "")
		return
	}
	after, err := RunID(ctx, c.rdb)
	if err != nil {
		c.status.MarkRebuildComplete(false, "")
		return
	}
	c.status.MarkRebuildComplete(true, after)
}

// Run 阻塞运行直到停机
func (c *Checker) Run(h *lifecycle.Handle) {
	c.log.Info("Redis健康检查器已启动")
	for {
		if err := h.Sleep(checkInterval); err != nil {
			c.log.Info("Redis健康检查器已停止")
			return
		}
		c.PerformCheck(h.Ctx())
	}
}
