// Package ratelimit 按 (动作, IP) 在Redis有序集合上实现滑动窗口限流
package ratelimit

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "ratelimit:"

// Rule 表示 Window 内最多允许 Limit 次请求
type Rule struct {
	Limit  int
	Window time.Duration
}

// HealthReporter 报告Redis当前是否可用
type HealthReporter interface {
	IsRedisHealthy() bool
}

// ErrUnavailable 表示Redis当前不可用，调用方自行决定是否放行
var ErrUnavailable = errors.New("rate limiter unavailable")

type Limiter struct {
	rdb    *redis.Client
	rules  map[string]Rule
	health HealthReporter
	log    *zap.Logger
	now    func() time.Time
}

func NewLimiter(rdb *redis.Client, rules map[string]Rule, health HealthReporter, log *zap.Logger) *Limiter {
	return &Limiter{rdb: rdb, rules: rules, health: health, log: log.Named("ratelimit"), now: time.Now}
}

func key(action, ip string) string {
	return keyPrefix + action + ":" + ip
}

// generateMemberID 生成一个16字节的有序集合成员。
// 结构: [ 8字节纳秒时间戳 (Big Endian) | 8字节随机数 ]
func generateMemberID(t time.Time) (string, error) {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b[0:8], uint64(t.UnixNano()))
	if _, err := rand.Read(b[8:16]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Allow 记录一次请求并判断是否超出限制。
// 被拒绝的请求不计入窗口；放行时返回的 Compensator 可以撤销这次计数。
func (l *Limiter) Allow(ctx context.Context, action, ip string) (bool, *Compensator, error) {
	rule, ok := l.rules[action]
	if !ok || rule.Limit <= 0 {
		return true, nil, nil
	}
	if net.ParseIP(ip) == nil {
		return false, nil, fmt.Errorf("无效的IP: %q", ip)
	}
	if l.health != nil && !l.health.IsRedisHealthy() {
		return false, nil, ErrUnavailable
	}

	now := l.now()
	member, err := generateMemberID(now)
	if err != nil {
		return false, nil, fmt.Errorf("生成成员ID失败: %w", err)
	}
	k := key(action, ip)
	minScore := float64(now.Add(-rule.Window).UnixMicro())

	pipe := l.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, k, "-inf", fmt.Sprintf("(%f", minScore))
	pipe.ZAdd(ctx, k, redis.Z{Score: float64(now.UnixMicro()), Member: member})
	pipe.Expire(ctx, k, rule.Window+time.Minute)
	countCmd := pipe.ZCard(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, nil, fmt.Errorf("执行限流事务失败: %w", err)
	}

	if countCmd.Val() > int64(rule.Limit) {
		if err := l.rdb.ZRem(ctx, k, member).Err(); err != nil {
			l.log.Warn("移除被拒绝的请求记录失败", zap.String("key", k), zap.Error(err))
		}
		return false, nil, nil
	}
	return true, &Compensator{limiter: l, key: k, member: member}, nil
}

// Compensator 撤销一次已计入的请求
type Compensator struct {
	limiter   *Limiter
	key       string
	member    string
	committed bool
}

// Commit 标记请求已成功，阻止后续回滚
func (c *Compensator) Commit() {
	if c != nil {
		c.committed = true
	}
}

// RollbackUnlessCommitted 在未 Commit 时从窗口中移除这次请求
func (c *Compensator) RollbackUnlessCommitted() {
	if c == nil || c.committed {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.limiter.rdb.ZRem(ctx, c.key, c.member).Err(); err != nil {
		c.limiter.log.Warn("限流计数补偿失败", zap.String("key", c.key), zap.Error(err))
	}
}
