package lifecycle

import (
	"context"
	"time"
)

// Handle 是分发给每个后台服务的停机信号。
// 服务在退出前必须调用 Close。
type Handle struct {
	name  string
	ctx   context.Context
	close func()
}

// Name 返回服务注册时使用的名字
func (h *Handle) Name() string { return h.name }

// Ctx 返回停机时会被取消的上下文
func (h *Handle) Ctx() context.Context { return h.ctx }

// Done 在管理器广播停机时关闭
func (h *Handle) Done() <-chan struct{} { return h.ctx.Done() }

// Err 返回上下文被取消的原因
func (h *Handle) Err() error { return h.ctx.Err() }

// Close 通知管理器该服务已退出，可以重复调用
func (h *Handle) Close() { h.close() }

// Sleep 暂停指定的时长，停机时提前返回错误
func (h *Handle) Sleep(d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-h.Done():
		return h.Err()
	case <-timer.C:
		return nil
	}
}
