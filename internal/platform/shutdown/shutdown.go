// Package shutdown 编排应用的两阶段优雅停机
package shutdown

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/SlpAus/games-top100-backend/pkg/lifecycle"
)

// Coordinator 负责编排应用程序的优雅停机流程。
// 它接收外部创建的生命周期管理器，并使用它们来协调停机。
type Coordinator struct {
	GracefulManager *lifecycle.Manager
	ForcefulManager *lifecycle.Manager

	// HTTPTimeout 是等待进行中请求完成的时间
	HTTPTimeout time.Duration
	// GracefulTimeout 是第一阶段等待后台服务退出的时间
	GracefulTimeout time.Duration
	// ForcefulTimeout 是第二阶段等待的时间
	ForcefulTimeout time.Duration

	closers []func() error
	log     *zap.Logger
}

// NewCoordinator 创建一个新的停机协调器。
func NewCoordinator(gracefulMgr, forcefulMgr *lifecycle.Manager, log *zap.Logger) *Coordinator {
	return &Coordinator{
		GracefulManager: gracefulMgr,
		ForcefulManager: forcefulMgr,
		HTTPTimeout:     15 * time.Second,
		GracefulTimeout: 30 * time.Second,
		ForcefulTimeout: time.Second,
		log:             log.Named("shutdown"),
	}
}

// OnClose 登记在所有服务退出后执行的清理函数，按登记的逆序执行
func (c *Coordinator) OnClose(fn func() error) {
	c.closers = append(c.closers, fn)
}

// ListenForSignalsAndShutdown 启动信号监听并阻塞，直到停机流程完成。
func (c *Coordinator) ListenForSignalsAndShutdown(server *http.Server) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	c.log.Info("收到关闭信号，开始优雅停机...")
	c.Shutdown(server)
}

// Shutdown 依次关闭HTTP服务器、后台服务和底层资源
func (c *Coordinator) Shutdown(server *http.Server) {
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.HTTPTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			c.log.Error("HTTP服务器关闭错误", zap.Error(err))
		} else {
			c.log.Info("HTTP服务器已关闭")
		}
	}

	// 阶段一: 优雅停机
	c.log.Info("第一阶段停机：等待后台服务完成", zap.Duration("timeout", c.GracefulTimeout))
	c.GracefulManager.Shutdown()

	remaining := c.GracefulManager.WaitWithTimeout(c.GracefulTimeout)
	if len(remaining) == 0 {
		c.log.Info("所有服务已在第一阶段优雅关闭")
	} else {
		// 阶段二: 强制停机
		c.log.Warn("第一阶段超时，发送强制停机信号", zap.Strings("remaining", remaining))
		c.ForcefulManager.Shutdown()
		if left := c.ForcefulManager.WaitWithTimeout(c.ForcefulTimeout); len(left) > 0 {
			c.log.Warn("强制停机后仍有服务未退出", zap.Strings("remaining", left))
		}
	}

	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			c.log.Error("释放资源失败", zap.Error(err))
		}
	}
	c.log.Info("优雅停机完成")
}
