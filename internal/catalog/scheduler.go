package catalog

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/SlpAus/games-top100-backend/internal/platform/logging"
	"github.com/SlpAus/games-top100-backend/pkg/lifecycle"
)

// Runner 是定时任务执行的一次同步
type Runner interface {
	Run(ctx context.Context) (Result, error)
}

// Scheduler 按 cron 表达式定期执行目录同步，上一次未结束时跳过本次
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	log    *zap.Logger
	ctx    context.Context
}

func NewScheduler(spec string, runner Runner, log *zap.Logger) (*Scheduler, error) {
	cl := logging.NewCronLogger(log)
	s := &Scheduler{
		cron: cron.New(cron.WithLogger(cl), cron.WithChain(
			cron.Recover(cl),
			cron.SkipIfStillRunning(cl),
		)),
		runner: runner,
		log:    log.Named("catalog"),
		ctx:    context.Background(),
	}
	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return nil, fmt.Errorf("无效的同步计划 %q: %w", spec, err)
	}
	return s, nil
}

// Run 启动调度器并阻塞到第一阶段停机信号，然后等待正在执行的同步退出。
// 同步任务使用 force 的上下文，只有强制停机才会中断进行中的同步；force 为 nil 时使用 h。
func (s *Scheduler) Run(h, force *lifecycle.Handle) {
	s.ctx = h.Ctx()
	if force != nil {
		s.ctx = force.Ctx()
		defer force.Close()
	}
	s.cron.Start()
	s.log.Info("定时目录同步已启动")

	<-h.Done()
	<-s.cron.Stop().Done()
	s.log.Info("定时目录同步已停止")
}

func (s *Scheduler) runOnce() {
	if _, err := s.runner.Run(s.ctx); err != nil {
		s.log.Error("定时目录同步失败", zap.Error(err))
	}
}
