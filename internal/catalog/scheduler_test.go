package catalog

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SlpAus/games-top100-backend/pkg/lifecycle"
)

type countingRunner struct{ runs atomic.Int32 }

func (r *countingRunner) Run(context.Context) (Result, error) {
	r.runs.Add(1)
	return Result{}, nil
}

func TestSchedulerRejectsInvalidSchedule(t *testing.T) {
	_, err := NewScheduler("every tuesday-ish", &countingRunner{}, zap.NewNop())
	assert.Error(t, err)
}

func TestSchedulerStopsOnShutdown(t *testing.T) {
	runner := &countingRunner{}
	s, err := NewScheduler("@every 1s", runner, zap.NewNop())
	require.NoError(t, err)

	mgr := lifecycle.NewManager("test", zap.NewNop())
	force := lifecycle.NewManager("force", zap.NewNop())
	fh, err := force.NewServiceHandle("catalog-sync")
	require.NoError(t, err)
	require.NoError(t, mgr.Go("catalog-cron", func(h *lifecycle.Handle) { s.Run(h, fh) }))

	time.Sleep(1200 * time.Millisecond)
	mgr.Shutdown()
	assert.Empty(t, mgr.WaitWithTimeout(2*time.Second))
	assert.Empty(t, force.WaitWithTimeout(10*time.Millisecond), "调度器退出时释放强制停机句柄")
	assert.GreaterOrEqual(t, runner.runs.Load(), int32(1))
}
