package health

import (
	"sync"

	"go.uber.org/zap"
)

// State 定义了Redis相关功能的健康状态
type State int

const (
	StateHealthy State = iota
	StateDegraded
	StateRebuilding
)

func (s State) String() string {
	switch s {
	case StateHealthy:
		return "healthy"
	case StateDegraded:
		return "degraded"
	case StateRebuilding:
		return "rebuilding"
	}
	return "unknown"
}

// Status 线程安全地保存当前状态和已知的 run_id
type Status struct {
	log            *zap.Logger
	mu             sync.RWMutex
	state          State
	lastKnownRunID string
}

// NewStatus 创建状态管理器，connected 为启动时的连接结果
func NewStatus(log *zap.Logger, connected bool, runID string) *Status {
	s := &Status{log: log, state: StateHealthy, lastKnownRunID: runID}
	if !connected {
		s.state = StateDegraded
	}
	return s
}

// State 返回当前状态
func (s *Status) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsRedisHealthy 只有在健康状态下，限流和缓存才访问Redis
func (s *Status) IsRedisHealthy() bool {
	if s == nil {
		return false
	}
	return s.State() == StateHealthy
}

// Assess 根据一次检查结果推进状态，返回是否需要重建
func (s *Status) Assess(connected bool, runID string) (needsRebuild bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	restarted := s.lastKnownRunID != "" && s.lastKnownRunID != runID

	switch s.state {
	case StateHealthy:
		if !connected {
			s.state = StateDegraded
			s.log.Warn("Redis连接丢失，状态 -> [降级]")
		} else if restarted {
			s.state = StateRebuilding
			needsRebuild = true
			s.log.Warn("检测到Redis重启，状态 -> [重建中]", zap.String("old_run_id", s.lastKnownRunID), zap.String("new_run_id", runID))
		}
	case StateDegraded:
		if connected {
			// 降级期间的写入没有更新缓存代数，恢复时总是重建
			s.state = StateRebuilding
			needsRebuild = true
			s.log.Info("Redis连接已恢复，状态 -> [重建中]", zap.Bool("restarted", restarted))
		}
	case StateRebuilding:
		if !connected {
			s.state = StateDegraded
			s.log.Warn("重建期间Redis连接再次丢失，状态 -> [降级]")
		} else {
			needsRebuild = true
		}
	}

	if connected {
		s.lastKnownRunID = runID
	}
	return needsRebuild
}

// MarkRebuildComplete 在一次重建尝试之后调用
func (s *Status) MarkRebuildComplete(success bool, runIDAfter string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRebuilding {
		return
	}
	if success && s.lastKnownRunID != runIDAfter {
		s.log.Warn("重建期间Redis再次重启，保持[重建中]", zap.String("run_id", runIDAfter))
		s.lastKnownRunID = runIDAfter
		return
	}
	if success {
		s.state = StateHealthy
		s.log.Info("缓存重建成功，状态 -> [健康]")
		return
	}
	s.log.Warn("缓存重建失败，保持[重建中]以待重试")
}
