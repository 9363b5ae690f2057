package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SlpAus/games-top100-backend/internal/testutil"
)

type staticHealth bool

func (h staticHealth) IsRedisHealthy() bool { return bool(h) }

func openRedis(t *testing.T) *redis.Client {
	t.Helper()
	return testutil.OpenRedis(t, 15)
}

func TestMemberIDsAreUnique(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id, err := generateMemberID(now)
		require.NoError(t, err)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestUnknownActionAlwaysAllowed(t *testing.T) {
	l := NewLimiter(nil, map[string]Rule{}, staticHealth(true), zap.NewNop())
	ok, comp, err := l.Allow(context.Background(), "vote", "127.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
	comp.Commit()
	comp.RollbackUnlessCommitted()
}

func TestUnhealthyRedis(t *testing.T) {
	l := NewLimiter(nil, map[string]Rule{"vote": {Limit: 1, Window: time.Minute}}, staticHealth(false), zap.NewNop())
	_, _, err := l.Allow(context.Background(), "vote", "127.0.0.1")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, _, err = l.Allow(context.Background(), "vote", "not-an-ip")
	assert.Error(t, err)
}

func TestSlidingWindow(t *testing.T) {
	ctx := context.Background()
	rdb := openRedis(t)
	l := NewLimiter(rdb, map[string]Rule{"login": {Limit: 2, Window: time.Minute}}, staticHealth(true), zap.NewNop())
	base := time.Now()
	l.now = func() time.Time { return base }

	for i := 0; i < 2; i++ {
		ok, comp, err := l.Allow(ctx, "login", "10.0.0.1")
		require.NoError(t, err)
		require.True(t, ok)
		comp.Commit()
	}
	ok, _, err := l.Allow(ctx, "login", "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)

	// 其他IP不受影响
	ok, _, err = l.Allow(ctx, "login", "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, ok)

	// 窗口滑过之后重新放行
	l.now = func() time.Time { return base.Add(61 * time.Second) }
	ok, _, err = l.Allow(ctx, "login", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRollbackFreesSlot(t *testing.T) {
	ctx := context.Background()
	rdb := openRedis(t)
	l := NewLimiter(rdb, map[string]Rule{"vote": {Limit: 1, Window: time.Minute}}, staticHealth(true), zap.NewNop())

	ok, comp, err := l.Allow(ctx, "vote", "10.0.0.1")
	require.NoError(t, err)
	require.True(t, ok)
	comp.RollbackUnlessCommitted()

	ok, _, err = l.Allow(ctx, "vote", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMiddlewareFailsOpenAndRejects(t *testing.T) {
	gin.SetMode(gin.TestMode)

	degraded := NewLimiter(nil, map[string]Rule{"vote": {Limit: 1, Window: time.Minute}}, staticHealth(false), zap.NewNop())
	r := gin.New()
	r.POST("/vote", degraded.Middleware("vote"), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/vote", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
	}

	rdb := openRedis(t)
	limited := NewLimiter(rdb, map[string]Rule{"vote": {Limit: 1, Window: time.Minute}}, staticHealth(true), zap.NewNop())
	r = gin.New()
	r.POST("/vote", limited.Middleware("vote"), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/vote", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusTooManyRequests}, codes)
}
