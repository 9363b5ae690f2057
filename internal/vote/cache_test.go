package vote

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SlpAus/games-top100-backend/internal/testutil"
	"github.com/SlpAus/games-top100-backend/internal/user"
)

type staticHealth bool

func (h staticHealth) IsRedisHealthy() bool { return bool(h) }

func TestNilCacheIsNoop(t *testing.T) {
	var c *ListCache
	ctx := context.Background()
	_, _, ok := c.Lookup(ctx, "x")
	assert.False(t, ok)
	c.Store(ctx, 0, "x", []byte("{}"))
	c.Invalidate(ctx)
	assert.NoError(t, c.Bump(ctx))

	assert.Nil(t, NewListCache(nil, time.Minute, nil, zap.NewNop()))
}

func TestListCacheGenerations(t *testing.T) {
	ctx := context.Background()
	rdb := testutil.OpenRedis(t, 14)

	c := NewListCache(rdb, time.Minute, staticHealth(true), zap.NewNop())
	gen, _, ok := c.Lookup(ctx, "f")
	assert.False(t, ok)
	c.Store(ctx, gen, "f", []byte(`{"pages":1}`))

	_, data, ok := c.Lookup(ctx, "f")
	require.True(t, ok)
	assert.Equal(t, `{"pages":1}`, string(data))

	c.Invalidate(ctx)
	newGen, _, ok := c.Lookup(ctx, "f")
	assert.False(t, ok)
	assert.Equal(t, gen+1, newGen)

	degraded := NewListCache(rdb, time.Minute, staticHealth(false), zap.NewNop())
	_, _, ok = degraded.Lookup(ctx, "f")
	assert.False(t, ok)
}

func TestServiceServesCachedList(t *testing.T) {
	ctx := context.Background()
	rdb := testutil.OpenRedis(t, 14)

	e := newEnv(t)
	e.svc.cache = NewListCache(rdb, time.Minute, staticHealth(true), zap.NewNop())
	a := e.addGame(t, 1, "A")
	u := e.addUser(t, "u", user.Demographics{})

	empty, err := e.svc.GetRankedList(ctx, 1, 5, FilterOptions{})
	require.NoError(t, err)
	assert.Empty(t, empty.Data)

	// 投票会使缓存失效
	require.NoError(t, e.svc.CastVote(ctx, u.ID, 1, a.ID))
	list, err := e.svc.GetRankedList(ctx, 1, 5, FilterOptions{})
	require.NoError(t, err)
	assert.Len(t, list.Data, 1)

	// 绕过服务写入的数据在失效之前不可见
	require.NoError(t, e.db.Where("user_id = ?", u.ID).Delete(&Vote{}).Error)
	cached, err := e.svc.GetRankedList(ctx, 1, 5, FilterOptions{})
	require.NoError(t, err)
	assert.Len(t, cached.Data, 1)

	require.NoError(t, e.svc.InvalidateCache(ctx))
	fresh, err := e.svc.GetRankedList(ctx, 1, 5, FilterOptions{})
	require.NoError(t, err)
	assert.Empty(t, fresh.Data)
}

func TestStoreUnderStaleGenerationIsNotServed(t *testing.T) {
	ctx := context.Background()
	c := NewListCache(testutil.OpenRedis(t, 14), time.Minute, staticHealth(true), zap.NewNop())

	// 读请求在写入前取得代数，写入使代数加一，读请求随后用旧代数回填
	gen, _, ok := c.Lookup(ctx, "f")
	require.False(t, ok)
	c.Invalidate(ctx)
	c.Store(ctx, gen, "f", []byte(`{"stale":true}`))

	newGen, _, ok := c.Lookup(ctx, "f")
	assert.False(t, ok, "旧代数下的结果不能被新代数读到")
	assert.Equal(t, gen+1, newGen)
}
