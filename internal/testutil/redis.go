package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// OpenRedis 返回一个清空的Redis客户端。
// 设置了 REDIS_TEST_ADDR 时连接真实的Redis并使用编号为 db 的库，否则启动进程内的 miniredis。
func OpenRedis(t testing.TB, db int) *redis.Client {
	t.Helper()
	ctx := context.Background()

	var rdb *redis.Client
	if addr := os.Getenv("REDIS_TEST_ADDR"); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr, DB: db})
		require.NoError(t, rdb.Ping(ctx).Err())
		require.NoError(t, rdb.FlushDB(ctx).Err())
	} else {
		mr := miniredis.RunT(t)
		rdb = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}
