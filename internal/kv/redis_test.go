package kv

import (
	"context"
	"testing"

	"pcoscare/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions(t *testing.T) {
	opts, err := ParseOptions("localhost:6379")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)

	opts, err = ParseOptions("redis://:secret@cache:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)

	_, err = ParseOptions("  ")
	assert.Error(t, err)

	_, err = ParseOptions("http://nope")
	assert.Error(t, err)
}

func TestInitRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb := InitRedis(mr.Addr())
	require.NotNil(t, rdb)
	assert.Same(t, rdb, GetClient())
	assert.NoError(t, Ping(context.Background(), rdb))
}

func TestInitRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	assert.Nil(t, InitRedis(addr))
	assert.Nil(t, GetClient())
	assert.Error(t, Ping(context.Background(), nil))
}

func TestMetricsHook_CountsErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := NewClient(mr.Addr())
	require.NoError(t, err)
	defer func() { _ = rdb.Close() }()

	before := testutil.ToFloat64(middleware.RedisErrors.WithLabelValues("incr"))

	require.NoError(t, rdb.Set(context.Background(), "k", "not-a-number", 0).Err())
	assert.Error(t, rdb.Incr(context.Background(), "k").Err())

	assert.Equal(t, before+1, testutil.ToFloat64(middleware.RedisErrors.WithLabelValues("incr")))

	// redis.Nil is a cache miss, not a failure.
	missBefore := testutil.ToFloat64(middleware.RedisErrors.WithLabelValues("get"))
	assert.Error(t, rdb.Get(context.Background(), "missing").Err())
	assert.Equal(t, missBefore, testutil.ToFloat64(middleware.RedisErrors.WithLabelValues("get")))
}
