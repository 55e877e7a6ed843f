package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupKV(t *testing.T) (*miniredis.Miniredis, *RedisKV) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisKV(client)
}

func TestKV_SetGetDel(t *testing.T) {
	_, kv := setupKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "session:abc", `{"userId":"u1"}`, time.Hour))

	val, err := kv.Get(ctx, "session:abc")
	require.NoError(t, err)
	assert.Equal(t, `{"userId":"u1"}`, val)

	require.NoError(t, kv.Del(ctx, "session:abc"))
	_, err = kv.Get(ctx, "session:abc")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestKV_MissOnUnknownKey(t *testing.T) {
	_, kv := setupKV(t)
	_, err := kv.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestKV_TTLExpires(t *testing.T) {
	mr, kv := setupKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "session:short", "v", time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := kv.Get(ctx, "session:short")
	assert.ErrorIs(t, err, ErrMiss)
}
