package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	rdb "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := rdb.NewClient(&rdb.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLimiter(client, "test:"), mr
}

func TestRedisLimiter_FixedWindow(t *testing.T) {
	l, mr := newRedis(t)
	ctx := context.Background()
	fixed := time.Date(2024, 1, 1, 10, 0, 5, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	for i := 1; i <= 3; i++ {
		res, err := l.Allow(ctx, "1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		require.True(t, res.Allowed, "hit %d", i)
		require.EqualValues(t, 3-i, res.Remaining)
	}
	res, err := l.Allow(ctx, "1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.EqualValues(t, 4, res.CurrentHits)
	require.Greater(t, res.RetryAfter, time.Duration(0))

	// otra key no comparte contador
	res, err = l.Allow(ctx, "5.6.7.8", 3, time.Minute)
	require.NoError(t, err)
	require.True(t, res.Allowed)

	// la key expira con la ventana
	mr.FastForward(2 * time.Minute)
	l.now = func() time.Time { return fixed.Add(2 * time.Minute) }
	res, err = l.Allow(ctx, "1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	require.True(t, res.Allowed)
	require.EqualValues(t, 1, res.CurrentHits)
}

func TestRedisLimiter_Unavailable(t *testing.T) {
	l, mr := newRedis(t)
	mr.Close()
	_, err := l.Allow(context.Background(), "k", 1, time.Minute)
	require.Error(t, err)
}

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	l := NewMemoryLimiter()
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		res, err := l.Allow(ctx, "ip", 2, time.Minute)
		require.NoError(t, err)
		require.True(t, res.Allowed)
	}
	res, err := l.Allow(ctx, "ip", 2, time.Minute)
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Equal(t, time.Minute, res.RetryAfter)

	// distinto límite = distinta regla
	res, err = l.Allow(ctx, "ip", 10, time.Minute)
	require.NoError(t, err)
	require.True(t, res.Allowed)

	now = now.Add(time.Minute)
	res, err = l.Allow(ctx, "ip", 2, time.Minute)
	require.NoError(t, err)
	require.True(t, res.Allowed)
}

func TestMemoryLimiter_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemoryLimiter().Allow(ctx, "k", 1, time.Minute)
	require.ErrorIs(t, err, context.Canceled)
}
