package rate

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter: misma ventana fija que RedisLimiter sobre go-cache. Solo
// vale para una instancia; con varias réplicas usar Redis.
type MemoryLimiter struct {
	c      *gocache.Cache
	prefix string
	now    func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		c:      gocache.New(gocache.NoExpiration, time.Minute),
		prefix: "rl:",
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	now := l.now()
	k := windowKey(l.prefix, key, limit, window, now)
	exp := now.UTC().Truncate(window).Add(window)

	// Add falla si ya existe; en ese caso solo incrementamos.
	_ = l.c.Add(k, int64(0), exp.Sub(now))
	hits, err := l.c.IncrementInt64(k, 1)
	if err != nil {
		// expiró entre Add e Increment: nueva ventana
		l.c.Set(k, int64(1), exp.Sub(now))
		hits = 1
	}
	return evaluate(hits, limit, window, exp.Sub(now)), nil
}
