// Package rate implementa rate limiting de ventana fija, distribuido (Redis)
// o en proceso (go-cache). Lo usan los endpoints de password del servicio.
package rate

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	WindowTTL   time.Duration
	CurrentHits int64
}

// Limiter aplica límite y ventana propios de cada llamada: un mismo backend
// sirve reglas distintas por ruta.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

// windowKey: prefix + key + inicio de la ventana fija.
func windowKey(prefix, key string, limit int, window time.Duration, now time.Time) string {
	start := now.UTC().Truncate(window)
	return fmt.Sprintf("%s%s:%d:%d", prefix, strings.ReplaceAll(key, " ", "_"), limit, start.Unix())
}

func evaluate(hits int64, limit int, window, ttl time.Duration) Result {
	max := int64(limit)
	remaining := max - hits
	if remaining < 0 {
		remaining = 0
	}
	res := Result{
		Allowed:     hits <= max,
		Remaining:   remaining,
		CurrentHits: hits,
		WindowTTL:   ttl,
	}
	if !res.Allowed {
		// Retry after: resto de la ventana
		res.RetryAfter = ttl
		if res.RetryAfter <= 0 {
			res.RetryAfter = time.Duration(math.Ceil(window.Seconds())) * time.Second
		}
	}
	return res
}

// RedisLimiter: fixed window sencillo (INCR + EXPIRE).
type RedisLimiter struct {
	Client rdb.Cmdable
	Prefix string
	now    func() time.Time
}

func NewRedisLimiter(client rdb.Cmdable, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &RedisLimiter{Client: client, Prefix: prefix, now: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	redisKey := windowKey(l.Prefix, key, limit, window, l.now())

	pipe := l.Client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	ttl := pipe.TTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, err
	}

	// expiry en el primer hit
	if incr.Val() == 1 {
		if err := l.Client.Expire(ctx, redisKey, window).Err(); err != nil {
			return Result{}, err
		}
		ttl = l.Client.TTL(ctx, redisKey)
	}
	return evaluate(incr.Val(), limit, window, ttl.Val()), nil
}
