package middlewares

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	httperrors "github.com/TransactionProcessing/SecurityService-sub001/internal/http/errors"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/metrics"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/observability/logger"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/rate"
)

// clientIP toma la IP de RemoteAddr. Detrás de proxy, middleware.RealIP de chi
// ya la reescribió desde X-Forwarded-For / X-Real-IP.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// RateKeyFunc define cómo generar la clave de rate limiting.
type RateKeyFunc func(r *http.Request) string

// IPRateKey genera una clave basada solo en IP.
func IPRateKey(r *http.Request) string {
	return clientIP(r)
}

// RateLimitConfig es una regla: Limit requests por Window y por clave.
type RateLimitConfig struct {
	Limiter rate.Limiter
	// Name identifica la regla en la clave y en las métricas.
	Name    string
	Limit   int
	Window  time.Duration
	KeyFunc RateKeyFunc
	Metrics *metrics.Metrics
}

// WithRateLimit aplica la regla. Sin limiter o con Limit <= 0 no hace nada.
// Si el backend falla, el request pasa (fail-open) y se loguea.
func WithRateLimit(cfg RateLimitConfig) Middleware {
	if cfg.Limiter == nil || cfg.Limit <= 0 || cfg.Window <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = IPRateKey
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := cfg.Name + "|" + cfg.KeyFunc(r)
			res, err := cfg.Limiter.Allow(r.Context(), key, cfg.Limit, cfg.Window)
			if err != nil {
				logger.From(r.Context()).Warn("rate limit backend error",
					logger.Op("WithRateLimit"),
					logger.String("rule", cfg.Name),
					logger.Err(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if res.WindowTTL > 0 {
				h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(res.WindowTTL).Unix(), 10))
			}

			if !res.Allowed {
				retry := int(math.Ceil(res.RetryAfter.Seconds()))
				if retry < 1 {
					retry = 1
				}
				h.Set("Retry-After", strconv.Itoa(retry))
				cfg.Metrics.ObserveRateReject(cfg.Name)
				httperrors.WriteError(w, httperrors.ErrRateLimitExceeded)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
