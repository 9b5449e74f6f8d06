package mediator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/metrics"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/observability/logger"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/result"
)

// Logging loguea cada request despachado con su duración y resultado.
// Si el contexto trae logger (request id, etc.) se usa ese.
func Logging() Behavior {
	return func(ctx context.Context, name string, next Next) result.Response {
		start := time.Now()
		log := logger.From(ctx).With(logger.Layer("dispatcher"), logger.RequestName(name))
		log.Debug("dispatch")

		out := next(ctx)

		fields := []zap.Field{logger.DurationMs(time.Since(start))}
		e := out.Err()
		switch {
		case e == nil:
			log.Debug("dispatch ok", fields...)
		case e.Kind == result.Unexpected:
			log.Error("dispatch failed", append(fields, logger.Kind(e.Kind.String()), logger.Err(e))...)
		default:
			log.Info("dispatch rejected", append(fields, logger.Kind(e.Kind.String()), logger.String("message", e.Message))...)
		}
		return out
	}
}

// Metrics cuenta requests por tipo y Kind de resultado.
func Metrics(m *metrics.Metrics) Behavior {
	return func(ctx context.Context, name string, next Next) result.Response {
		start := time.Now()
		out := next(ctx)
		outcome := result.None
		if e := out.Err(); e != nil {
			outcome = e.Kind
		}
		m.ObserveDispatch(name, outcome.String(), time.Since(start))
		return out
	}
}
