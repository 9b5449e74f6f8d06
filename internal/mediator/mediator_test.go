package mediator

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/metrics"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/observability/logger"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/result"
)

type getThing struct{ ID string }
type createThing struct{ Name string }

func TestRegisterResolveSend(t *testing.T) {
	bus := New()
	MustRegister[getThing, result.Of[string]](bus, HandlerFunc[getThing, result.Of[string]](
		func(_ context.Context, q getThing) result.Of[string] {
			if q.ID == "" {
				return result.Fail[string](result.NotFoundf("no thing"))
			}
			return result.Ok("thing-" + q.ID)
		}))

	out := Send[getThing, result.Of[string]](context.Background(), bus, getThing{ID: "1"})
	require.True(t, out.IsSuccess())
	require.Equal(t, "thing-1", out.Value())

	out = Send[getThing, result.Of[string]](context.Background(), bus, getThing{})
	require.False(t, out.IsSuccess())
	require.Equal(t, result.NotFound, out.Err().Kind)
}

func TestRegister_Duplicate(t *testing.T) {
	bus := New()
	h := HandlerFunc[createThing, result.Result](func(context.Context, createThing) result.Result { return result.Success() })
	require.NoError(t, Register[createThing, result.Result](bus, h))
	require.ErrorIs(t, Register[createThing, result.Result](bus, h), ErrDuplicate)
}

func TestResolve_Missing(t *testing.T) {
	bus := New()
	_, err := Resolve[createThing, result.Result](bus)
	require.ErrorIs(t, err, ErrNotRegistered)

	out := Send[createThing, result.Result](context.Background(), bus, createThing{})
	require.Equal(t, result.Unexpected, out.Err().Kind)
}

func TestResolve_TypeMismatch(t *testing.T) {
	bus := New()
	MustRegister[createThing, result.Result](bus, HandlerFunc[createThing, result.Result](
		func(context.Context, createThing) result.Result { return result.Success() }))
	_, err := Resolve[createThing, result.Of[string]](bus)
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestCancelledContext_SkipsHandler(t *testing.T) {
	var calls atomic.Int32
	bus := New(Logging())
	MustRegister[createThing, result.Of[string]](bus, HandlerFunc[createThing, result.Of[string]](
		func(context.Context, createThing) result.Of[string] {
			calls.Add(1)
			return result.Ok("x")
		}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := Send[createThing, result.Of[string]](ctx, bus, createThing{Name: "a"})
	require.False(t, out.IsSuccess())
	require.Equal(t, result.Cancelled, out.Err().Kind)
	require.Zero(t, calls.Load())
}

func TestPanic_BecomesUnexpected(t *testing.T) {
	bus := New()
	MustRegister[createThing, result.Result](bus, HandlerFunc[createThing, result.Result](
		func(context.Context, createThing) result.Result { panic("boom") }))
	out := Send[createThing, result.Result](context.Background(), bus, createThing{})
	require.Equal(t, result.Unexpected, out.Err().Kind)
}

func TestBehaviors_Order(t *testing.T) {
	var trace []string
	mk := func(tag string) Behavior {
		return func(ctx context.Context, name string, next Next) result.Response {
			trace = append(trace, tag+">"+name)
			out := next(ctx)
			trace = append(trace, "<"+tag)
			return out
		}
	}
	bus := New(mk("a"), mk("b"))
	MustRegister[createThing, result.Result](bus, HandlerFunc[createThing, result.Result](
		func(context.Context, createThing) result.Result {
			trace = append(trace, "handler")
			return result.Success()
		}))
	h := MustResolve[createThing, result.Result](bus)
	require.True(t, h.Handle(context.Background(), createThing{}).IsSuccess())
	require.Equal(t, []string{"a>createThing", "b>createThing", "handler", "<b", "<a"}, trace)
}

func TestBehavior_ShortCircuitWithOtherShape(t *testing.T) {
	deny := func(context.Context, string, Next) result.Response {
		return result.Failure(result.Unauthorizedf("denied"))
	}
	bus := New(deny)
	MustRegister[getThing, result.Of[string]](bus, HandlerFunc[getThing, result.Of[string]](
		func(context.Context, getThing) result.Of[string] { return result.Ok("x") }))
	out := Send[getThing, result.Of[string]](context.Background(), bus, getThing{ID: "1"})
	require.Equal(t, result.Unauthorized, out.Err().Kind)
}

func TestLoggingAndMetricsBehaviors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := logger.Replace(zap.New(core))
	defer restore()

	m, err := metrics.New()
	require.NoError(t, err)
	bus := New(Logging(), Metrics(m))
	MustRegister[getThing, result.Of[string]](bus, HandlerFunc[getThing, result.Of[string]](
		func(_ context.Context, q getThing) result.Of[string] {
			return result.Fail[string](result.NotFoundf("thing %s not found", q.ID))
		}))

	Send[getThing, result.Of[string]](context.Background(), bus, getThing{ID: "7"})

	rejected := logs.FilterMessage("dispatch rejected").All()
	require.Len(t, rejected, 1)
	fields := rejected[0].ContextMap()
	require.Equal(t, "getThing", fields["request"])
	require.Equal(t, "not_found", fields["kind"])
}
