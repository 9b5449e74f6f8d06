// Package mediator es el dispatcher tipado de requests: cada comando o query
// tiene un único handler registrado al arrancar, y los controllers resuelven
// su handler una sola vez (sin inspección de tipos por request).
package mediator

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime/debug"
	"sync"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/observability/logger"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/result"
)

type Handler[Req any, Res result.Response] interface {
	Handle(ctx context.Context, req Req) Res
}

// HandlerFunc adapta una función a Handler.
type HandlerFunc[Req any, Res result.Response] func(ctx context.Context, req Req) Res

func (f HandlerFunc[Req, Res]) Handle(ctx context.Context, req Req) Res { return f(ctx, req) }

// Next invoca el resto del pipeline.
type Next func(ctx context.Context) result.Response

// Behavior envuelve cada dispatch (logging, métricas). name es el nombre del
// tipo de request.
type Behavior func(ctx context.Context, name string, next Next) result.Response

var (
	ErrNotRegistered = errors.New("mediator: no handler registered")
	ErrDuplicate     = errors.New("mediator: handler already registered")
	ErrTypeMismatch  = errors.New("mediator: handler registered with another response type")
)

type Bus struct {
	mu        sync.RWMutex
	handlers  map[reflect.Type]any
	behaviors []Behavior
}

// New crea un Bus. Los behaviors se aplican en orden (el primero es el más externo).
func New(behaviors ...Behavior) *Bus {
	return &Bus{handlers: make(map[reflect.Type]any), behaviors: behaviors}
}

// Register asocia el handler al tipo Req. Un tipo de request admite un solo handler.
func Register[Req any, Res result.Response](b *Bus, h Handler[Req, Res]) error {
	if h == nil {
		return fmt.Errorf("mediator: nil handler for %s", nameOf[Req]())
	}
	key := reflect.TypeFor[Req]()
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.handlers[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, nameOf[Req]())
	}
	b.handlers[key] = h
	return nil
}

// RegisterFunc registra una función (típicamente un method value de un manager).
func RegisterFunc[Req any, Res result.Response](b *Bus, f func(ctx context.Context, req Req) Res) error {
	if f == nil {
		return fmt.Errorf("mediator: nil handler for %s", nameOf[Req]())
	}
	return Register[Req, Res](b, HandlerFunc[Req, Res](f))
}

// MustRegister es para el wiring de arranque.
func MustRegister[Req any, Res result.Response](b *Bus, h Handler[Req, Res]) {
	if err := Register(b, h); err != nil {
		panic(err)
	}
}

// Resolve devuelve el handler de Req envuelto en el pipeline.
func Resolve[Req any, Res result.Response](b *Bus) (Handler[Req, Res], error) {
	b.mu.RLock()
	raw, ok := b.handlers[reflect.TypeFor[Req]()]
	behaviors := b.behaviors
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, nameOf[Req]())
	}
	h, ok := raw.(Handler[Req, Res])
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTypeMismatch, nameOf[Req]())
	}
	return &pipeline[Req, Res]{name: nameOf[Req](), inner: h, behaviors: behaviors}, nil
}

// MustResolve es para el wiring de controllers.
func MustResolve[Req any, Res result.Response](b *Bus) Handler[Req, Res] {
	h, err := Resolve[Req, Res](b)
	if err != nil {
		panic(err)
	}
	return h
}

// Send resuelve y despacha. Sin handler registrado el resultado es Unexpected.
func Send[Req any, Res result.Response](ctx context.Context, b *Bus, req Req) Res {
	h, err := Resolve[Req, Res](b)
	if err != nil {
		return result.Abort[Res](result.Wrap(err))
	}
	return h.Handle(ctx, req)
}

type pipeline[Req any, Res result.Response] struct {
	name      string
	inner     Handler[Req, Res]
	behaviors []Behavior
}

func (p *pipeline[Req, Res]) Handle(ctx context.Context, req Req) Res {
	next := func(ctx context.Context) result.Response { return p.invoke(ctx, req) }
	for i := len(p.behaviors) - 1; i >= 0; i-- {
		b, n := p.behaviors[i], next
		next = func(ctx context.Context) result.Response { return b(ctx, p.name, n) }
	}
	out := next(ctx)
	if r, ok := out.(Res); ok {
		return r
	}
	// un behavior cortó con otra forma de Response
	e := out.Err()
	if e == nil {
		e = result.Wrap(fmt.Errorf("mediator: behavior returned %T for %s", out, p.name))
	}
	return result.Abort[Res](e)
}

// invoke aplica el gate de cancelación y recupera panics del handler.
func (p *pipeline[Req, Res]) invoke(ctx context.Context, req Req) (out result.Response) {
	if err := ctx.Err(); err != nil {
		return result.Abort[Res](result.CancelledErr(err))
	}
	defer func() {
		if rec := recover(); rec != nil {
			logger.From(ctx).Error("panic in handler",
				logger.RequestName(p.name),
				logger.Any("panic", rec),
				logger.String("stack", string(debug.Stack())),
			)
			out = result.Abort[Res](result.Wrap(fmt.Errorf("panic: %v", rec)))
		}
	}()
	return p.inner.Handle(ctx, req)
}

func nameOf[T any]() string {
	t := reflect.TypeFor[T]()
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
