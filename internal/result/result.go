// Package result define el contrato de retorno de toda operación de negocio:
// éxito (con o sin payload) o fallo clasificado por Kind.
//
// Los managers nunca devuelven error "crudo" para condiciones esperadas; la
// capa HTTP traduce el Kind a status sin reinterpretar el significado.
package result

import (
	"context"
	"errors"
	"fmt"
)

// Kind clasifica un fallo.
type Kind int

const (
	None Kind = iota
	Validation
	Invalid
	NotFound
	Conflict
	Unauthorized
	Cancelled
	Unexpected
)

var kindNames = [...]string{
	None:         "none",
	Validation:   "validation",
	Invalid:      "invalid",
	NotFound:     "not_found",
	Conflict:     "conflict",
	Unauthorized: "unauthorized",
	Cancelled:    "cancelled",
	Unexpected:   "unexpected",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Error es el fallo tipado que transportan Result y Of.
type Error struct {
	Kind    Kind
	Message string
	// Err es la causa interna: va a logs, nunca al wire.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newf(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...any) *Error   { return newf(Validation, format, args...) }
func Invalidf(format string, args ...any) *Error      { return newf(Invalid, format, args...) }
func NotFoundf(format string, args ...any) *Error     { return newf(NotFound, format, args...) }
func Conflictf(format string, args ...any) *Error     { return newf(Conflict, format, args...) }
func Unauthorizedf(format string, args ...any) *Error { return newf(Unauthorized, format, args...) }

// Wrap clasifica una falla de infraestructura como Unexpected, salvo que la
// causa sea una cancelación del contexto (Cancelled).
func Wrap(err error) *Error {
	if IsContextErr(err) {
		return CancelledErr(err)
	}
	return &Error{Kind: Unexpected, Message: "unexpected error", Err: err}
}

// CancelledErr construye el fallo de una operación abortada por su contexto.
func CancelledErr(err error) *Error {
	return &Error{Kind: Cancelled, Message: "operation cancelled", Err: err}
}

// IsContextErr reporta si err proviene de un context cancelado o vencido.
func IsContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// KindOf retorna el Kind de err, None si err es nil y Unexpected si no es *Error.
func KindOf(err error) Kind {
	if err == nil {
		return None
	}
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return Unexpected
}

// Response es la forma común de Result y Of[T].
type Response interface {
	IsSuccess() bool
	Err() *Error
}

type failable interface{ setErr(*Error) }

// Abort construye un fallo para cualquier forma de Response. Lo usa el
// dispatcher cuando corta la ejecución antes del handler.
func Abort[R Response](e *Error) R {
	var r R
	if f, ok := any(&r).(failable); ok {
		f.setErr(e)
	}
	return r
}

// Result es un resultado sin payload.
type Result struct {
	err *Error
}

func Success() Result             { return Result{} }
func Failure(e *Error) Result     { return Result{err: e} }
func (r Result) IsSuccess() bool  { return r.err == nil }
func (r Result) Err() *Error      { return r.err }
func (r *Result) setErr(e *Error) { r.err = e }

// Of es un resultado con payload de tipo T.
type Of[T any] struct {
	value T
	err   *Error
}

func Ok[T any](v T) Of[T]        { return Of[T]{value: v} }
func Fail[T any](e *Error) Of[T] { return Of[T]{err: e} }
func (r Of[T]) IsSuccess() bool  { return r.err == nil }
func (r Of[T]) Err() *Error      { return r.err }
func (r *Of[T]) setErr(e *Error) { r.err = e }

// Value retorna el payload; en un fallo es el zero value.
func (r Of[T]) Value() T { return r.value }

// Drop descarta el payload.
func (r Of[T]) Drop() Result { return Result{err: r.err} }
