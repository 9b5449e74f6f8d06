// Package manager contiene los entity managers del servicio (clients, api
// resources, api scopes, identity resources, roles, users) y las operaciones
// de ciclo de vida de cuenta. Son stateless: cada operación valida, escribe en
// el store y devuelve un result.Result / result.Of[T]; nunca hacen panic por
// condiciones de negocio.
package manager

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/domain/repository"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/result"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/store"
)

// Store es lo que necesitan los managers: repositorios + transacciones.
// store.AdapterConnection lo satisface.
type Store interface {
	store.Repositories
	WithinTx(ctx context.Context, fn store.TxFunc) error
}

// fromStore traduce un error de repositorio a la taxonomía de resultados.
func fromStore(err error, format string, args ...any) *result.Error {
	msg := fmt.Sprintf(format, args...)
	switch {
	case result.IsContextErr(err):
		return result.CancelledErr(err)
	case errors.Is(err, repository.ErrNotFound):
		return &result.Error{Kind: result.NotFound, Message: msg, Err: err}
	case errors.Is(err, repository.ErrConflict):
		return &result.Error{Kind: result.Conflict, Message: msg, Err: err}
	case errors.Is(err, repository.ErrInvalidInput):
		return &result.Error{Kind: result.Validation, Message: msg, Err: err}
	}
	return result.Wrap(err)
}

// fromCreate elige el mensaje de un alta fallida según el tipo de error.
func fromCreate(err error, what, name string) *result.Error {
	switch {
	case repository.IsConflict(err):
		return fromStore(err, "%s %s already exists", what, name)
	case repository.IsNotFound(err):
		return fromStore(err, "%s %s references a missing entity", what, name)
	case errors.Is(err, repository.ErrInvalidInput):
		return fromStore(err, "%s %s is invalid", what, name)
	}
	return fromStore(err, "create %s %s", what, name)
}

// set limpia una colección de entrada: trim, sin vacíos, sin duplicados,
// orden de llegada. Nunca devuelve nil.
func set(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

// absoluteURIs devuelve la primera URI que no es absoluta (scheme + host).
func absoluteURIs(uris []string) (bad string, ok bool) {
	for _, u := range uris {
		p, err := url.Parse(u)
		if err != nil || p.Scheme == "" || p.Host == "" {
			return u, false
		}
	}
	return "", true
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
