// Package errors define el contrato de errores HTTP: AppError, los errores
// predefinidos y la traducción desde result.Error.
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/result"
)

// errorResponse controla exactamente qué campos viajan al cliente.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// WriteError escribe la respuesta de error. Acepta *AppError o cualquier error.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	resp := errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(resp)
}

// FromResult traduce un fallo de negocio a AppError sin reinterpretarlo:
// el mensaje del manager viaja como detail. Unexpected nunca expone la causa.
func FromResult(e *result.Error) *AppError {
	if e == nil {
		return ErrInternalServerError
	}
	var base *AppError
	switch e.Kind {
	case result.Validation:
		base = ErrValidation
	case result.Invalid:
		base = ErrInvalid
	case result.NotFound:
		base = ErrNotFound
	case result.Conflict:
		base = ErrConflict
	case result.Unauthorized:
		base = ErrUnauthorized
	case result.Cancelled:
		return ErrCancelled.WithCause(e)
	default:
		return ErrInternalServerError.WithCause(e)
	}
	return base.WithDetail(e.Message).WithCause(e)
}
