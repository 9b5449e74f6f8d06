// Package helpers junta utilidades chicas de request/response JSON.
package helpers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	httperrors "github.com/TransactionProcessing/SecurityService-sub001/internal/http/errors"
)

// MaxBody es el límite por defecto del body JSON.
const MaxBody int64 = 64 << 10

// ReadJSON decodifica JSON de forma tolerante (no falla por campos desconocidos).
// Valida Content-Type y limita el body a MaxBody.
// Devuelve false si ya escribió error HTTP.
func ReadJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if !strings.Contains(ct, "application/json") {
		httperrors.WriteError(w, httperrors.ErrUnsupportedMediaType)
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBody)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			httperrors.WriteError(w, httperrors.ErrBodyTooLarge)
		case errors.Is(err, io.EOF):
			httperrors.WriteError(w, httperrors.ErrInvalidJSON.WithDetail("empty body"))
		default:
			httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		}
		return false
	}
	return true
}

// WriteJSON escribe una respuesta JSON estándar.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}
