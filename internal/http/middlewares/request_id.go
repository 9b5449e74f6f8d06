package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type ctxKey string

const ctxRequestIDKey ctxKey = "request_id"

// HeaderRequestID es el header de correlación que se propaga y se expone.
const HeaderRequestID = "X-Request-ID"

// WithRequestID genera o propaga un Request ID único para cada request.
// Si el cliente envía X-Request-ID (hasta 128 chars), lo usa.
func WithRequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := strings.TrimSpace(r.Header.Get(HeaderRequestID))
			if rid == "" || len(rid) > 128 {
				rid = uuid.NewString()
			}
			w.Header().Set(HeaderRequestID, rid)
			ctx := context.WithValue(r.Context(), ctxRequestIDKey, rid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestID obtiene el request ID del contexto; vacío si no hay.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxRequestIDKey).(string); ok {
		return v
	}
	return ""
}
