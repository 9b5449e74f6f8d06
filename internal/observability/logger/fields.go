package logger

import (
	"time"

	"go.uber.org/zap"
)

// ─── HTTP ───

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Route(v string) zap.Field     { return zap.String("route", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func Bytes(v int) zap.Field        { return zap.Int("bytes", v) }
func ClientIP(v string) zap.Field  { return zap.String("client_ip", v) }

// DurationMs registra la duración en milisegundos.
func DurationMs(d time.Duration) zap.Field { return zap.Int64("duration_ms", d.Milliseconds()) }

// ─── Dominio ───

// ClientID es el client_id OAuth (nunca el secret).
func ClientID(v string) zap.Field     { return zap.String("client_id", v) }
func UserID(v string) zap.Field       { return zap.String("user_id", v) }
func UserName(v string) zap.Field     { return zap.String("user_name", v) }
func RoleID(v string) zap.Field       { return zap.String("role_id", v) }
func RoleName(v string) zap.Field     { return zap.String("role_name", v) }
func ResourceName(v string) zap.Field { return zap.String("resource_name", v) }
func ScopeName(v string) zap.Field    { return zap.String("scope_name", v) }

// RequestName identifica el comando/query despachado (ej: "manager.CreateClient").
func RequestName(v string) zap.Field { return zap.String("request", v) }

// Kind es la clasificación del resultado (not_found, conflict, ...).
func Kind(v string) zap.Field { return zap.String("kind", v) }

// ─── Sistema ───

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }

// Layer: handler, dispatcher, manager, store.
func Layer(v string) zap.Field { return zap.String("layer", v) }
func Err(err error) zap.Field  { return zap.Error(err) }
func Count(v int) zap.Field    { return zap.Int("count", v) }

func String(key, v string) zap.Field   { return zap.String(key, v) }
func Int(key string, v int) zap.Field   { return zap.Int(key, v) }
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
func Any(key string, v any) zap.Field   { return zap.Any(key, v) }
