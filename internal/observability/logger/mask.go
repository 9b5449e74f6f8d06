package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Recipient registra un destinatario de email enmascarado.
func Recipient(v string) zap.Field { return zap.String("to", MaskEmail(v)) }

// MaskEmail deja la primera letra del usuario y del dominio:
// "estateuser@testestate1.co.uk" -> "e…@t….co.uk".
func MaskEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	user, dom, ok := strings.Cut(s, "@")
	if !ok || user == "" {
		switch {
		case s == "":
			return ""
		case len(s) <= 3:
			return "***"
		}
		return s[:1] + "…" + s[len(s)-1:]
	}
	if len(user) > 1 {
		user = user[:1] + "…"
	}
	parts := strings.Split(dom, ".")
	if len(parts[0]) > 1 {
		parts[0] = parts[0][:1] + "…"
	}
	return user + "@" + strings.Join(parts, ".")
}
