// Package tokens emite y valida los tokens de flujo de cuenta (confirmación
// de email y reset de password): JWT HS256 con propósito y stamp.
package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

type Purpose string

const (
	PurposeConfirmEmail  Purpose = "confirm_email"
	PurposePasswordReset Purpose = "password_reset"
)

var (
	ErrInvalidToken = errors.New("invalid_token")
	ErrExpired      = errors.New("token_expired")
	ErrWrongPurpose = errors.New("token_wrong_purpose")
	ErrStaleStamp   = errors.New("token_stale")
)

// Claims del token de flujo. Stamp ata el token al estado del usuario
// (hash de password o email) y lo invalida cuando ese estado cambia.
type Claims struct {
	Purpose Purpose `json:"purpose"`
	Stamp   string  `json:"stamp"`
	jwtv5.RegisteredClaims
}

type Issuer struct {
	Iss string
	key []byte
	now func() time.Time
}

// NewIssuer exige key no vacía; usar RandomKey en dev.
func NewIssuer(iss string, key []byte) (*Issuer, error) {
	if len(key) == 0 {
		return nil, errors.New("tokens: empty signing key")
	}
	return &Issuer{Iss: iss, key: key, now: time.Now}, nil
}

// WithClock reemplaza el reloj (tests).
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	cp := *i
	cp.now = now
	return &cp
}

// Issue firma un token para sub con el propósito, stamp y TTL dados.
func (i *Issuer) Issue(sub string, purpose Purpose, stamp string, ttl time.Duration) (string, time.Time, error) {
	now := i.now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		Purpose: purpose,
		Stamp:   stamp,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    i.Iss,
			Subject:   sub,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(exp),
		},
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	signed, err := tk.SignedString(i.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse valida firma, issuer, expiración y propósito. El stamp se compara
// aparte con Check porque depende del estado actual del usuario.
func (i *Issuer) Parse(token string, purpose Purpose) (*Claims, error) {
	var c Claims
	_, err := jwtv5.ParseWithClaims(token, &c, func(*jwtv5.Token) (any, error) { return i.key, nil },
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithIssuer(i.Iss),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithTimeFunc(i.now),
	)
	switch {
	case errors.Is(err, jwtv5.ErrTokenExpired):
		return nil, ErrExpired
	case err != nil:
		return nil, ErrInvalidToken
	}
	if c.Purpose != purpose {
		return nil, ErrWrongPurpose
	}
	if c.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &c, nil
}

// Check compara el stamp del token con el actual.
func (c *Claims) Check(currentStamp string) error {
	if c.Stamp != currentStamp {
		return ErrStaleStamp
	}
	return nil
}

// Stamp deriva un stamp opaco de un valor de estado (hash de password, email).
func Stamp(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))[:22]
}

// RandomKey genera una clave HS256 efímera.
func RandomKey() ([]byte, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("tokens: random key: %w", err)
	}
	return b, nil
}
