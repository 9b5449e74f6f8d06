// Package secretbox cifra secretos de configuración (p. ej. la password SMTP)
// con AES-256-GCM. Formato: base64(nonce)|base64(ciphertext).
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// EnvKey es la variable de entorno con la clave maestra.
	EnvKey = "SECRETBOX_MASTER_KEY"

	keyLen   = 32 // AES-256
	nonceLen = 12
	sep      = "|"
)

var (
	ErrKeyLength = fmt.Errorf("secretbox: key must be %d bytes", keyLen)
	ErrFormat    = errors.New("secretbox: expected base64(nonce)|base64(ciphertext)")
)

// Box cifra y descifra con una clave fija.
type Box struct {
	aead cipher.AEAD
}

func New(key []byte) (*Box, error) {
	if len(key) != keyLen {
		return nil, ErrKeyLength
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("secretbox: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, nonceLen)
	if err != nil {
		return nil, fmt.Errorf("secretbox: %w", err)
	}
	return &Box{aead: aead}, nil
}

// ParseKey acepta la clave en base64 (con o sin padding), hex de 64 chars o
// 32 bytes crudos, en ese orden.
func ParseKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if b, err := base64.StdEncoding.DecodeString(s); err == nil && len(b) == keyLen {
		return b, nil
	}
	if b, err := base64.RawStdEncoding.DecodeString(s); err == nil && len(b) == keyLen {
		return b, nil
	}
	if len(s) == 2*keyLen {
		if b, err := hex.DecodeString(s); err == nil {
			return b, nil
		}
	}
	if len(s) == keyLen {
		return []byte(s), nil
	}
	return nil, ErrKeyLength
}

// FromString es ParseKey + New.
func FromString(key string) (*Box, error) {
	k, err := ParseKey(key)
	if err != nil {
		return nil, err
	}
	return New(k)
}

func (b *Box) Seal(plain string) (string, error) {
	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("secretbox: nonce: %w", err)
	}
	ct := b.aead.Seal(nil, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(nonce) + sep + base64.StdEncoding.EncodeToString(ct), nil
}

func (b *Box) Open(sealed string) (string, error) {
	n, c, ok := strings.Cut(strings.TrimSpace(sealed), sep)
	if !ok {
		return "", ErrFormat
	}
	nonce, err := base64.StdEncoding.DecodeString(n)
	if err != nil || len(nonce) != nonceLen {
		return "", ErrFormat
	}
	ct, err := base64.StdEncoding.DecodeString(c)
	if err != nil {
		return "", ErrFormat
	}
	pt, err := b.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("secretbox: decrypt: %w", err)
	}
	return string(pt), nil
}
