// Package secret hashea los secretos de clientes y API resources con bcrypt.
// El texto plano nunca se persiste.
package secret

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrEmptySecret = errors.New("secret: empty secret")

type Hasher struct {
	Cost int
}

func New(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return Hasher{Cost: cost}
}

func (h Hasher) Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptySecret
	}
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify es false para hashes vacíos o malformados.
func (h Hasher) Verify(plain, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
