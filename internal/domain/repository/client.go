package repository

import (
	"context"
	"time"
)

// Grant types conocidos.
const (
	GrantClientCredentials = "client_credentials"
	GrantAuthorizationCode = "authorization_code"
	GrantHybrid            = "hybrid"
	GrantImplicit          = "implicit"
	GrantPassword          = "password"
	GrantRefreshToken      = "refresh_token"
	GrantDeviceCode        = "urn:ietf:params:oauth:grant-type:device_code"
)

// KnownGrantTypes es el set aceptado en AllowedGrantTypes.
var KnownGrantTypes = map[string]struct{}{
	GrantClientCredentials: {},
	GrantAuthorizationCode: {},
	GrantHybrid:            {},
	GrantImplicit:          {},
	GrantPassword:          {},
	GrantRefreshToken:      {},
	GrantDeviceCode:        {},
}

// IsInteractiveGrant reporta si el grant pasa por el navegador (requiere redirect URIs).
func IsInteractiveGrant(g string) bool {
	switch g {
	case GrantAuthorizationCode, GrantHybrid, GrantImplicit:
		return true
	}
	return false
}

// Client representa un cliente OAuth/OIDC registrado.
type Client struct {
	ClientID               string
	Name                   string
	Description            string
	SecretHash             string // bcrypt, nunca el secret plano
	ClientURI              string
	AllowedScopes          []string
	AllowedGrantTypes      []string
	RedirectURIs           []string
	PostLogoutRedirectURIs []string
	RequireConsent         bool
	AllowOfflineAccess     bool
	CreatedAt              time.Time
}

// ClientRepository persiste clients.
type ClientRepository interface {
	// Create retorna ErrConflict si el client_id ya existe.
	Create(ctx context.Context, c Client) error
	// Get retorna ErrNotFound si no existe.
	Get(ctx context.Context, clientID string) (*Client, error)
	// List ordena por client_id.
	List(ctx context.Context) ([]Client, error)
}
