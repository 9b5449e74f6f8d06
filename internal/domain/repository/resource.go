package repository

import (
	"context"
	"time"
)

// ApiResource es una API protegida; sus scopes se referencian por nombre.
type ApiResource struct {
	Name        string
	DisplayName string
	Description string
	SecretHash  string
	Scopes      []string
	UserClaims  []string
	CreatedAt   time.Time
}

// ApiScope es un permiso que un client puede pedir.
type ApiScope struct {
	Name        string
	DisplayName string
	Description string
	CreatedAt   time.Time
}

// IdentityResource agrupa claims de identidad (openid, profile, email...).
type IdentityResource struct {
	Name                    string
	DisplayName             string
	Description             string
	Required                bool
	Emphasize               bool
	ShowInDiscoveryDocument bool
	Claims                  []string
	CreatedAt               time.Time
}

type ApiResourceRepository interface {
	Create(ctx context.Context, r ApiResource) error
	Get(ctx context.Context, name string) (*ApiResource, error)
	List(ctx context.Context) ([]ApiResource, error)
}

type ApiScopeRepository interface {
	Create(ctx context.Context, s ApiScope) error
	Get(ctx context.Context, name string) (*ApiScope, error)
	List(ctx context.Context) ([]ApiScope, error)
}

type IdentityResourceRepository interface {
	Create(ctx context.Context, r IdentityResource) error
	Get(ctx context.Context, name string) (*IdentityResource, error)
	List(ctx context.Context) ([]IdentityResource, error)
}
