package manager

import "github.com/google/uuid"

// Commands y queries que despacha el mediator. Un tipo = un handler.

type CreateClientCommand struct {
	ClientID               string
	Secret                 string
	Name                   string
	Description            string
	ClientURI              string
	AllowedScopes          []string
	AllowedGrantTypes      []string
	RedirectURIs           []string
	PostLogoutRedirectURIs []string
	RequireConsent         bool
	AllowOfflineAccess     bool
}

type GetClientQuery struct{ ClientID string }

type GetClientsQuery struct{}

type CreateApiResourceCommand struct {
	Name        string
	DisplayName string
	Description string
	Secret      string
	Scopes      []string
	UserClaims  []string
}

type GetApiResourceQuery struct{ Name string }

type GetApiResourcesQuery struct{}

type CreateApiScopeCommand struct {
	Name        string
	DisplayName string
	Description string
}

type GetApiScopeQuery struct{ Name string }

type GetApiScopesQuery struct{}

type CreateIdentityResourceCommand struct {
	Name                    string
	DisplayName             string
	Description             string
	Required                bool
	Emphasize               bool
	ShowInDiscoveryDocument bool
	Claims                  []string
}

type GetIdentityResourceQuery struct{ Name string }

type GetIdentityResourcesQuery struct{}

// CreateRoleCommand: el RoleID lo asigna quien llama (reintentos idempotentes
// reusando el mismo id).
type CreateRoleCommand struct {
	RoleID uuid.UUID
	Name   string
}

type GetRoleQuery struct{ RoleID uuid.UUID }

type GetRolesQuery struct{}

// CreateUserCommand: UserID asignado por quien llama; EmailAddress es el user name.
type CreateUserCommand struct {
	UserID       uuid.UUID
	GivenName    string
	MiddleName   string
	FamilyName   string
	EmailAddress string
	Password     string
	PhoneNumber  string
	Claims       map[string]string
	Roles        []string
}

type GetUserQuery struct{ UserID uuid.UUID }

// GetUsersQuery filtra por user name (contiene, sin distinguir mayúsculas).
type GetUsersQuery struct{ UserName string }

type ChangeUserPasswordCommand struct {
	UserName        string
	CurrentPassword string
	NewPassword     string
	ClientID        string
}

type ChangePasswordResult struct {
	RedirectURI string
}

type ConfirmUserEmailAddressCommand struct {
	UserName          string
	ConfirmEmailToken string
}

type ProcessPasswordResetRequestCommand struct {
	UserName     string
	EmailAddress string
	ClientID     string
}

type ProcessPasswordResetConfirmationCommand struct {
	UserName    string
	Token       string
	NewPassword string
	ClientID    string
}

type SendWelcomeEmailCommand struct {
	UserName string
}
