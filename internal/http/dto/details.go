package dto

import (
	"github.com/TransactionProcessing/SecurityService-sub001/internal/domain/repository"
)

// Las colecciones de salida nunca son null: nil se emite como [] o {}.

type ClientDetails struct {
	ClientID               string   `json:"client_id"`
	ClientName             string   `json:"client_name"`
	ClientDescription      string   `json:"client_description"`
	ClientURI              string   `json:"client_uri"`
	AllowedScopes          []string `json:"allowed_scopes"`
	AllowedGrantTypes      []string `json:"allowed_grant_types"`
	RedirectURIs           []string `json:"client_redirect_uris"`
	PostLogoutRedirectURIs []string `json:"client_post_logout_redirect_uris"`
	RequireConsent         bool     `json:"require_consent"`
	AllowOfflineAccess     bool     `json:"allow_offline_access"`
}

type ApiResourceDetails struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Description string   `json:"description"`
	Scopes      []string `json:"scopes"`
	UserClaims  []string `json:"user_claims"`
}

type ApiScopeDetails struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
}

type IdentityResourceDetails struct {
	Name                    string   `json:"name"`
	DisplayName             string   `json:"display_name"`
	Description             string   `json:"description"`
	Required                bool     `json:"required"`
	Emphasize               bool     `json:"emphasize"`
	ShowInDiscoveryDocument bool     `json:"show_in_discovery_document"`
	Claims                  []string `json:"claims"`
}

type RoleDetails struct {
	RoleID   string `json:"role_id"`
	RoleName string `json:"role_name"`
}

type UserDetails struct {
	UserID         string            `json:"user_id"`
	UserName       string            `json:"user_name"`
	EmailAddress   string            `json:"email_address"`
	PhoneNumber    string            `json:"phone_number"`
	EmailConfirmed bool              `json:"email_confirmed"`
	GivenName      string            `json:"given_name"`
	MiddleName     string            `json:"middle_name"`
	FamilyName     string            `json:"family_name"`
	Claims         map[string]string `json:"claims"`
	Roles          []string          `json:"roles"`
}

func ToClientDetails(c repository.Client) ClientDetails {
	return ClientDetails{
		ClientID:               c.ClientID,
		ClientName:             c.Name,
		ClientDescription:      c.Description,
		ClientURI:              c.ClientURI,
		AllowedScopes:          list(c.AllowedScopes),
		AllowedGrantTypes:      list(c.AllowedGrantTypes),
		RedirectURIs:           list(c.RedirectURIs),
		PostLogoutRedirectURIs: list(c.PostLogoutRedirectURIs),
		RequireConsent:         c.RequireConsent,
		AllowOfflineAccess:     c.AllowOfflineAccess,
	}
}

func ToApiResourceDetails(r repository.ApiResource) ApiResourceDetails {
	return ApiResourceDetails{
		Name:        r.Name,
		DisplayName: r.DisplayName,
		Description: r.Description,
		Scopes:      list(r.Scopes),
		UserClaims:  list(r.UserClaims),
	}
}

func ToApiScopeDetails(s repository.ApiScope) ApiScopeDetails {
	return ApiScopeDetails{Name: s.Name, DisplayName: s.DisplayName, Description: s.Description}
}

func ToIdentityResourceDetails(r repository.IdentityResource) IdentityResourceDetails {
	return IdentityResourceDetails{
		Name:                    r.Name,
		DisplayName:             r.DisplayName,
		Description:             r.Description,
		Required:                r.Required,
		Emphasize:               r.Emphasize,
		ShowInDiscoveryDocument: r.ShowInDiscoveryDocument,
		Claims:                  list(r.Claims),
	}
}

func ToRoleDetails(r repository.Role) RoleDetails {
	return RoleDetails{RoleID: r.ID.String(), RoleName: r.Name}
}

// ToUserDetails nunca expone el hash de la contraseña.
func ToUserDetails(u repository.User) UserDetails {
	claims := make(map[string]string, len(u.Claims))
	for k, v := range u.Claims {
		claims[k] = v
	}
	return UserDetails{
		UserID:         u.ID.String(),
		UserName:       u.UserName,
		EmailAddress:   u.Email,
		PhoneNumber:    u.PhoneNumber,
		EmailConfirmed: u.EmailConfirmed,
		GivenName:      u.GivenName,
		MiddleName:     u.MiddleName,
		FamilyName:     u.FamilyName,
		Claims:         claims,
		Roles:          list(u.Roles),
	}
}

// Map aplica f a cada elemento; el resultado nunca es nil.
func Map[T, D any](in []T, f func(T) D) []D {
	out := make([]D, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}

func list(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// HealthResponse es la respuesta de /healthz y /readyz.
type HealthResponse struct {
	Status     string            `json:"status"`
	Version    string            `json:"version,omitempty"`
	Components map[string]string `json:"components,omitempty"`
}
