// Package dto define los contratos JSON del API admin y el mapeo puro entre
// esos contratos, los commands del manager y las entidades del repositorio.
package dto

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/manager"
)

// ─── Clients ───

type CreateClientRequest struct {
	ClientID               string   `json:"client_id"`
	Secret                 string   `json:"secret"`
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

func (r CreateClientRequest) Command() manager.CreateClientCommand {
	return manager.CreateClientCommand{
		ClientID:               r.ClientID,
		Secret:                 r.Secret,
		Name:                   r.ClientName,
		Description:            r.ClientDescription,
		ClientURI:              r.ClientURI,
		AllowedScopes:          r.AllowedScopes,
		AllowedGrantTypes:      r.AllowedGrantTypes,
		RedirectURIs:           r.RedirectURIs,
		PostLogoutRedirectURIs: r.PostLogoutRedirectURIs,
		RequireConsent:         r.RequireConsent,
		AllowOfflineAccess:     r.AllowOfflineAccess,
	}
}

type CreateClientResponse struct {
	ClientID string `json:"client_id"`
}

// ─── Resources ───

type CreateApiResourceRequest struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Description string   `json:"description"`
	Secret      string   `json:"secret"`
	Scopes      []string `json:"scopes"`
	UserClaims  []string `json:"user_claims"`
}

func (r CreateApiResourceRequest) Command() manager.CreateApiResourceCommand {
	return manager.CreateApiResourceCommand{
		Name:        r.Name,
		DisplayName: r.DisplayName,
		Description: r.Description,
		Secret:      r.Secret,
		Scopes:      r.Scopes,
		UserClaims:  r.UserClaims,
	}
}

type CreateApiResourceResponse struct {
	ApiResourceName string `json:"api_resource_name"`
}

type CreateApiScopeRequest struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
}

func (r CreateApiScopeRequest) Command() manager.CreateApiScopeCommand {
	return manager.CreateApiScopeCommand{Name: r.Name, DisplayName: r.DisplayName, Description: r.Description}
}

type CreateApiScopeResponse struct {
	ApiScopeName string `json:"api_scope_name"`
}

type CreateIdentityResourceRequest struct {
	Name                    string   `json:"name"`
	DisplayName             string   `json:"display_name"`
	Description             string   `json:"description"`
	Required                bool     `json:"required"`
	Emphasize               bool     `json:"emphasize"`
	ShowInDiscoveryDocument bool     `json:"show_in_discovery_document"`
	Claims                  []string `json:"claims"`
}

func (r CreateIdentityResourceRequest) Command() manager.CreateIdentityResourceCommand {
	return manager.CreateIdentityResourceCommand{
		Name:                    r.Name,
		DisplayName:             r.DisplayName,
		Description:             r.Description,
		Required:                r.Required,
		Emphasize:               r.Emphasize,
		ShowInDiscoveryDocument: r.ShowInDiscoveryDocument,
		Claims:                  r.Claims,
	}
}

type CreateIdentityResourceResponse struct {
	IdentityResourceName string `json:"identity_resource_name"`
}

// ─── Roles & Users ───

type CreateRoleRequest struct {
	RoleID   string `json:"role_id"`
	RoleName string `json:"role_name"`
}

// Command parsea el role_id. Vacío queda como uuid.Nil y lo rechaza el manager.
func (r CreateRoleRequest) Command() (manager.CreateRoleCommand, error) {
	id, err := ParseID("role_id", r.RoleID)
	if err != nil {
		return manager.CreateRoleCommand{}, err
	}
	return manager.CreateRoleCommand{RoleID: id, Name: r.RoleName}, nil
}

type CreateRoleResponse struct {
	RoleID string `json:"role_id"`
}

type CreateUserRequest struct {
	UserID       string            `json:"user_id"`
	GivenName    string            `json:"given_name"`
	MiddleName   string            `json:"middle_name"`
	FamilyName   string            `json:"family_name"`
	EmailAddress string            `json:"email_address"`
	Password     string            `json:"password"`
	PhoneNumber  string            `json:"phone_number"`
	Claims       map[string]string `json:"claims"`
	Roles        []string          `json:"roles"`
}

func (r CreateUserRequest) Command() (manager.CreateUserCommand, error) {
	id, err := ParseID("user_id", r.UserID)
	if err != nil {
		return manager.CreateUserCommand{}, err
	}
	return manager.CreateUserCommand{
		UserID:       id,
		GivenName:    r.GivenName,
		MiddleName:   r.MiddleName,
		FamilyName:   r.FamilyName,
		EmailAddress: r.EmailAddress,
		Password:     r.Password,
		PhoneNumber:  r.PhoneNumber,
		Claims:       r.Claims,
		Roles:        r.Roles,
	}, nil
}

type CreateUserResponse struct {
	UserID string `json:"user_id"`
}

// ParseID acepta vacío (uuid.Nil) y rechaza GUIDs malformados.
func ParseID(field, s string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s must be a GUID", field)
	}
	return id, nil
}

// ─── Account ───

type ChangeUserPasswordRequest struct {
	UserName        string `json:"user_name"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ClientID        string `json:"client_id"`
}

func (r ChangeUserPasswordRequest) Command() manager.ChangeUserPasswordCommand {
	return manager.ChangeUserPasswordCommand{
		UserName:        r.UserName,
		CurrentPassword: r.CurrentPassword,
		NewPassword:     r.NewPassword,
		ClientID:        r.ClientID,
	}
}

type ConfirmEmailRequest struct {
	UserName          string `json:"user_name"`
	ConfirmEmailToken string `json:"confirm_email_token"`
}

func (r ConfirmEmailRequest) Command() manager.ConfirmUserEmailAddressCommand {
	return manager.ConfirmUserEmailAddressCommand{UserName: r.UserName, ConfirmEmailToken: r.ConfirmEmailToken}
}

type PasswordResetRequest struct {
	UserName     string `json:"user_name"`
	EmailAddress string `json:"email_address"`
	ClientID     string `json:"client_id"`
}

func (r PasswordResetRequest) Command() manager.ProcessPasswordResetRequestCommand {
	return manager.ProcessPasswordResetRequestCommand{
		UserName:     r.UserName,
		EmailAddress: r.EmailAddress,
		ClientID:     r.ClientID,
	}
}

type PasswordResetConfirmRequest struct {
	UserName    string `json:"user_name"`
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
	ClientID    string `json:"client_id"`
}

func (r PasswordResetConfirmRequest) Command() manager.ProcessPasswordResetConfirmationCommand {
	return manager.ProcessPasswordResetConfirmationCommand{
		UserName:    r.UserName,
		Token:       r.Token,
		NewPassword: r.NewPassword,
		ClientID:    r.ClientID,
	}
}

type SendWelcomeEmailRequest struct {
	UserName string `json:"user_name"`
}

func (r SendWelcomeEmailRequest) Command() manager.SendWelcomeEmailCommand {
	return manager.SendWelcomeEmailCommand{UserName: r.UserName}
}

// RedirectResponse es la respuesta de los flujos que terminan en redirección.
type RedirectResponse struct {
	RedirectURI string `json:"redirect_uri"`
}
