package manager

import (
	"context"
	"strings"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/domain/repository"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/observability/logger"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/result"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/security/secret"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/store"
)

// standardScopes son los scopes de identidad que deben existir como
// IdentityResource antes de que un client los pueda pedir.
var standardScopes = map[string]struct{}{
	"openid":  {},
	"profile": {},
	"email":   {},
	"address": {},
	"phone":   {},
}

type ClientManager struct {
	repos   store.Repositories
	secrets secret.Hasher
}

func NewClientManager(repos store.Repositories, secrets secret.Hasher) *ClientManager {
	return &ClientManager{repos: repos, secrets: secrets}
}

const componentClients = "manager.clients"

// Create registra un client y devuelve su ClientID.
func (m *ClientManager) Create(ctx context.Context, cmd CreateClientCommand) result.Of[string] {
	log := logger.From(ctx).With(
		logger.Layer("manager"),
		logger.Component(componentClients),
		logger.Op("Create"),
		logger.ClientID(cmd.ClientID),
	)

	c := repository.Client{
		ClientID:               strings.TrimSpace(cmd.ClientID),
		Name:                   strings.TrimSpace(cmd.Name),
		Description:            cmd.Description,
		ClientURI:              strings.TrimSpace(cmd.ClientURI),
		AllowedScopes:          set(cmd.AllowedScopes),
		AllowedGrantTypes:      set(cmd.AllowedGrantTypes),
		RedirectURIs:           set(cmd.RedirectURIs),
		PostLogoutRedirectURIs: set(cmd.PostLogoutRedirectURIs),
		RequireConsent:         cmd.RequireConsent,
		AllowOfflineAccess:     cmd.AllowOfflineAccess,
	}
	if e := m.validate(ctx, c); e != nil {
		log.Debug("client rejected", logger.String("reason", e.Message))
		return result.Fail[string](e)
	}

	if cmd.Secret != "" {
		h, err := m.secrets.Hash(cmd.Secret)
		if err != nil {
			log.Error("secret hash failed", logger.Err(err))
			return result.Fail[string](result.Wrap(err))
		}
		c.SecretHash = h
	}

	if err := m.repos.Clients().Create(ctx, c); err != nil {
		e := fromCreate(err, "client", c.ClientID)
		if e.Kind == result.Unexpected {
			log.Error("failed to create client", logger.Err(err))
		}
		return result.Fail[string](e)
	}
	log.Info("client created")
	return result.Ok(c.ClientID)
}

func (m *ClientManager) validate(ctx context.Context, c repository.Client) *result.Error {
	if c.ClientID == "" {
		return result.Validationf("client_id is required")
	}
	if c.Name == "" {
		return result.Validationf("client_name is required")
	}
	interactive := false
	for _, g := range c.AllowedGrantTypes {
		if _, ok := repository.KnownGrantTypes[g]; !ok {
			return result.Validationf("unknown grant type %q", g)
		}
		interactive = interactive || repository.IsInteractiveGrant(g)
	}
	if interactive && len(c.RedirectURIs) == 0 {
		return result.Validationf("interactive grant types require at least one redirect uri")
	}
	uris := append(append([]string{}, c.RedirectURIs...), c.PostLogoutRedirectURIs...)
	if c.ClientURI != "" {
		uris = append(uris, c.ClientURI)
	}
	if bad, ok := absoluteURIs(uris); !ok {
		return result.Validationf("uri %q must be absolute", bad)
	}
	for _, s := range c.AllowedScopes {
		if _, std := standardScopes[s]; !std {
			continue
		}
		if _, err := m.repos.IdentityResources().Get(ctx, s); err != nil {
			if repository.IsNotFound(err) {
				return result.Validationf("identity resource %q is not registered", s)
			}
			return fromStore(err, "identity resource %s", s)
		}
	}
	return nil
}

func (m *ClientManager) Get(ctx context.Context, q GetClientQuery) result.Of[repository.Client] {
	if blank(q.ClientID) {
		return result.Fail[repository.Client](result.Validationf("client_id is required"))
	}
	c, err := m.repos.Clients().Get(ctx, q.ClientID)
	if err != nil {
		return result.Fail[repository.Client](fromStore(err, "client %s not found", q.ClientID))
	}
	return result.Ok(*c)
}

// GetAll devuelve lista vacía (no error) si no hay clients.
func (m *ClientManager) GetAll(ctx context.Context, _ GetClientsQuery) result.Of[[]repository.Client] {
	list, err := m.repos.Clients().List(ctx)
	if err != nil {
		logger.From(ctx).Error("failed to list clients", logger.Component(componentClients), logger.Err(err))
		return result.Fail[[]repository.Client](fromStore(err, "list clients"))
	}
	if list == nil {
		list = []repository.Client{}
	}
	return result.Ok(list)
}
