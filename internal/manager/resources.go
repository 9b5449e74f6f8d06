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

// ─── ApiResource ───

type ApiResourceManager struct {
	repos   store.Repositories
	secrets secret.Hasher
}

func NewApiResourceManager(repos store.Repositories, secrets secret.Hasher) *ApiResourceManager {
	return &ApiResourceManager{repos: repos, secrets: secrets}
}

func (m *ApiResourceManager) Create(ctx context.Context, cmd CreateApiResourceCommand) result.Of[string] {
	log := logger.From(ctx).With(
		logger.Layer("manager"),
		logger.Component("manager.apiresources"),
		logger.Op("Create"),
		logger.ResourceName(cmd.Name),
	)
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return result.Fail[string](result.Validationf("name is required"))
	}
	if cmd.Secret == "" {
		return result.Fail[string](result.Validationf("secret is required"))
	}
	h, err := m.secrets.Hash(cmd.Secret)
	if err != nil {
		log.Error("secret hash failed", logger.Err(err))
		return result.Fail[string](result.Wrap(err))
	}

	r := repository.ApiResource{
		Name:        name,
		DisplayName: cmd.DisplayName,
		Description: cmd.Description,
		SecretHash:  h,
		Scopes:      set(cmd.Scopes),
		UserClaims:  set(cmd.UserClaims),
	}
	if err := m.repos.ApiResources().Create(ctx, r); err != nil {
		e := fromCreate(err, "api resource", name)
		if e.Kind == result.Unexpected {
			log.Error("failed to create api resource", logger.Err(err))
		}
		return result.Fail[string](e)
	}
	log.Info("api resource created")
	return result.Ok(name)
}

func (m *ApiResourceManager) Get(ctx context.Context, q GetApiResourceQuery) result.Of[repository.ApiResource] {
	if blank(q.Name) {
		return result.Fail[repository.ApiResource](result.Validationf("name is required"))
	}
	r, err := m.repos.ApiResources().Get(ctx, q.Name)
	if err != nil {
		return result.Fail[repository.ApiResource](fromStore(err, "api resource %s not found", q.Name))
	}
	return result.Ok(*r)
}

func (m *ApiResourceManager) GetAll(ctx context.Context, _ GetApiResourcesQuery) result.Of[[]repository.ApiResource] {
	list, err := m.repos.ApiResources().List(ctx)
	if err != nil {
		return result.Fail[[]repository.ApiResource](fromStore(err, "list api resources"))
	}
	if list == nil {
		list = []repository.ApiResource{}
	}
	return result.Ok(list)
}

// ─── ApiScope ───

type ApiScopeManager struct {
	repos store.Repositories
}

func NewApiScopeManager(repos store.Repositories) *ApiScopeManager {
	return &ApiScopeManager{repos: repos}
}

func (m *ApiScopeManager) Create(ctx context.Context, cmd CreateApiScopeCommand) result.Of[string] {
	log := logger.From(ctx).With(
		logger.Layer("manager"),
		logger.Component("manager.apiscopes"),
		logger.Op("Create"),
		logger.ScopeName(cmd.Name),
	)
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return result.Fail[string](result.Validationf("name is required"))
	}
	s := repository.ApiScope{Name: name, DisplayName: cmd.DisplayName, Description: cmd.Description}
	if err := m.repos.ApiScopes().Create(ctx, s); err != nil {
		e := fromCreate(err, "api scope", name)
		if e.Kind == result.Unexpected {
			log.Error("failed to create api scope", logger.Err(err))
		}
		return result.Fail[string](e)
	}
	log.Info("api scope created")
	return result.Ok(name)
}

func (m *ApiScopeManager) Get(ctx context.Context, q GetApiScopeQuery) result.Of[repository.ApiScope] {
	if blank(q.Name) {
		return result.Fail[repository.ApiScope](result.Validationf("name is required"))
	}
	s, err := m.repos.ApiScopes().Get(ctx, q.Name)
	if err != nil {
		return result.Fail[repository.ApiScope](fromStore(err, "api scope %s not found", q.Name))
	}
	return result.Ok(*s)
}

func (m *ApiScopeManager) GetAll(ctx context.Context, _ GetApiScopesQuery) result.Of[[]repository.ApiScope] {
	list, err := m.repos.ApiScopes().List(ctx)
	if err != nil {
		return result.Fail[[]repository.ApiScope](fromStore(err, "list api scopes"))
	}
	if list == nil {
		list = []repository.ApiScope{}
	}
	return result.Ok(list)
}

// ─── IdentityResource ───

type IdentityResourceManager struct {
	repos store.Repositories
}

func NewIdentityResourceManager(repos store.Repositories) *IdentityResourceManager {
	return &IdentityResourceManager{repos: repos}
}

func (m *IdentityResourceManager) Create(ctx context.Context, cmd CreateIdentityResourceCommand) result.Of[string] {
	log := logger.From(ctx).With(
		logger.Layer("manager"),
		logger.Component("manager.identityresources"),
		logger.Op("Create"),
		logger.ResourceName(cmd.Name),
	)
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return result.Fail[string](result.Validationf("name is required"))
	}
	r := repository.IdentityResource{
		Name:                    name,
		DisplayName:             cmd.DisplayName,
		Description:             cmd.Description,
		Required:                cmd.Required,
		Emphasize:               cmd.Emphasize,
		ShowInDiscoveryDocument: cmd.ShowInDiscoveryDocument,
		Claims:                  set(cmd.Claims),
	}
	if err := m.repos.IdentityResources().Create(ctx, r); err != nil {
		e := fromCreate(err, "identity resource", name)
		if e.Kind == result.Unexpected {
			log.Error("failed to create identity resource", logger.Err(err))
		}
		return result.Fail[string](e)
	}
	log.Info("identity resource created")
	return result.Ok(name)
}

func (m *IdentityResourceManager) Get(ctx context.Context, q GetIdentityResourceQuery) result.Of[repository.IdentityResource] {
	if blank(q.Name) {
		return result.Fail[repository.IdentityResource](result.Validationf("name is required"))
	}
	r, err := m.repos.IdentityResources().Get(ctx, q.Name)
	if err != nil {
		return result.Fail[repository.IdentityResource](fromStore(err, "identity resource %s not found", q.Name))
	}
	return result.Ok(*r)
}

func (m *IdentityResourceManager) GetAll(ctx context.Context, _ GetIdentityResourcesQuery) result.Of[[]repository.IdentityResource] {
	list, err := m.repos.IdentityResources().List(ctx)
	if err != nil {
		return result.Fail[[]repository.IdentityResource](fromStore(err, "list identity resources"))
	}
	if list == nil {
		list = []repository.IdentityResource{}
	}
	return result.Ok(list)
}

// StandardIdentityResources son openid, profile y email (claims OIDC estándar).
func StandardIdentityResources() []CreateIdentityResourceCommand {
	return []CreateIdentityResourceCommand{
		{
			Name: "openid", DisplayName: "Your user identifier",
			Required: true, ShowInDiscoveryDocument: true,
			Claims: []string{"sub"},
		},
		{
			Name: "profile", DisplayName: "User profile",
			Description: "Your user profile information (first name, last name, etc.)",
			Emphasize:   true, ShowInDiscoveryDocument: true,
			Claims: []string{
				"name", "family_name", "given_name", "middle_name", "nickname",
				"preferred_username", "profile", "picture", "website", "gender",
				"birthdate", "zoneinfo", "locale", "updated_at",
			},
		},
		{
			Name: "email", DisplayName: "Your email address",
			Emphasize: true, ShowInDiscoveryDocument: true,
			Claims: []string{"email", "email_verified"},
		},
	}
}

// SeedStandard crea los identity resources estándar que falten. Idempotente:
// los existentes se dejan como están. Devuelve cuántos creó.
func (m *IdentityResourceManager) SeedStandard(ctx context.Context) result.Of[int] {
	created := 0
	for _, cmd := range StandardIdentityResources() {
		res := m.Create(ctx, cmd)
		if res.IsSuccess() {
			created++
			continue
		}
		if res.Err().Kind != result.Conflict {
			return result.Fail[int](res.Err())
		}
	}
	logger.From(ctx).Info("standard identity resources seeded",
		logger.Component("manager.identityresources"), logger.Count(created))
	return result.Ok(created)
}
