package manager

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/domain/repository"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/messaging"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/result"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/security/password"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/security/secret"
	tokens "github.com/TransactionProcessing/SecurityService-sub001/internal/security/token"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/store"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/store/adapters/memory"
)

type fixture struct {
	st     *memory.Conn
	m      Managers
	sender *messaging.LogSender
	issuer *tokens.Issuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.New()
	issuer, err := tokens.NewIssuer("securityservice", []byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	sender := messaging.NewLogSender()
	pwd := Passwords{Policy: password.Policy{MinLength: 6}, Params: password.Fast}
	m := New(st, secret.New(bcrypt.MinCost), pwd, AccountDeps{
		Tokens:             issuer,
		Sender:             sender,
		Templates:          messaging.MustLoadTemplates(),
		BaseURL:            "http://localhost:5001",
		DefaultRedirectURI: "http://localhost:5001/",
		EmailConfirmTTL:    48 * time.Hour,
		PasswordResetTTL:   time.Hour,
	})
	return &fixture{st: st, m: m, sender: sender, issuer: issuer}
}

func (f *fixture) seed(t *testing.T) {
	t.Helper()
	require.True(t, f.m.IdentityResources.SeedStandard(context.Background()).IsSuccess())
}

func (f *fixture) createRole(t *testing.T, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	res := f.m.Roles.Create(context.Background(), CreateRoleCommand{RoleID: id, Name: name})
	require.True(t, res.IsSuccess(), "%v", res.Err())
	return id
}

func (f *fixture) createUser(t *testing.T, email, pwd string, roles ...string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	res := f.m.Users.Create(context.Background(), CreateUserCommand{
		UserID: id, GivenName: "Test", FamilyName: "User",
		EmailAddress: email, Password: pwd, PhoneNumber: "123456789",
		Claims: map[string]string{"EstateId": "1"}, Roles: roles,
	})
	require.True(t, res.IsSuccess(), "%v", res.Err())
	return id
}

func requireKind(t *testing.T, want result.Kind, r result.Response) {
	t.Helper()
	require.False(t, r.IsSuccess(), "expected %s failure", want)
	require.Equal(t, want, r.Err().Kind, r.Err().Message)
}

func TestApiResource_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.m.ApiResources.Create(ctx, CreateApiResourceCommand{
		Name: "testresource", DisplayName: "Test Resource", Description: "A resource",
		Secret: "secret1", Scopes: []string{"Scope1", "Scope2"}, UserClaims: []string{"Claim1", "Claim2"},
	})
	require.True(t, res.IsSuccess())
	require.Equal(t, "testresource", res.Value())

	got := f.m.ApiResources.Get(ctx, GetApiResourceQuery{Name: "testresource"})
	require.True(t, got.IsSuccess())
	r := got.Value()
	require.Equal(t, "Test Resource", r.DisplayName)
	require.Equal(t, "A resource", r.Description)
	require.Equal(t, []string{"Scope1", "Scope2"}, r.Scopes)
	require.Equal(t, []string{"Claim1", "Claim2"}, r.UserClaims)
	require.NotEqual(t, "secret1", r.SecretHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(r.SecretHash), []byte("secret1")))

	requireKind(t, result.Conflict, f.m.ApiResources.Create(ctx, CreateApiResourceCommand{Name: "testresource", Secret: "x"}))
	requireKind(t, result.Validation, f.m.ApiResources.Create(ctx, CreateApiResourceCommand{Name: "other"}))
	requireKind(t, result.NotFound, f.m.ApiResources.Get(ctx, GetApiResourceQuery{Name: "missing"}))
}

func TestApiResource_EmptyCollections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.True(t, f.m.ApiResources.Create(ctx, CreateApiResourceCommand{Name: "r", Secret: "s"}).IsSuccess())
	r := f.m.ApiResources.Get(ctx, GetApiResourceQuery{Name: "r"}).Value()
	require.NotNil(t, r.Scopes)
	require.Empty(t, r.Scopes)
	require.NotNil(t, r.UserClaims)
}

func TestClients_TwoClients(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	ctx := context.Background()

	require.True(t, f.m.Clients.Create(ctx, CreateClientCommand{
		ClientID: "testclient1", Name: "Test Client 1", Secret: "secret1",
		AllowedScopes: []string{"estateManagement"}, AllowedGrantTypes: []string{"client_credentials"},
	}).IsSuccess())
	res := f.m.Clients.Create(ctx, CreateClientCommand{
		ClientID: "testclient2", Name: "Test Client 2", Secret: "secret2",
		ClientURI:              "http://localhost/testclient2",
		AllowedScopes:          []string{"openid", "profile", "estateManagement"},
		AllowedGrantTypes:      []string{"hybrid"},
		RedirectURIs:           []string{"http://localhost/signin-oidc"},
		PostLogoutRedirectURIs: []string{"http://localhost/signout-oidc"},
		RequireConsent:         true,
	})
	require.True(t, res.IsSuccess(), "%v", res.Err())

	all := f.m.Clients.GetAll(ctx, GetClientsQuery{})
	require.True(t, all.IsSuccess())
	require.Len(t, all.Value(), 2)
	byID := map[string]repository.Client{}
	for _, c := range all.Value() {
		byID[c.ClientID] = c
	}
	require.Equal(t, []string{"client_credentials"}, byID["testclient1"].AllowedGrantTypes)
	require.Empty(t, byID["testclient1"].RedirectURIs)
	c2 := byID["testclient2"]
	require.ElementsMatch(t, []string{"openid", "profile", "estateManagement"}, c2.AllowedScopes)
	require.Equal(t, []string{"http://localhost/signin-oidc"}, c2.RedirectURIs)
	require.Equal(t, []string{"http://localhost/signout-oidc"}, c2.PostLogoutRedirectURIs)
	require.True(t, c2.RequireConsent)
}

func TestClients_ConflictLeavesOriginal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.True(t, f.m.Clients.Create(ctx, CreateClientCommand{ClientID: "c1", Name: "Original", Secret: "s"}).IsSuccess())
	before := f.m.Clients.Get(ctx, GetClientQuery{ClientID: "c1"}).Value()

	requireKind(t, result.Conflict, f.m.Clients.Create(ctx, CreateClientCommand{ClientID: "c1", Name: "Impostor", Secret: "other"}))

	after := f.m.Clients.Get(ctx, GetClientQuery{ClientID: "c1"}).Value()
	require.Equal(t, before, after)
	require.Equal(t, "Original", after.Name)
}

func TestClients_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cases := map[string]CreateClientCommand{
		"missing id":            {Name: "n"},
		"missing name":          {ClientID: "c"},
		"unknown grant":         {ClientID: "c", Name: "n", AllowedGrantTypes: []string{"magic"}},
		"hybrid needs redirect": {ClientID: "c", Name: "n", AllowedGrantTypes: []string{"hybrid"}},
		"relative redirect":     {ClientID: "c", Name: "n", AllowedGrantTypes: []string{"implicit"}, RedirectURIs: []string{"/cb"}},
		"unseeded openid scope": {ClientID: "c", Name: "n", AllowedScopes: []string{"openid"}},
	}
	for name, cmd := range cases {
		t.Run(name, func(t *testing.T) {
			requireKind(t, result.Validation, f.m.Clients.Create(ctx, cmd))
		})
	}
	require.Empty(t, f.m.Clients.GetAll(ctx, GetClientsQuery{}).Value())
}

func TestGetAll_EmptyStoreIsNotAnError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	clients := f.m.Clients.GetAll(ctx, GetClientsQuery{})
	require.True(t, clients.IsSuccess())
	require.NotNil(t, clients.Value())
	require.Empty(t, clients.Value())

	require.Empty(t, f.m.ApiResources.GetAll(ctx, GetApiResourcesQuery{}).Value())
	require.Empty(t, f.m.ApiScopes.GetAll(ctx, GetApiScopesQuery{}).Value())
	require.Empty(t, f.m.IdentityResources.GetAll(ctx, GetIdentityResourcesQuery{}).Value())
	require.Empty(t, f.m.Roles.GetAll(ctx, GetRolesQuery{}).Value())

	users := f.m.Users.GetAll(ctx, GetUsersQuery{})
	require.True(t, users.IsSuccess())
	require.NotNil(t, users.Value())
	require.Empty(t, users.Value())
}

func TestApiScopes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.True(t, f.m.ApiScopes.Create(ctx, CreateApiScopeCommand{Name: "estateManagement", DisplayName: "Estate Management"}).IsSuccess())
	requireKind(t, result.Conflict, f.m.ApiScopes.Create(ctx, CreateApiScopeCommand{Name: "estateManagement"}))
	requireKind(t, result.Validation, f.m.ApiScopes.Create(ctx, CreateApiScopeCommand{Name: "  "}))

	got := f.m.ApiScopes.Get(ctx, GetApiScopeQuery{Name: "estateManagement"})
	require.True(t, got.IsSuccess())
	require.Equal(t, "Estate Management", got.Value().DisplayName)
	require.Len(t, f.m.ApiScopes.GetAll(ctx, GetApiScopesQuery{}).Value(), 1)
}

func TestIdentityResources_SeedStandardIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.m.IdentityResources.SeedStandard(ctx)
	require.True(t, first.IsSuccess())
	require.Equal(t, 3, first.Value())
	second := f.m.IdentityResources.SeedStandard(ctx)
	require.True(t, second.IsSuccess())
	require.Equal(t, 0, second.Value())

	openid := f.m.IdentityResources.Get(ctx, GetIdentityResourceQuery{Name: "openid"}).Value()
	require.True(t, openid.Required)
	require.Equal(t, []string{"sub"}, openid.Claims)
	require.Len(t, f.m.IdentityResources.GetAll(ctx, GetIdentityResourcesQuery{}).Value(), 3)
}

func TestRoles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createRole(t, "Estate")

	got := f.m.Roles.Get(ctx, GetRoleQuery{RoleID: id})
	require.True(t, got.IsSuccess())
	require.Equal(t, "Estate", got.Value().Name)

	requireKind(t, result.Conflict, f.m.Roles.Create(ctx, CreateRoleCommand{RoleID: uuid.New(), Name: "estate"}))
	requireKind(t, result.Conflict, f.m.Roles.Create(ctx, CreateRoleCommand{RoleID: id, Name: "Other"}))
	requireKind(t, result.Validation, f.m.Roles.Create(ctx, CreateRoleCommand{Name: "NoID"}))
	requireKind(t, result.NotFound, f.m.Roles.Get(ctx, GetRoleQuery{RoleID: uuid.New()}))
}

func TestUsers_CreateWithClaimsAndRoles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createRole(t, "Estate")
	id := f.createUser(t, "estateuser@testestate1.co.uk", "123456", "Estate")

	got := f.m.Users.Get(ctx, GetUserQuery{UserID: id})
	require.True(t, got.IsSuccess())
	u := got.Value()
	require.Equal(t, id, u.ID)
	require.Equal(t, "estateuser@testestate1.co.uk", u.UserName)
	require.Equal(t, "estateuser@testestate1.co.uk", u.Email)
	require.Equal(t, []string{"Estate"}, u.Roles)
	require.Equal(t, "1", u.Claims["EstateId"])
	require.Equal(t, "Test", u.Claims["given_name"])
	require.Equal(t, "estateuser@testestate1.co.uk", u.Claims["email"])
	require.NotContains(t, u.Claims, "middle_name")
	require.True(t, password.Verify("123456", u.PasswordHash))

	filtered := f.m.Users.GetAll(ctx, GetUsersQuery{UserName: "ESTATEUSER"})
	require.Len(t, filtered.Value(), 1)
	require.Empty(t, f.m.Users.GetAll(ctx, GetUsersQuery{UserName: "nobody"}).Value())

	requireKind(t, result.Conflict, f.m.Users.Create(ctx, CreateUserCommand{
		UserID: uuid.New(), EmailAddress: "EstateUser@testestate1.co.uk", Password: "123456",
	}))
}

func TestUsers_MissingRoleIsNotFoundAndNothingPersisted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createRole(t, "Estate")

	res := f.m.Users.Create(ctx, CreateUserCommand{
		UserID: uuid.New(), EmailAddress: "a@b.c", Password: "123456",
		Roles: []string{"Estate", "Merchant"},
	})
	requireKind(t, result.NotFound, res)
	require.Contains(t, res.Err().Message, "Merchant")
	require.Empty(t, f.m.Users.GetAll(ctx, GetUsersQuery{}).Value())
}

func TestUsers_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cases := map[string]CreateUserCommand{
		"nil id":         {EmailAddress: "a@b.c", Password: "123456"},
		"no email":       {UserID: uuid.New(), Password: "123456"},
		"bad email":      {UserID: uuid.New(), EmailAddress: "not-an-email", Password: "123456"},
		"no password":    {UserID: uuid.New(), EmailAddress: "a@b.c"},
		"short password": {UserID: uuid.New(), EmailAddress: "a@b.c", Password: "123"},
	}
	for name, cmd := range cases {
		t.Run(name, func(t *testing.T) {
			requireKind(t, result.Validation, f.m.Users.Create(ctx, cmd))
		})
	}
}

func TestUsers_CancelledContextLeavesNoUser(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := f.m.Users.Create(ctx, CreateUserCommand{UserID: uuid.New(), EmailAddress: "a@b.c", Password: "123456"})
	requireKind(t, result.Cancelled, res)
	require.Empty(t, f.m.Users.GetAll(context.Background(), GetUsersQuery{}).Value())
}

// rejectingRepos hace fallar los Create de clients y api scopes con err.
type rejectingRepos struct {
	store.Repositories
	err error
}

type rejectingClients struct {
	repository.ClientRepository
	err error
}

type rejectingScopes struct {
	repository.ApiScopeRepository
	err error
}

func (r rejectingRepos) Clients() repository.ClientRepository {
	return rejectingClients{r.Repositories.Clients(), r.err}
}

func (r rejectingRepos) ApiScopes() repository.ApiScopeRepository {
	return rejectingScopes{r.Repositories.ApiScopes(), r.err}
}

func (c rejectingClients) Create(context.Context, repository.Client) error { return c.err }
func (s rejectingScopes) Create(context.Context, repository.ApiScope) error { return s.err }

func TestCreate_MessageFollowsStoreError(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		err     error
		kind    result.Kind
		message string
	}{
		{fmt.Errorf("pg: insert: %w", repository.ErrConflict), result.Conflict, "%s c1 already exists"},
		{fmt.Errorf("pg: insert: %w", repository.ErrInvalidInput), result.Validation, "%s c1 is invalid"},
		{fmt.Errorf("pg: insert: %w", repository.ErrNotFound), result.NotFound, "%s c1 references a missing entity"},
	} {
		repos := rejectingRepos{Repositories: memory.New(), err: tc.err}

		res := NewClientManager(repos, secret.New(bcrypt.MinCost)).Create(ctx, CreateClientCommand{ClientID: "c1", Name: "C1"})
		requireKind(t, tc.kind, res)
		require.Equal(t, fmt.Sprintf(tc.message, "client"), res.Err().Message)

		res = NewApiScopeManager(repos).Create(ctx, CreateApiScopeCommand{Name: "c1"})
		requireKind(t, tc.kind, res)
		require.Equal(t, fmt.Sprintf(tc.message, "api scope"), res.Err().Message)
	}

	res := NewApiScopeManager(rejectingRepos{Repositories: memory.New(), err: repository.ErrUnavailable}).
		Create(ctx, CreateApiScopeCommand{Name: "c1"})
	requireKind(t, result.Unexpected, res)
}
