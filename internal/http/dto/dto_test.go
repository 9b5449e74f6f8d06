package dto

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/domain/repository"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/manager"
)

func TestToClientDetails_NeverNull(t *testing.T) {
	got := ToClientDetails(repository.Client{ClientID: "c1", Name: "Client 1", SecretHash: "hash"})
	want := ClientDetails{
		ClientID:               "c1",
		ClientName:             "Client 1",
		AllowedScopes:          []string{},
		AllowedGrantTypes:      []string{},
		RedirectURIs:           []string{},
		PostLogoutRedirectURIs: []string{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ClientDetails mismatch (-want +got):\n%s", diff)
	}

	b, err := json.Marshal(got)
	require.NoError(t, err)
	require.NotContains(t, string(b), "null")
	require.NotContains(t, string(b), "hash")
}

func TestToUserDetails(t *testing.T) {
	id := uuid.MustParse("0b6e6f0e-1b53-4d7a-a8c4-e9b2b5b6d3a1")
	u := repository.User{
		ID:           id,
		UserName:     "estateuser@testestate1.co.uk",
		Email:        "estateuser@testestate1.co.uk",
		GivenName:    "Test",
		FamilyName:   "User",
		PhoneNumber:  "123456789",
		PasswordHash: "$argon2id$...",
		Claims:       map[string]string{"EstateId": "1"},
		Roles:        []string{"Estate"},
	}
	want := UserDetails{
		UserID:       id.String(),
		UserName:     "estateuser@testestate1.co.uk",
		EmailAddress: "estateuser@testestate1.co.uk",
		PhoneNumber:  "123456789",
		GivenName:    "Test",
		FamilyName:   "User",
		Claims:       map[string]string{"EstateId": "1"},
		Roles:        []string{"Estate"},
	}
	got := ToUserDetails(u)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("UserDetails mismatch (-want +got):\n%s", diff)
	}

	got.Claims["EstateId"] = "2"
	require.Equal(t, "1", u.Claims["EstateId"], "mapping must copy claims")

	b, err := json.Marshal(ToUserDetails(repository.User{ID: id}))
	require.NoError(t, err)
	require.Contains(t, string(b), `"claims":{}`)
	require.Contains(t, string(b), `"roles":[]`)
}

func TestResourceDetails(t *testing.T) {
	api := ToApiResourceDetails(repository.ApiResource{
		Name: "testresource", DisplayName: "Test Resource",
		Scopes: []string{"Scope1", "Scope2"}, UserClaims: []string{"Claim1", "Claim2"},
	})
	if diff := cmp.Diff(ApiResourceDetails{
		Name: "testresource", DisplayName: "Test Resource",
		Scopes: []string{"Scope1", "Scope2"}, UserClaims: []string{"Claim1", "Claim2"},
	}, api); diff != "" {
		t.Fatalf("ApiResourceDetails mismatch (-want +got):\n%s", diff)
	}

	idr := ToIdentityResourceDetails(repository.IdentityResource{Name: "openid", Required: true})
	require.Equal(t, []string{}, idr.Claims)
	require.True(t, idr.Required)

	require.Equal(t, ApiScopeDetails{Name: "s"}, ToApiScopeDetails(repository.ApiScope{Name: "s"}))

	id := uuid.New()
	require.Equal(t, RoleDetails{RoleID: id.String(), RoleName: "Estate"}, ToRoleDetails(repository.Role{ID: id, Name: "Estate"}))
}

func TestMap_Empty(t *testing.T) {
	out := Map([]repository.Role(nil), ToRoleDetails)
	require.NotNil(t, out)
	b, err := json.Marshal(out)
	require.NoError(t, err)
	require.Equal(t, "[]", string(b))
}

func TestCreateClientRequest_WireNames(t *testing.T) {
	body := `{
		"client_id": "testclient1",
		"secret": "secret1",
		"client_name": "Test Client 1",
		"client_description": "d",
		"client_uri": "http://localhost",
		"allowed_scopes": ["estateManagement"],
		"allowed_grant_types": ["client_credentials"],
		"client_redirect_uris": ["http://localhost/signin-oidc"],
		"client_post_logout_redirect_uris": ["http://localhost/signout"],
		"require_consent": true,
		"allow_offline_access": true
	}`
	var req CreateClientRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	want := manager.CreateClientCommand{
		ClientID:               "testclient1",
		Secret:                 "secret1",
		Name:                   "Test Client 1",
		Description:            "d",
		ClientURI:              "http://localhost",
		AllowedScopes:          []string{"estateManagement"},
		AllowedGrantTypes:      []string{"client_credentials"},
		RedirectURIs:           []string{"http://localhost/signin-oidc"},
		PostLogoutRedirectURIs: []string{"http://localhost/signout"},
		RequireConsent:         true,
		AllowOfflineAccess:     true,
	}
	if diff := cmp.Diff(want, req.Command()); diff != "" {
		t.Fatalf("command mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateUserRequest_Command(t *testing.T) {
	id := uuid.New()
	cmd, err := CreateUserRequest{UserID: id.String(), EmailAddress: "a@b.c", Roles: []string{"Estate"}}.Command()
	require.NoError(t, err)
	require.Equal(t, id, cmd.UserID)
	require.Equal(t, []string{"Estate"}, cmd.Roles)

	cmd, err = CreateUserRequest{}.Command()
	require.NoError(t, err)
	require.Equal(t, uuid.Nil, cmd.UserID)

	_, err = CreateUserRequest{UserID: "not-a-guid"}.Command()
	require.EqualError(t, err, "user_id must be a GUID")
}

func TestCreateRoleRequest_Command(t *testing.T) {
	id := uuid.New()
	cmd, err := CreateRoleRequest{RoleID: " " + id.String() + " ", RoleName: "Estate"}.Command()
	require.NoError(t, err)
	require.Equal(t, manager.CreateRoleCommand{RoleID: id, Name: "Estate"}, cmd)

	_, err = CreateRoleRequest{RoleID: "123"}.Command()
	require.EqualError(t, err, "role_id must be a GUID")
}

func TestLifecycleRequests(t *testing.T) {
	var req PasswordResetConfirmRequest
	require.NoError(t, json.Unmarshal([]byte(`{"user_name":"u","token":"t","new_password":"p","client_id":"c"}`), &req))
	require.Equal(t, manager.ProcessPasswordResetConfirmationCommand{UserName: "u", Token: "t", NewPassword: "p", ClientID: "c"}, req.Command())

	var conf ConfirmEmailRequest
	require.NoError(t, json.Unmarshal([]byte(`{"user_name":"u","confirm_email_token":"t"}`), &conf))
	require.Equal(t, manager.ConfirmUserEmailAddressCommand{UserName: "u", ConfirmEmailToken: "t"}, conf.Command())

	b, err := json.Marshal(RedirectResponse{RedirectURI: "http://x"})
	require.NoError(t, err)
	require.JSONEq(t, `{"redirect_uri":"http://x"}`, string(b))
}
