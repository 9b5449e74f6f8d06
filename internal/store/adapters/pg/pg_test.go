package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/domain/repository"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/store"
)

func newConn(t *testing.T) (*Conn, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return NewConn(mock), mock
}

var clientCols = []string{
	"client_id", "client_name", "description", "secret_hash", "client_uri",
	"allowed_scopes", "allowed_grant_types", "redirect_uris", "post_logout_redirect_uris",
	"require_consent", "allow_offline_access", "created_at",
}

func TestClients_Create_OK_and_Conflict(t *testing.T) {
	conn, mock := newConn(t)
	ctx := context.Background()
	c := repository.Client{
		ClientID:          "testclient1",
		Name:              "Test Client 1",
		SecretHash:        "hash",
		AllowedScopes:     []string{"estateManagement"},
		AllowedGrantTypes: []string{"client_credentials"},
	}

	mock.ExpectExec(`INSERT INTO clients`).
		WithArgs("testclient1", "Test Client 1", "", "hash", "",
			[]string{"estateManagement"}, []string{"client_credentials"}, []string{}, []string{},
			false, false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, conn.Clients().Create(ctx, c))

	mock.ExpectExec(`INSERT INTO clients`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	require.ErrorIs(t, conn.Clients().Create(ctx, c), repository.ErrConflict)
}

func TestClients_Get(t *testing.T) {
	conn, mock := newConn(t)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery(`SELECT .* FROM clients WHERE client_id = \$1`).
		WithArgs("testclient2").
		WillReturnRows(pgxmock.NewRows(clientCols).AddRow(
			"testclient2", "Test Client 2", "desc", "hash", "http://localhost",
			[]string{"openid", "profile"}, []string{"hybrid"}, []string{"http://localhost/signin-oidc"}, []string(nil),
			true, false, now))
	c, err := conn.Clients().Get(ctx, "testclient2")
	require.NoError(t, err)
	require.Equal(t, []string{"hybrid"}, c.AllowedGrantTypes)
	require.Equal(t, []string{}, c.PostLogoutRedirectURIs)
	require.True(t, c.RequireConsent)

	mock.ExpectQuery(`SELECT .* FROM clients WHERE client_id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)
	_, err = conn.Clients().Get(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestClients_List_Empty(t *testing.T) {
	conn, mock := newConn(t)
	mock.ExpectQuery(`SELECT .* FROM clients ORDER BY client_id`).
		WillReturnRows(pgxmock.NewRows(clientCols))
	list, err := conn.Clients().List(context.Background())
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)
}

func TestApiResources_RoundTrip(t *testing.T) {
	conn, mock := newConn(t)
	ctx := context.Background()

	mock.ExpectExec(`INSERT INTO api_resources`).
		WithArgs("testresource", "Test Resource", "", "hash", []string{"Scope1", "Scope2"}, []string{"Claim1", "Claim2"}).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, conn.ApiResources().Create(ctx, repository.ApiResource{
		Name: "testresource", DisplayName: "Test Resource", SecretHash: "hash",
		Scopes: []string{"Scope1", "Scope2"}, UserClaims: []string{"Claim1", "Claim2"},
	}))

	mock.ExpectQuery(`FROM api_resources WHERE name = \$1`).
		WithArgs("testresource").
		WillReturnRows(pgxmock.NewRows([]string{"name", "display_name", "description", "secret_hash", "scopes", "user_claims", "created_at"}).
			AddRow("testresource", "Test Resource", "", "hash", []string{"Scope1", "Scope2"}, []string{"Claim1", "Claim2"}, time.Now()))
	got, err := conn.ApiResources().Get(ctx, "testresource")
	require.NoError(t, err)
	require.Equal(t, []string{"Scope1", "Scope2"}, got.Scopes)
	require.Equal(t, []string{"Claim1", "Claim2"}, got.UserClaims)
}

func TestRoles_CreateNormalizesName(t *testing.T) {
	conn, mock := newConn(t)
	id := uuid.New()
	mock.ExpectExec(`INSERT INTO roles`).
		WithArgs(id, "Estate", "ESTATE").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, conn.Roles().Create(context.Background(), repository.Role{ID: id, Name: "Estate"}))
}

var userCols = []string{
	"id", "user_name", "email", "email_confirmed", "given_name", "middle_name", "family_name",
	"phone_number", "password_hash", "created_at",
}

func TestUsers_GetLoadsClaimsAndRoles(t *testing.T) {
	conn, mock := newConn(t)
	mock.MatchExpectationsInOrder(false)
	id := uuid.New()

	mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(userCols).AddRow(
			id, "estateuser@testestate1.co.uk", "estateuser@testestate1.co.uk", false, "Test", "", "User",
			"123456789", "$argon2id$...", time.Now()))
	mock.ExpectQuery(`FROM user_claims WHERE user_id = ANY`).
		WithArgs([]uuid.UUID{id}).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "claim_type", "claim_value"}).
			AddRow(id, "EstateId", "1"))
	mock.ExpectQuery(`FROM user_roles ur`).
		WithArgs([]uuid.UUID{id}).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "name"}).AddRow(id, "Estate"))

	u, err := conn.Users().Get(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, "1", u.Claims["EstateId"])
	require.Equal(t, []string{"Estate"}, u.Roles)
}

func TestUsers_AddToRoles_MissingRole(t *testing.T) {
	conn, mock := newConn(t)
	mock.ExpectQuery(`SELECT id FROM roles WHERE normalized_name = \$1`).
		WithArgs("NOPE").
		WillReturnError(pgx.ErrNoRows)
	err := conn.Users().AddToRoles(context.Background(), uuid.New(), []string{"nope"})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUsers_UpdatePasswordHash_NotFound(t *testing.T) {
	conn, mock := newConn(t)
	id := uuid.New()
	mock.ExpectExec(`UPDATE users SET password_hash = \$2 WHERE id = \$1 AND password_hash = \$3`).
		WithArgs(id, "new", "old").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	require.ErrorIs(t, conn.Users().UpdatePasswordHash(context.Background(), id, "old", "new"), repository.ErrNotFound)
}

func TestUsers_UpdatePasswordHash_StaleHash(t *testing.T) {
	conn, mock := newConn(t)
	id := uuid.New()
	mock.ExpectExec(`UPDATE users SET password_hash = \$2 WHERE id = \$1 AND password_hash = \$3`).
		WithArgs(id, "new", "old").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	require.ErrorIs(t, conn.Users().UpdatePasswordHash(context.Background(), id, "old", "new"), repository.ErrConflict)
}

func TestUsers_UpdatePasswordHash_OK(t *testing.T) {
	conn, mock := newConn(t)
	id := uuid.New()
	mock.ExpectExec(`UPDATE users SET password_hash`).
		WithArgs(id, "new", "old").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, conn.Users().UpdatePasswordHash(context.Background(), id, "old", "new"))
}

func TestWithinTx_CommitAndRollback(t *testing.T) {
	conn, mock := newConn(t)
	ctx := context.Background()
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO users`).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO user_claims`).
		WithArgs(id, "EstateId", "1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := conn.WithinTx(ctx, func(ctx context.Context, tx store.Repositories) error {
		if err := tx.Users().Create(ctx, repository.User{ID: id, UserName: "a@b.c", PasswordHash: "h"}); err != nil {
			return err
		}
		return tx.Users().SetClaims(ctx, id, map[string]string{"EstateId": "1"})
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO users`).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectRollback()
	err = conn.WithinTx(ctx, func(ctx context.Context, tx store.Repositories) error {
		if err := tx.Users().Create(ctx, repository.User{ID: uuid.New(), UserName: "x@b.c", PasswordHash: "h"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
}

func TestMapErr(t *testing.T) {
	require.NoError(t, mapErr("x", nil))
	require.ErrorIs(t, mapErr("x", &pgconn.PgError{Code: "23503"}), repository.ErrNotFound)
	other := errors.New("down")
	require.ErrorIs(t, mapErr("x", other), other)
}
