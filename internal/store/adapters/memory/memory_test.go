package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/domain/repository"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/store"
)

func TestAdapterRegistered(t *testing.T) {
	conn, err := store.Open(context.Background(), store.AdapterConfig{Name: "memory"})
	require.NoError(t, err)
	require.Equal(t, "memory", conn.Name())
	require.NoError(t, conn.Ping(context.Background()))
}

func TestClients_CreateGetListConflict(t *testing.T) {
	ctx := context.Background()
	c := New()

	list, err := c.Clients().List(ctx)
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)

	in := repository.Client{ClientID: "testclient1", Name: "Test Client 1", AllowedGrantTypes: []string{"client_credentials"}}
	require.NoError(t, c.Clients().Create(ctx, in))
	require.ErrorIs(t, c.Clients().Create(ctx, repository.Client{ClientID: "testclient1", Name: "Other"}), repository.ErrConflict)

	got, err := c.Clients().Get(ctx, "testclient1")
	require.NoError(t, err)
	require.Equal(t, "Test Client 1", got.Name)
	require.Equal(t, []string{}, got.RedirectURIs)
	require.False(t, got.CreatedAt.IsZero())

	// copy-on-read
	got.AllowedGrantTypes[0] = "mutated"
	again, _ := c.Clients().Get(ctx, "testclient1")
	require.Equal(t, "client_credentials", again.AllowedGrantTypes[0])

	_, err = c.Clients().Get(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRoles_UniqueByIDAndName(t *testing.T) {
	ctx := context.Background()
	c := New()
	id := uuid.New()
	require.NoError(t, c.Roles().Create(ctx, repository.Role{ID: id, Name: "Estate"}))
	require.ErrorIs(t, c.Roles().Create(ctx, repository.Role{ID: uuid.New(), Name: "estate"}), repository.ErrConflict)
	require.ErrorIs(t, c.Roles().Create(ctx, repository.Role{ID: id, Name: "Merchant"}), repository.ErrConflict)

	r, err := c.Roles().GetByName(ctx, "ESTATE")
	require.NoError(t, err)
	require.Equal(t, id, r.ID)
}

func TestUsers_ClaimsRolesAndFilter(t *testing.T) {
	ctx := context.Background()
	c := New()
	require.NoError(t, c.Roles().Create(ctx, repository.Role{ID: uuid.New(), Name: "Estate"}))

	id := uuid.New()
	require.NoError(t, c.Users().Create(ctx, repository.User{ID: id, UserName: "estateuser@testestate1.co.uk", Email: "estateuser@testestate1.co.uk"}))
	require.ErrorIs(t, c.Users().Create(ctx, repository.User{ID: uuid.New(), UserName: "ESTATEUSER@testestate1.co.uk"}), repository.ErrConflict)

	require.NoError(t, c.Users().SetClaims(ctx, id, map[string]string{"EstateId": "1"}))
	require.NoError(t, c.Users().AddToRoles(ctx, id, []string{"estate"}))
	require.ErrorIs(t, c.Users().AddToRoles(ctx, id, []string{"Nope"}), repository.ErrNotFound)

	u, err := c.Users().Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, []string{"Estate"}, u.Roles)
	require.Equal(t, "1", u.Claims["EstateId"])

	list, err := c.Users().List(ctx, "TESTESTATE1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	list, err = c.Users().List(ctx, "other")
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestWithinTx_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	c := New()
	id := uuid.New()
	boom := errors.New("boom")

	err := c.WithinTx(ctx, func(ctx context.Context, tx store.Repositories) error {
		require.NoError(t, tx.Users().Create(ctx, repository.User{ID: id, UserName: "a@b.c"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = c.Users().Get(ctx, id)
	require.ErrorIs(t, err, repository.ErrNotFound)
	list, err := c.Users().List(ctx, "")
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestWithinTx_CancelledBeforeCommit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := New()
	err := c.WithinTx(ctx, func(ctx context.Context, tx store.Repositories) error {
		if err := tx.ApiScopes().Create(ctx, repository.ApiScope{Name: "s1"}); err != nil {
			return err
		}
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	_, err = c.ApiScopes().Get(context.Background(), "s1")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestConcurrentCreate_FirstWriterWins(t *testing.T) {
	ctx := context.Background()
	c := New()
	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.ApiScopes().Create(ctx, repository.ApiScope{Name: "shared"})
		}()
	}
	wg.Wait()
	close(errs)

	var ok, conflict int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, repository.ErrConflict):
			conflict++
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, 19, conflict)
}

func TestUsers_UpdatePasswordHash_ComparesOldHash(t *testing.T) {
	ctx := context.Background()
	c := New()
	id := uuid.New()
	require.NoError(t, c.Users().Create(ctx, repository.User{ID: id, UserName: "a@b.c", PasswordHash: "h1"}))

	require.ErrorIs(t, c.Users().UpdatePasswordHash(ctx, id, "other", "h2"), repository.ErrConflict)
	require.NoError(t, c.Users().UpdatePasswordHash(ctx, id, "h1", "h2"))
	require.ErrorIs(t, c.Users().UpdatePasswordHash(ctx, id, "h1", "h3"), repository.ErrConflict)
	require.ErrorIs(t, c.Users().UpdatePasswordHash(ctx, uuid.New(), "h2", "h3"), repository.ErrNotFound)

	u, err := c.Users().Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "h2", u.PasswordHash)
}

func TestUsers_UpdatePasswordHash_OneWinner(t *testing.T) {
	ctx := context.Background()
	c := New()
	id := uuid.New()
	require.NoError(t, c.Users().Create(ctx, repository.User{ID: id, UserName: "a@b.c", PasswordHash: "h0"}))

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.Users().UpdatePasswordHash(ctx, id, "h0", uuid.NewString())
		}()
	}
	wg.Wait()
	close(errs)

	var ok int
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, repository.ErrConflict)
	}
	require.Equal(t, 1, ok)
}
