package pg

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/domain/repository"
)

type clientRepo struct{ r repos }

const clientColumns = `client_id, client_name, description, secret_hash, client_uri,
	allowed_scopes, allowed_grant_types, redirect_uris, post_logout_redirect_uris,
	require_consent, allow_offline_access, created_at`

func (cr clientRepo) Create(ctx context.Context, c repository.Client) error {
	_, err := cr.r.q.Exec(ctx, `
		INSERT INTO clients (client_id, client_name, description, secret_hash, client_uri,
			allowed_scopes, allowed_grant_types, redirect_uris, post_logout_redirect_uris,
			require_consent, allow_offline_access)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		c.ClientID, c.Name, c.Description, c.SecretHash, c.ClientURI,
		nonNil(c.AllowedScopes), nonNil(c.AllowedGrantTypes), nonNil(c.RedirectURIs), nonNil(c.PostLogoutRedirectURIs),
		c.RequireConsent, c.AllowOfflineAccess,
	)
	return mapErr("create client", err)
}

func scanClient(row pgx.Row) (*repository.Client, error) {
	var c repository.Client
	if err := row.Scan(
		&c.ClientID, &c.Name, &c.Description, &c.SecretHash, &c.ClientURI,
		&c.AllowedScopes, &c.AllowedGrantTypes, &c.RedirectURIs, &c.PostLogoutRedirectURIs,
		&c.RequireConsent, &c.AllowOfflineAccess, &c.CreatedAt,
	); err != nil {
		return nil, err
	}
	c.AllowedScopes = nonNil(c.AllowedScopes)
	c.AllowedGrantTypes = nonNil(c.AllowedGrantTypes)
	c.RedirectURIs = nonNil(c.RedirectURIs)
	c.PostLogoutRedirectURIs = nonNil(c.PostLogoutRedirectURIs)
	return &c, nil
}

func (cr clientRepo) Get(ctx context.Context, clientID string) (*repository.Client, error) {
	row := cr.r.q.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE client_id = $1`, clientID)
	c, err := scanClient(row)
	if err != nil {
		return nil, mapErr("get client", err)
	}
	return c, nil
}

func (cr clientRepo) List(ctx context.Context) ([]repository.Client, error) {
	rows, err := cr.r.q.Query(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY client_id`)
	if err != nil {
		return nil, mapErr("list clients", err)
	}
	defer rows.Close()

	out := []repository.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, mapErr("scan client", err)
		}
		out = append(out, *c)
	}
	return out, mapErr("list clients", rows.Err())
}
