package pg

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/domain/repository"
)

// ─── api resources ───

type apiResourceRepo struct{ r repos }

const apiResourceColumns = `name, display_name, description, secret_hash, scopes, user_claims, created_at`

func (ar apiResourceRepo) Create(ctx context.Context, a repository.ApiResource) error {
	_, err := ar.r.q.Exec(ctx, `
		INSERT INTO api_resources (name, display_name, description, secret_hash, scopes, user_claims)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.Name, a.DisplayName, a.Description, a.SecretHash, nonNil(a.Scopes), nonNil(a.UserClaims),
	)
	return mapErr("create api resource", err)
}

func scanApiResource(row pgx.Row) (*repository.ApiResource, error) {
	var a repository.ApiResource
	if err := row.Scan(&a.Name, &a.DisplayName, &a.Description, &a.SecretHash, &a.Scopes, &a.UserClaims, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Scopes = nonNil(a.Scopes)
	a.UserClaims = nonNil(a.UserClaims)
	return &a, nil
}

func (ar apiResourceRepo) Get(ctx context.Context, name string) (*repository.ApiResource, error) {
	a, err := scanApiResource(ar.r.q.QueryRow(ctx, `SELECT `+apiResourceColumns+` FROM api_resources WHERE name = $1`, name))
	if err != nil {
		return nil, mapErr("get api resource", err)
	}
	return a, nil
}

func (ar apiResourceRepo) List(ctx context.Context) ([]repository.ApiResource, error) {
	rows, err := ar.r.q.Query(ctx, `SELECT `+apiResourceColumns+` FROM api_resources ORDER BY name`)
	if err != nil {
		return nil, mapErr("list api resources", err)
	}
	defer rows.Close()

	out := []repository.ApiResource{}
	for rows.Next() {
		a, err := scanApiResource(rows)
		if err != nil {
			return nil, mapErr("scan api resource", err)
		}
		out = append(out, *a)
	}
	return out, mapErr("list api resources", rows.Err())
}

// ─── api scopes ───

type apiScopeRepo struct{ r repos }

func (sr apiScopeRepo) Create(ctx context.Context, s repository.ApiScope) error {
	_, err := sr.r.q.Exec(ctx,
		`INSERT INTO api_scopes (name, display_name, description) VALUES ($1, $2, $3)`,
		s.Name, s.DisplayName, s.Description,
	)
	return mapErr("create api scope", err)
}

func (sr apiScopeRepo) Get(ctx context.Context, name string) (*repository.ApiScope, error) {
	var s repository.ApiScope
	err := sr.r.q.QueryRow(ctx,
		`SELECT name, display_name, description, created_at FROM api_scopes WHERE name = $1`, name,
	).Scan(&s.Name, &s.DisplayName, &s.Description, &s.CreatedAt)
	if err != nil {
		return nil, mapErr("get api scope", err)
	}
	return &s, nil
}

func (sr apiScopeRepo) List(ctx context.Context) ([]repository.ApiScope, error) {
	rows, err := sr.r.q.Query(ctx, `SELECT name, display_name, description, created_at FROM api_scopes ORDER BY name`)
	if err != nil {
		return nil, mapErr("list api scopes", err)
	}
	defer rows.Close()

	out := []repository.ApiScope{}
	for rows.Next() {
		var s repository.ApiScope
		if err := rows.Scan(&s.Name, &s.DisplayName, &s.Description, &s.CreatedAt); err != nil {
			return nil, mapErr("scan api scope", err)
		}
		out = append(out, s)
	}
	return out, mapErr("list api scopes", rows.Err())
}

// ─── identity resources ───

type identityRepo struct{ r repos }

const identityColumns = `name, display_name, description, required, emphasize, show_in_discovery_document, claims, created_at`

func (ir identityRepo) Create(ctx context.Context, res repository.IdentityResource) error {
	_, err := ir.r.q.Exec(ctx, `
		INSERT INTO identity_resources (name, display_name, description, required, emphasize, show_in_discovery_document, claims)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		res.Name, res.DisplayName, res.Description, res.Required, res.Emphasize, res.ShowInDiscoveryDocument, nonNil(res.Claims),
	)
	return mapErr("create identity resource", err)
}

func scanIdentity(row pgx.Row) (*repository.IdentityResource, error) {
	var res repository.IdentityResource
	if err := row.Scan(&res.Name, &res.DisplayName, &res.Description, &res.Required, &res.Emphasize,
		&res.ShowInDiscoveryDocument, &res.Claims, &res.CreatedAt); err != nil {
		return nil, err
	}
	res.Claims = nonNil(res.Claims)
	return &res, nil
}

func (ir identityRepo) Get(ctx context.Context, name string) (*repository.IdentityResource, error) {
	res, err := scanIdentity(ir.r.q.QueryRow(ctx, `SELECT `+identityColumns+` FROM identity_resources WHERE name = $1`, name))
	if err != nil {
		return nil, mapErr("get identity resource", err)
	}
	return res, nil
}

func (ir identityRepo) List(ctx context.Context) ([]repository.IdentityResource, error) {
	rows, err := ir.r.q.Query(ctx, `SELECT `+identityColumns+` FROM identity_resources ORDER BY name`)
	if err != nil {
		return nil, mapErr("list identity resources", err)
	}
	defer rows.Close()

	out := []repository.IdentityResource{}
	for rows.Next() {
		res, err := scanIdentity(rows)
		if err != nil {
			return nil, mapErr("scan identity resource", err)
		}
		out = append(out, *res)
	}
	return out, mapErr("list identity resources", rows.Err())
}
