package pg

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/domain/repository"
)

// ─── roles ───

type roleRepo struct{ r repos }

func (rr roleRepo) Create(ctx context.Context, role repository.Role) error {
	_, err := rr.r.q.Exec(ctx,
		`INSERT INTO roles (id, name, normalized_name) VALUES ($1, $2, $3)`,
		role.ID, role.Name, repository.Normalize(role.Name),
	)
	return mapErr("create role", err)
}

func (rr roleRepo) Get(ctx context.Context, id uuid.UUID) (*repository.Role, error) {
	var role repository.Role
	err := rr.r.q.QueryRow(ctx, `SELECT id, name FROM roles WHERE id = $1`, id).Scan(&role.ID, &role.Name)
	if err != nil {
		return nil, mapErr("get role", err)
	}
	return &role, nil
}

func (rr roleRepo) GetByName(ctx context.Context, name string) (*repository.Role, error) {
	var role repository.Role
	err := rr.r.q.QueryRow(ctx, `SELECT id, name FROM roles WHERE normalized_name = $1`, repository.Normalize(name)).
		Scan(&role.ID, &role.Name)
	if err != nil {
		return nil, mapErr("get role by name", err)
	}
	return &role, nil
}

func (rr roleRepo) List(ctx context.Context) ([]repository.Role, error) {
	rows, err := rr.r.q.Query(ctx, `SELECT id, name FROM roles ORDER BY name`)
	if err != nil {
		return nil, mapErr("list roles", err)
	}
	defer rows.Close()

	out := []repository.Role{}
	for rows.Next() {
		var role repository.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, mapErr("scan role", err)
		}
		out = append(out, role)
	}
	return out, mapErr("list roles", rows.Err())
}

// ─── users ───

type userRepo struct{ r repos }

const userColumns = `id, user_name, email, email_confirmed, given_name, middle_name, family_name,
	phone_number, password_hash, created_at`

func (ur userRepo) Create(ctx context.Context, u repository.User) error {
	_, err := ur.r.q.Exec(ctx, `
		INSERT INTO users (id, user_name, normalized_user_name, email, email_confirmed,
			given_name, middle_name, family_name, phone_number, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.ID, u.UserName, repository.Normalize(u.UserName), u.Email, u.EmailConfirmed,
		u.GivenName, u.MiddleName, u.FamilyName, u.PhoneNumber, u.PasswordHash,
	)
	return mapErr("create user", err)
}

func (ur userRepo) SetClaims(ctx context.Context, userID uuid.UUID, claims map[string]string) error {
	types := make([]string, 0, len(claims))
	for k := range claims {
		types = append(types, k)
	}
	sort.Strings(types)
	for _, typ := range types {
		_, err := ur.r.q.Exec(ctx, `
			INSERT INTO user_claims (user_id, claim_type, claim_value) VALUES ($1, $2, $3)
			ON CONFLICT (user_id, claim_type) DO UPDATE SET claim_value = EXCLUDED.claim_value`,
			userID, typ, claims[typ],
		)
		if err != nil {
			return mapErr("set claim", err)
		}
	}
	return nil
}

func (ur userRepo) AddToRoles(ctx context.Context, userID uuid.UUID, roleNames []string) error {
	for _, name := range roleNames {
		var roleID uuid.UUID
		err := ur.r.q.QueryRow(ctx, `SELECT id FROM roles WHERE normalized_name = $1`, repository.Normalize(name)).Scan(&roleID)
		if err != nil {
			return mapErr("resolve role "+name, err)
		}
		_, err = ur.r.q.Exec(ctx,
			`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			userID, roleID,
		)
		if err != nil {
			return mapErr("add user role", err)
		}
	}
	return nil
}

func scanUser(row pgx.Row) (*repository.User, error) {
	var u repository.User
	if err := row.Scan(&u.ID, &u.UserName, &u.Email, &u.EmailConfirmed, &u.GivenName, &u.MiddleName,
		&u.FamilyName, &u.PhoneNumber, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Claims = map[string]string{}
	u.Roles = []string{}
	return &u, nil
}

func (ur userRepo) Get(ctx context.Context, id uuid.UUID) (*repository.User, error) {
	u, err := scanUser(ur.r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr("get user", err)
	}
	if err := ur.loadRelations(ctx, []*repository.User{u}); err != nil {
		return nil, err
	}
	return u, nil
}

func (ur userRepo) GetByUserName(ctx context.Context, userName string) (*repository.User, error) {
	u, err := scanUser(ur.r.q.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE normalized_user_name = $1`, repository.Normalize(userName)))
	if err != nil {
		return nil, mapErr("get user by name", err)
	}
	if err := ur.loadRelations(ctx, []*repository.User{u}); err != nil {
		return nil, err
	}
	return u, nil
}

func (ur userRepo) List(ctx context.Context, userNameFilter string) ([]repository.User, error) {
	rows, err := ur.r.q.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE $1 = '' OR strpos(normalized_user_name, $1) > 0
		ORDER BY user_name`, repository.Normalize(userNameFilter))
	if err != nil {
		return nil, mapErr("list users", err)
	}
	var users []*repository.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			rows.Close()
			return nil, mapErr("scan user", err)
		}
		users = append(users, u)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, mapErr("list users", err)
	}

	if err := ur.loadRelations(ctx, users); err != nil {
		return nil, err
	}
	out := make([]repository.User, 0, len(users))
	for _, u := range users {
		out = append(out, *u)
	}
	return out, nil
}

// loadRelations carga claims y roles de un lote de usuarios con dos consultas
// (en paralelo cuando no estamos dentro de una transacción).
func (ur userRepo) loadRelations(ctx context.Context, users []*repository.User) error {
	if len(users) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*repository.User, len(users))
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		byID[u.ID] = u
		ids = append(ids, u.ID)
	}

	claims := map[uuid.UUID]map[string]string{}
	roles := map[uuid.UUID][]string{}

	err := ur.r.fanOut(ctx,
		func(ctx context.Context) error {
			rows, err := ur.r.q.Query(ctx,
				`SELECT user_id, claim_type, claim_value FROM user_claims WHERE user_id = ANY($1) ORDER BY claim_type`, ids)
			if err != nil {
				return mapErr("load claims", err)
			}
			defer rows.Close()
			for rows.Next() {
				var id uuid.UUID
				var typ, val string
				if err := rows.Scan(&id, &typ, &val); err != nil {
					return mapErr("scan claim", err)
				}
				if claims[id] == nil {
					claims[id] = map[string]string{}
				}
				claims[id][typ] = val
			}
			return mapErr("load claims", rows.Err())
		},
		func(ctx context.Context) error {
			rows, err := ur.r.q.Query(ctx, `
				SELECT ur.user_id, r.name FROM user_roles ur
				JOIN roles r ON r.id = ur.role_id
				WHERE ur.user_id = ANY($1) ORDER BY r.name`, ids)
			if err != nil {
				return mapErr("load roles", err)
			}
			defer rows.Close()
			for rows.Next() {
				var id uuid.UUID
				var name string
				if err := rows.Scan(&id, &name); err != nil {
					return mapErr("scan role", err)
				}
				roles[id] = append(roles[id], name)
			}
			return mapErr("load roles", rows.Err())
		},
	)
	if err != nil {
		return err
	}

	for id, u := range byID {
		if c, ok := claims[id]; ok {
			u.Claims = c
		}
		if r, ok := roles[id]; ok {
			u.Roles = r
		}
	}
	return nil
}

func (ur userRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, oldHash, newHash string) error {
	tag, err := ur.r.q.Exec(ctx,
		`UPDATE users SET password_hash = $2 WHERE id = $1 AND password_hash = $3`, id, newHash, oldHash)
	if err != nil {
		return mapErr("update password", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	// sin filas: o no existe o el hash ya cambió
	var exists bool
	if err := ur.r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return mapErr("update password", err)
	}
	if !exists {
		return mapErr("update password", pgx.ErrNoRows)
	}
	return fmt.Errorf("pg: update password: %w", repository.ErrConflict)
}

func (ur userRepo) SetEmailConfirmed(ctx context.Context, id uuid.UUID, confirmed bool) error {
	tag, err := ur.r.q.Exec(ctx, `UPDATE users SET email_confirmed = $2 WHERE id = $1`, id, confirmed)
	if err != nil {
		return mapErr("confirm email", err)
	}
	if tag.RowsAffected() == 0 {
		return mapErr("confirm email", pgx.ErrNoRows)
	}
	return nil
}
