// Package memory implementa un adapter en memoria para store.
// Sirve para desarrollo y tests; los datos se pierden al reiniciar.
package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/domain/repository"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/store"
)

func init() {
	store.RegisterAdapter(&memoryAdapter{})
}

type memoryAdapter struct{}

func (a *memoryAdapter) Name() string { return "memory" }

func (a *memoryAdapter) Connect(_ context.Context, _ store.AdapterConfig) (store.AdapterConnection, error) {
	return New(), nil
}

// state contiene todas las tablas; se clona entero para rollback.
type state struct {
	clients      map[string]repository.Client
	apiResources map[string]repository.ApiResource
	apiScopes    map[string]repository.ApiScope
	identity     map[string]repository.IdentityResource
	roles        map[uuid.UUID]repository.Role
	roleByName   map[string]uuid.UUID
	users        map[uuid.UUID]repository.User
	userByName   map[string]uuid.UUID
}

func newState() *state {
	return &state{
		clients:      map[string]repository.Client{},
		apiResources: map[string]repository.ApiResource{},
		apiScopes:    map[string]repository.ApiScope{},
		identity:     map[string]repository.IdentityResource{},
		roles:        map[uuid.UUID]repository.Role{},
		roleByName:   map[string]uuid.UUID{},
		users:        map[uuid.UUID]repository.User{},
		userByName:   map[string]uuid.UUID{},
	}
}

// clone copia los mapas; los valores se guardan ya desacoplados (ver copyX),
// por eso alcanza con copiar claves/valores.
func (s *state) clone() *state {
	return &state{
		clients:      maps.Clone(s.clients),
		apiResources: maps.Clone(s.apiResources),
		apiScopes:    maps.Clone(s.apiScopes),
		identity:     maps.Clone(s.identity),
		roles:        maps.Clone(s.roles),
		roleByName:   maps.Clone(s.roleByName),
		users:        maps.Clone(s.users),
		userByName:   maps.Clone(s.userByName),
	}
}

// Conn es la conexión en memoria.
type Conn struct {
	mu  sync.RWMutex
	st  *state
	now func() time.Time
}

// New crea un store vacío.
func New() *Conn {
	return &Conn{st: newState(), now: func() time.Time { return time.Now().UTC() }}
}

var _ store.AdapterConnection = (*Conn)(nil)

func (c *Conn) Name() string                 { return "memory" }
func (c *Conn) Ping(_ context.Context) error { return nil }
func (c *Conn) Close() error                 { return nil }

func (c *Conn) Clients() repository.ClientRepository       { return clientRepo{view{c: c}} }
func (c *Conn) ApiResources() repository.ApiResourceRepository { return apiResourceRepo{view{c: c}} }
func (c *Conn) ApiScopes() repository.ApiScopeRepository   { return apiScopeRepo{view{c: c}} }
func (c *Conn) IdentityResources() repository.IdentityResourceRepository {
	return identityRepo{view{c: c}}
}
func (c *Conn) Roles() repository.RoleRepository { return roleRepo{view{c: c}} }
func (c *Conn) Users() repository.UserRepository { return userRepo{view{c: c}} }

// WithinTx toma el lock de escritura durante toda la transacción y restaura
// el snapshot si fn falla o el contexto se cancela antes del commit.
func (c *Conn) WithinTx(ctx context.Context, fn store.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := c.st.clone()
	tx := txRepos{view{c: c, locked: true}}
	err := fn(ctx, tx)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		c.st = snapshot
		return err
	}
	return nil
}

type txRepos struct{ v view }

func (t txRepos) Clients() repository.ClientRepository           { return clientRepo{t.v} }
func (t txRepos) ApiResources() repository.ApiResourceRepository { return apiResourceRepo{t.v} }
func (t txRepos) ApiScopes() repository.ApiScopeRepository       { return apiScopeRepo{t.v} }
func (t txRepos) IdentityResources() repository.IdentityResourceRepository {
	return identityRepo{t.v}
}
func (t txRepos) Roles() repository.RoleRepository { return roleRepo{t.v} }
func (t txRepos) Users() repository.UserRepository { return userRepo{t.v} }

// view resuelve el locking: dentro de WithinTx el lock ya está tomado.
type view struct {
	c      *Conn
	locked bool
}

func (v view) read(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !v.locked {
		v.c.mu.RLock()
		defer v.c.mu.RUnlock()
	}
	return fn(v.c.st)
}

func (v view) write(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !v.locked {
		v.c.mu.Lock()
		defer v.c.mu.Unlock()
	}
	return fn(v.c.st)
}

func (v view) now() time.Time { return v.c.now() }

// ─── helpers ───

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return slices.Clone(in)
}

func cloneClaims(in map[string]string) map[string]string {
	if in == nil {
		return map[string]string{}
	}
	return maps.Clone(in)
}

func copyClient(c repository.Client) repository.Client {
	c.AllowedScopes = cloneStrings(c.AllowedScopes)
	c.AllowedGrantTypes = cloneStrings(c.AllowedGrantTypes)
	c.RedirectURIs = cloneStrings(c.RedirectURIs)
	c.PostLogoutRedirectURIs = cloneStrings(c.PostLogoutRedirectURIs)
	return c
}

func copyApiResource(r repository.ApiResource) repository.ApiResource {
	r.Scopes = cloneStrings(r.Scopes)
	r.UserClaims = cloneStrings(r.UserClaims)
	return r
}

func copyIdentity(r repository.IdentityResource) repository.IdentityResource {
	r.Claims = cloneStrings(r.Claims)
	return r
}

func copyUser(u repository.User) repository.User {
	u.Claims = cloneClaims(u.Claims)
	u.Roles = cloneStrings(u.Roles)
	return u
}

func sortedValues[K comparable, V any](m map[K]V, key func(V) string, cp func(V) V) []V {
	out := make([]V, 0, len(m))
	for _, v := range m {
		out = append(out, cp(v))
	}
	sort.Slice(out, func(i, j int) bool { return key(out[i]) < key(out[j]) })
	return out
}

func same[V any](v V) V { return v }

// ─── clients ───

type clientRepo struct{ v view }

func (r clientRepo) Create(ctx context.Context, c repository.Client) error {
	return r.v.write(ctx, func(st *state) error {
		if _, ok := st.clients[c.ClientID]; ok {
			return repository.ErrConflict
		}
		c = copyClient(c)
		if c.CreatedAt.IsZero() {
			c.CreatedAt = r.v.now()
		}
		st.clients[c.ClientID] = c
		return nil
	})
}

func (r clientRepo) Get(ctx context.Context, clientID string) (*repository.Client, error) {
	var out repository.Client
	err := r.v.read(ctx, func(st *state) error {
		c, ok := st.clients[clientID]
		if !ok {
			return repository.ErrNotFound
		}
		out = copyClient(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r clientRepo) List(ctx context.Context) ([]repository.Client, error) {
	var out []repository.Client
	err := r.v.read(ctx, func(st *state) error {
		out = sortedValues(st.clients, func(c repository.Client) string { return c.ClientID }, copyClient)
		return nil
	})
	return out, err
}

// ─── api resources ───

type apiResourceRepo struct{ v view }

func (r apiResourceRepo) Create(ctx context.Context, a repository.ApiResource) error {
	return r.v.write(ctx, func(st *state) error {
		if _, ok := st.apiResources[a.Name]; ok {
			return repository.ErrConflict
		}
		a = copyApiResource(a)
		if a.CreatedAt.IsZero() {
			a.CreatedAt = r.v.now()
		}
		st.apiResources[a.Name] = a
		return nil
	})
}

func (r apiResourceRepo) Get(ctx context.Context, name string) (*repository.ApiResource, error) {
	var out repository.ApiResource
	err := r.v.read(ctx, func(st *state) error {
		a, ok := st.apiResources[name]
		if !ok {
			return repository.ErrNotFound
		}
		out = copyApiResource(a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r apiResourceRepo) List(ctx context.Context) ([]repository.ApiResource, error) {
	var out []repository.ApiResource
	err := r.v.read(ctx, func(st *state) error {
		out = sortedValues(st.apiResources, func(a repository.ApiResource) string { return a.Name }, copyApiResource)
		return nil
	})
	return out, err
}

// ─── api scopes ───

type apiScopeRepo struct{ v view }

func (r apiScopeRepo) Create(ctx context.Context, s repository.ApiScope) error {
	return r.v.write(ctx, func(st *state) error {
		if _, ok := st.apiScopes[s.Name]; ok {
			return repository.ErrConflict
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = r.v.now()
		}
		st.apiScopes[s.Name] = s
		return nil
	})
}

func (r apiScopeRepo) Get(ctx context.Context, name string) (*repository.ApiScope, error) {
	var out repository.ApiScope
	err := r.v.read(ctx, func(st *state) error {
		s, ok := st.apiScopes[name]
		if !ok {
			return repository.ErrNotFound
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r apiScopeRepo) List(ctx context.Context) ([]repository.ApiScope, error) {
	var out []repository.ApiScope
	err := r.v.read(ctx, func(st *state) error {
		out = sortedValues(st.apiScopes, func(s repository.ApiScope) string { return s.Name }, same[repository.ApiScope])
		return nil
	})
	return out, err
}

// ─── identity resources ───

type identityRepo struct{ v view }

func (r identityRepo) Create(ctx context.Context, ir repository.IdentityResource) error {
	return r.v.write(ctx, func(st *state) error {
		if _, ok := st.identity[ir.Name]; ok {
			return repository.ErrConflict
		}
		ir = copyIdentity(ir)
		if ir.CreatedAt.IsZero() {
			ir.CreatedAt = r.v.now()
		}
		st.identity[ir.Name] = ir
		return nil
	})
}

func (r identityRepo) Get(ctx context.Context, name string) (*repository.IdentityResource, error) {
	var out repository.IdentityResource
	err := r.v.read(ctx, func(st *state) error {
		ir, ok := st.identity[name]
		if !ok {
			return repository.ErrNotFound
		}
		out = copyIdentity(ir)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r identityRepo) List(ctx context.Context) ([]repository.IdentityResource, error) {
	var out []repository.IdentityResource
	err := r.v.read(ctx, func(st *state) error {
		out = sortedValues(st.identity, func(ir repository.IdentityResource) string { return ir.Name }, copyIdentity)
		return nil
	})
	return out, err
}

// ─── roles ───

type roleRepo struct{ v view }

func (r roleRepo) Create(ctx context.Context, role repository.Role) error {
	return r.v.write(ctx, func(st *state) error {
		norm := repository.Normalize(role.Name)
		if _, ok := st.roles[role.ID]; ok {
			return repository.ErrConflict
		}
		if _, ok := st.roleByName[norm]; ok {
			return repository.ErrConflict
		}
		st.roles[role.ID] = role
		st.roleByName[norm] = role.ID
		return nil
	})
}

func (r roleRepo) Get(ctx context.Context, id uuid.UUID) (*repository.Role, error) {
	var out repository.Role
	err := r.v.read(ctx, func(st *state) error {
		role, ok := st.roles[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = role
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r roleRepo) GetByName(ctx context.Context, name string) (*repository.Role, error) {
	var out repository.Role
	err := r.v.read(ctx, func(st *state) error {
		id, ok := st.roleByName[repository.Normalize(name)]
		if !ok {
			return repository.ErrNotFound
		}
		out = st.roles[id]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r roleRepo) List(ctx context.Context) ([]repository.Role, error) {
	var out []repository.Role
	err := r.v.read(ctx, func(st *state) error {
		out = sortedValues(st.roles, func(role repository.Role) string { return role.Name }, same[repository.Role])
		return nil
	})
	return out, err
}

// ─── users ───

type userRepo struct{ v view }

func (r userRepo) Create(ctx context.Context, u repository.User) error {
	return r.v.write(ctx, func(st *state) error {
		norm := repository.Normalize(u.UserName)
		if _, ok := st.users[u.ID]; ok {
			return repository.ErrConflict
		}
		if _, ok := st.userByName[norm]; ok {
			return repository.ErrConflict
		}
		u = copyUser(u)
		// claims y roles se escriben con SetClaims/AddToRoles
		u.Claims = map[string]string{}
		u.Roles = []string{}
		if u.CreatedAt.IsZero() {
			u.CreatedAt = r.v.now()
		}
		st.users[u.ID] = u
		st.userByName[norm] = u.ID
		return nil
	})
}

func (r userRepo) SetClaims(ctx context.Context, userID uuid.UUID, claims map[string]string) error {
	return r.v.write(ctx, func(st *state) error {
		u, ok := st.users[userID]
		if !ok {
			return repository.ErrNotFound
		}
		merged := cloneClaims(u.Claims)
		for k, v := range claims {
			merged[k] = v
		}
		u.Claims = merged
		st.users[userID] = u
		return nil
	})
}

func (r userRepo) AddToRoles(ctx context.Context, userID uuid.UUID, roleNames []string) error {
	return r.v.write(ctx, func(st *state) error {
		u, ok := st.users[userID]
		if !ok {
			return repository.ErrNotFound
		}
		roles := cloneStrings(u.Roles)
		for _, name := range roleNames {
			id, ok := st.roleByName[repository.Normalize(name)]
			if !ok {
				return repository.ErrNotFound
			}
			canonical := st.roles[id].Name
			if !slices.Contains(roles, canonical) {
				roles = append(roles, canonical)
			}
		}
		sort.Strings(roles)
		u.Roles = roles
		st.users[userID] = u
		return nil
	})
}

func (r userRepo) Get(ctx context.Context, id uuid.UUID) (*repository.User, error) {
	var out repository.User
	err := r.v.read(ctx, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = copyUser(u)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r userRepo) GetByUserName(ctx context.Context, userName string) (*repository.User, error) {
	var out repository.User
	err := r.v.read(ctx, func(st *state) error {
		id, ok := st.userByName[repository.Normalize(userName)]
		if !ok {
			return repository.ErrNotFound
		}
		out = copyUser(st.users[id])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r userRepo) List(ctx context.Context, userNameFilter string) ([]repository.User, error) {
	filter := repository.Normalize(userNameFilter)
	var out []repository.User
	err := r.v.read(ctx, func(st *state) error {
		out = make([]repository.User, 0, len(st.users))
		for norm, id := range st.userByName {
			if filter == "" || strings.Contains(norm, filter) {
				out = append(out, copyUser(st.users[id]))
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].UserName < out[j].UserName })
		return nil
	})
	return out, err
}

func (r userRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, oldHash, newHash string) error {
	return r.v.write(ctx, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		if u.PasswordHash != oldHash {
			return repository.ErrConflict
		}
		u.PasswordHash = newHash
		st.users[id] = u
		return nil
	})
}

func (r userRepo) SetEmailConfirmed(ctx context.Context, id uuid.UUID, confirmed bool) error {
	return r.v.write(ctx, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		u.EmailConfirmed = confirmed
		st.users[id] = u
		return nil
	})
}
