// Package store registra los adapters de persistencia y define la conexión que
// consumen los managers. Cada adapter se auto-registra en init():
//
//	import _ "github.com/TransactionProcessing/SecurityService-sub001/internal/store/adapters/pg"
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/domain/repository"
)

// Adapter abre conexiones contra un backend ("memory", "postgres").
type Adapter interface {
	Name() string
	Connect(ctx context.Context, cfg AdapterConfig) (AdapterConnection, error)
}

// Repositories agrupa los repositorios de un adapter (o de una transacción).
type Repositories interface {
	Clients() repository.ClientRepository
	ApiResources() repository.ApiResourceRepository
	ApiScopes() repository.ApiScopeRepository
	IdentityResources() repository.IdentityResourceRepository
	Roles() repository.RoleRepository
	Users() repository.UserRepository
}

// TxFunc corre dentro de una transacción; si retorna error se hace rollback.
type TxFunc func(ctx context.Context, tx Repositories) error

// AdapterConnection es una conexión activa.
type AdapterConnection interface {
	Repositories

	Name() string
	Ping(ctx context.Context) error
	Close() error

	// WithinTx ejecuta fn como una única escritura lógica: todo o nada.
	WithinTx(ctx context.Context, fn TxFunc) error
}

// AdapterConfig configuración de conexión.
type AdapterConfig struct {
	// Name del adapter: "memory" | "postgres"
	Name     string
	DSN      string
	MaxConns int32
}

var (
	registryMu sync.RWMutex
	adapters   = map[string]Adapter{}
)

// RegisterAdapter registra un adapter. Duplicados son un bug de programación.
func RegisterAdapter(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()

	name := a.Name()
	if _, exists := adapters[name]; exists {
		panic(fmt.Sprintf("store: adapter %q already registered", name))
	}
	adapters[name] = a
}

// GetAdapter obtiene un adapter por nombre.
func GetAdapter(name string) (Adapter, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := adapters[name]
	return a, ok
}

// Adapters lista los nombres registrados, ordenados.
func Adapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(adapters))
	for n := range adapters {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Open abre una conexión con el adapter indicado en cfg.Name.
func Open(ctx context.Context, cfg AdapterConfig) (AdapterConnection, error) {
	a, ok := GetAdapter(cfg.Name)
	if !ok {
		return nil, fmt.Errorf("store: adapter %q not registered (have %v)", cfg.Name, Adapters())
	}
	conn, err := a.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store: connect %s: %w", cfg.Name, err)
	}
	return conn, nil
}
