package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/domain/repository"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/observability/logger"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/store"
)

func init() {
	store.RegisterAdapter(&postgresAdapter{})
}

type postgresAdapter struct{}

func (a *postgresAdapter) Name() string { return "postgres" }

func (a *postgresAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (store.AdapterConnection, error) {
	pool, err := newPool(ctx, cfg.DSN, cfg.MaxConns)
	if err != nil {
		return nil, err
	}
	logger.From(ctx).Info("postgres connected",
		logger.Component("store.pg"),
		logger.Int("max_conns", int(pool.Config().MaxConns)),
	)
	return NewConn(pool), nil
}

// Conn implementa store.AdapterConnection sobre un PgxPool.
type Conn struct {
	pool PgxPool
}

// NewConn envuelve un pool ya abierto (o un pgxmock en tests).
func NewConn(pool PgxPool) *Conn { return &Conn{pool: pool} }

var _ store.AdapterConnection = (*Conn)(nil)

func (c *Conn) Name() string                   { return "postgres" }
func (c *Conn) Ping(ctx context.Context) error { return c.pool.Ping(ctx) }
func (c *Conn) Close() error                   { c.pool.Close(); return nil }

func (c *Conn) repos() repos { return repos{q: c.pool, concurrent: true} }

func (c *Conn) Clients() repository.ClientRepository           { return clientRepo{c.repos()} }
func (c *Conn) ApiResources() repository.ApiResourceRepository { return apiResourceRepo{c.repos()} }
func (c *Conn) ApiScopes() repository.ApiScopeRepository       { return apiScopeRepo{c.repos()} }
func (c *Conn) IdentityResources() repository.IdentityResourceRepository {
	return identityRepo{c.repos()}
}
func (c *Conn) Roles() repository.RoleRepository { return roleRepo{c.repos()} }
func (c *Conn) Users() repository.UserRepository { return userRepo{c.repos()} }

// WithinTx abre una transacción; cualquier error de fn (o del commit) hace rollback.
func (c *Conn) WithinTx(ctx context.Context, fn store.TxFunc) error {
	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return mapErr("begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, repos{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapErr("commit", err)
	}
	return nil
}

// repos implementa store.Repositories sobre un querier (pool o tx).
type repos struct {
	q querier
	// concurrent habilita consultas en paralelo; una pgx.Tx no lo soporta.
	concurrent bool
}

func (r repos) Clients() repository.ClientRepository           { return clientRepo{r} }
func (r repos) ApiResources() repository.ApiResourceRepository { return apiResourceRepo{r} }
func (r repos) ApiScopes() repository.ApiScopeRepository       { return apiScopeRepo{r} }
func (r repos) IdentityResources() repository.IdentityResourceRepository {
	return identityRepo{r}
}
func (r repos) Roles() repository.RoleRepository { return roleRepo{r} }
func (r repos) Users() repository.UserRepository { return userRepo{r} }

// fanOut corre las consultas en paralelo con errgroup si el querier lo permite.
func (r repos) fanOut(ctx context.Context, fns ...func(ctx context.Context) error) error {
	if !r.concurrent {
		for _, fn := range fns {
			if err := fn(ctx); err != nil {
				return err
			}
		}
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, fn := range fns {
		g.Go(func() error { return fn(gctx) })
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("pg: fan-out: %w", err)
	}
	return nil
}
