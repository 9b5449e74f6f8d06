// Package app arma el servicio completo a partir de la config: store,
// managers, bus, limiter, métricas y router. cmd/securityservice solo lo
// levanta.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/config"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/http/controllers"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/http/router"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/manager"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/mediator"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/messaging"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/metrics"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/observability/logger"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/rate"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/security/password"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/security/secret"
	tokens "github.com/TransactionProcessing/SecurityService-sub001/internal/security/token"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/store"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/store/migrate"

	_ "github.com/TransactionProcessing/SecurityService-sub001/internal/store/adapters/memory"
	_ "github.com/TransactionProcessing/SecurityService-sub001/internal/store/adapters/pg"
)

// App es el servicio cableado.
type App struct {
	Config   *config.Config
	Store    store.AdapterConnection
	Metrics  *metrics.Metrics
	Sender   messaging.Sender
	Bus      *mediator.Bus
	Managers manager.Managers
	Handler  http.Handler

	closers []func() error
}

// Build arma el servicio. Si falla a mitad de camino cierra lo ya abierto.
func Build(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	log := logger.From(ctx).With(logger.Layer("app"), logger.Op("Build"))
	a := &App{Config: cfg}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	// ─── Métricas ───
	if cfg.Metrics.Enabled {
		if a.Metrics, err = metrics.New(); err != nil {
			return nil, fmt.Errorf("app: metrics: %w", err)
		}
	}

	// ─── Store ───
	if cfg.Storage.Driver == "postgres" && cfg.Storage.MigrateOnStart {
		if err = migrate.Up(ctx, cfg.Storage.DSN); err != nil {
			return nil, fmt.Errorf("app: migrate: %w", err)
		}
	}
	a.Store, err = store.Open(ctx, store.AdapterConfig{
		Name:     cfg.Storage.Driver,
		DSN:      cfg.Storage.DSN,
		MaxConns: cfg.Storage.MaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("app: store: %w", err)
	}
	a.closers = append(a.closers, a.Store.Close)
	log.Info("store ready", logger.String("driver", a.Store.Name()))

	// ─── Tokens + passwords ───
	key := []byte(cfg.Tokens.SigningKey)
	if len(key) == 0 {
		if key, err = tokens.RandomKey(); err != nil {
			return nil, err
		}
		log.Warn("tokens.signing_key vacío: se generó una clave efímera, los links de email no sobreviven un reinicio")
	}
	issuer, err := tokens.NewIssuer(cfg.Tokens.Issuer, key)
	if err != nil {
		return nil, fmt.Errorf("app: tokens: %w", err)
	}

	pp := cfg.Security.PasswordPolicy
	policy := password.Policy{
		MinLength:     pp.MinLength,
		RequireUpper:  pp.RequireUpper,
		RequireLower:  pp.RequireLower,
		RequireDigit:  pp.RequireDigit,
		RequireSymbol: pp.RequireSymbol,
	}
	if path := cfg.Security.PasswordBlacklistPath; path != "" {
		if policy.Blacklist, err = password.LoadBlacklist(path); err != nil {
			return nil, fmt.Errorf("app: password blacklist: %w", err)
		}
		log.Info("password blacklist loaded", logger.Count(policy.Blacklist.Len()))
	}

	// ─── Mensajería ───
	if a.Sender, err = messaging.New(cfg, a.Metrics); err != nil {
		return nil, fmt.Errorf("app: messaging: %w", err)
	}
	templates, err := messaging.LoadTemplates()
	if err != nil {
		return nil, fmt.Errorf("app: templates: %w", err)
	}

	// ─── Managers + bus ───
	a.Managers = manager.New(a.Store, secret.New(cfg.Security.SecretHashCost),
		manager.Passwords{Policy: policy, Params: password.Default},
		manager.AccountDeps{
			Tokens:             issuer,
			Sender:             a.Sender,
			Templates:          templates,
			BaseURL:            cfg.Account.BaseURL,
			DefaultRedirectURI: cfg.Account.DefaultRedirectURI,
			EmailConfirmTTL:    cfg.Tokens.EmailConfirmTTL,
			PasswordResetTTL:   cfg.Tokens.PasswordResetTTL,
		})
	// los emails pendientes salen antes de cerrar el store
	a.closers = append(a.closers, a.Managers.Account.Close)
	if cfg.Storage.SeedOnStart {
		res := a.Managers.IdentityResources.SeedStandard(ctx)
		if !res.IsSuccess() {
			return nil, fmt.Errorf("app: seed: %w", res.Err())
		}
		log.Info("standard identity resources seeded", logger.Count(res.Value()))
	}

	a.Bus = mediator.New(mediator.Logging(), mediator.Metrics(a.Metrics))
	if err = a.Managers.Register(a.Bus); err != nil {
		return nil, fmt.Errorf("app: register handlers: %w", err)
	}

	// ─── Limiter + health ───
	checks := map[string]controllers.Check{"store": a.Store.Ping}
	var limiter rate.Limiter
	switch cfg.Cache.Kind {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.Redis.Addr, DB: cfg.Cache.Redis.DB})
		a.closers = append(a.closers, client.Close)
		limiter = rate.NewRedisLimiter(client, cfg.Cache.Redis.Prefix+"rl:")
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	default:
		limiter = rate.NewMemoryLimiter()
	}

	a.Handler = router.New(router.Deps{
		Config:      cfg,
		Controllers: controllers.New(a.Bus, controllers.NewHealthController(cfg.App.Version, checks)),
		Metrics:     a.Metrics,
		Limiter:     limiter,
	})
	log.Info("app built",
		logger.String("cache", cfg.Cache.Kind),
		logger.String("messaging", cfg.Messaging.Mode),
		logger.Bool("rate_enabled", cfg.Rate.Enabled),
	)
	return a, nil
}

// Close libera las conexiones en orden inverso a su apertura.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
