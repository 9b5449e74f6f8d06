// Package router arma el árbol de rutas chi del API admin.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/config"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/http/controllers"
	httperrors "github.com/TransactionProcessing/SecurityService-sub001/internal/http/errors"
	mw "github.com/TransactionProcessing/SecurityService-sub001/internal/http/middlewares"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/metrics"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/rate"
)

// Deps contiene las dependencias del router.
type Deps struct {
	Config      *config.Config
	Controllers *controllers.Controllers
	// Metrics y Limiter son opcionales.
	Metrics *metrics.Metrics
	Limiter rate.Limiter
}

// New construye el handler HTTP.
// Orden: recover -> request id -> real ip -> cors -> logging -> body limit.
func New(d Deps) http.Handler {
	cfg := d.Config
	if cfg == nil {
		cfg = config.Default()
	}
	c := d.Controllers

	r := chi.NewRouter()
	r.Use(
		mw.WithRecover(),
		mw.WithRequestID(),
		middleware.RealIP,
		corsHandler(cfg.Server.CORSAllowedOrigins),
		mw.WithLogging(d.Metrics),
		mw.WithBodyLimit(cfg.Server.MaxBodyBytes),
	)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	// ─── Operación ───
	if c.Health != nil {
		r.Get("/healthz", c.Health.Healthz)
		r.Get("/readyz", c.Health.Readyz)
	}
	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())

	limit := func(name string, rl config.RateLimit) func(http.Handler) http.Handler {
		var l rate.Limiter
		if cfg.Rate.Enabled {
			l = d.Limiter
		}
		return mw.WithRateLimit(mw.RateLimitConfig{
			Limiter: l,
			Name:    name,
			Limit:   rl.Limit,
			Window:  rl.Window,
			Metrics: d.Metrics,
		})
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/clients", func(r chi.Router) {
			r.Post("/", c.Clients.Create)
			r.Get("/", c.Clients.List)
			r.Get("/{clientId}", c.Clients.Get)
		})
		r.Route("/apiresources", func(r chi.Router) {
			r.Post("/", c.ApiResources.Create)
			r.Get("/", c.ApiResources.List)
			r.Get("/{name}", c.ApiResources.Get)
		})
		r.Route("/apiscopes", func(r chi.Router) {
			r.Post("/", c.ApiScopes.Create)
			r.Get("/", c.ApiScopes.List)
			r.Get("/{name}", c.ApiScopes.Get)
		})
		r.Route("/identityresources", func(r chi.Router) {
			r.Post("/", c.IdentityResources.Create)
			r.Get("/", c.IdentityResources.List)
			r.Get("/{name}", c.IdentityResources.Get)
		})
		r.Route("/roles", func(r chi.Router) {
			r.Post("/", c.Roles.Create)
			r.Get("/", c.Roles.List)
			r.Get("/{roleId}", c.Roles.Get)
		})
		r.Route("/users", func(r chi.Router) {
			r.Post("/", c.Users.Create)
			r.Get("/", c.Users.List)

			r.With(limit("change_password", cfg.Rate.ChangePassword)).
				Post("/changepassword", c.Account.ChangePassword)
			r.Post("/confirmemail", c.Account.ConfirmEmail)
			r.With(limit("password_reset", cfg.Rate.PasswordReset)).
				Post("/passwordreset", c.Account.PasswordReset)
			r.Post("/passwordreset/confirm", c.Account.PasswordResetConfirm)
			r.Post("/welcomeemail", c.Account.WelcomeEmail)

			r.Get("/{userId}", c.Users.Get)
		})
	})
	return r
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", mw.HeaderRequestID},
		ExposedHeaders:   []string{mw.HeaderRequestID, "Location", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           600,
	})
}
