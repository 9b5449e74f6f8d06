// Package controllers traduce HTTP a commands/queries del mediator y los
// resultados a DTOs. Cada controller resuelve sus handlers una sola vez.
package controllers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	httperrors "github.com/TransactionProcessing/SecurityService-sub001/internal/http/errors"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/mediator"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/observability/logger"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/result"
)

// Controllers agrupa los controllers del API admin.
type Controllers struct {
	Clients           *ClientsController
	ApiResources      *ApiResourcesController
	ApiScopes         *ApiScopesController
	IdentityResources *IdentityResourcesController
	Roles             *RolesController
	Users             *UsersController
	Account           *AccountController
	Health            *HealthController
}

// New resuelve todos los handlers del bus. Un handler faltante es un bug de
// wiring y hace panic al arrancar.
func New(bus *mediator.Bus, health *HealthController) *Controllers {
	return &Controllers{
		Clients:           NewClientsController(bus),
		ApiResources:      NewApiResourcesController(bus),
		ApiScopes:         NewApiScopesController(bus),
		IdentityResources: NewIdentityResourcesController(bus),
		Roles:             NewRolesController(bus),
		Users:             NewUsersController(bus),
		Account:           NewAccountController(bus),
		Health:            health,
	}
}

func opLog(r *http.Request, op string) *zap.Logger {
	return logger.From(r.Context()).With(logger.Layer("controller"), logger.Op(op))
}

// fail escribe el fallo de negocio. Solo Unexpected se loguea como error.
func fail(w http.ResponseWriter, log *zap.Logger, e *result.Error) {
	if e == nil {
		e = result.Wrap(errors.New("failure without error"))
	}
	switch e.Kind {
	case result.Unexpected:
		log.Error("request failed", logger.Err(e))
	case result.Cancelled:
		log.Warn("request cancelled", logger.Err(e))
	default:
		log.Info("request rejected",
			logger.Kind(e.Kind.String()),
			logger.String("reason", e.Message),
		)
	}
	httperrors.WriteError(w, httperrors.FromResult(e))
}
