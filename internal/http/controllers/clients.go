package controllers

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/domain/repository"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/http/dto"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/http/helpers"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/manager"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/mediator"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/observability/logger"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/result"
)

// ClientsController maneja /api/clients
type ClientsController struct {
	create mediator.Handler[manager.CreateClientCommand, result.Of[string]]
	get    mediator.Handler[manager.GetClientQuery, result.Of[repository.Client]]
	list   mediator.Handler[manager.GetClientsQuery, result.Of[[]repository.Client]]
}

func NewClientsController(bus *mediator.Bus) *ClientsController {
	return &ClientsController{
		create: mediator.MustResolve[manager.CreateClientCommand, result.Of[string]](bus),
		get:    mediator.MustResolve[manager.GetClientQuery, result.Of[repository.Client]](bus),
		list:   mediator.MustResolve[manager.GetClientsQuery, result.Of[[]repository.Client]](bus),
	}
}

// Create maneja POST /api/clients
func (c *ClientsController) Create(w http.ResponseWriter, r *http.Request) {
	log := opLog(r, "ClientsController.Create")

	var req dto.CreateClientRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	res := c.create.Handle(r.Context(), req.Command())
	if !res.IsSuccess() {
		fail(w, log, res.Err())
		return
	}

	log.Info("client created", logger.ClientID(res.Value()))
	w.Header().Set("Location", "/api/clients/"+url.PathEscape(res.Value()))
	helpers.WriteJSON(w, http.StatusCreated, dto.CreateClientResponse{ClientID: res.Value()})
}

// Get maneja GET /api/clients/{clientId}
func (c *ClientsController) Get(w http.ResponseWriter, r *http.Request) {
	log := opLog(r, "ClientsController.Get")

	res := c.get.Handle(r.Context(), manager.GetClientQuery{ClientID: chi.URLParam(r, "clientId")})
	if !res.IsSuccess() {
		fail(w, log, res.Err())
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ToClientDetails(res.Value()))
}

// List maneja GET /api/clients
func (c *ClientsController) List(w http.ResponseWriter, r *http.Request) {
	log := opLog(r, "ClientsController.List")

	res := c.list.Handle(r.Context(), manager.GetClientsQuery{})
	if !res.IsSuccess() {
		fail(w, log, res.Err())
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.Map(res.Value(), dto.ToClientDetails))
}
