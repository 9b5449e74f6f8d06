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

// =================================================================================
// API RESOURCES
// =================================================================================

// ApiResourcesController maneja /api/apiresources
type ApiResourcesController struct {
	create mediator.Handler[manager.CreateApiResourceCommand, result.Of[string]]
	get    mediator.Handler[manager.GetApiResourceQuery, result.Of[repository.ApiResource]]
	list   mediator.Handler[manager.GetApiResourcesQuery, result.Of[[]repository.ApiResource]]
}

func NewApiResourcesController(bus *mediator.Bus) *ApiResourcesController {
	return &ApiResourcesController{
		create: mediator.MustResolve[manager.CreateApiResourceCommand, result.Of[string]](bus),
		get:    mediator.MustResolve[manager.GetApiResourceQuery, result.Of[repository.ApiResource]](bus),
		list:   mediator.MustResolve[manager.GetApiResourcesQuery, result.Of[[]repository.ApiResource]](bus),
	}
}

func (c *ApiResourcesController) Create(w http.ResponseWriter, r *http.Request) {
	log := opLog(r, "ApiResourcesController.Create")

	var req dto.CreateApiResourceRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	res := c.create.Handle(r.Context(), req.Command())
	if !res.IsSuccess() {
		fail(w, log, res.Err())
		return
	}

	log.Info("api resource created", logger.ResourceName(res.Value()))
	w.Header().Set("Location", "/api/apiresources/"+url.PathEscape(res.Value()))
	helpers.WriteJSON(w, http.StatusCreated, dto.CreateApiResourceResponse{ApiResourceName: res.Value()})
}

func (c *ApiResourcesController) Get(w http.ResponseWriter, r *http.Request) {
	res := c.get.Handle(r.Context(), manager.GetApiResourceQuery{Name: chi.URLParam(r, "name")})
	if !res.IsSuccess() {
		fail(w, opLog(r, "ApiResourcesController.Get"), res.Err())
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ToApiResourceDetails(res.Value()))
}

func (c *ApiResourcesController) List(w http.ResponseWriter, r *http.Request) {
	res := c.list.Handle(r.Context(), manager.GetApiResourcesQuery{})
	if !res.IsSuccess() {
		fail(w, opLog(r, "ApiResourcesController.List"), res.Err())
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.Map(res.Value(), dto.ToApiResourceDetails))
}

// =================================================================================
// API SCOPES
// =================================================================================

// ApiScopesController maneja /api/apiscopes
type ApiScopesController struct {
	create mediator.Handler[manager.CreateApiScopeCommand, result.Of[string]]
	get    mediator.Handler[manager.GetApiScopeQuery, result.Of[repository.ApiScope]]
	list   mediator.Handler[manager.GetApiScopesQuery, result.Of[[]repository.ApiScope]]
}

func NewApiScopesController(bus *mediator.Bus) *ApiScopesController {
	return &ApiScopesController{
		create: mediator.MustResolve[manager.CreateApiScopeCommand, result.Of[string]](bus),
		get:    mediator.MustResolve[manager.GetApiScopeQuery, result.Of[repository.ApiScope]](bus),
		list:   mediator.MustResolve[manager.GetApiScopesQuery, result.Of[[]repository.ApiScope]](bus),
	}
}

func (c *ApiScopesController) Create(w http.ResponseWriter, r *http.Request) {
	log := opLog(r, "ApiScopesController.Create")

	var req dto.CreateApiScopeRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	res := c.create.Handle(r.Context(), req.Command())
	if !res.IsSuccess() {
		fail(w, log, res.Err())
		return
	}

	log.Info("api scope created", logger.ScopeName(res.Value()))
	w.Header().Set("Location", "/api/apiscopes/"+url.PathEscape(res.Value()))
	helpers.WriteJSON(w, http.StatusCreated, dto.CreateApiScopeResponse{ApiScopeName: res.Value()})
}

func (c *ApiScopesController) Get(w http.ResponseWriter, r *http.Request) {
	res := c.get.Handle(r.Context(), manager.GetApiScopeQuery{Name: chi.URLParam(r, "name")})
	if !res.IsSuccess() {
		fail(w, opLog(r, "ApiScopesController.Get"), res.Err())
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ToApiScopeDetails(res.Value()))
}

func (c *ApiScopesController) List(w http.ResponseWriter, r *http.Request) {
	res := c.list.Handle(r.Context(), manager.GetApiScopesQuery{})
	if !res.IsSuccess() {
		fail(w, opLog(r, "ApiScopesController.List"), res.Err())
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.Map(res.Value(), dto.ToApiScopeDetails))
}

// =================================================================================
// IDENTITY RESOURCES
// =================================================================================

// IdentityResourcesController maneja /api/identityresources
type IdentityResourcesController struct {
	create mediator.Handler[manager.CreateIdentityResourceCommand, result.Of[string]]
	get    mediator.Handler[manager.GetIdentityResourceQuery, result.Of[repository.IdentityResource]]
	list   mediator.Handler[manager.GetIdentityResourcesQuery, result.Of[[]repository.IdentityResource]]
}

func NewIdentityResourcesController(bus *mediator.Bus) *IdentityResourcesController {
	return &IdentityResourcesController{
		create: mediator.MustResolve[manager.CreateIdentityResourceCommand, result.Of[string]](bus),
		get:    mediator.MustResolve[manager.GetIdentityResourceQuery, result.Of[repository.IdentityResource]](bus),
		list:   mediator.MustResolve[manager.GetIdentityResourcesQuery, result.Of[[]repository.IdentityResource]](bus),
	}
}

func (c *IdentityResourcesController) Create(w http.ResponseWriter, r *http.Request) {
	log := opLog(r, "IdentityResourcesController.Create")

	var req dto.CreateIdentityResourceRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	res := c.create.Handle(r.Context(), req.Command())
	if !res.IsSuccess() {
		fail(w, log, res.Err())
		return
	}

	log.Info("identity resource created", logger.ResourceName(res.Value()))
	w.Header().Set("Location", "/api/identityresources/"+url.PathEscape(res.Value()))
	helpers.WriteJSON(w, http.StatusCreated, dto.CreateIdentityResourceResponse{IdentityResourceName: res.Value()})
}

func (c *IdentityResourcesController) Get(w http.ResponseWriter, r *http.Request) {
	res := c.get.Handle(r.Context(), manager.GetIdentityResourceQuery{Name: chi.URLParam(r, "name")})
	if !res.IsSuccess() {
		fail(w, opLog(r, "IdentityResourcesController.Get"), res.Err())
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ToIdentityResourceDetails(res.Value()))
}

func (c *IdentityResourcesController) List(w http.ResponseWriter, r *http.Request) {
	res := c.list.Handle(r.Context(), manager.GetIdentityResourcesQuery{})
	if !res.IsSuccess() {
		fail(w, opLog(r, "IdentityResourcesController.List"), res.Err())
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.Map(res.Value(), dto.ToIdentityResourceDetails))
}
