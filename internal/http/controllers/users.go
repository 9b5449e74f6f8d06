package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/domain/repository"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/http/dto"
	httperrors "github.com/TransactionProcessing/SecurityService-sub001/internal/http/errors"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/http/helpers"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/manager"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/mediator"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/observability/logger"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/result"
)

// pathID parsea un GUID de la ruta; escribe 400 si es inválido.
func pathID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail(param+" must be a GUID"))
		return uuid.Nil, false
	}
	return id, true
}

// =================================================================================
// ROLES
// =================================================================================

// RolesController maneja /api/roles
type RolesController struct {
	create mediator.Handler[manager.CreateRoleCommand, result.Of[uuid.UUID]]
	get    mediator.Handler[manager.GetRoleQuery, result.Of[repository.Role]]
	list   mediator.Handler[manager.GetRolesQuery, result.Of[[]repository.Role]]
}

func NewRolesController(bus *mediator.Bus) *RolesController {
	return &RolesController{
		create: mediator.MustResolve[manager.CreateRoleCommand, result.Of[uuid.UUID]](bus),
		get:    mediator.MustResolve[manager.GetRoleQuery, result.Of[repository.Role]](bus),
		list:   mediator.MustResolve[manager.GetRolesQuery, result.Of[[]repository.Role]](bus),
	}
}

func (c *RolesController) Create(w http.ResponseWriter, r *http.Request) {
	log := opLog(r, "RolesController.Create")

	var req dto.CreateRoleRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	cmd, err := req.Command()
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail(err.Error()))
		return
	}
	res := c.create.Handle(r.Context(), cmd)
	if !res.IsSuccess() {
		fail(w, log, res.Err())
		return
	}

	id := res.Value().String()
	log.Info("role created", logger.RoleID(id), logger.RoleName(cmd.Name))
	w.Header().Set("Location", "/api/roles/"+id)
	helpers.WriteJSON(w, http.StatusCreated, dto.CreateRoleResponse{RoleID: id})
}

// Get maneja GET /api/roles/{roleId}
func (c *RolesController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "roleId")
	if !ok {
		return
	}
	res := c.get.Handle(r.Context(), manager.GetRoleQuery{RoleID: id})
	if !res.IsSuccess() {
		fail(w, opLog(r, "RolesController.Get"), res.Err())
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ToRoleDetails(res.Value()))
}

func (c *RolesController) List(w http.ResponseWriter, r *http.Request) {
	res := c.list.Handle(r.Context(), manager.GetRolesQuery{})
	if !res.IsSuccess() {
		fail(w, opLog(r, "RolesController.List"), res.Err())
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.Map(res.Value(), dto.ToRoleDetails))
}

// =================================================================================
// USERS
// =================================================================================

// UsersController maneja /api/users (alta y lectura).
type UsersController struct {
	create mediator.Handler[manager.CreateUserCommand, result.Of[uuid.UUID]]
	get    mediator.Handler[manager.GetUserQuery, result.Of[repository.User]]
	list   mediator.Handler[manager.GetUsersQuery, result.Of[[]repository.User]]
}

func NewUsersController(bus *mediator.Bus) *UsersController {
	return &UsersController{
		create: mediator.MustResolve[manager.CreateUserCommand, result.Of[uuid.UUID]](bus),
		get:    mediator.MustResolve[manager.GetUserQuery, result.Of[repository.User]](bus),
		list:   mediator.MustResolve[manager.GetUsersQuery, result.Of[[]repository.User]](bus),
	}
}

func (c *UsersController) Create(w http.ResponseWriter, r *http.Request) {
	log := opLog(r, "UsersController.Create")

	var req dto.CreateUserRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	cmd, err := req.Command()
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail(err.Error()))
		return
	}
	res := c.create.Handle(r.Context(), cmd)
	if !res.IsSuccess() {
		fail(w, log, res.Err())
		return
	}

	id := res.Value().String()
	log.Info("user created", logger.UserID(id))
	w.Header().Set("Location", "/api/users/"+id)
	helpers.WriteJSON(w, http.StatusCreated, dto.CreateUserResponse{UserID: id})
}

// Get maneja GET /api/users/{userId}
func (c *UsersController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	res := c.get.Handle(r.Context(), manager.GetUserQuery{UserID: id})
	if !res.IsSuccess() {
		fail(w, opLog(r, "UsersController.Get"), res.Err())
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ToUserDetails(res.Value()))
}

// List maneja GET /api/users?userName=
func (c *UsersController) List(w http.ResponseWriter, r *http.Request) {
	res := c.list.Handle(r.Context(), manager.GetUsersQuery{UserName: r.URL.Query().Get("userName")})
	if !res.IsSuccess() {
		fail(w, opLog(r, "UsersController.List"), res.Err())
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.Map(res.Value(), dto.ToUserDetails))
}
