package controllers

import (
	"net/http"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/http/dto"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/http/helpers"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/manager"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/mediator"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/result"
)

// AccountController maneja los flujos de ciclo de vida del usuario.
// Nunca loguea contraseñas ni tokens.
type AccountController struct {
	changePassword mediator.Handler[manager.ChangeUserPasswordCommand, result.Of[manager.ChangePasswordResult]]
	confirmEmail   mediator.Handler[manager.ConfirmUserEmailAddressCommand, result.Result]
	resetRequest   mediator.Handler[manager.ProcessPasswordResetRequestCommand, result.Result]
	resetConfirm   mediator.Handler[manager.ProcessPasswordResetConfirmationCommand, result.Of[string]]
	welcome        mediator.Handler[manager.SendWelcomeEmailCommand, result.Result]
}

func NewAccountController(bus *mediator.Bus) *AccountController {
	return &AccountController{
		changePassword: mediator.MustResolve[manager.ChangeUserPasswordCommand, result.Of[manager.ChangePasswordResult]](bus),
		confirmEmail:   mediator.MustResolve[manager.ConfirmUserEmailAddressCommand, result.Result](bus),
		resetRequest:   mediator.MustResolve[manager.ProcessPasswordResetRequestCommand, result.Result](bus),
		resetConfirm:   mediator.MustResolve[manager.ProcessPasswordResetConfirmationCommand, result.Of[string]](bus),
		welcome:        mediator.MustResolve[manager.SendWelcomeEmailCommand, result.Result](bus),
	}
}

// ChangePassword maneja POST /api/users/changepassword
func (c *AccountController) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ChangeUserPasswordRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	res := c.changePassword.Handle(r.Context(), req.Command())
	if !res.IsSuccess() {
		fail(w, opLog(r, "AccountController.ChangePassword"), res.Err())
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.RedirectResponse{RedirectURI: res.Value().RedirectURI})
}

// ConfirmEmail maneja POST /api/users/confirmemail
func (c *AccountController) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	var req dto.ConfirmEmailRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	c.done(w, r, "AccountController.ConfirmEmail", c.confirmEmail.Handle(r.Context(), req.Command()))
}

// PasswordReset maneja POST /api/users/passwordreset. Responde 200 exista o no
// el usuario.
func (c *AccountController) PasswordReset(w http.ResponseWriter, r *http.Request) {
	var req dto.PasswordResetRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	c.done(w, r, "AccountController.PasswordReset", c.resetRequest.Handle(r.Context(), req.Command()))
}

// PasswordResetConfirm maneja POST /api/users/passwordreset/confirm
func (c *AccountController) PasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req dto.PasswordResetConfirmRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	res := c.resetConfirm.Handle(r.Context(), req.Command())
	if !res.IsSuccess() {
		fail(w, opLog(r, "AccountController.PasswordResetConfirm"), res.Err())
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.RedirectResponse{RedirectURI: res.Value()})
}

// WelcomeEmail maneja POST /api/users/welcomeemail
func (c *AccountController) WelcomeEmail(w http.ResponseWriter, r *http.Request) {
	var req dto.SendWelcomeEmailRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	c.done(w, r, "AccountController.WelcomeEmail", c.welcome.Handle(r.Context(), req.Command()))
}

func (c *AccountController) done(w http.ResponseWriter, r *http.Request, op string, res result.Result) {
	if !res.IsSuccess() {
		fail(w, opLog(r, op), res.Err())
		return
	}
	w.WriteHeader(http.StatusOK)
}
