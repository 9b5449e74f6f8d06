package manager

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/domain/repository"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/messaging"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/observability/logger"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/result"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/security/password"
	tokens "github.com/TransactionProcessing/SecurityService-sub001/internal/security/token"
)

// AccountDeps son las dependencias de AccountManager.
type AccountDeps struct {
	Store     Store
	Passwords Passwords
	Tokens    *tokens.Issuer
	Sender    messaging.Sender
	Templates *messaging.Templates

	// BaseURL pública para los links de los emails.
	BaseURL            string
	DefaultRedirectURI string
	EmailConfirmTTL    time.Duration
	PasswordResetTTL   time.Duration
	// SendTimeout acota cada envío en segundo plano.
	SendTimeout time.Duration
}

// AccountManager implementa el ciclo de vida de la cuenta de usuario. Los
// tokens de flujo son JWT stateless: no hay estado de servidor entre pasos.
// Los emails salen en segundo plano; Close espera a los pendientes.
type AccountManager struct {
	d AccountDeps

	mu      sync.Mutex
	closed  bool
	pending sync.WaitGroup
}

func NewAccountManager(d AccountDeps) *AccountManager {
	if d.EmailConfirmTTL <= 0 {
		d.EmailConfirmTTL = 48 * time.Hour
	}
	if d.PasswordResetTTL <= 0 {
		d.PasswordResetTTL = time.Hour
	}
	if d.SendTimeout <= 0 {
		d.SendTimeout = 30 * time.Second
	}
	return &AccountManager{d: d}
}

// Flush espera a que terminen los envíos en curso.
func (m *AccountManager) Flush() { m.pending.Wait() }

// Close deja de aceptar envíos y espera a los pendientes.
func (m *AccountManager) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.pending.Wait()
	return nil
}

// dispatch corre fn fuera del request: sin la cancelación del request pero
// con sus valores (logger, request id) y un timeout propio.
func (m *AccountManager) dispatch(ctx context.Context, log *zap.Logger, fn func(ctx context.Context)) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		log.Warn("email dropped: account manager closed")
		return
	}
	m.pending.Add(1)
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.d.SendTimeout)
	go func() {
		defer m.pending.Done()
		defer cancel()
		fn(ctx)
	}()
}

const componentAccount = "manager.account"

func (m *AccountManager) log(ctx context.Context, op, userName string) *zap.Logger {
	return logger.From(ctx).With(
		logger.Layer("manager"),
		logger.Component(componentAccount),
		logger.Op(op),
		logger.UserName(userName),
	)
}

// passwordStamp cambia cada vez que cambia el hash: un token de reset
// emitido antes de un cambio de password deja de validar.
func passwordStamp(u *repository.User) string {
	return tokens.Stamp(u.ID.String(), u.PasswordHash)
}

// emailStamp ata la confirmación al email vigente.
func emailStamp(u *repository.User) string {
	return tokens.Stamp(u.ID.String(), repository.Normalize(u.Email))
}

func (m *AccountManager) findUser(ctx context.Context, userName string) (*repository.User, *result.Error) {
	u, err := m.d.Store.Users().GetByUserName(ctx, userName)
	if err != nil {
		return nil, fromStore(err, "user %s not found", userName)
	}
	return u, nil
}

// ChangeUserPassword verifica la contraseña actual y la reemplaza. Devuelve
// la URI a la que redirigir (según el client).
func (m *AccountManager) ChangeUserPassword(ctx context.Context, cmd ChangeUserPasswordCommand) result.Of[ChangePasswordResult] {
	log := m.log(ctx, "ChangeUserPassword", cmd.UserName)
	fail := result.Fail[ChangePasswordResult]

	switch {
	case blank(cmd.UserName):
		return fail(result.Validationf("user_name is required"))
	case cmd.CurrentPassword == "":
		return fail(result.Validationf("current_password is required"))
	}

	u, e := m.findUser(ctx, cmd.UserName)
	if e != nil {
		return fail(e)
	}
	if !password.Verify(cmd.CurrentPassword, u.PasswordHash) {
		log.Info("password change rejected: wrong current password")
		return fail(result.Unauthorizedf("old password incorrect"))
	}
	if e := m.d.Passwords.check(cmd.NewPassword); e != nil {
		return fail(e)
	}
	redirect, e := m.resolveRedirect(ctx, cmd.ClientID)
	if e != nil {
		return fail(e)
	}
	// un cambio concurrente invalida la verificación de la contraseña actual
	if e := m.setPassword(ctx, u, cmd.NewPassword, result.Unauthorizedf("old password incorrect")); e != nil {
		if e.Kind == result.Unexpected {
			log.Error("password change failed", logger.Err(e))
		}
		return fail(e)
	}
	log.Info("password changed")
	return result.Ok(ChangePasswordResult{RedirectURI: redirect})
}

// ConfirmUserEmailAddress valida el token de confirmación y marca el email
// como confirmado. Confirmar dos veces no es error.
func (m *AccountManager) ConfirmUserEmailAddress(ctx context.Context, cmd ConfirmUserEmailAddressCommand) result.Result {
	log := m.log(ctx, "ConfirmUserEmailAddress", cmd.UserName)
	switch {
	case blank(cmd.UserName):
		return result.Failure(result.Validationf("user_name is required"))
	case blank(cmd.ConfirmEmailToken):
		return result.Failure(result.Validationf("confirm_email_token is required"))
	}

	u, e := m.findUser(ctx, cmd.UserName)
	if e != nil {
		return result.Failure(e)
	}
	if e := m.verifyToken(cmd.ConfirmEmailToken, tokens.PurposeConfirmEmail, u, emailStamp(u)); e != nil {
		log.Info("email confirmation rejected", logger.String("reason", e.Message))
		return result.Failure(e)
	}
	if u.EmailConfirmed {
		return result.Success()
	}
	if err := m.d.Store.Users().SetEmailConfirmed(ctx, u.ID, true); err != nil {
		return result.Failure(fromStore(err, "user %s not found", cmd.UserName))
	}
	log.Info("email confirmed")
	return result.Success()
}

// ProcessPasswordResetRequest siempre responde Success, exista o no el
// usuario, para no filtrar qué cuentas existen. Solo si hay match se emite el
// token y se envía el email, ambos en segundo plano: la respuesta no espera
// al envío y un fallo solo se loguea.
func (m *AccountManager) ProcessPasswordResetRequest(ctx context.Context, cmd ProcessPasswordResetRequestCommand) result.Result {
	lookup := strings.TrimSpace(cmd.UserName)
	if lookup == "" {
		lookup = strings.TrimSpace(cmd.EmailAddress)
	}
	log := m.log(ctx, "ProcessPasswordResetRequest", logger.MaskEmail(lookup))
	if lookup == "" {
		return result.Failure(result.Validationf("user_name or email_address is required"))
	}

	u, err := m.d.Store.Users().GetByUserName(ctx, lookup)
	switch {
	case repository.IsNotFound(err):
		log.Debug("password reset requested for unknown user")
		return result.Success()
	case err != nil:
		return result.Failure(fromStore(err, "lookup user"))
	}
	if cmd.EmailAddress != "" && repository.Normalize(cmd.EmailAddress) != repository.Normalize(u.Email) {
		log.Debug("password reset requested with mismatched email")
		return result.Success()
	}

	m.dispatch(ctx, log, func(ctx context.Context) {
		tok, _, err := m.d.Tokens.Issue(u.ID.String(), tokens.PurposePasswordReset, passwordStamp(u), m.d.PasswordResetTTL)
		if err != nil {
			log.Error("reset token issue failed", logger.Err(err))
			return
		}
		link := m.link("/account/resetpassword", url.Values{
			"userName": {u.UserName},
			"token":    {tok},
			"clientId": {cmd.ClientID},
		})
		m.sendEmail(ctx, log, messaging.TemplatePasswordReset, u, link, m.d.PasswordResetTTL)
	})
	return result.Success()
}

// ProcessPasswordResetConfirmation valida el token de reset y fija la nueva
// contraseña. Devuelve la URI de redirección.
func (m *AccountManager) ProcessPasswordResetConfirmation(ctx context.Context, cmd ProcessPasswordResetConfirmationCommand) result.Of[string] {
	log := m.log(ctx, "ProcessPasswordResetConfirmation", cmd.UserName)
	fail := result.Fail[string]

	switch {
	case blank(cmd.UserName):
		return fail(result.Validationf("user_name is required"))
	case blank(cmd.Token):
		return fail(result.Validationf("token is required"))
	}
	u, e := m.findUser(ctx, cmd.UserName)
	if e != nil {
		return fail(e)
	}
	if e := m.verifyToken(cmd.Token, tokens.PurposePasswordReset, u, passwordStamp(u)); e != nil {
		log.Info("password reset rejected", logger.String("reason", e.Message))
		return fail(e)
	}
	if e := m.d.Passwords.check(cmd.NewPassword); e != nil {
		return fail(e)
	}
	redirect, e := m.resolveRedirect(ctx, cmd.ClientID)
	if e != nil {
		return fail(e)
	}
	// otra confirmación con el mismo token pudo ganar entre la lectura y la escritura
	if e := m.setPassword(ctx, u, cmd.NewPassword, result.Validationf("token is no longer valid")); e != nil {
		if e.Kind == result.Unexpected {
			log.Error("password reset failed", logger.Err(e))
		} else {
			log.Info("password reset rejected", logger.String("reason", e.Message))
		}
		return fail(e)
	}
	log.Info("password reset")
	return result.Ok(redirect)
}

// SendWelcomeEmail envía la bienvenida con el link de confirmación de email.
// Best-effort y en segundo plano: si el envío falla se loguea y la operación
// igual es Success.
func (m *AccountManager) SendWelcomeEmail(ctx context.Context, cmd SendWelcomeEmailCommand) result.Result {
	log := m.log(ctx, "SendWelcomeEmail", cmd.UserName)
	if blank(cmd.UserName) {
		return result.Failure(result.Validationf("user_name is required"))
	}
	u, e := m.findUser(ctx, cmd.UserName)
	if e != nil {
		return result.Failure(e)
	}
	m.dispatch(ctx, log, func(ctx context.Context) {
		tok, _, err := m.d.Tokens.Issue(u.ID.String(), tokens.PurposeConfirmEmail, emailStamp(u), m.d.EmailConfirmTTL)
		if err != nil {
			log.Error("confirmation token issue failed", logger.Err(err))
			return
		}
		link := m.link("/account/confirmemail", url.Values{
			"userName": {u.UserName},
			"token":    {tok},
		})
		m.sendEmail(ctx, log, messaging.TemplateWelcome, u, link, m.d.EmailConfirmTTL)
	})
	return result.Success()
}

func (m *AccountManager) verifyToken(raw string, purpose tokens.Purpose, u *repository.User, stamp string) *result.Error {
	c, err := m.d.Tokens.Parse(raw, purpose)
	if err != nil {
		return result.Validationf("invalid or expired token")
	}
	if c.Subject != u.ID.String() {
		return result.Validationf("invalid or expired token")
	}
	if c.Check(stamp) != nil {
		return result.Validationf("token is no longer valid")
	}
	return nil
}

// setPassword escribe el nuevo hash solo si u.PasswordHash sigue vigente;
// si no, devuelve stale.
func (m *AccountManager) setPassword(ctx context.Context, u *repository.User, plain string, stale *result.Error) *result.Error {
	hash, err := m.d.Passwords.hash(plain)
	if err != nil {
		return result.Wrap(err)
	}
	err = m.d.Store.Users().UpdatePasswordHash(ctx, u.ID, u.PasswordHash, hash)
	switch {
	case err == nil:
		return nil
	case repository.IsConflict(err):
		stale.Err = err
		return stale
	}
	return fromStore(err, "user %s not found", u.UserName)
}

// resolveRedirect: ClientURI del client, si no la primera post-logout
// redirect URI, si no la default. ClientID vacío usa la default.
func (m *AccountManager) resolveRedirect(ctx context.Context, clientID string) (string, *result.Error) {
	if blank(clientID) {
		return m.d.DefaultRedirectURI, nil
	}
	c, err := m.d.Store.Clients().Get(ctx, clientID)
	if err != nil {
		return "", fromStore(err, "client %s not found", clientID)
	}
	switch {
	case c.ClientURI != "":
		return c.ClientURI, nil
	case len(c.PostLogoutRedirectURIs) > 0:
		return c.PostLogoutRedirectURIs[0], nil
	}
	return m.d.DefaultRedirectURI, nil
}

func (m *AccountManager) link(path string, q url.Values) string {
	for k, v := range q {
		if len(v) == 0 || v[0] == "" {
			q.Del(k)
		}
	}
	return strings.TrimRight(m.d.BaseURL, "/") + path + "?" + q.Encode()
}

func (m *AccountManager) sendEmail(ctx context.Context, log *zap.Logger, tpl string, u *repository.User, link string, ttl time.Duration) {
	name := u.GivenName
	if name == "" {
		name = u.UserName
	}
	email, err := m.d.Templates.Render(tpl, u.Email, messaging.Vars{
		Name:     name,
		UserName: u.UserName,
		Link:     link,
		TTL:      messaging.HumanTTL(ttl),
	})
	if err != nil {
		log.Error("email render failed", logger.String("template", tpl), logger.Err(err))
		return
	}
	if err := m.d.Sender.SendEmail(ctx, email); err != nil {
		log.Warn("email send failed", logger.String("template", tpl), logger.Err(err))
		return
	}
	log.Info("email sent", logger.String("template", tpl))
}
