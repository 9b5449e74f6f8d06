package manager

import (
	"context"
	"maps"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/domain/repository"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/observability/logger"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/result"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/security/password"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/store"
)

// Passwords agrupa política y parámetros de hashing de contraseñas de usuario.
type Passwords struct {
	Policy password.Policy
	Params password.Params
}

// check aplica la política; nil si la contraseña es aceptable.
func (p Passwords) check(pwd string) *result.Error {
	if pwd == "" {
		return result.Validationf("password is required")
	}
	if ok, reasons := p.Policy.Validate(pwd); !ok {
		return result.Validationf("password does not meet policy: %s", strings.Join(reasons, ","))
	}
	return nil
}

func (p Passwords) hash(pwd string) (string, error) {
	params := p.Params
	if params.Memory == 0 {
		params = password.Default
	}
	return password.Hash(params, pwd)
}

type UserManager struct {
	st  Store
	pwd Passwords
}

func NewUserManager(st Store, pwd Passwords) *UserManager {
	return &UserManager{st: st, pwd: pwd}
}

const componentUsers = "manager.users"

// Create valida, verifica que existan todos los roles y escribe usuario,
// claims y roles en una sola transacción.
func (m *UserManager) Create(ctx context.Context, cmd CreateUserCommand) result.Of[uuid.UUID] {
	log := logger.From(ctx).With(
		logger.Layer("manager"),
		logger.Component(componentUsers),
		logger.Op("Create"),
		logger.UserID(cmd.UserID.String()),
		logger.UserName(cmd.EmailAddress),
	)

	if cmd.UserID == uuid.Nil {
		return result.Fail[uuid.UUID](result.Validationf("user_id is required"))
	}
	email := strings.TrimSpace(cmd.EmailAddress)
	if email == "" {
		return result.Fail[uuid.UUID](result.Validationf("email_address is required"))
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return result.Fail[uuid.UUID](result.Validationf("email_address %q is not valid", email))
	}
	if e := m.pwd.check(cmd.Password); e != nil {
		return result.Fail[uuid.UUID](e)
	}

	roles := set(cmd.Roles)
	for _, r := range roles {
		if _, err := m.st.Roles().GetByName(ctx, r); err != nil {
			return result.Fail[uuid.UUID](fromStore(err, "role %s not found", r))
		}
	}

	hash, err := m.pwd.hash(cmd.Password)
	if err != nil {
		log.Error("password hash failed", logger.Err(err))
		return result.Fail[uuid.UUID](result.Wrap(err))
	}
	u := repository.User{
		ID:           cmd.UserID,
		UserName:     email,
		Email:        email,
		GivenName:    strings.TrimSpace(cmd.GivenName),
		MiddleName:   strings.TrimSpace(cmd.MiddleName),
		FamilyName:   strings.TrimSpace(cmd.FamilyName),
		PhoneNumber:  strings.TrimSpace(cmd.PhoneNumber),
		PasswordHash: hash,
	}
	claims := standardClaims(u)
	// las claims de quien llama pisan a las estándar
	maps.Copy(claims, cmd.Claims)

	err = m.st.WithinTx(ctx, func(ctx context.Context, tx store.Repositories) error {
		if err := tx.Users().Create(ctx, u); err != nil {
			return err
		}
		if len(claims) > 0 {
			if err := tx.Users().SetClaims(ctx, u.ID, claims); err != nil {
				return err
			}
		}
		if len(roles) > 0 {
			return tx.Users().AddToRoles(ctx, u.ID, roles)
		}
		return nil
	})
	if err != nil {
		var e *result.Error
		switch {
		case repository.IsConflict(err):
			e = fromStore(err, "user %s already exists", email)
		case repository.IsNotFound(err):
			// un rol borrado entre la validación y el commit
			e = fromStore(err, "role not found while assigning roles to %s", email)
		default:
			e = fromStore(err, "create user %s", email)
		}
		if e.Kind == result.Unexpected {
			log.Error("failed to create user", logger.Err(err))
		} else {
			log.Debug("user rejected", logger.Kind(e.Kind.String()))
		}
		return result.Fail[uuid.UUID](e)
	}
	log.Info("user created", logger.Int("roles", len(roles)), logger.Int("claims", len(claims)))
	return result.Ok(u.ID)
}

func standardClaims(u repository.User) map[string]string {
	out := map[string]string{}
	add := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	add("given_name", u.GivenName)
	add("middle_name", u.MiddleName)
	add("family_name", u.FamilyName)
	add("email", u.Email)
	return out
}

func (m *UserManager) Get(ctx context.Context, q GetUserQuery) result.Of[repository.User] {
	if q.UserID == uuid.Nil {
		return result.Fail[repository.User](result.Validationf("user_id is required"))
	}
	u, err := m.st.Users().Get(ctx, q.UserID)
	if err != nil {
		return result.Fail[repository.User](fromStore(err, "user %s not found", q.UserID))
	}
	return result.Ok(*u)
}

// GetAll filtra por user name; filtro vacío lista todos. Sin resultados es
// lista vacía, no NotFound.
func (m *UserManager) GetAll(ctx context.Context, q GetUsersQuery) result.Of[[]repository.User] {
	list, err := m.st.Users().List(ctx, strings.TrimSpace(q.UserName))
	if err != nil {
		logger.From(ctx).Error("failed to list users", logger.Component(componentUsers), logger.Err(err))
		return result.Fail[[]repository.User](fromStore(err, "list users"))
	}
	if list == nil {
		list = []repository.User{}
	}
	return result.Ok(list)
}
