package manager

import (
	"errors"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/mediator"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/security/secret"
)

// Managers agrupa todos los managers del servicio.
type Managers struct {
	Clients           *ClientManager
	ApiResources      *ApiResourceManager
	ApiScopes         *ApiScopeManager
	IdentityResources *IdentityResourceManager
	Roles             *RoleManager
	Users             *UserManager
	Account           *AccountManager
}

// New arma los managers sobre un mismo store. account.Store se completa con st.
func New(st Store, secrets secret.Hasher, pwd Passwords, account AccountDeps) Managers {
	account.Store = st
	account.Passwords = pwd
	return Managers{
		Clients:           NewClientManager(st, secrets),
		ApiResources:      NewApiResourceManager(st, secrets),
		ApiScopes:         NewApiScopeManager(st),
		IdentityResources: NewIdentityResourceManager(st),
		Roles:             NewRoleManager(st),
		Users:             NewUserManager(st, pwd),
		Account:           NewAccountManager(account),
	}
}

// Register registra un handler por cada command/query en el bus.
func (m Managers) Register(bus *mediator.Bus) error {
	return errors.Join(
		mediator.RegisterFunc(bus, m.Clients.Create),
		mediator.RegisterFunc(bus, m.Clients.Get),
		mediator.RegisterFunc(bus, m.Clients.GetAll),

		mediator.RegisterFunc(bus, m.ApiResources.Create),
		mediator.RegisterFunc(bus, m.ApiResources.Get),
		mediator.RegisterFunc(bus, m.ApiResources.GetAll),

		mediator.RegisterFunc(bus, m.ApiScopes.Create),
		mediator.RegisterFunc(bus, m.ApiScopes.Get),
		mediator.RegisterFunc(bus, m.ApiScopes.GetAll),

		mediator.RegisterFunc(bus, m.IdentityResources.Create),
		mediator.RegisterFunc(bus, m.IdentityResources.Get),
		mediator.RegisterFunc(bus, m.IdentityResources.GetAll),

		mediator.RegisterFunc(bus, m.Roles.Create),
		mediator.RegisterFunc(bus, m.Roles.Get),
		mediator.RegisterFunc(bus, m.Roles.GetAll),

		mediator.RegisterFunc(bus, m.Users.Create),
		mediator.RegisterFunc(bus, m.Users.Get),
		mediator.RegisterFunc(bus, m.Users.GetAll),

		mediator.RegisterFunc(bus, m.Account.ChangeUserPassword),
		mediator.RegisterFunc(bus, m.Account.ConfirmUserEmailAddress),
		mediator.RegisterFunc(bus, m.Account.ProcessPasswordResetRequest),
		mediator.RegisterFunc(bus, m.Account.ProcessPasswordResetConfirmation),
		mediator.RegisterFunc(bus, m.Account.SendWelcomeEmail),
	)
}
