package manager

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/domain/repository"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/observability/logger"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/result"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/store"
)

type RoleManager struct {
	repos store.Repositories
}

func NewRoleManager(repos store.Repositories) *RoleManager {
	return &RoleManager{repos: repos}
}

// Create usa el RoleID recibido; un nombre repetido (sin distinguir
// mayúsculas) o un id repetido es Conflict.
func (m *RoleManager) Create(ctx context.Context, cmd CreateRoleCommand) result.Of[uuid.UUID] {
	log := logger.From(ctx).With(
		logger.Layer("manager"),
		logger.Component("manager.roles"),
		logger.Op("Create"),
		logger.RoleID(cmd.RoleID.String()),
		logger.RoleName(cmd.Name),
	)
	if cmd.RoleID == uuid.Nil {
		return result.Fail[uuid.UUID](result.Validationf("role_id is required"))
	}
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return result.Fail[uuid.UUID](result.Validationf("role_name is required"))
	}
	if err := m.repos.Roles().Create(ctx, repository.Role{ID: cmd.RoleID, Name: name}); err != nil {
		e := fromCreate(err, "role", name)
		if e.Kind == result.Unexpected {
			log.Error("failed to create role", logger.Err(err))
		}
		return result.Fail[uuid.UUID](e)
	}
	log.Info("role created")
	return result.Ok(cmd.RoleID)
}

func (m *RoleManager) Get(ctx context.Context, q GetRoleQuery) result.Of[repository.Role] {
	if q.RoleID == uuid.Nil {
		return result.Fail[repository.Role](result.Validationf("role_id is required"))
	}
	r, err := m.repos.Roles().Get(ctx, q.RoleID)
	if err != nil {
		return result.Fail[repository.Role](fromStore(err, "role %s not found", q.RoleID))
	}
	return result.Ok(*r)
}

func (m *RoleManager) GetAll(ctx context.Context, _ GetRolesQuery) result.Of[[]repository.Role] {
	list, err := m.repos.Roles().List(ctx)
	if err != nil {
		return result.Fail[[]repository.Role](fromStore(err, "list roles"))
	}
	if list == nil {
		list = []repository.Role{}
	}
	return result.Ok(list)
}
