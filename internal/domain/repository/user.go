package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role es un rol de autorización. El ID lo asigna quien llama.
type Role struct {
	ID   uuid.UUID
	Name string
}

// User es una cuenta; UserName es el email de login.
type User struct {
	ID             uuid.UUID
	UserName       string
	Email          string
	EmailConfirmed bool
	GivenName      string
	MiddleName     string
	FamilyName     string
	PhoneNumber    string
	PasswordHash   string
	Claims         map[string]string
	Roles          []string
	CreatedAt      time.Time
}

// Normalize es la forma canónica usada para unicidad de user_name y nombre de rol.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

type RoleRepository interface {
	// Create retorna ErrConflict si el id o el nombre (normalizado) ya existen.
	Create(ctx context.Context, r Role) error
	Get(ctx context.Context, id uuid.UUID) (*Role, error)
	GetByName(ctx context.Context, name string) (*Role, error)
	List(ctx context.Context) ([]Role, error)
}

type UserRepository interface {
	// Create inserta solo la fila del usuario; claims y roles van aparte.
	// ErrConflict si el id o el user_name (normalizado) ya existen.
	Create(ctx context.Context, u User) error
	// SetClaims agrega o reemplaza claims por tipo.
	SetClaims(ctx context.Context, userID uuid.UUID, claims map[string]string) error
	// AddToRoles asigna roles existentes por nombre; ErrNotFound si alguno falta.
	AddToRoles(ctx context.Context, userID uuid.UUID, roleNames []string) error

	// Get y GetByUserName devuelven el usuario con claims y roles cargados.
	Get(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUserName(ctx context.Context, userName string) (*User, error)
	// List filtra por user_name (contiene, sin distinguir mayúsculas); "" lista todo.
	List(ctx context.Context, userNameFilter string) ([]User, error)

	// UpdatePasswordHash reemplaza oldHash por newHash solo si oldHash sigue
	// vigente; si otro cambio ganó retorna ErrConflict.
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, oldHash, newHash string) error
	SetEmailConfirmed(ctx context.Context, id uuid.UUID, confirmed bool) error
}
