package ports

import (
	"context"

	"admin-rbac/internal/domain"
)

// RoleRepository persists roles. Implementations enforce uniqueness on
// Role.Name.
type RoleRepository interface {
	// CreateIfAbsent stores role unless a record with the same name exists,
	// soft-deleted or not. It reports whether this call created it.
	CreateIfAbsent(ctx context.Context, role domain.Role) (bool, error)
	GetByName(ctx context.Context, name string) (domain.Role, error)
	// List returns every role that is not soft-deleted.
	List(ctx context.Context) ([]domain.Role, error)
	Update(ctx context.Context, role domain.Role) error
	// CountSystem counts system-kind roles that are not soft-deleted.
	CountSystem(ctx context.Context) (int, error)
}

// UserRepository persists users. Implementations enforce uniqueness on
// User.Email.
type UserRepository interface {
	CreateIfAbsent(ctx context.Context, user domain.User) (bool, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	// List returns every user that is not soft-deleted.
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, user domain.User) error
	// CountActiveByRoles counts active, non-deleted users whose stored role
	// name is one of roles, compared verbatim.
	CountActiveByRoles(ctx context.Context, roles []string) (int, error)
}
