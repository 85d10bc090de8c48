package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"admin-rbac/internal/catalog"
	"admin-rbac/internal/domain"
	"admin-rbac/internal/ports"
)

// AdminCredentials are supplied by configuration; nothing here defaults them.
type AdminCredentials struct {
	Email    string
	Password string
	Name     string
}

type Bootstrapper struct {
	roles    ports.RoleRepository
	users    ports.UserRepository
	hasher   ports.PasswordHasher
	notifier ports.CredentialNotifier
	logger   ports.Logger
	admin    AdminCredentials
}

func NewBootstrapper(
	roles ports.RoleRepository,
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	notifier ports.CredentialNotifier,
	logger ports.Logger,
	admin AdminCredentials,
) *Bootstrapper {
	return &Bootstrapper{roles: roles, users: users, hasher: hasher, notifier: notifier, logger: logger, admin: admin}
}

// CreateDefaultRoles makes sure every catalog role has exactly one live
// record. Existing records keep their matrix. It returns how many records
// were created.
func (b *Bootstrapper) CreateDefaultRoles(ctx context.Context) (int, error) {
	created := 0
	for _, name := range catalog.SystemRoleNames() {
		matrix, err := catalog.DefaultMatrix(name)
		if err != nil {
			return created, err
		}
		now := time.Now().UTC()
		ok, err := b.roles.CreateIfAbsent(ctx, domain.Role{
			ID:          uuid.NewString(),
			Name:        name,
			Kind:        domain.RoleKindSystem,
			Description: "System role " + name,
			Permissions: matrix,
			Status:      domain.RoleStatusActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return created, fmt.Errorf("create role %s: %w", name, err)
		}
		if ok {
			created++
			b.logger.Info(ctx, "system role created", "role", name)
			continue
		}
		if err := b.reconcileExistingRole(ctx, name, matrix); err != nil {
			return created, err
		}
	}
	return created, nil
}

func (b *Bootstrapper) reconcileExistingRole(ctx context.Context, name string, matrix domain.Matrix) error {
	existing, err := b.roles.GetByName(ctx, name)
	if err != nil {
		return fmt.Errorf("load role %s: %w", name, err)
	}
	switch {
	case existing.IsDeleted:
		existing.IsDeleted = false
		existing.Status = domain.RoleStatusActive
		existing.Kind = domain.RoleKindSystem
		existing.Permissions = matrix
		b.logger.Warn(ctx, "restoring soft-deleted system role", "role", name)
	case existing.Status != domain.RoleStatusActive, existing.Kind != domain.RoleKindSystem, existing.PermissionsDrift:
		b.logger.Warn(ctx, "repairing system role", "role", name,
			"status", existing.Status, "kind", existing.Kind, "dropped_permissions", existing.PermissionsDrift)
		existing.Status = domain.RoleStatusActive
		existing.Kind = domain.RoleKindSystem
		existing.PermissionsDrift = false
	default:
		return nil
	}
	existing.UpdatedAt = time.Now().UTC()
	if err := b.roles.Update(ctx, existing); err != nil {
		return fmt.Errorf("restore role %s: %w", name, err)
	}
	return nil
}

// EnsureInitialAdmin creates the configured administrator when no active
// administrator exists. It reports whether this call created the account.
func (b *Bootstrapper) EnsureInitialAdmin(ctx context.Context) (bool, error) {
	exists, err := b.adminExists(ctx)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if b.admin.Email == "" || b.admin.Password == "" {
		return false, fmt.Errorf("%w: administrator email and password are required", domain.ErrInvalidInput)
	}

	role, err := b.roles.GetByName(ctx, catalog.SuperAdminName)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && role.IsDeleted) {
		return false, fmt.Errorf("%w: role %q is missing", domain.ErrBootstrapInvariant, catalog.SuperAdminName)
	}
	if err != nil {
		return false, err
	}

	hash, err := b.hasher.Hash(b.admin.Password)
	if err != nil {
		return false, fmt.Errorf("hash administrator password: %w", err)
	}
	now := time.Now().UTC()
	created, err := b.users.CreateIfAbsent(ctx, domain.User{
		ID:                 uuid.NewString(),
		Email:              b.admin.Email,
		Name:               b.admin.Name,
		PasswordHash:       hash,
		Role:               catalog.SuperAdminName,
		PermissionSnapshot: role.Permissions.Clone(),
		Status:             domain.UserStatusActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	})
	if err != nil {
		return false, fmt.Errorf("create administrator: %w", err)
	}
	if !created {
		b.logger.Info(ctx, "administrator already created by another instance", "email", b.admin.Email)
		return false, nil
	}
	b.logger.Info(ctx, "initial administrator created", "email", b.admin.Email)
	if err := b.notifier.AdminCreated(ctx, b.admin.Email, b.admin.Password); err != nil {
		b.logger.Error(ctx, "failed to deliver administrator credentials", "email", b.admin.Email, "error", err)
	}
	return true, nil
}

// IsSystemInitialized reports whether every system role exists and an
// active administrator is present.
func (b *Bootstrapper) IsSystemInitialized(ctx context.Context) (bool, error) {
	n, err := b.roles.CountSystem(ctx)
	if err != nil {
		return false, err
	}
	if n < len(catalog.SystemRoleNames()) {
		return false, nil
	}
	return b.adminExists(ctx)
}

// adminExists matches the usual spellings in the store first and only then
// resolves every active user's role, so any casing the catalog accepts
// counts.
func (b *Bootstrapper) adminExists(ctx context.Context) (bool, error) {
	n, err := b.users.CountActiveByRoles(ctx, catalog.AdminCapableNames())
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	users, err := b.users.List(ctx)
	if err != nil {
		return false, err
	}
	for _, u := range users {
		if u.Live() && u.Status == domain.UserStatusActive && catalog.IsAdminCapable(u.Role) {
			b.logger.Warn(ctx, "administrator found under a non-standard role spelling", "email", u.Email, "role", u.Role)
			return true, nil
		}
	}
	return false, nil
}
