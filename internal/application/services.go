package application

import (
	"context"
	"errors"
	"strings"

	"admin-rbac/internal/authz"
	"admin-rbac/internal/catalog"
	"admin-rbac/internal/domain"
	"admin-rbac/internal/ports"
)

type RoleService struct {
	repo ports.RoleRepository
}

func NewRoleService(repo ports.RoleRepository) *RoleService {
	return &RoleService{repo: repo}
}

func (s *RoleService) List(ctx context.Context) ([]domain.Role, error) {
	return s.repo.List(ctx)
}

func (s *RoleService) Get(ctx context.Context, name string) (domain.Role, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Role{}, domain.ErrInvalidInput
	}
	role, err := s.repo.GetByName(ctx, catalog.Canonical(name))
	if err != nil {
		return domain.Role{}, err
	}
	if role.IsDeleted {
		return domain.Role{}, domain.ErrNotFound
	}
	return role, nil
}

type AuthorizationService struct {
	users ports.UserRepository
}

func NewAuthorizationService(users ports.UserRepository) *AuthorizationService {
	return &AuthorizationService{users: users}
}

// Snapshot returns the matrix a user is evaluated against. Accounts that are
// missing, deleted or inactive get an empty matrix.
func (s *AuthorizationService) Snapshot(ctx context.Context, email string) (domain.Matrix, error) {
	if email == "" {
		return nil, domain.ErrInvalidInput
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Matrix{}, nil
		}
		return nil, err
	}
	if !user.Live() || user.Status != domain.UserStatusActive {
		return domain.Matrix{}, nil
	}
	return authz.EffectiveMatrix(user.Role, user.PermissionSnapshot), nil
}

func (s *AuthorizationService) Authorize(ctx context.Context, email, resource, action string) (bool, error) {
	if email == "" || resource == "" || action == "" {
		return false, domain.ErrInvalidInput
	}
	matrix, err := s.Snapshot(ctx, email)
	if err != nil {
		return false, err
	}
	return authz.HasPermission(matrix, resource, action), nil
}
