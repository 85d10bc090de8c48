// Package memory is an in-process store with the same uniqueness guarantees
// as the DynamoDB one. It backs tests and STORE_DRIVER=memory.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"admin-rbac/internal/domain"
)

type Store struct {
	mu    sync.RWMutex
	roles map[string]domain.Role
	users map[string]domain.User
}

func NewStore() *Store {
	return &Store{
		roles: map[string]domain.Role{},
		users: map[string]domain.User{},
	}
}

type RoleRepository struct{ store *Store }

type UserRepository struct{ store *Store }

func NewRoleRepository(store *Store) *RoleRepository {
	return &RoleRepository{store: store}
}

func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

func emailKey(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func copyRole(r domain.Role) domain.Role {
	r.Permissions = r.Permissions.Clone()
	return r
}

func copyUser(u domain.User) domain.User {
	u.PermissionSnapshot = u.PermissionSnapshot.Clone()
	return u
}

func (r *RoleRepository) CreateIfAbsent(_ context.Context, role domain.Role) (bool, error) {
	if role.Name == "" {
		return false, domain.ErrInvalidInput
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.roles[role.Name]; exists {
		return false, nil
	}
	r.store.roles[role.Name] = copyRole(role)
	return true, nil
}

func (r *RoleRepository) GetByName(_ context.Context, name string) (domain.Role, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	role, ok := r.store.roles[name]
	if !ok {
		return domain.Role{}, domain.ErrNotFound
	}
	return copyRole(role), nil
}

func (r *RoleRepository) List(_ context.Context) ([]domain.Role, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]domain.Role, 0, len(r.store.roles))
	for _, role := range r.store.roles {
		if !role.IsDeleted {
			out = append(out, copyRole(role))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *RoleRepository) Update(_ context.Context, role domain.Role) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.roles[role.Name]; !ok {
		return domain.ErrNotFound
	}
	r.store.roles[role.Name] = copyRole(role)
	return nil
}

func (r *RoleRepository) CountSystem(_ context.Context) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	n := 0
	for _, role := range r.store.roles {
		if !role.IsDeleted && role.Kind == domain.RoleKindSystem {
			n++
		}
	}
	return n, nil
}

func (r *UserRepository) CreateIfAbsent(_ context.Context, user domain.User) (bool, error) {
	key := emailKey(user.Email)
	if key == "" {
		return false, domain.ErrInvalidInput
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.users[key]; exists {
		return false, nil
	}
	r.store.users[key] = copyUser(user)
	return true, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	user, ok := r.store.users[emailKey(email)]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return copyUser(user), nil
}

func (r *UserRepository) List(_ context.Context) ([]domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]domain.User, 0, len(r.store.users))
	for _, user := range r.store.users {
		if !user.IsDeleted {
			out = append(out, copyUser(user))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *UserRepository) Update(_ context.Context, user domain.User) error {
	key := emailKey(user.Email)
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.users[key]; !ok {
		return domain.ErrNotFound
	}
	r.store.users[key] = copyUser(user)
	return nil
}

func (r *UserRepository) CountActiveByRoles(_ context.Context, roles []string) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	n := 0
	for _, user := range r.store.users {
		if user.IsDeleted || user.Status != domain.UserStatusActive {
			continue
		}
		if slices.Contains(roles, user.Role) {
			n++
		}
	}
	return n, nil
}
