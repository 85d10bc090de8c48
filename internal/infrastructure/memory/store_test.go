package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admin-rbac/internal/domain"
)

func TestRoleRepository_CreateIfAbsentIsExclusive(t *testing.T) {
	repo := NewRoleRepository(NewStore())
	ctx := context.Background()

	var created atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.CreateIfAbsent(ctx, domain.Role{Name: "Viewer", Kind: domain.RoleKindSystem})
			assert.NoError(t, err)
			if ok {
				created.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
	roles, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 1)
}

func TestRoleRepository_ListAndCountSkipDeleted(t *testing.T) {
	repo := NewRoleRepository(NewStore())
	ctx := context.Background()

	_, _ = repo.CreateIfAbsent(ctx, domain.Role{Name: "Viewer", Kind: domain.RoleKindSystem})
	_, _ = repo.CreateIfAbsent(ctx, domain.Role{Name: "Agent", Kind: domain.RoleKindSystem, IsDeleted: true})
	_, _ = repo.CreateIfAbsent(ctx, domain.Role{Name: "Support Lead", Kind: domain.RoleKindCustom})

	roles, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 2)

	n, err := repo.CountSystem(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	deleted, err := repo.GetByName(ctx, "Agent")
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted)
}

func TestRoleRepository_ReturnsCopies(t *testing.T) {
	repo := NewRoleRepository(NewStore())
	ctx := context.Background()
	_, _ = repo.CreateIfAbsent(ctx, domain.Role{Name: "Viewer", Permissions: domain.Matrix{domain.ResourceUsers: domain.Grant(domain.ActionRead)}})

	got, err := repo.GetByName(ctx, "Viewer")
	require.NoError(t, err)
	got.Permissions[domain.ResourceUsers] = domain.AllActions

	again, err := repo.GetByName(ctx, "Viewer")
	require.NoError(t, err)
	assert.False(t, again.Permissions.Allows(domain.ResourceUsers, domain.ActionDelete))
}

func TestRoleRepository_UpdateMissing(t *testing.T) {
	repo := NewRoleRepository(NewStore())
	err := repo.Update(context.Background(), domain.Role{Name: "Ghost"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepository_EmailIsCaseInsensitive(t *testing.T) {
	repo := NewUserRepository(NewStore())
	ctx := context.Background()

	ok, err := repo.CreateIfAbsent(ctx, domain.User{Email: "Admin@Example.com"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.CreateIfAbsent(ctx, domain.User{Email: "admin@example.com"})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.GetByEmail(ctx, "ADMIN@example.com")
	assert.NoError(t, err)

	_, err = repo.CreateIfAbsent(ctx, domain.User{Email: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUserRepository_CountActiveByRoles(t *testing.T) {
	repo := NewUserRepository(NewStore())
	ctx := context.Background()
	for _, u := range []domain.User{
		{Email: "a@x", Role: "Super Administrator", Status: domain.UserStatusActive},
		{Email: "b@x", Role: "superadmin", Status: domain.UserStatusActive},
		{Email: "c@x", Role: "superadmin", Status: domain.UserStatusInactive},
		{Email: "d@x", Role: "superadmin", Status: domain.UserStatusActive, IsDeleted: true},
		{Email: "e@x", Role: "Viewer", Status: domain.UserStatusActive},
	} {
		_, err := repo.CreateIfAbsent(ctx, u)
		require.NoError(t, err)
	}

	n, err := repo.CountActiveByRoles(ctx, []string{"Super Administrator", "superadmin"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 4)
}
