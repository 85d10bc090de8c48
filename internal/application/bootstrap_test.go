package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"admin-rbac/internal/catalog"
	"admin-rbac/internal/domain"
	"admin-rbac/internal/infrastructure/memory"
)

var testAdmin = AdminCredentials{Email: "root@example.com", Password: "fixture-password", Name: "Root"}

type memoryFixture struct {
	store    *memory.Store
	roles    *memory.RoleRepository
	users    *memory.UserRepository
	notifier *recordingNotifier
	boot     *Bootstrapper
}

func newMemoryFixture() *memoryFixture {
	store := memory.NewStore()
	f := &memoryFixture{
		store:    store,
		roles:    memory.NewRoleRepository(store),
		users:    memory.NewUserRepository(store),
		notifier: &recordingNotifier{},
	}
	f.boot = NewBootstrapper(f.roles, f.users, prefixHasher{}, f.notifier, nopLogger{}, testAdmin)
	return f
}

func TestCreateDefaultRoles_Idempotent(t *testing.T) {
	f := newMemoryFixture()
	ctx := context.Background()

	created, err := f.boot.CreateDefaultRoles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, created)

	created, err = f.boot.CreateDefaultRoles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	roles, err := f.roles.List(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 6)
	seen := map[string]int{}
	for _, r := range roles {
		seen[r.Name]++
		assert.Equal(t, domain.RoleKindSystem, r.Kind)
		assert.Equal(t, domain.RoleStatusActive, r.Status)
		expected, err := catalog.DefaultMatrix(r.Name)
		require.NoError(t, err)
		assert.True(t, expected.Equal(r.Permissions), r.Name)
	}
	for _, name := range catalog.SystemRoleNames() {
		assert.Equal(t, 1, seen[name], name)
	}
}

func TestCreateDefaultRoles_KeepsCustomizedMatrix(t *testing.T) {
	f := newMemoryFixture()
	ctx := context.Background()
	custom := domain.Matrix{domain.ResourceLogs: domain.Grant(domain.ActionRead)}
	_, err := f.roles.CreateIfAbsent(ctx, domain.Role{Name: "Viewer", Kind: domain.RoleKindSystem, Status: domain.RoleStatusActive, Permissions: custom})
	require.NoError(t, err)

	created, err := f.boot.CreateDefaultRoles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, created)

	viewer, err := f.roles.GetByName(ctx, "Viewer")
	require.NoError(t, err)
	assert.True(t, custom.Equal(viewer.Permissions))
}

func TestCreateDefaultRoles_RevivesSoftDeletedRole(t *testing.T) {
	f := newMemoryFixture()
	ctx := context.Background()
	_, err := f.roles.CreateIfAbsent(ctx, domain.Role{Name: "Agent", Kind: domain.RoleKindSystem, Status: domain.RoleStatusInactive, IsDeleted: true})
	require.NoError(t, err)
	_, err = f.roles.CreateIfAbsent(ctx, domain.Role{Name: "Manager", Kind: domain.RoleKindSystem, Status: domain.RoleStatusInactive})
	require.NoError(t, err)

	_, err = f.boot.CreateDefaultRoles(ctx)
	require.NoError(t, err)

	agent, err := f.roles.GetByName(ctx, "Agent")
	require.NoError(t, err)
	assert.False(t, agent.IsDeleted)
	assert.Equal(t, domain.RoleStatusActive, agent.Status)
	expected, _ := catalog.DefaultMatrix("agent")
	assert.True(t, expected.Equal(agent.Permissions))

	manager, err := f.roles.GetByName(ctx, "Manager")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStatusActive, manager.Status)
	assert.True(t, manager.Permissions.IsEmpty())
}

func TestCreateDefaultRoles_PromotesCustomRoleWithSystemName(t *testing.T) {
	f := newMemoryFixture()
	ctx := context.Background()
	custom := domain.Matrix{domain.ResourceTickets: domain.Grant(domain.ActionRead)}
	_, err := f.roles.CreateIfAbsent(ctx, domain.Role{Name: "Viewer", Kind: domain.RoleKindCustom, Status: domain.RoleStatusActive, Permissions: custom})
	require.NoError(t, err)

	_, err = f.boot.CreateDefaultRoles(ctx)
	require.NoError(t, err)

	viewer, err := f.roles.GetByName(ctx, "Viewer")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleKindSystem, viewer.Kind)
	assert.True(t, custom.Equal(viewer.Permissions))
	n, err := f.roles.CountSystem(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(catalog.SystemRoleNames()), n)

	_, err = f.boot.EnsureInitialAdmin(ctx)
	require.NoError(t, err)
	ok, err := f.boot.IsSystemInitialized(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateDefaultRoles_RewritesDriftedSystemRole(t *testing.T) {
	f := newMemoryFixture()
	ctx := context.Background()
	kept := domain.Matrix{domain.ResourceRoles: domain.Grant(domain.ActionRead)}
	_, err := f.roles.CreateIfAbsent(ctx, domain.Role{
		Name: "Agent", Kind: domain.RoleKindSystem, Status: domain.RoleStatusActive,
		Permissions: kept, PermissionsDrift: true,
	})
	require.NoError(t, err)

	_, err = f.boot.CreateDefaultRoles(ctx)
	require.NoError(t, err)

	agent, err := f.roles.GetByName(ctx, "Agent")
	require.NoError(t, err)
	assert.False(t, agent.PermissionsDrift)
	assert.True(t, kept.Equal(agent.Permissions))
}

func TestCreateDefaultRoles_PropagatesStoreErrors(t *testing.T) {
	roles := new(roleRepoMock)
	boot := NewBootstrapper(roles, new(userRepoMock), prefixHasher{}, &recordingNotifier{}, nopLogger{}, testAdmin)
	storeErr := errors.Join(domain.ErrStoreUnavailable, errors.New("timeout"))
	roles.On("CreateIfAbsent", mock.Anything, mock.Anything).Return(false, storeErr)

	_, err := boot.CreateDefaultRoles(context.Background())
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestEnsureInitialAdmin_CreatesOnce(t *testing.T) {
	f := newMemoryFixture()
	ctx := context.Background()
	_, err := f.boot.CreateDefaultRoles(ctx)
	require.NoError(t, err)

	created, err := f.boot.EnsureInitialAdmin(ctx)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.boot.EnsureInitialAdmin(ctx)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, f.notifier.count())

	admin, err := f.users.GetByEmail(ctx, testAdmin.Email)
	require.NoError(t, err)
	assert.Equal(t, catalog.SuperAdminName, admin.Role)
	assert.Equal(t, "hashed:fixture-password", admin.PasswordHash)
	expected, _ := catalog.DefaultMatrix(catalog.SuperAdminName)
	assert.True(t, expected.Equal(admin.PermissionSnapshot))

	users, err := f.users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestEnsureInitialAdmin_RecognizesLegacyAdmin(t *testing.T) {
	f := newMemoryFixture()
	ctx := context.Background()
	_, err := f.boot.CreateDefaultRoles(ctx)
	require.NoError(t, err)
	_, err = f.users.CreateIfAbsent(ctx, domain.User{Email: "legacy@example.com", Role: "superadmin", Status: domain.UserStatusActive})
	require.NoError(t, err)

	created, err := f.boot.EnsureInitialAdmin(ctx)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Zero(t, f.notifier.count())

	users, err := f.users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestEnsureInitialAdmin_RecognizesMixedCaseLegacyAdmin(t *testing.T) {
	f := newMemoryFixture()
	ctx := context.Background()
	_, err := f.boot.CreateDefaultRoles(ctx)
	require.NoError(t, err)
	_, err = f.users.CreateIfAbsent(ctx, domain.User{Email: "legacy@example.com", Role: "SuperAdmin", Status: domain.UserStatusActive})
	require.NoError(t, err)
	require.NotContains(t, catalog.AdminCapableNames(), "SuperAdmin")

	ok, err := f.boot.IsSystemInitialized(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	created, err := f.boot.EnsureInitialAdmin(ctx)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Zero(t, f.notifier.count())
}

func TestEnsureInitialAdmin_IgnoresInactiveMixedCaseAdmin(t *testing.T) {
	f := newMemoryFixture()
	ctx := context.Background()
	_, err := f.boot.CreateDefaultRoles(ctx)
	require.NoError(t, err)
	_, err = f.users.CreateIfAbsent(ctx, domain.User{Email: "legacy@example.com", Role: "SuperAdmin", Status: domain.UserStatusInactive})
	require.NoError(t, err)

	created, err := f.boot.EnsureInitialAdmin(ctx)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestEnsureInitialAdmin_MissingSuperAdminRole(t *testing.T) {
	f := newMemoryFixture()

	_, err := f.boot.EnsureInitialAdmin(context.Background())
	assert.ErrorIs(t, err, domain.ErrBootstrapInvariant)
}

func TestEnsureInitialAdmin_DeletedSuperAdminRole(t *testing.T) {
	f := newMemoryFixture()
	ctx := context.Background()
	_, err := f.roles.CreateIfAbsent(ctx, domain.Role{Name: catalog.SuperAdminName, Kind: domain.RoleKindSystem, IsDeleted: true})
	require.NoError(t, err)

	_, err = f.boot.EnsureInitialAdmin(ctx)
	assert.ErrorIs(t, err, domain.ErrBootstrapInvariant)
}

func TestEnsureInitialAdmin_RequiresCredentials(t *testing.T) {
	f := newMemoryFixture()
	boot := NewBootstrapper(f.roles, f.users, prefixHasher{}, f.notifier, nopLogger{}, AdminCredentials{Email: "root@example.com"})

	_, err := boot.EnsureInitialAdmin(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEnsureInitialAdmin_LosingCreatorDoesNotNotify(t *testing.T) {
	roles := new(roleRepoMock)
	users := new(userRepoMock)
	notifier := &recordingNotifier{}
	boot := NewBootstrapper(roles, users, prefixHasher{}, notifier, nopLogger{}, testAdmin)

	users.On("CountActiveByRoles", mock.Anything, catalog.AdminCapableNames()).Return(0, nil)
	users.On("List", mock.Anything).Return([]domain.User{{Email: "m@example.com", Role: "Manager", Status: domain.UserStatusActive}}, nil)
	roles.On("GetByName", mock.Anything, catalog.SuperAdminName).Return(domain.Role{Name: catalog.SuperAdminName}, nil)
	users.On("CreateIfAbsent", mock.Anything, mock.MatchedBy(func(u domain.User) bool {
		return u.Email == testAdmin.Email && u.Role == catalog.SuperAdminName
	})).Return(false, nil)

	created, err := boot.EnsureInitialAdmin(context.Background())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Zero(t, notifier.count())
	users.AssertExpectations(t)
}

func TestIsSystemInitialized(t *testing.T) {
	f := newMemoryFixture()
	ctx := context.Background()

	ok, err := f.boot.IsSystemInitialized(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.boot.CreateDefaultRoles(ctx)
	require.NoError(t, err)
	ok, err = f.boot.IsSystemInitialized(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.boot.EnsureInitialAdmin(ctx)
	require.NoError(t, err)
	ok, err = f.boot.IsSystemInitialized(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsSystemInitialized_PropagatesStoreErrors(t *testing.T) {
	roles := new(roleRepoMock)
	boot := NewBootstrapper(roles, new(userRepoMock), prefixHasher{}, &recordingNotifier{}, nopLogger{}, testAdmin)
	roles.On("CountSystem", mock.Anything).Return(0, domain.ErrStoreUnavailable)

	_, err := boot.IsSystemInitialized(context.Background())
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
