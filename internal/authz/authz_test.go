package authz

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admin-rbac/internal/catalog"
	"admin-rbac/internal/domain"
)

func TestHasPermission_FailsClosed(t *testing.T) {
	m := domain.Matrix{domain.ResourceUsers: domain.Grant(domain.ActionRead)}

	assert.True(t, HasPermission(m, "users", "read"))
	assert.True(t, HasPermission(m, "users", "view"))
	assert.False(t, HasPermission(m, "users", "delete"))
	assert.False(t, HasPermission(m, "tickets", "read"))
	assert.False(t, HasPermission(m, "reports", "read"))
	assert.False(t, HasPermission(m, "users", "impersonate"))
	assert.False(t, HasPermission(nil, "users", "read"))
	assert.False(t, HasPermission(m, "", ""))
}

func TestHasPermission_CatalogDefaults(t *testing.T) {
	agent, err := catalog.DefaultMatrix("agent")
	require.NoError(t, err)
	super, err := catalog.DefaultMatrix("superadministrator")
	require.NoError(t, err)

	assert.False(t, HasPermission(agent, "users", "delete"))
	assert.True(t, HasPermission(super, "users", "delete"))
}

func TestEffectiveMatrix(t *testing.T) {
	snapshot := domain.Matrix{domain.ResourceLogs: domain.Grant(domain.ActionExport)}
	assert.Equal(t, snapshot, EffectiveMatrix("viewer", snapshot))

	viewer, err := catalog.DefaultMatrix("viewer")
	require.NoError(t, err)
	assert.True(t, viewer.Equal(EffectiveMatrix("Viewer", nil)))

	assert.True(t, EffectiveMatrix("janitor", nil).IsEmpty())
}

func TestDashboardFor(t *testing.T) {
	assert.Equal(t, "/agent/dashboard", DashboardFor("agent"))
	assert.Equal(t, "/agent/dashboard", DashboardFor("Agent"))
	assert.Equal(t, "/admin", DashboardFor("admin"))
	assert.Equal(t, "/admin", DashboardFor("viewer"))
	assert.Equal(t, "/admin", DashboardFor("unknown-role"))
	assert.Equal(t, "/admin", DashboardFor(""))
}

func TestCanEnter(t *testing.T) {
	assert.False(t, CanEnter("agent", "/admin/users"))
	assert.True(t, CanEnter("viewer", "/admin/users"))
	assert.False(t, CanEnter("admin", "/agent/chats"))
	assert.True(t, CanEnter("agent", "/agent/chats"))
	assert.True(t, CanEnter("superadmin", "/admin"))
	assert.True(t, CanEnter("Operator", "/admin/bots"))
	assert.False(t, CanEnter("unknown-role", "/admin"))
	assert.False(t, CanEnter("unknown-role", "/agent/dashboard"))
	assert.True(t, CanEnter("unknown-role", "/healthz"))
	assert.True(t, CanEnter("agent", "/administration"))
	assert.True(t, CanEnter("admin", "/agents-directory"))
}

func TestCanEnter_GateIsIndependentOfMatrix(t *testing.T) {
	viewer, err := catalog.DefaultMatrix("viewer")
	require.NoError(t, err)

	assert.True(t, CanEnter("viewer", "/admin/users"))
	assert.False(t, HasPermission(viewer, "users", "delete"))
}

func TestConcurrentEvaluation(t *testing.T) {
	m, err := catalog.DefaultMatrix("manager")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = HasPermission(m, "tickets", "assign")
				_ = CanEnter("manager", "/admin/tickets")
				_ = DashboardFor("agent")
			}
		}()
	}
	wg.Wait()
}
