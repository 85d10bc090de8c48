package authz

import (
	"strings"

	"admin-rbac/internal/catalog"
)

const (
	AdminNamespace      = "/admin"
	AgentNamespace      = "/agent"
	AdminDashboardRoute = "/admin"
	AgentDashboardRoute = "/agent/dashboard"
)

var adminNamespaceRoles = map[catalog.Key]bool{
	catalog.SuperAdministrator: true,
	catalog.Admin:              true,
	catalog.Manager:            true,
	catalog.Operator:           true,
	catalog.Viewer:             true,
}

// DashboardFor returns the landing route for role. Anything that is not an
// agent, unknown roles included, lands on the admin dashboard.
func DashboardFor(role string) string {
	if k, ok := catalog.Resolve(role); ok && k == catalog.Agent {
		return AgentDashboardRoute
	}
	return AdminDashboardRoute
}

// CanEnter is the namespace gate. It only looks at the role's place in the
// hierarchy; fine-grained checks still go through HasPermission.
func CanEnter(role, path string) bool {
	k, known := catalog.Resolve(role)
	switch {
	case inNamespace(path, AdminNamespace):
		return known && adminNamespaceRoles[k]
	case inNamespace(path, AgentNamespace):
		return known && k == catalog.Agent
	default:
		return true
	}
}

func inNamespace(path, ns string) bool {
	if !strings.HasPrefix(path, ns) {
		return false
	}
	rest := path[len(ns):]
	return rest == "" || rest[0] == '/' || rest[0] == '?'
}
