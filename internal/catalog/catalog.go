// Package catalog holds the canonical system roles: their hierarchy, display
// names, accepted legacy spellings and default permission matrices.
package catalog

import (
	"maps"
	"slices"
	"strings"

	"admin-rbac/internal/domain"
)

// Key identifies a system role. Keys are ordered from least to most
// privileged.
type Key string

const (
	Viewer             Key = "viewer"
	Agent              Key = "agent"
	Operator           Key = "operator"
	Manager            Key = "manager"
	Admin              Key = "admin"
	SuperAdministrator Key = "superadministrator"
)

const (
	DefaultRoleName = "Viewer"
	SuperAdminName  = "Super Administrator"
)

var hierarchy = []Key{Viewer, Agent, Operator, Manager, Admin, SuperAdministrator}

var displayNames = map[Key]string{
	Viewer:             "Viewer",
	Agent:              "Agent",
	Operator:           "Operator",
	Manager:            "Manager",
	Admin:              "Administrator",
	SuperAdministrator: SuperAdminName,
}

// legacyAliases are the only spellings accepted besides keys and display
// names.
var legacyAliases = map[string]Key{
	"superadmin":    SuperAdministrator,
	"super_admin":   SuperAdministrator,
	"super-admin":   SuperAdministrator,
	"super admin":   SuperAdministrator,
	"administrator": Admin,
}

var lookup = buildLookup()

func buildLookup() map[string]Key {
	out := make(map[string]Key, len(hierarchy)*2+len(legacyAliases))
	for _, k := range hierarchy {
		out[normalize(string(k))] = k
		out[normalize(displayNames[k])] = k
	}
	for alias, k := range legacyAliases {
		out[normalize(alias)] = k
	}
	return out
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Resolve maps a stored or supplied role name onto its catalog key.
func Resolve(name string) (Key, bool) {
	k, ok := lookup[normalize(name)]
	return k, ok
}

// Canonical returns the display name for catalog roles and the input
// unchanged otherwise.
func Canonical(name string) string {
	if k, ok := Resolve(name); ok {
		return displayNames[k]
	}
	return name
}

func (k Key) DisplayName() string { return displayNames[k] }

func (k Key) Level() int {
	for i, h := range hierarchy {
		if h == k {
			return i
		}
	}
	return -1
}

func Level(name string) (int, error) {
	k, ok := Resolve(name)
	if !ok {
		return 0, &domain.UnknownRoleError{Role: name}
	}
	return k.Level(), nil
}

// IsHigher reports whether a outranks b. Unknown names never outrank and are
// never outranked.
func IsHigher(a, b string) bool {
	la, errA := Level(a)
	lb, errB := Level(b)
	if errA != nil || errB != nil {
		return false
	}
	return la > lb
}

func DefaultMatrix(name string) (domain.Matrix, error) {
	k, ok := Resolve(name)
	if !ok {
		return nil, &domain.UnknownRoleError{Role: name}
	}
	return defaultMatrices[k].Clone(), nil
}

// SystemRoleNames returns the display names of the system roles, least
// privileged first.
func SystemRoleNames() []string {
	out := make([]string, len(hierarchy))
	for i, k := range hierarchy {
		out[i] = displayNames[k]
	}
	return out
}

// IsAdminCapable reports whether name resolves to one of the administrator
// roles.
func IsAdminCapable(name string) bool {
	k, ok := Resolve(name)
	return ok && (k == SuperAdministrator || k == Admin)
}

// AdminCapableNames lists the usual spellings of the administrator roles,
// for queries that match stored names verbatim. Other casings still resolve
// through IsAdminCapable.
func AdminCapableNames() []string {
	seen := map[string]bool{}
	var out []string
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, k := range []Key{SuperAdministrator, Admin} {
		add(displayNames[k])
		add(string(k))
		add(strings.ToLower(displayNames[k]))
	}
	for _, alias := range slices.Sorted(maps.Keys(legacyAliases)) {
		if IsAdminCapable(alias) {
			add(alias)
		}
	}
	return out
}
