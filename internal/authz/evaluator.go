// Package authz answers per-request authorization questions. Everything here
// is pure and safe for concurrent use.
package authz

import (
	"admin-rbac/internal/catalog"
	"admin-rbac/internal/domain"
)

// HasPermission reports whether matrix grants action on resource. Unknown
// resource or action names evaluate to false.
func HasPermission(matrix domain.Matrix, resource, action string) bool {
	res, ok := domain.ParseResource(resource)
	if !ok {
		return false
	}
	act, ok := domain.ParseAction(action)
	if !ok {
		return false
	}
	return matrix.Allows(res, act)
}

// EffectiveMatrix returns the snapshot when one was captured, otherwise the
// catalog default for role. Unknown roles without a snapshot get nothing.
func EffectiveMatrix(role string, snapshot domain.Matrix) domain.Matrix {
	if !snapshot.IsEmpty() {
		return snapshot
	}
	m, err := catalog.DefaultMatrix(role)
	if err != nil {
		return domain.Matrix{}
	}
	return m
}
