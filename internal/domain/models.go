package domain

import "time"

type RoleKind string

const (
	RoleKindSystem RoleKind = "system"
	RoleKindCustom RoleKind = "custom"
)

type RoleStatus string

const (
	RoleStatusActive   RoleStatus = "active"
	RoleStatusInactive RoleStatus = "inactive"
)

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
	UserStatusDeleted  UserStatus = "deleted"
)

type Role struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Kind        RoleKind   `json:"kind"`
	Description string     `json:"description"`
	Permissions Matrix     `json:"permissions"`
	Status      RoleStatus `json:"status"`
	UserCount   int        `json:"user_count"`
	IsDeleted   bool       `json:"is_deleted"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	// PermissionsDrift is set by storage when the stored matrix held names
	// outside the enumerations. Permissions then carries only the rest.
	PermissionsDrift bool `json:"-"`
}

// Assignable reports whether users may hold the role.
func (r Role) Assignable() bool {
	return !r.IsDeleted && r.Status == RoleStatusActive
}

type User struct {
	ID                 string     `json:"id"`
	Email              string     `json:"email"`
	Name               string     `json:"name"`
	PasswordHash       string     `json:"-"`
	Role               string     `json:"role"`
	PermissionSnapshot Matrix     `json:"permission_snapshot"`
	Status             UserStatus `json:"status"`
	IsDeleted          bool       `json:"is_deleted"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	// SnapshotDrift marks a stored snapshot that had to be salvaged; it
	// needs rewriting even when the remainder looks correct.
	SnapshotDrift bool `json:"-"`
}

// Live reports whether the account still counts as existing.
func (u User) Live() bool {
	return !u.IsDeleted && u.Status != UserStatusDeleted
}
