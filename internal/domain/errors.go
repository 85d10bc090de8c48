package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrPermissionDeny     = errors.New("permission denied")
	ErrAlreadyExists      = errors.New("already exists")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrBootstrapInvariant = errors.New("bootstrap invariant violated")
)

// UnknownRoleError is returned when a role definition is required but the
// name is not part of the role catalog.
type UnknownRoleError struct {
	Role string
}

func (e *UnknownRoleError) Error() string {
	return fmt.Sprintf("unknown role %q", e.Role)
}

// PerUserRepairError marks a failure confined to a single user during a
// maintenance batch. Batches log it and move on.
type PerUserRepairError struct {
	Email string
	Err   error
}

func (e *PerUserRepairError) Error() string {
	return fmt.Sprintf("repair user %s: %v", e.Email, e.Err)
}

func (e *PerUserRepairError) Unwrap() error { return e.Err }
