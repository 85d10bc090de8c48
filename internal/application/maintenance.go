package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"admin-rbac/internal/catalog"
	"admin-rbac/internal/domain"
	"admin-rbac/internal/ports"
)

type MaintenanceJobs struct {
	bootstrap *Bootstrapper
	roles     ports.RoleRepository
	users     ports.UserRepository
	logger    ports.Logger
	observer  ports.JobObserver
}

func NewMaintenanceJobs(bootstrap *Bootstrapper, roles ports.RoleRepository, users ports.UserRepository, logger ports.Logger) *MaintenanceJobs {
	return &MaintenanceJobs{bootstrap: bootstrap, roles: roles, users: users, logger: logger}
}

// SetObserver installs o to be told about every job run. Call it before
// the jobs are shared.
func (j *MaintenanceJobs) SetObserver(o ports.JobObserver) {
	j.observer = o
}

func (j *MaintenanceJobs) observe(job string, started time.Time, changed int, err error) {
	if j.observer != nil {
		j.observer.ObserveJob(job, time.Since(started), changed, err)
	}
}

// Remediation records a user moved off a role that no longer exists.
type Remediation struct {
	Email        string `json:"email"`
	PreviousRole string `json:"previous_role"`
	NewRole      string `json:"new_role"`
}

type MaintenanceReport struct {
	RolesCreated     int           `json:"roles_created"`
	AdminCreated     bool          `json:"admin_created"`
	RoleCountUpdates int           `json:"role_count_updates"`
	UsersRepaired    int           `json:"users_repaired"`
	Remediations     []Remediation `json:"remediations"`
	Duration         time.Duration `json:"duration"`
}

// RecomputeRoleUserCounts refreshes the cached userCount of every role and
// returns how many roles changed.
func (j *MaintenanceJobs) RecomputeRoleUserCounts(ctx context.Context) (int, error) {
	roles, err := j.roles.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list roles: %w", err)
	}
	users, err := j.users.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}
	byName := make(map[string]domain.Role, len(roles))
	for _, role := range roles {
		byName[role.Name] = role
	}
	counts := make(map[string]int, len(roles))
	for _, u := range users {
		if u.Live() {
			counts[roleNameFor(u.Role, byName)]++
		}
	}

	updated := 0
	for _, role := range roles {
		n := counts[role.Name]
		if role.UserCount == n {
			continue
		}
		role.UserCount = n
		role.UpdatedAt = time.Now().UTC()
		if err := j.roles.Update(ctx, role); err != nil {
			j.logger.Error(ctx, "failed to update role user count", "role", role.Name, "error", err)
			continue
		}
		updated++
	}
	j.logger.Info(ctx, "role user counts recomputed", "roles", len(roles), "updated", updated)
	return updated, nil
}

// ValidateUserPermissions brings every user's permission snapshot back in
// line with their role and returns how many users were rewritten.
func (j *MaintenanceJobs) ValidateUserPermissions(ctx context.Context) (int, error) {
	byName, err := j.liveRoles(ctx)
	if err != nil {
		return 0, err
	}
	users, err := j.users.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	updated := 0
	for _, u := range users {
		if !u.Live() {
			continue
		}
		changed, err := j.repairSnapshot(ctx, u, byName)
		if err != nil {
			j.logRepairFailure(ctx, err)
			continue
		}
		if changed {
			updated++
		}
	}
	j.logger.Info(ctx, "user permissions validated", "users", len(users), "updated", updated)
	return updated, nil
}

// roleNameFor maps a user's stored role onto a role record name. A record
// named exactly like the stored value wins over the catalog spelling.
func roleNameFor(stored string, roles map[string]domain.Role) string {
	if _, ok := roles[stored]; ok {
		return stored
	}
	return catalog.Canonical(stored)
}

func (j *MaintenanceJobs) repairSnapshot(ctx context.Context, u domain.User, roles map[string]domain.Role) (bool, error) {
	roleName := roleNameFor(u.Role, roles)
	var expected domain.Matrix
	if role, ok := roles[roleName]; ok {
		expected = role.Permissions
	} else {
		m, err := catalog.DefaultMatrix(roleName)
		if err != nil {
			return false, &domain.PerUserRepairError{Email: u.Email, Err: err}
		}
		expected = m
	}
	if roleName == u.Role && !u.SnapshotDrift && u.PermissionSnapshot.Equal(expected) {
		return false, nil
	}
	u.Role = roleName
	u.PermissionSnapshot = expected.Clone()
	u.SnapshotDrift = false
	u.UpdatedAt = time.Now().UTC()
	if err := j.users.Update(ctx, u); err != nil {
		return false, &domain.PerUserRepairError{Email: u.Email, Err: err}
	}
	return true, nil
}

// CleanupInvalidRoles moves users whose role is not an active, live role onto
// the default role. Accounts are never removed.
func (j *MaintenanceJobs) CleanupInvalidRoles(ctx context.Context) ([]Remediation, error) {
	byName, err := j.liveRoles(ctx)
	if err != nil {
		return nil, err
	}
	valid := make(map[string]bool, len(byName))
	for name, role := range byName {
		if role.Assignable() {
			valid[name] = true
		}
	}
	fallback, err := j.defaultRoleMatrix(byName)
	if err != nil {
		return nil, err
	}
	users, err := j.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	var remediations []Remediation
	for _, u := range users {
		if !u.Live() || valid[roleNameFor(u.Role, byName)] {
			continue
		}
		if u.Role == catalog.DefaultRoleName && !u.SnapshotDrift && u.PermissionSnapshot.Equal(fallback) {
			// Viewer itself is unavailable; nothing safer to move to.
			continue
		}
		previous := u.Role
		u.Role = catalog.DefaultRoleName
		u.PermissionSnapshot = fallback.Clone()
		u.SnapshotDrift = false
		u.UpdatedAt = time.Now().UTC()
		if err := j.users.Update(ctx, u); err != nil {
			j.logRepairFailure(ctx, &domain.PerUserRepairError{Email: u.Email, Err: err})
			continue
		}
		r := Remediation{Email: u.Email, PreviousRole: previous, NewRole: catalog.DefaultRoleName}
		j.logger.Warn(ctx, "user reassigned from invalid role", "email", r.Email, "previous_role", r.PreviousRole, "new_role", r.NewRole)
		remediations = append(remediations, r)
	}
	return remediations, nil
}

// RunFullMaintenance runs every stage in order and stops at the first
// failure. Completed stages are not rolled back.
func (j *MaintenanceJobs) RunFullMaintenance(ctx context.Context) (MaintenanceReport, error) {
	started := time.Now()
	var report MaintenanceReport
	for _, job := range fullRunOrder {
		result, err := j.RunJob(ctx, job)
		switch job {
		case JobRoles:
			report.RolesCreated = result.Changed
		case JobAdmin:
			report.AdminCreated = result.AdminCreated
		case JobCounts:
			report.RoleCountUpdates = result.Changed
		case JobPermissions:
			report.UsersRepaired = result.Changed
		case JobCleanup:
			report.Remediations = result.Remediations
		}
		if err != nil {
			return report, err
		}
	}
	report.Duration = time.Since(started)
	j.logger.Info(ctx, "maintenance completed",
		"roles_created", report.RolesCreated,
		"admin_created", report.AdminCreated,
		"role_count_updates", report.RoleCountUpdates,
		"users_repaired", report.UsersRepaired,
		"remediations", len(report.Remediations),
		"duration", report.Duration.String(),
	)
	return report, nil
}

func (j *MaintenanceJobs) liveRoles(ctx context.Context) (map[string]domain.Role, error) {
	roles, err := j.roles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	out := make(map[string]domain.Role, len(roles))
	for _, r := range roles {
		if !r.IsDeleted {
			out[r.Name] = r
		}
	}
	return out, nil
}

func (j *MaintenanceJobs) defaultRoleMatrix(roles map[string]domain.Role) (domain.Matrix, error) {
	if role, ok := roles[catalog.DefaultRoleName]; ok {
		return role.Permissions, nil
	}
	return catalog.DefaultMatrix(catalog.DefaultRoleName)
}

func (j *MaintenanceJobs) logRepairFailure(ctx context.Context, err error) {
	var repairErr *domain.PerUserRepairError
	if errors.As(err, &repairErr) {
		j.logger.Error(ctx, "user repair skipped", "email", repairErr.Email, "error", repairErr.Err)
		return
	}
	j.logger.Error(ctx, "user repair skipped", "error", err)
}

// Job names accepted by RunJob.
const (
	JobRoles       = "roles"
	JobAdmin       = "admin"
	JobCounts      = "counts"
	JobPermissions = "permissions"
	JobCleanup     = "cleanup"
)

// Role definitions must exist before users are repaired against them, and
// counts are taken before cleanup moves anyone.
var fullRunOrder = []string{JobRoles, JobAdmin, JobCounts, JobPermissions, JobCleanup}

var jobStages = map[string]string{
	JobRoles:       "create default roles",
	JobAdmin:       "ensure initial admin",
	JobCounts:      "recompute role user counts",
	JobPermissions: "validate user permissions",
	JobCleanup:     "cleanup invalid roles",
}

// JobResult is the outcome of a single named maintenance job. Changed counts
// the records the job wrote.
type JobResult struct {
	Job          string        `json:"job"`
	Changed      int           `json:"changed"`
	AdminCreated bool          `json:"admin_created,omitempty"`
	Remediations []Remediation `json:"remediations,omitempty"`
}

// RunJob runs one maintenance stage by name. Errors carry the stage name.
func (j *MaintenanceJobs) RunJob(ctx context.Context, job string) (JobResult, error) {
	stage, ok := jobStages[job]
	if !ok {
		return JobResult{}, fmt.Errorf("%w: unknown maintenance job %q", domain.ErrInvalidInput, job)
	}
	started := time.Now()
	result := JobResult{Job: job}
	var err error
	switch job {
	case JobRoles:
		result.Changed, err = j.bootstrap.CreateDefaultRoles(ctx)
	case JobAdmin:
		result.AdminCreated, err = j.bootstrap.EnsureInitialAdmin(ctx)
		if result.AdminCreated {
			result.Changed = 1
		}
	case JobCounts:
		result.Changed, err = j.RecomputeRoleUserCounts(ctx)
	case JobPermissions:
		result.Changed, err = j.ValidateUserPermissions(ctx)
	case JobCleanup:
		result.Remediations, err = j.CleanupInvalidRoles(ctx)
		result.Changed = len(result.Remediations)
	}
	j.observe(job, started, result.Changed, err)
	if err != nil {
		return result, fmt.Errorf("%s: %w", stage, err)
	}
	j.logger.Info(ctx, "maintenance job completed", "job", job, "changed", result.Changed)
	return result, nil
}

// IsSystemInitialized delegates to the bootstrapper.
func (j *MaintenanceJobs) IsSystemInitialized(ctx context.Context) (bool, error) {
	return j.bootstrap.IsSystemInitialized(ctx)
}
