package tenantrole

import (
	"context"
	"errors"
	"time"

	"github.com/xraph/bastion/id"
)

var (
	// ErrNotFound is returned by stores when a role does not exist.
	ErrNotFound = errors.New("tenantrole: not found")

	// ErrConflict is returned by stores when (tenant, name) is taken.
	ErrConflict = errors.New("tenantrole: name already exists in tenant")
)

// Store defines persistence operations for tenant roles.
//
// UpdateRole, AddPermission and RemovePermission must be atomic with respect
// to each other: two concurrent additions of different permissions both land.
type Store interface {
	// CreateRole persists a new role. Returns ErrConflict on a duplicate
	// (tenant, name).
	CreateRole(ctx context.Context, r *Role) error

	// GetRole retrieves a role by ID.
	GetRole(ctx context.Context, roleID id.TenantRoleID) (*Role, error)

	// GetRoleByName retrieves a role by tenant and name.
	GetRoleByName(ctx context.Context, tenantID, name string) (*Role, error)

	// UpdateRole applies a partial update and returns the new state.
	UpdateRole(ctx context.Context, roleID id.TenantRoleID, u *Update, at time.Time) (*Role, error)

	// DeleteRole removes a role by ID.
	DeleteRole(ctx context.Context, roleID id.TenantRoleID) error

	// ListRoles returns roles matching the filter, newest first.
	ListRoles(ctx context.Context, filter *ListFilter) ([]*Role, error)

	// CountRoles returns the number of roles matching the filter.
	CountRoles(ctx context.Context, filter *ListFilter) (int64, error)

	// AddPermission adds p to the role's set. Adding a present permission
	// is a no-op that still succeeds.
	AddPermission(ctx context.Context, roleID id.TenantRoleID, p string, at time.Time) (*Role, error)

	// RemovePermission removes p from the role's set. Removing an absent
	// permission is a no-op that still succeeds.
	RemovePermission(ctx context.Context, roleID id.TenantRoleID, p string, at time.Time) (*Role, error)

	// DeleteRolesByTenant removes all roles for a tenant.
	DeleteRolesByTenant(ctx context.Context, tenantID string) error
}
