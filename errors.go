package bastion

import (
	"errors"
	"fmt"

	"github.com/xraph/bastion/tenantrole"
)

var (
	// ErrUnauthenticated is returned when a decision is requested without
	// an actor. It is distinct from a denial.
	ErrUnauthenticated = errors.New("bastion: authentication required")

	// ErrInvalidActor is returned when an actor violates its invariants,
	// such as a tenant-bound role with no tenant.
	ErrInvalidActor = errors.New("bastion: invalid actor")

	// ErrInvalidRequest is returned when a request names no resource or
	// action.
	ErrInvalidRequest = errors.New("bastion: invalid request")

	// ErrAccessDenied is returned by Enforce when a decision denies.
	ErrAccessDenied = errors.New("bastion: access denied")

	// ErrRoleNotFound is returned when a tenant role cannot be found.
	ErrRoleNotFound = errors.New("bastion: tenant role not found")

	// ErrRoleConflict is returned when a tenant already has a role with
	// the requested name.
	ErrRoleConflict = errors.New("bastion: tenant role already exists")

	// ErrRoleInUse is returned when deleting a role that is still assigned
	// and deletion of assigned roles is blocked.
	ErrRoleInUse = errors.New("bastion: tenant role is assigned to users")

	// ErrInvalidRole is returned when a role's name or fields are malformed.
	ErrInvalidRole = errors.New("bastion: invalid tenant role")

	// ErrInvalidPermission is returned for a malformed permission string
	// or an oversize permission set.
	ErrInvalidPermission = errors.New("bastion: invalid permission")

	// ErrTenantMismatch is returned when an actor touches a role that
	// belongs to another tenant.
	ErrTenantMismatch = errors.New("bastion: tenant role belongs to another tenant")

	// ErrCacheInvalidation is returned by a role mutation that was persisted
	// but whose cached snapshots could not be invalidated. Decisions may
	// still observe the old role until the invalidation succeeds.
	ErrCacheInvalidation = errors.New("bastion: tenant role cache invalidation failed")

	// ErrStoreRequired is returned by NewEngine without a store.
	ErrStoreRequired = errors.New("bastion: store is required")

	// ErrPolicyRequired is returned by NewEngine without a policy.
	ErrPolicyRequired = errors.New("bastion: policy is required")
)

// storeErr maps store-level sentinels onto the public ones, keeping the
// original error in the chain.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, tenantrole.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrRoleNotFound, err)
	case errors.Is(err, tenantrole.ErrConflict):
		return fmt.Errorf("%w: %w", ErrRoleConflict, err)
	}
	return err
}
