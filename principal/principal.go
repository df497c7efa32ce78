// Package principal defines the authenticated actor evaluated by bastion and
// the closed set of platform-wide global roles.
package principal

import (
	"errors"
	"fmt"

	"github.com/xraph/bastion/assignment"
)

// GlobalRole is one of the fixed platform-wide identities governing the
// global (level 1) policy check.
type GlobalRole string

const (
	// RolePlatformEngineer is unrestricted platform staff.
	RolePlatformEngineer GlobalRole = "platform-engineer"

	// RolePlatformAdmin is platform administration staff.
	RolePlatformAdmin GlobalRole = "platform-admin"

	// RoleCustomerAdmin administers a customer organization tenant.
	RoleCustomerAdmin GlobalRole = "customer-admin"

	// RoleVendorAdmin administers a vendor organization tenant.
	RoleVendorAdmin GlobalRole = "vendor-admin"
)

// GlobalRoles lists every valid global role.
func GlobalRoles() []GlobalRole {
	return []GlobalRole{RolePlatformEngineer, RolePlatformAdmin, RoleCustomerAdmin, RoleVendorAdmin}
}

var (
	// ErrUnknownRole is returned when a string is not a global role.
	ErrUnknownRole = errors.New("principal: unknown global role")

	// ErrTenantRequired is returned when a tenant-bound role has no tenant.
	ErrTenantRequired = errors.New("principal: tenant required for role")
)

// ParseGlobalRole converts s into a GlobalRole.
func ParseGlobalRole(s string) (GlobalRole, error) {
	r := GlobalRole(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// Valid reports whether r belongs to the closed set.
func (r GlobalRole) Valid() bool {
	switch r {
	case RolePlatformEngineer, RolePlatformAdmin, RoleCustomerAdmin, RoleVendorAdmin:
		return true
	}
	return false
}

// Unrestricted reports whether r bypasses tenant-level restriction.
func (r GlobalRole) Unrestricted() bool { return r == RolePlatformEngineer }

// PlatformStaff reports whether r belongs to the platform operator.
func (r GlobalRole) PlatformStaff() bool {
	return r == RolePlatformEngineer || r == RolePlatformAdmin
}

// RequiresTenant reports whether actors with r must belong to a tenant.
func (r GlobalRole) RequiresTenant() bool {
	return r == RoleCustomerAdmin || r == RoleVendorAdmin
}

// String implements fmt.Stringer.
func (r GlobalRole) String() string { return string(r) }

// Actor is the authenticated identity supplied by the session resolver.
// bastion trusts it as given and does not re-validate credentials.
type Actor struct {
	UserID     string                `json:"user_id,omitempty"`
	Role       GlobalRole            `json:"global_role"`
	TenantID   string                `json:"tenant_id,omitempty"`
	Assignment assignment.Assignment `json:"tenant_role_id"`
}

// Validate checks the actor invariants.
func (a *Actor) Validate() error {
	if !a.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRole, a.Role)
	}
	if a.Role.RequiresTenant() && a.TenantID == "" {
		return fmt.Errorf("%w %s", ErrTenantRequired, a.Role)
	}
	return nil
}
