// Package assignment models the single tenant role an actor may hold.
//
// An actor holds either no tenant role, which grants full access inside the
// actor's own tenant, or exactly one assigned role whose permission set is
// checked. The two cases are distinct: an empty assignment is never the same
// thing as a role with zero permissions.
package assignment

import (
	"context"
	"encoding/json"

	"github.com/xraph/bastion/id"
)

// Kind distinguishes the two assignment variants.
type Kind string

const (
	// KindNone means the actor holds no tenant role (tenant admin).
	KindNone Kind = "none"

	// KindRole means the actor holds exactly one tenant role.
	KindRole Kind = "role"
)

// Assignment is the tenant-role back-reference stored on an actor record.
// The zero value is NoTenantRole.
type Assignment struct {
	roleID id.TenantRoleID
}

// NoTenantRole returns the full-access assignment.
func NoTenantRole() Assignment { return Assignment{} }

// AssignedRole returns an assignment to the given tenant role. A Nil id
// yields NoTenantRole.
func AssignedRole(roleID id.TenantRoleID) Assignment {
	return Assignment{roleID: roleID}
}

// FromString builds an assignment from an optional serialized role id, as
// carried in session claims. An empty string means no tenant role.
func FromString(s string) (Assignment, error) {
	if s == "" {
		return NoTenantRole(), nil
	}
	rid, err := id.ParseTenantRoleID(s)
	if err != nil {
		return Assignment{}, err
	}
	return AssignedRole(rid), nil
}

// Kind reports which variant a holds.
func (a Assignment) Kind() Kind {
	if a.roleID.IsNil() {
		return KindNone
	}
	return KindRole
}

// RoleID returns the assigned role id and true, or Nil and false for
// NoTenantRole.
func (a Assignment) RoleID() (id.TenantRoleID, bool) {
	if a.roleID.IsNil() {
		return id.Nil, false
	}
	return a.roleID, true
}

// String renders the assignment for logs.
func (a Assignment) String() string {
	if rid, ok := a.RoleID(); ok {
		return rid.String()
	}
	return string(KindNone)
}

// MarshalJSON encodes NoTenantRole as null and AssignedRole as the role id.
func (a Assignment) MarshalJSON() ([]byte, error) {
	if rid, ok := a.RoleID(); ok {
		return json.Marshal(rid.String())
	}
	return []byte("null"), nil
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (a *Assignment) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil {
		*a = NoTenantRole()
		return nil
	}
	parsed, err := FromString(*s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Counter reports how many actors currently reference a tenant role. The
// actor records live outside this module; a deployment that wants to block
// deletion of assigned roles supplies an implementation.
type Counter interface {
	CountAssignments(ctx context.Context, tenantID string, roleID id.TenantRoleID) (int64, error)
}
