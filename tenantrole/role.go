// Package tenantrole defines tenant-scoped roles and their store interface.
//
// A tenant role is a named, per-tenant bundle of open-ended permission
// strings (for example "view_rfqs" or "create_quotes"). Roles are configured
// at runtime by tenant administrators and assigned to users through
// [assignment.Assignment].
package tenantrole

import (
	"time"

	"github.com/xraph/bastion/id"
)

// Role is a named permission set scoped to one tenant. Name is unique per
// tenant.
type Role struct {
	ID          id.TenantRoleID `json:"id" db:"id"`
	TenantID    string          `json:"tenant_id" db:"tenant_id"`
	Name        string          `json:"name" db:"name"`
	DisplayName string          `json:"display_name" db:"display_name"`
	Description string          `json:"description,omitempty" db:"description"`
	Permissions []string        `json:"permissions" db:"permissions"`
	IsActive    bool            `json:"is_active" db:"is_active"`
	CreatedBy   string          `json:"created_by,omitempty" db:"created_by"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// Clone returns a deep copy of r.
func (r *Role) Clone() *Role {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Permissions = append([]string(nil), r.Permissions...)
	return &cp
}

// HasPermission reports whether the stored set contains p. It ignores the
// active flag; decisions go through [Snapshot].
func (r *Role) HasPermission(p string) bool {
	for _, have := range r.Permissions {
		if have == p {
			return true
		}
	}
	return false
}

// ListFilter contains filters for listing roles. Zero fields match all.
type ListFilter struct {
	TenantID string `json:"tenant_id,omitempty"`
	IsActive *bool  `json:"is_active,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// Matches reports whether r satisfies the filter's predicates.
func (f *ListFilter) Matches(r *Role) bool {
	if f == nil {
		return true
	}
	if f.TenantID != "" && r.TenantID != f.TenantID {
		return false
	}
	if f.IsActive != nil && r.IsActive != *f.IsActive {
		return false
	}
	return true
}

// Update is a partial modification. Nil fields are left unchanged; a non-nil
// Permissions slice replaces the stored set entirely.
type Update struct {
	DisplayName *string  `json:"display_name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	IsActive    *bool    `json:"is_active,omitempty"`
}

// Empty reports whether u changes nothing.
func (u *Update) Empty() bool {
	return u == nil || (u.DisplayName == nil && u.Description == nil && u.Permissions == nil && u.IsActive == nil)
}

// Apply writes u onto r and stamps UpdatedAt.
func (u *Update) Apply(r *Role, at time.Time) {
	if u == nil {
		return
	}
	if u.DisplayName != nil {
		r.DisplayName = *u.DisplayName
	}
	if u.Description != nil {
		r.Description = *u.Description
	}
	if u.Permissions != nil {
		r.Permissions = append([]string{}, u.Permissions...)
	}
	if u.IsActive != nil {
		r.IsActive = *u.IsActive
	}
	r.UpdatedAt = at
}
