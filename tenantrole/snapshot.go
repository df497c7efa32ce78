package tenantrole

import (
	"encoding/json"
	"time"

	"github.com/xraph/bastion/id"
)

// Snapshot is an immutable view of a role's permission set at one point in
// time. A single authorization decision reads exactly one snapshot.
type Snapshot struct {
	RoleID    id.TenantRoleID
	TenantID  string
	Active    bool
	UpdatedAt time.Time

	perms map[string]struct{}
	order []string
}

// NewSnapshot captures r. Later changes to r do not affect the snapshot.
func NewSnapshot(r *Role) *Snapshot {
	s := &Snapshot{
		RoleID:    r.ID,
		TenantID:  r.TenantID,
		Active:    r.IsActive,
		UpdatedAt: r.UpdatedAt,
		perms:     make(map[string]struct{}, len(r.Permissions)),
		order:     make([]string, 0, len(r.Permissions)),
	}
	for _, p := range r.Permissions {
		if _, dup := s.perms[p]; dup {
			continue
		}
		s.perms[p] = struct{}{}
		s.order = append(s.order, p)
	}
	return s
}

// Has reports whether the snapshot grants p. Inactive roles grant nothing.
func (s *Snapshot) Has(p string) bool {
	if s == nil || !s.Active {
		return false
	}
	_, ok := s.perms[p]
	return ok
}

// Permissions returns the permission strings in stored order.
func (s *Snapshot) Permissions() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.order...)
}

type snapshotJSON struct {
	RoleID      id.TenantRoleID `json:"role_id"`
	TenantID    string          `json:"tenant_id"`
	Active      bool            `json:"active"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Permissions []string        `json:"permissions"`
}

// MarshalJSON encodes the snapshot for shared caches.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshotJSON{
		RoleID:      s.RoleID,
		TenantID:    s.TenantID,
		Active:      s.Active,
		UpdatedAt:   s.UpdatedAt,
		Permissions: s.order,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw snapshotJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = *NewSnapshot(&Role{
		ID:          raw.RoleID,
		TenantID:    raw.TenantID,
		IsActive:    raw.Active,
		UpdatedAt:   raw.UpdatedAt,
		Permissions: raw.Permissions,
	})
	return nil
}
