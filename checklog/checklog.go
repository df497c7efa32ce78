// Package checklog defines the authorization decision log Entry entity.
package checklog

import (
	"time"

	"github.com/xraph/bastion/id"
)

// Entry is a single recorded authorization decision.
type Entry struct {
	ID           id.CheckLogID `json:"id" db:"id"`
	TenantID     string        `json:"tenant_id" db:"tenant_id"`
	UserID       string        `json:"user_id" db:"user_id"`
	GlobalRole   string        `json:"global_role" db:"global_role"`
	TenantRoleID string        `json:"tenant_role_id,omitempty" db:"tenant_role_id"`
	Resource     string        `json:"resource" db:"resource"`
	Action       string        `json:"action" db:"action"`
	Permissions  []string      `json:"permissions,omitempty" db:"permissions"`
	Decision     string        `json:"decision" db:"decision"`
	Reason       string        `json:"reason,omitempty" db:"reason"`
	EvalTimeNs   int64         `json:"eval_time_ns" db:"eval_time_ns"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
}

// QueryFilter contains filters for querying decision logs.
type QueryFilter struct {
	TenantID   string     `json:"tenant_id,omitempty"`
	UserID     string     `json:"user_id,omitempty"`
	GlobalRole string     `json:"global_role,omitempty"`
	Resource   string     `json:"resource,omitempty"`
	Action     string     `json:"action,omitempty"`
	Decision   string     `json:"decision,omitempty"`
	After      *time.Time `json:"after,omitempty"`
	Before     *time.Time `json:"before,omitempty"`
	Limit      int        `json:"limit,omitempty"`
	Offset     int        `json:"offset,omitempty"`
}

// Matches reports whether e satisfies every non-zero predicate in f.
// Limit and Offset are not predicates.
func (f *QueryFilter) Matches(e *Entry) bool {
	if f == nil {
		return true
	}
	switch {
	case f.TenantID != "" && e.TenantID != f.TenantID,
		f.UserID != "" && e.UserID != f.UserID,
		f.GlobalRole != "" && e.GlobalRole != f.GlobalRole,
		f.Resource != "" && e.Resource != f.Resource,
		f.Action != "" && e.Action != f.Action,
		f.Decision != "" && e.Decision != f.Decision,
		f.After != nil && !e.CreatedAt.After(*f.After),
		f.Before != nil && !e.CreatedAt.Before(*f.Before):
		return false
	}
	return true
}
