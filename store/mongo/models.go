package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/bastion/checklog"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/tenantrole"
)

// ──────────────────────────────────────────────────
// Tenant role model
// ──────────────────────────────────────────────────

// tenantRoleModel embeds the permission list so single-document updates keep
// additions and removals atomic.
type tenantRoleModel struct {
	grove.BaseModel `grove:"table:bastion_tenant_roles"`
	ID              string    `grove:"id,pk"           bson:"_id"`
	TenantID        string    `grove:"tenant_id"       bson:"tenant_id"`
	Name            string    `grove:"name"            bson:"name"`
	DisplayName     string    `grove:"display_name"    bson:"display_name"`
	Description     string    `grove:"description"     bson:"description"`
	Permissions     []string  `grove:"permissions"     bson:"permissions"`
	IsActive        bool      `grove:"is_active"       bson:"is_active"`
	CreatedBy       string    `grove:"created_by"      bson:"created_by"`
	CreatedAt       time.Time `grove:"created_at"      bson:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at"      bson:"updated_at"`
}

func tenantRoleToModel(r *tenantrole.Role) *tenantRoleModel {
	perms := r.Permissions
	if perms == nil {
		perms = []string{}
	}
	return &tenantRoleModel{
		ID:          r.ID.String(),
		TenantID:    r.TenantID,
		Name:        r.Name,
		DisplayName: r.DisplayName,
		Description: r.Description,
		Permissions: perms,
		IsActive:    r.IsActive,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func tenantRoleFromModel(m *tenantRoleModel) *tenantrole.Role {
	rid, _ := id.ParseTenantRoleID(m.ID) //nolint:errcheck // stored IDs are always valid
	perms := m.Permissions
	if perms == nil {
		perms = []string{}
	}
	return &tenantrole.Role{
		ID:          rid,
		TenantID:    m.TenantID,
		Name:        m.Name,
		DisplayName: m.DisplayName,
		Description: m.Description,
		Permissions: perms,
		IsActive:    m.IsActive,
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Decision log model
// ──────────────────────────────────────────────────

type checkLogModel struct {
	grove.BaseModel `grove:"table:bastion_check_logs"`
	ID              string    `grove:"id,pk"           bson:"_id"`
	TenantID        string    `grove:"tenant_id"       bson:"tenant_id"`
	UserID          string    `grove:"user_id"         bson:"user_id"`
	GlobalRole      string    `grove:"global_role"     bson:"global_role"`
	TenantRoleID    string    `grove:"tenant_role_id"  bson:"tenant_role_id,omitempty"`
	Resource        string    `grove:"resource"        bson:"resource"`
	Action          string    `grove:"action"          bson:"action"`
	Permissions     []string  `grove:"permissions"     bson:"permissions,omitempty"`
	Decision        string    `grove:"decision"        bson:"decision"`
	Reason          string    `grove:"reason"          bson:"reason"`
	EvalTimeNs      int64     `grove:"eval_time_ns"    bson:"eval_time_ns"`
	CreatedAt       time.Time `grove:"created_at"      bson:"created_at"`
}

func checkLogToModel(e *checklog.Entry) *checkLogModel {
	return &checkLogModel{
		ID:           e.ID.String(),
		TenantID:     e.TenantID,
		UserID:       e.UserID,
		GlobalRole:   e.GlobalRole,
		TenantRoleID: e.TenantRoleID,
		Resource:     e.Resource,
		Action:       e.Action,
		Permissions:  e.Permissions,
		Decision:     e.Decision,
		Reason:       e.Reason,
		EvalTimeNs:   e.EvalTimeNs,
		CreatedAt:    e.CreatedAt,
	}
}

func checkLogFromModel(m *checkLogModel) *checklog.Entry {
	lid, _ := id.ParseCheckLogID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &checklog.Entry{
		ID:           lid,
		TenantID:     m.TenantID,
		UserID:       m.UserID,
		GlobalRole:   m.GlobalRole,
		TenantRoleID: m.TenantRoleID,
		Resource:     m.Resource,
		Action:       m.Action,
		Permissions:  m.Permissions,
		Decision:     m.Decision,
		Reason:       m.Reason,
		EvalTimeNs:   m.EvalTimeNs,
		CreatedAt:    m.CreatedAt,
	}
}
