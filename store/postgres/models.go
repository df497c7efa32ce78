package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/bastion/checklog"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/tenantrole"
)

// ──────────────────────────────────────────────────
// Tenant role models
// ──────────────────────────────────────────────────

type tenantRoleModel struct {
	grove.BaseModel `grove:"table:bastion_tenant_roles"`
	ID              string    `grove:"id,pk"`
	TenantID        string    `grove:"tenant_id,notnull"`
	Name            string    `grove:"name,notnull"`
	DisplayName     string    `grove:"display_name,notnull"`
	Description     string    `grove:"description"`
	IsActive        bool      `grove:"is_active,notnull"`
	CreatedBy       string    `grove:"created_by"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

type rolePermissionModel struct {
	grove.BaseModel `grove:"table:bastion_tenant_role_permissions"`
	RoleID          string `grove:"role_id,pk"`
	Permission      string `grove:"permission,pk"`
	Position        int64  `grove:"position,notnull"`
}

func tenantRoleToModel(r *tenantrole.Role) *tenantRoleModel {
	return &tenantRoleModel{
		ID:          r.ID.String(),
		TenantID:    r.TenantID,
		Name:        r.Name,
		DisplayName: r.DisplayName,
		Description: r.Description,
		IsActive:    r.IsActive,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func tenantRoleFromModel(m *tenantRoleModel, perms []string) *tenantrole.Role {
	rid, _ := id.ParseTenantRoleID(m.ID) //nolint:errcheck // stored IDs are always valid
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

// permissionRows numbers perms from base so that insertion order survives
// the round trip.
func permissionRows(roleID string, perms []string, base int64) []rolePermissionModel {
	rows := make([]rolePermissionModel, len(perms))
	for i, p := range perms {
		rows[i] = rolePermissionModel{RoleID: roleID, Permission: p, Position: base + int64(i)}
	}
	return rows
}

// ──────────────────────────────────────────────────
// Decision log model
// ──────────────────────────────────────────────────

type checkLogModel struct {
	grove.BaseModel `grove:"table:bastion_check_logs"`
	ID              string    `grove:"id,pk"`
	TenantID        string    `grove:"tenant_id,notnull"`
	UserID          string    `grove:"user_id,notnull"`
	GlobalRole      string    `grove:"global_role,notnull"`
	TenantRoleID    string    `grove:"tenant_role_id,notnull"`
	Resource        string    `grove:"resource,notnull"`
	Action          string    `grove:"action,notnull"`
	Permissions     []string  `grove:"permissions,type:jsonb"`
	Decision        string    `grove:"decision,notnull"`
	Reason          string    `grove:"reason"`
	EvalTimeNs      int64     `grove:"eval_time_ns,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
}

func checkLogToModel(e *checklog.Entry) *checkLogModel {
	perms := e.Permissions
	if perms == nil {
		perms = []string{}
	}
	return &checkLogModel{
		ID:           e.ID.String(),
		TenantID:     e.TenantID,
		UserID:       e.UserID,
		GlobalRole:   e.GlobalRole,
		TenantRoleID: e.TenantRoleID,
		Resource:     e.Resource,
		Action:       e.Action,
		Permissions:  perms,
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
