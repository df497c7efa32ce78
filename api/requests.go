package api

// ──────────────────────────────────────────────────
// Check requests
// ──────────────────────────────────────────────────

// CheckRequest asks whether the caller may perform action on resource while
// holding the listed tenant permissions.
type CheckRequest struct {
	Resource    string   `json:"resource" description:"Resource class (e.g. rfqs)"`
	Action      string   `json:"action" description:"Action (e.g. read, write, delete)"`
	Permissions []string `json:"permissions,omitempty" description:"Tenant permissions the operation requires, checked in order"`
}

// ──────────────────────────────────────────────────
// Tenant role requests
// ──────────────────────────────────────────────────

// CreateTenantRoleRequest is the body for creating a tenant role.
type CreateTenantRoleRequest struct {
	Name        string   `json:"name" description:"Role name, unique within the tenant"`
	DisplayName string   `json:"display_name" description:"Human-readable name"`
	Description string   `json:"description,omitempty" description:"Role description"`
	TenantID    string   `json:"tenant_id,omitempty" description:"Owning tenant; ignored for tenant-bound callers"`
	Permissions []string `json:"permissions" description:"Permission strings"`
}

// UpdateTenantRoleRequest is the body for updating a tenant role. Omitted
// fields are left unchanged; a supplied permission list replaces the set.
type UpdateTenantRoleRequest struct {
	DisplayName *string  `json:"display_name,omitempty" description:"Human-readable name"`
	Description *string  `json:"description,omitempty" description:"Role description"`
	Permissions []string `json:"permissions,omitempty" description:"Replacement permission set"`
	IsActive    *bool    `json:"is_active,omitempty" description:"Activation flag"`
}

// GetTenantRoleRequest is the path parameter for a tenant role.
type GetTenantRoleRequest struct {
	RoleID string `path:"roleId" description:"Tenant role ID"`
}

// ListTenantRolesRequest holds query parameters for listing tenant roles.
type ListTenantRolesRequest struct {
	TenantID string `query:"tenant_id" description:"Filter by tenant (platform staff only)"`
	IsActive string `query:"is_active" description:"Filter by activation (true/false)"`
	Limit    int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset   int    `query:"offset" description:"Results to skip"`
}

// TenantRolesByTenantRequest is the path parameter for a tenant's roles.
type TenantRolesByTenantRequest struct {
	TenantID string `path:"tenantId" description:"Tenant ID"`
}

// PermissionRequest is the body for adding a permission to a role.
type PermissionRequest struct {
	Permission string `json:"permission" description:"Permission string to add"`
}

// ──────────────────────────────────────────────────
// Decision log requests
// ──────────────────────────────────────────────────

// ListCheckLogsRequest holds query parameters for querying decision logs.
type ListCheckLogsRequest struct {
	TenantID   string `query:"tenant_id" description:"Filter by tenant"`
	UserID     string `query:"user_id" description:"Filter by user"`
	GlobalRole string `query:"global_role" description:"Filter by global role"`
	Resource   string `query:"resource" description:"Filter by resource"`
	Action     string `query:"action" description:"Filter by action"`
	Decision   string `query:"decision" description:"Filter by decision"`
	After      string `query:"after" description:"After timestamp (RFC3339)"`
	Before     string `query:"before" description:"Before timestamp (RFC3339)"`
	Limit      int    `query:"limit" description:"Maximum results"`
	Offset     int    `query:"offset" description:"Results to skip"`
}

// BatchCheckRequest evaluates several checks for the same caller.
type BatchCheckRequest struct {
	Checks []CheckRequest `json:"checks" description:"Checks to evaluate"`
}
