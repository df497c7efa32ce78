// Package plugin defines the plugin system for bastion.
// Plugins are notified of lifecycle events (decision made, tenant role
// created, permission added) and can react by recording, exporting or
// alerting.
//
// Each lifecycle hook is a separate interface so plugins opt in only
// to the events they care about.
package plugin

import (
	"context"

	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/tenantrole"
)

// Plugin is the base interface all plugins must implement.
type Plugin interface {
	// Name returns a unique human-readable name for the plugin.
	Name() string
}

// ──────────────────────────────────────────────────
// Decision hooks
// ──────────────────────────────────────────────────

// BeforeCheck is called before an authorization decision is evaluated.
// The req parameter is *bastion.Request (passed as any to avoid an import
// cycle).
type BeforeCheck interface {
	OnBeforeCheck(ctx context.Context, req any) error
}

// AfterCheck is called after a decision is reached. The req parameter is
// *bastion.Request; result is *bastion.Result.
type AfterCheck interface {
	OnAfterCheck(ctx context.Context, req, result any) error
}

// ──────────────────────────────────────────────────
// Tenant role hooks
// ──────────────────────────────────────────────────

// RoleCreated is called after a tenant role is created.
type RoleCreated interface {
	OnRoleCreated(ctx context.Context, r *tenantrole.Role) error
}

// RoleUpdated is called after a tenant role is updated.
type RoleUpdated interface {
	OnRoleUpdated(ctx context.Context, r *tenantrole.Role) error
}

// RoleDeleted is called after a tenant role is deleted.
type RoleDeleted interface {
	OnRoleDeleted(ctx context.Context, roleID id.TenantRoleID) error
}

// PermissionAdded is called after a permission is added to a tenant role.
type PermissionAdded interface {
	OnPermissionAdded(ctx context.Context, roleID id.TenantRoleID, permission string) error
}

// PermissionRemoved is called after a permission is removed from a tenant
// role.
type PermissionRemoved interface {
	OnPermissionRemoved(ctx context.Context, roleID id.TenantRoleID, permission string) error
}

// ──────────────────────────────────────────────────
// Shutdown hook
// ──────────────────────────────────────────────────

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
