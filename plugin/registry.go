package plugin

import (
	"context"
	"log/slog"

	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/tenantrole"
)

// named pairs a hook with the plugin name for logging.
type named[H any] struct {
	name string
	hook H
}

// Registry holds registered plugins and dispatches lifecycle events.
// It type-caches plugins at registration time so emit calls iterate
// only over plugins implementing the relevant hook.
type Registry struct {
	plugins []Plugin
	logger  *slog.Logger

	beforeCheck       []named[BeforeCheck]
	afterCheck        []named[AfterCheck]
	roleCreated       []named[RoleCreated]
	roleUpdated       []named[RoleUpdated]
	roleDeleted       []named[RoleDeleted]
	permissionAdded   []named[PermissionAdded]
	permissionRemoved []named[PermissionRemoved]
	shutdown          []named[Shutdown]
}

// NewRegistry creates a plugin registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds a plugin and type-asserts it into all applicable
// hook caches. Plugins are notified in registration order.
func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
	name := p.Name()

	if h, ok := p.(BeforeCheck); ok {
		r.beforeCheck = append(r.beforeCheck, named[BeforeCheck]{name, h})
	}
	if h, ok := p.(AfterCheck); ok {
		r.afterCheck = append(r.afterCheck, named[AfterCheck]{name, h})
	}
	if h, ok := p.(RoleCreated); ok {
		r.roleCreated = append(r.roleCreated, named[RoleCreated]{name, h})
	}
	if h, ok := p.(RoleUpdated); ok {
		r.roleUpdated = append(r.roleUpdated, named[RoleUpdated]{name, h})
	}
	if h, ok := p.(RoleDeleted); ok {
		r.roleDeleted = append(r.roleDeleted, named[RoleDeleted]{name, h})
	}
	if h, ok := p.(PermissionAdded); ok {
		r.permissionAdded = append(r.permissionAdded, named[PermissionAdded]{name, h})
	}
	if h, ok := p.(PermissionRemoved); ok {
		r.permissionRemoved = append(r.permissionRemoved, named[PermissionRemoved]{name, h})
	}
	if h, ok := p.(Shutdown); ok {
		r.shutdown = append(r.shutdown, named[Shutdown]{name, h})
	}
}

// Plugins returns all registered plugins.
func (r *Registry) Plugins() []Plugin { return r.plugins }

// EmitBeforeCheck notifies all plugins that implement BeforeCheck.
func (r *Registry) EmitBeforeCheck(ctx context.Context, req any) {
	for _, e := range r.beforeCheck {
		if err := e.hook.OnBeforeCheck(ctx, req); err != nil {
			r.logHookError("OnBeforeCheck", e.name, err)
		}
	}
}

// EmitAfterCheck notifies all plugins that implement AfterCheck.
func (r *Registry) EmitAfterCheck(ctx context.Context, req, result any) {
	for _, e := range r.afterCheck {
		if err := e.hook.OnAfterCheck(ctx, req, result); err != nil {
			r.logHookError("OnAfterCheck", e.name, err)
		}
	}
}

// EmitRoleCreated notifies all plugins that implement RoleCreated.
func (r *Registry) EmitRoleCreated(ctx context.Context, rl *tenantrole.Role) {
	for _, e := range r.roleCreated {
		if err := e.hook.OnRoleCreated(ctx, rl); err != nil {
			r.logHookError("OnRoleCreated", e.name, err)
		}
	}
}

// EmitRoleUpdated notifies all plugins that implement RoleUpdated.
func (r *Registry) EmitRoleUpdated(ctx context.Context, rl *tenantrole.Role) {
	for _, e := range r.roleUpdated {
		if err := e.hook.OnRoleUpdated(ctx, rl); err != nil {
			r.logHookError("OnRoleUpdated", e.name, err)
		}
	}
}

// EmitRoleDeleted notifies all plugins that implement RoleDeleted.
func (r *Registry) EmitRoleDeleted(ctx context.Context, roleID id.TenantRoleID) {
	for _, e := range r.roleDeleted {
		if err := e.hook.OnRoleDeleted(ctx, roleID); err != nil {
			r.logHookError("OnRoleDeleted", e.name, err)
		}
	}
}

// EmitPermissionAdded notifies all plugins that implement PermissionAdded.
func (r *Registry) EmitPermissionAdded(ctx context.Context, roleID id.TenantRoleID, permission string) {
	for _, e := range r.permissionAdded {
		if err := e.hook.OnPermissionAdded(ctx, roleID, permission); err != nil {
			r.logHookError("OnPermissionAdded", e.name, err)
		}
	}
}

// EmitPermissionRemoved notifies all plugins that implement PermissionRemoved.
func (r *Registry) EmitPermissionRemoved(ctx context.Context, roleID id.TenantRoleID, permission string) {
	for _, e := range r.permissionRemoved {
		if err := e.hook.OnPermissionRemoved(ctx, roleID, permission); err != nil {
			r.logHookError("OnPermissionRemoved", e.name, err)
		}
	}
}

// EmitShutdown notifies all plugins that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Hook errors never propagate into the decision or the mutation.
func (r *Registry) logHookError(hook, pluginName string, err error) {
	r.logger.Warn("plugin hook error",
		slog.String("hook", hook),
		slog.String("plugin", pluginName),
		slog.String("error", err.Error()),
	)
}
