package bastion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/tenantrole"
)

// CreateRoleInput describes a new tenant role.
type CreateRoleInput struct {
	TenantID    string   `json:"tenant_id"`
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions"`
	CreatedBy   string   `json:"created_by,omitempty"`
}

// Registry manages tenant roles. It validates input, stamps identifiers and
// timestamps, and invalidates cached snapshots after every mutation so the
// next decision observes the change. When that invalidation fails the
// mutation stays persisted and the method returns an error wrapping
// ErrCacheInvalidation.
type Registry struct {
	e *Engine
}

// CreateRole validates in and persists a new active role.
func (r *Registry) CreateRole(ctx context.Context, in *CreateRoleInput) (*tenantrole.Role, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: missing input", ErrInvalidRole)
	}
	if in.TenantID == "" {
		return nil, fmt.Errorf("%w: tenant id is required", ErrInvalidRole)
	}
	if err := tenantrole.ValidateName(in.Name); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRole, err)
	}
	perms, err := r.normalize(in.Permissions)
	if err != nil {
		return nil, err
	}
	display := strings.TrimSpace(in.DisplayName)
	if display == "" {
		display = in.Name
	}

	now := r.e.now().UTC()
	role := &tenantrole.Role{
		ID:          id.NewTenantRoleID(),
		TenantID:    in.TenantID,
		Name:        in.Name,
		DisplayName: display,
		Description: strings.TrimSpace(in.Description),
		Permissions: perms,
		IsActive:    true,
		CreatedBy:   in.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.e.store.CreateRole(ctx, role); err != nil {
		return nil, fmt.Errorf("create tenant role: %w", storeErr(err))
	}

	r.e.logger.Info("tenant role created",
		slog.String("tenant_role_id", role.ID.String()),
		slog.String("tenant_id", role.TenantID),
		slog.String("name", role.Name),
		slog.String("created_by", role.CreatedBy),
	)
	if r.e.plugins != nil {
		r.e.plugins.EmitRoleCreated(ctx, role)
	}
	return role, nil
}

// GetRole returns the role with the given id.
func (r *Registry) GetRole(ctx context.Context, roleID id.TenantRoleID) (*tenantrole.Role, error) {
	role, err := r.e.store.GetRole(ctx, roleID)
	if err != nil {
		return nil, storeErr(err)
	}
	return role, nil
}

// ListRoles returns roles matching filter, newest first.
func (r *Registry) ListRoles(ctx context.Context, filter *tenantrole.ListFilter) ([]*tenantrole.Role, error) {
	return r.e.store.ListRoles(ctx, filter)
}

// CountRoles returns the number of roles matching filter.
func (r *Registry) CountRoles(ctx context.Context, filter *tenantrole.ListFilter) (int64, error) {
	return r.e.store.CountRoles(ctx, filter)
}

// GetRolesByTenant returns the tenant's active roles, newest first. This is
// the list offered when assigning a role to a user.
func (r *Registry) GetRolesByTenant(ctx context.Context, tenantID string) ([]*tenantrole.Role, error) {
	active := true
	return r.e.store.ListRoles(ctx, &tenantrole.ListFilter{TenantID: tenantID, IsActive: &active})
}

// UpdateRole applies a partial update. A non-nil permission list replaces
// the stored set.
func (r *Registry) UpdateRole(ctx context.Context, roleID id.TenantRoleID, u *tenantrole.Update) (*tenantrole.Role, error) {
	if u == nil {
		u = &tenantrole.Update{}
	}
	upd := *u
	if upd.Permissions != nil {
		perms, err := r.normalize(upd.Permissions)
		if err != nil {
			return nil, err
		}
		upd.Permissions = perms
	}
	if upd.DisplayName != nil {
		d := strings.TrimSpace(*upd.DisplayName)
		if d == "" {
			return nil, fmt.Errorf("%w: display name cannot be empty", ErrInvalidRole)
		}
		upd.DisplayName = &d
	}

	role, err := r.e.store.UpdateRole(ctx, roleID, &upd, r.e.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("update tenant role: %w", storeErr(err))
	}
	stale := r.e.invalidate(ctx, roleID)

	r.e.logger.Info("tenant role updated",
		slog.String("tenant_role_id", roleID.String()),
		slog.String("tenant_id", role.TenantID),
	)
	if r.e.plugins != nil {
		r.e.plugins.EmitRoleUpdated(ctx, role)
	}
	if stale != nil {
		return nil, fmt.Errorf("update tenant role: %w", stale)
	}
	return role, nil
}

// DeleteRole removes a role. Actors still assigned to it lose every tenant
// permission it granted; with BlockDeleteWhenAssigned and an assignment
// counter configured the deletion is refused instead.
func (r *Registry) DeleteRole(ctx context.Context, roleID id.TenantRoleID) error {
	if r.e.config.BlockDeleteWhenAssigned && r.e.counter != nil {
		role, err := r.e.store.GetRole(ctx, roleID)
		if err != nil {
			return fmt.Errorf("delete tenant role: %w", storeErr(err))
		}
		n, err := r.e.counter.CountAssignments(ctx, role.TenantID, roleID)
		if err != nil {
			return fmt.Errorf("delete tenant role: count assignments: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("%w: %d user(s)", ErrRoleInUse, n)
		}
	}

	if err := r.e.store.DeleteRole(ctx, roleID); err != nil {
		return fmt.Errorf("delete tenant role: %w", storeErr(err))
	}
	stale := r.e.invalidate(ctx, roleID)

	r.e.logger.Info("tenant role deleted", slog.String("tenant_role_id", roleID.String()))
	if r.e.plugins != nil {
		r.e.plugins.EmitRoleDeleted(ctx, roleID)
	}
	if stale != nil {
		return fmt.Errorf("delete tenant role: %w", stale)
	}
	return nil
}

// AddPermission adds permission to the role. Adding a permission the role
// already has succeeds without change.
func (r *Registry) AddPermission(ctx context.Context, roleID id.TenantRoleID, permission string) (*tenantrole.Role, error) {
	p, err := tenantrole.NormalizePermission(permission)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPermission, err)
	}

	if limit := r.e.config.MaxPermissionsPerRole; limit > 0 {
		cur, err := r.e.store.GetRole(ctx, roleID)
		if err != nil {
			return nil, fmt.Errorf("add permission: %w", storeErr(err))
		}
		if !cur.HasPermission(p) && len(cur.Permissions) >= limit {
			return nil, fmt.Errorf("%w: role already has %d permissions", ErrInvalidPermission, limit)
		}
	}

	role, err := r.e.store.AddPermission(ctx, roleID, p, r.e.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("add permission: %w", storeErr(err))
	}
	stale := r.e.invalidate(ctx, roleID)

	r.e.logger.Info("tenant permission added",
		slog.String("tenant_role_id", roleID.String()),
		slog.String("permission", p),
	)
	if r.e.plugins != nil {
		r.e.plugins.EmitPermissionAdded(ctx, roleID, p)
	}
	if stale != nil {
		return nil, fmt.Errorf("add permission: %w", stale)
	}
	return role, nil
}

// RemovePermission removes permission from the role. Removing a permission
// the role lacks succeeds without change.
func (r *Registry) RemovePermission(ctx context.Context, roleID id.TenantRoleID, permission string) (*tenantrole.Role, error) {
	p, err := tenantrole.NormalizePermission(permission)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPermission, err)
	}

	role, err := r.e.store.RemovePermission(ctx, roleID, p, r.e.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("remove permission: %w", storeErr(err))
	}
	stale := r.e.invalidate(ctx, roleID)

	r.e.logger.Info("tenant permission removed",
		slog.String("tenant_role_id", roleID.String()),
		slog.String("permission", p),
	)
	if r.e.plugins != nil {
		r.e.plugins.EmitPermissionRemoved(ctx, roleID, p)
	}
	if stale != nil {
		return nil, fmt.Errorf("remove permission: %w", stale)
	}
	return role, nil
}

// HasPermission reports whether the role grants permission. See
// Engine.HasPermission.
func (r *Registry) HasPermission(ctx context.Context, roleID id.TenantRoleID, permission string) bool {
	return r.e.HasPermission(ctx, roleID, permission)
}

func (r *Registry) normalize(perms []string) ([]string, error) {
	out, err := tenantrole.NormalizePermissions(perms)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPermission, err)
	}
	if limit := r.e.config.MaxPermissionsPerRole; limit > 0 && len(out) > limit {
		return nil, fmt.Errorf("%w: %d permissions exceeds limit of %d", ErrInvalidPermission, len(out), limit)
	}
	return out, nil
}
