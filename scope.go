package bastion

import (
	"context"
	"fmt"

	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/tenantrole"
)

// ScopedRegistry is a Registry view bound to one actor. Platform engineers
// see every tenant. Everyone else is confined to their own tenant: listings
// are narrowed to it, new roles are created in it, and roles of other
// tenants are refused with ErrTenantMismatch.
//
// ScopedRegistry does not run the global policy check; callers gate each
// operation through Engine.Authorize first.
type ScopedRegistry struct {
	reg   *Registry
	actor *Actor
}

// For returns a view of r restricted to what actor may touch.
func (r *Registry) For(actor *Actor) (*ScopedRegistry, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if err := actor.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidActor, err)
	}
	if !actor.Role.Unrestricted() && actor.TenantID == "" {
		return nil, fmt.Errorf("%w: tenant access required", ErrInvalidActor)
	}
	return &ScopedRegistry{reg: r, actor: actor}, nil
}

// Actor returns the actor the view is bound to.
func (s *ScopedRegistry) Actor() *Actor { return s.actor }

func (s *ScopedRegistry) unrestricted() bool { return s.actor.Role.Unrestricted() }

// CreateRole creates a role. Restricted actors always create in their own
// tenant, whatever in.TenantID says.
func (s *ScopedRegistry) CreateRole(ctx context.Context, in *CreateRoleInput) (*tenantrole.Role, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: missing input", ErrInvalidRole)
	}
	cp := *in
	if !s.unrestricted() {
		cp.TenantID = s.actor.TenantID
	}
	if cp.CreatedBy == "" {
		cp.CreatedBy = s.actor.UserID
	}
	return s.reg.CreateRole(ctx, &cp)
}

// GetRole returns a role the actor may see.
func (s *ScopedRegistry) GetRole(ctx context.Context, roleID id.TenantRoleID) (*tenantrole.Role, error) {
	role, err := s.reg.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if err := s.owns(role); err != nil {
		return nil, err
	}
	return role, nil
}

// ListRoles lists roles. Restricted actors only ever see their own tenant.
func (s *ScopedRegistry) ListRoles(ctx context.Context, filter *tenantrole.ListFilter) ([]*tenantrole.Role, error) {
	return s.reg.ListRoles(ctx, s.narrow(filter))
}

// CountRoles counts roles visible to the actor.
func (s *ScopedRegistry) CountRoles(ctx context.Context, filter *tenantrole.ListFilter) (int64, error) {
	return s.reg.CountRoles(ctx, s.narrow(filter))
}

// GetRolesByTenant returns active roles of tenantID.
func (s *ScopedRegistry) GetRolesByTenant(ctx context.Context, tenantID string) ([]*tenantrole.Role, error) {
	if !s.unrestricted() && tenantID != s.actor.TenantID {
		return nil, ErrTenantMismatch
	}
	return s.reg.GetRolesByTenant(ctx, tenantID)
}

// UpdateRole updates a role the actor owns.
func (s *ScopedRegistry) UpdateRole(ctx context.Context, roleID id.TenantRoleID, u *tenantrole.Update) (*tenantrole.Role, error) {
	if _, err := s.GetRole(ctx, roleID); err != nil {
		return nil, err
	}
	return s.reg.UpdateRole(ctx, roleID, u)
}

// DeleteRole deletes a role the actor owns.
func (s *ScopedRegistry) DeleteRole(ctx context.Context, roleID id.TenantRoleID) error {
	if _, err := s.GetRole(ctx, roleID); err != nil {
		return err
	}
	return s.reg.DeleteRole(ctx, roleID)
}

// AddPermission adds a permission to a role the actor owns.
func (s *ScopedRegistry) AddPermission(ctx context.Context, roleID id.TenantRoleID, permission string) (*tenantrole.Role, error) {
	if _, err := s.GetRole(ctx, roleID); err != nil {
		return nil, err
	}
	return s.reg.AddPermission(ctx, roleID, permission)
}

// RemovePermission removes a permission from a role the actor owns.
func (s *ScopedRegistry) RemovePermission(ctx context.Context, roleID id.TenantRoleID, permission string) (*tenantrole.Role, error) {
	if _, err := s.GetRole(ctx, roleID); err != nil {
		return nil, err
	}
	return s.reg.RemovePermission(ctx, roleID, permission)
}

func (s *ScopedRegistry) owns(role *tenantrole.Role) error {
	if s.unrestricted() || role.TenantID == s.actor.TenantID {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrTenantMismatch, role.ID)
}

func (s *ScopedRegistry) narrow(filter *tenantrole.ListFilter) *tenantrole.ListFilter {
	var f tenantrole.ListFilter
	if filter != nil {
		f = *filter
	}
	if !s.unrestricted() {
		f.TenantID = s.actor.TenantID
	}
	return &f
}
