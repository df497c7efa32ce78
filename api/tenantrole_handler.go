package api

import (
	"net/http"
	"strconv"

	"github.com/xraph/forge"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/tenantrole"
)

func (a *API) registerTenantRoleRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("tenant-roles"))

	if err := g.POST("/tenant-roles", a.createTenantRole,
		forge.WithSummary("Create tenant role"),
		forge.WithDescription("Creates a named permission bundle inside the caller's tenant."),
		forge.WithOperationID("createTenantRole"),
		forge.WithRequestSchema(CreateTenantRoleRequest{}),
		forge.WithCreatedResponse(tenantrole.Role{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/tenant-roles", a.listTenantRoles,
		forge.WithSummary("List tenant roles"),
		forge.WithDescription("Lists tenant roles visible to the caller, newest first."),
		forge.WithOperationID("listTenantRoles"),
		forge.WithRequestSchema(ListTenantRolesRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Tenant role list", ListResponse[*tenantrole.Role]{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/tenant-roles/:roleId", a.getTenantRole,
		forge.WithSummary("Get tenant role"),
		forge.WithDescription("Returns details of a specific tenant role."),
		forge.WithOperationID("getTenantRole"),
		forge.WithResponseSchema(http.StatusOK, "Tenant role details", tenantrole.Role{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/tenant-roles/:roleId", a.updateTenantRole,
		forge.WithSummary("Update tenant role"),
		forge.WithDescription("Updates display fields, activation or the full permission set."),
		forge.WithOperationID("updateTenantRole"),
		forge.WithRequestSchema(UpdateTenantRoleRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated tenant role", tenantrole.Role{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/tenant-roles/:roleId", a.deleteTenantRole,
		forge.WithSummary("Delete tenant role"),
		forge.WithDescription("Deletes a tenant role. Users still pointing at it are denied tenant-gated actions."),
		forge.WithOperationID("deleteTenantRole"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/tenant-roles/:roleId/permissions", a.addTenantRolePermission,
		forge.WithSummary("Add permission"),
		forge.WithDescription("Adds a permission to the role. Adding a held permission is a no-op."),
		forge.WithOperationID("addTenantRolePermission"),
		forge.WithRequestSchema(PermissionRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated tenant role", tenantrole.Role{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/tenant-roles/:roleId/permissions/:permission", a.removeTenantRolePermission,
		forge.WithSummary("Remove permission"),
		forge.WithDescription("Removes a permission from the role. Removing an absent permission is a no-op."),
		forge.WithOperationID("removeTenantRolePermission"),
		forge.WithResponseSchema(http.StatusOK, "Updated tenant role", tenantrole.Role{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/tenants/:tenantId/tenant-roles", a.tenantRolesByTenant,
		forge.WithSummary("Active roles of a tenant"),
		forge.WithDescription("Returns the active roles of a tenant, newest first."),
		forge.WithOperationID("tenantRolesByTenant"),
		forge.WithResponseSchema(http.StatusOK, "Active tenant roles", []*tenantrole.Role{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) createTenantRole(ctx forge.Context, req *CreateTenantRoleRequest) (*tenantrole.Role, error) {
	reg, err := a.scoped(ctx, "write")
	if reg == nil {
		return nil, err
	}

	r, err := reg.CreateRole(ctx.Context(), &bastion.CreateRoleInput{
		TenantID:    req.TenantID,
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Description: req.Description,
		Permissions: req.Permissions,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return r, ctx.JSON(http.StatusCreated, r)
}

func (a *API) listTenantRoles(ctx forge.Context, req *ListTenantRolesRequest) (*ListResponse[*tenantrole.Role], error) {
	reg, err := a.scoped(ctx, "read")
	if reg == nil {
		return nil, err
	}

	filter := &tenantrole.ListFilter{
		TenantID: req.TenantID,
		Limit:    defaultLimit(req.Limit),
		Offset:   req.Offset,
	}
	if req.IsActive != "" {
		active, perr := strconv.ParseBool(req.IsActive)
		if perr != nil {
			return nil, forge.BadRequest("invalid is_active value")
		}
		filter.IsActive = &active
	}

	roles, err := reg.ListRoles(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}
	total, err := reg.CountRoles(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &ListResponse[*tenantrole.Role]{Items: roles, Total: total, Limit: filter.Limit, Offset: filter.Offset}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) getTenantRole(ctx forge.Context, _ *GetTenantRoleRequest) (*tenantrole.Role, error) {
	reg, err := a.scoped(ctx, "read")
	if reg == nil {
		return nil, err
	}
	roleID, err := roleIDParam(ctx)
	if err != nil {
		return nil, err
	}

	r, err := reg.GetRole(ctx.Context(), roleID)
	if err != nil {
		return nil, mapError(err)
	}

	return r, ctx.JSON(http.StatusOK, r)
}

func (a *API) updateTenantRole(ctx forge.Context, req *UpdateTenantRoleRequest) (*tenantrole.Role, error) {
	reg, err := a.scoped(ctx, "write")
	if reg == nil {
		return nil, err
	}
	roleID, err := roleIDParam(ctx)
	if err != nil {
		return nil, err
	}

	r, err := reg.UpdateRole(ctx.Context(), roleID, &tenantrole.Update{
		DisplayName: req.DisplayName,
		Description: req.Description,
		Permissions: req.Permissions,
		IsActive:    req.IsActive,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return r, ctx.JSON(http.StatusOK, r)
}

func (a *API) deleteTenantRole(ctx forge.Context, _ *GetTenantRoleRequest) (*struct{}, error) {
	reg, err := a.scoped(ctx, "delete")
	if reg == nil {
		return nil, err
	}
	roleID, err := roleIDParam(ctx)
	if err != nil {
		return nil, err
	}

	if err := reg.DeleteRole(ctx.Context(), roleID); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) addTenantRolePermission(ctx forge.Context, req *PermissionRequest) (*tenantrole.Role, error) {
	reg, err := a.scoped(ctx, "write")
	if reg == nil {
		return nil, err
	}
	roleID, err := roleIDParam(ctx)
	if err != nil {
		return nil, err
	}

	r, err := reg.AddPermission(ctx.Context(), roleID, req.Permission)
	if err != nil {
		return nil, mapError(err)
	}

	return r, ctx.JSON(http.StatusOK, r)
}

func (a *API) removeTenantRolePermission(ctx forge.Context, _ *GetTenantRoleRequest) (*tenantrole.Role, error) {
	reg, err := a.scoped(ctx, "write")
	if reg == nil {
		return nil, err
	}
	roleID, err := roleIDParam(ctx)
	if err != nil {
		return nil, err
	}

	r, err := reg.RemovePermission(ctx.Context(), roleID, ctx.Param("permission"))
	if err != nil {
		return nil, mapError(err)
	}

	return r, ctx.JSON(http.StatusOK, r)
}

func (a *API) tenantRolesByTenant(ctx forge.Context, _ *TenantRolesByTenantRequest) ([]*tenantrole.Role, error) {
	reg, err := a.scoped(ctx, "read")
	if reg == nil {
		return nil, err
	}

	roles, err := reg.GetRolesByTenant(ctx.Context(), ctx.Param("tenantId"))
	if err != nil {
		return nil, mapError(err)
	}

	return roles, ctx.JSON(http.StatusOK, roles)
}
