package api

import (
	"errors"
	"fmt"

	"github.com/xraph/forge"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/middleware"
)

// mapError maps domain errors to Forge HTTP errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, bastion.ErrRoleNotFound):
		return forge.NotFound(err.Error())
	case errors.Is(err, bastion.ErrTenantMismatch),
		errors.Is(err, bastion.ErrAccessDenied),
		errors.Is(err, bastion.ErrInvalidActor):
		return forge.Forbidden(err.Error())
	case errors.Is(err, bastion.ErrRoleConflict),
		errors.Is(err, bastion.ErrRoleInUse),
		errors.Is(err, bastion.ErrInvalidRole),
		errors.Is(err, bastion.ErrInvalidPermission),
		errors.Is(err, bastion.ErrInvalidRequest):
		return forge.BadRequest(err.Error())
	}
	return err
}

// gate resolves the caller and runs the global check for the route. When it
// returns a nil actor the response has been decided: err is either a Forge
// error or the result of writing a 401/500 body.
func (a *API) gate(ctx forge.Context, resource, action string) (*bastion.Actor, error) {
	actor, err := a.resolve(ctx)
	if err != nil {
		return nil, middleware.WriteError(ctx, err)
	}
	result, err := a.eng.Authorize(ctx.Context(), &bastion.Request{
		Actor:    actor,
		Resource: resource,
		Action:   action,
	})
	if err != nil {
		return nil, middleware.WriteError(ctx, err)
	}
	if !result.Allowed {
		return nil, forge.Forbidden(result.Reason)
	}
	return actor, nil
}

// scoped gates the route and returns the caller's tenant-restricted view.
func (a *API) scoped(ctx forge.Context, action string) (*bastion.ScopedRegistry, error) {
	actor, err := a.gate(ctx, "roles", action)
	if actor == nil {
		return nil, err
	}
	reg, err := a.eng.Roles().For(actor)
	if err != nil {
		return nil, mapError(err)
	}
	return reg, nil
}

func roleIDParam(ctx forge.Context) (id.TenantRoleID, error) {
	roleID, err := id.ParseTenantRoleID(ctx.Param("roleId"))
	if err != nil {
		return id.Nil, forge.BadRequest(fmt.Sprintf("invalid role ID: %v", err))
	}
	return roleID, nil
}

func defaultLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}
