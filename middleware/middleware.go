// Package middleware provides HTTP authorization middleware for bastion.
package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/bastion"
)

// ActorResolver extracts the authenticated actor from a request. It returns
// bastion.ErrUnauthenticated when the request carries no session.
type ActorResolver func(ctx forge.Context) (*bastion.Actor, error)

// ContextActor resolves the actor placed on the request context by session
// middleware through bastion.WithActor.
func ContextActor(ctx forge.Context) (*bastion.Actor, error) {
	if a, ok := bastion.ActorFromContext(ctx.Context()); ok {
		return a, nil
	}
	return nil, bastion.ErrUnauthenticated
}

// Require gates a route on the two-level check: the actor's global role must
// be allowed action on resource, and the actor's tenant role must hold every
// listed permission. Actors are resolved with ContextActor.
func Require(eng *bastion.Engine, resource, action string, permissions ...string) forge.Middleware {
	return RequireWith(eng, ContextActor, resource, action, permissions...)
}

// RequireWith is Require with a custom actor resolver.
func RequireWith(eng *bastion.Engine, resolve ActorResolver, resource, action string, permissions ...string) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			actor, err := resolve(ctx)
			if err != nil {
				return WriteError(ctx, err)
			}
			result, err := eng.Authorize(ctx.Context(), &bastion.Request{
				Actor:       actor,
				Resource:    resource,
				Action:      action,
				Permissions: permissions,
			})
			if err != nil {
				return WriteError(ctx, err)
			}
			if !result.Allowed {
				return writeJSON(ctx, http.StatusForbidden, result.Reason)
			}
			return next(ctx)
		}
	}
}

// RequireTenantAccess rejects actors that are bound to no tenant, except
// unrestricted platform staff.
func RequireTenantAccess(resolve ActorResolver) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			actor, err := resolve(ctx)
			if err != nil {
				return WriteError(ctx, err)
			}
			if !actor.Role.Unrestricted() && actor.TenantID == "" {
				return writeJSON(ctx, http.StatusForbidden, "tenant access required")
			}
			return next(ctx)
		}
	}
}

// WriteError renders err as a JSON error body with the matching status:
// 401 for a missing actor, 403 for denials and invalid actors, 500 otherwise.
func WriteError(ctx forge.Context, err error) error {
	switch {
	case errors.Is(err, bastion.ErrUnauthenticated):
		return writeJSON(ctx, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, bastion.ErrAccessDenied),
		errors.Is(err, bastion.ErrInvalidActor),
		errors.Is(err, bastion.ErrTenantMismatch):
		return writeJSON(ctx, http.StatusForbidden, err.Error())
	}
	return writeJSON(ctx, http.StatusInternalServerError, "authorization unavailable")
}

func writeJSON(ctx forge.Context, status int, msg string) error {
	ctx.SetHeader("Content-Type", "application/json")
	ctx.Response().WriteHeader(status)
	return json.NewEncoder(ctx.Response()).Encode(map[string]string{"error": msg})
}
