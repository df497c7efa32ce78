// Package api provides HTTP handlers for the bastion authorization core.
package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/middleware"
)

// API wires all bastion HTTP handlers together.
type API struct {
	eng     *bastion.Engine
	router  forge.Router
	resolve middleware.ActorResolver
}

// Option configures the API.
type Option func(*API)

// WithActorResolver sets how handlers identify the caller. Defaults to
// middleware.ContextActor.
func WithActorResolver(r middleware.ActorResolver) Option {
	return func(a *API) { a.resolve = r }
}

// New creates an API from an Engine and a Forge router.
func New(eng *bastion.Engine, router forge.Router, opts ...Option) *API {
	a := &API{eng: eng, router: router, resolve: middleware.ContextActor}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handler returns the fully assembled http.Handler with all routes.
func (a *API) Handler() http.Handler {
	if a.router == nil {
		a.router = forge.NewRouter()
	}
	if err := a.RegisterRoutes(a.router); err != nil {
		panic("bastion: register routes: " + err.Error())
	}
	return a.router.Handler()
}

// RegisterRoutes registers all API routes into the given Forge router.
func (a *API) RegisterRoutes(router forge.Router) error {
	registerers := []func(forge.Router) error{
		a.registerCheckRoutes,
		a.registerTenantRoleRoutes,
		a.registerCheckLogRoutes,
	}
	for _, fn := range registerers {
		if err := fn(router); err != nil {
			return err
		}
	}
	return nil
}
