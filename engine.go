package bastion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/xraph/bastion/assignment"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/plugin"
	"github.com/xraph/bastion/policy"
	"github.com/xraph/bastion/store"
	"github.com/xraph/bastion/tenantrole"
)

// Engine is the authorization pipeline. It runs the global policy check,
// then the tenant permission check, manages the tenant role store, and fires
// plugin hooks.
type Engine struct {
	policy  policy.Store
	store   store.Store
	cache   Cache
	counter assignment.Counter
	plugins *plugin.Registry
	logger  *slog.Logger
	config  Config
	now     func() time.Time

	loads singleflight.Group
}

// NewEngine creates a new engine with the given options.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger: slog.Default(),
		config: DefaultConfig(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		return nil, ErrStoreRequired
	}
	if e.policy == nil {
		return nil, ErrPolicyRequired
	}
	return e, nil
}

// Store returns the underlying composite store.
func (e *Engine) Store() store.Store { return e.store }

// Policy returns the global policy source.
func (e *Engine) Policy() policy.Store { return e.policy }

// Plugins returns the plugin registry (may be nil).
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Logger returns the engine's logger.
func (e *Engine) Logger() *slog.Logger { return e.logger }

// Roles returns the tenant role registry backed by this engine.
func (e *Engine) Roles() *Registry { return &Registry{e: e} }

// Start performs any startup initialization.
func (e *Engine) Start(_ context.Context) error { return nil }

// Stop notifies plugins of shutdown.
func (e *Engine) Stop(ctx context.Context) error {
	if e.plugins != nil {
		e.plugins.EmitShutdown(ctx)
	}
	return nil
}

// Authorize runs the two-level pipeline for req. A denial is a Result, not
// an error; errors are reserved for a missing or malformed actor.
func (e *Engine) Authorize(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()
	if req == nil || req.Actor == nil {
		return nil, ErrUnauthenticated
	}
	if err := req.Actor.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidActor, err)
	}
	if req.Resource == "" || req.Action == "" {
		return nil, fmt.Errorf("%w: resource and action are required", ErrInvalidRequest)
	}

	if e.plugins != nil {
		e.plugins.EmitBeforeCheck(ctx, req)
	}

	result := e.evaluate(ctx, req)
	result.EvalTimeNs = time.Since(start).Nanoseconds()

	if e.plugins != nil {
		e.plugins.EmitAfterCheck(ctx, req, result)
	}
	return result, nil
}

// Enforce returns an error wrapping ErrAccessDenied if req is denied.
func (e *Engine) Enforce(ctx context.Context, req *Request) error {
	result, err := e.Authorize(ctx, req)
	if err != nil {
		return err
	}
	if !result.Allowed {
		return fmt.Errorf("%w: %s: %s", ErrAccessDenied, result.Decision, result.Reason)
	}
	return nil
}

// Can is a shorthand for Authorize that reports only the verdict.
func (e *Engine) Can(ctx context.Context, actor *Actor, resource, action string, permissions ...string) (bool, error) {
	result, err := e.Authorize(ctx, &Request{
		Actor:       actor,
		Resource:    resource,
		Action:      action,
		Permissions: permissions,
	})
	if err != nil {
		return false, err
	}
	return result.Allowed, nil
}

// IsGloballyAllowed reports whether role may perform action on resource
// under the global policy. Lookup failures deny.
func (e *Engine) IsGloballyAllowed(ctx context.Context, role GlobalRole, resource, action string) bool {
	ok, err := e.policy.Allowed(ctx, role, resource, action)
	if err != nil {
		e.logger.Error("global policy lookup failed, denying",
			slog.String("role", string(role)),
			slog.String("resource", resource),
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
		return false
	}
	return ok
}

// HasPermission reports whether the tenant role grants permission. The
// permission is normalized the way the registry stores it; malformed strings,
// missing or inactive roles grant nothing, and store failures are logged and
// deny.
func (e *Engine) HasPermission(ctx context.Context, roleID id.TenantRoleID, permission string) bool {
	p, err := tenantrole.NormalizePermission(permission)
	if err != nil {
		return false
	}
	snap, err := e.snapshot(ctx, roleID)
	if err != nil {
		if !errors.Is(err, tenantrole.ErrNotFound) {
			e.logger.Error("tenant role lookup failed, denying",
				slog.String("tenant_role_id", roleID.String()),
				slog.String("error", err.Error()),
			)
		}
		return false
	}
	return snap.Has(p)
}

func (e *Engine) evaluate(ctx context.Context, req *Request) *Result {
	actor := req.Actor

	if !e.IsGloballyAllowed(ctx, actor.Role, req.Resource, req.Action) {
		e.logger.Debug("global policy denied",
			slog.String("role", string(actor.Role)),
			slog.String("resource", req.Resource),
			slog.String("action", req.Action),
		)
		return &Result{
			Decision: DecisionDenyGlobal,
			Stage:    StageGlobal,
			Reason:   fmt.Sprintf("insufficient global role: %s may not %s %s", actor.Role, req.Action, req.Resource),
		}
	}

	if actor.Role.Unrestricted() {
		return allow(fmt.Sprintf("%s is not restricted by tenant roles", actor.Role))
	}
	roleID, assigned := actor.Assignment.RoleID()
	if !assigned {
		return allow("no tenant role assigned: full tenant access")
	}
	if len(req.Permissions) == 0 {
		return allow("no tenant permissions required")
	}

	// One snapshot per decision so every permission is checked against the
	// same version of the role.
	snap, err := e.snapshot(ctx, roleID)
	switch {
	case errors.Is(err, tenantrole.ErrNotFound):
		e.logger.Info("assigned tenant role does not exist",
			slog.String("tenant_role_id", roleID.String()),
			slog.String("user_id", actor.UserID),
		)
		snap = nil
	case err != nil:
		e.logger.Error("tenant role lookup failed, denying",
			slog.String("tenant_role_id", roleID.String()),
			slog.String("error", err.Error()),
		)
		return &Result{
			Decision: DecisionDenyTenantRoleUnavailable,
			Stage:    StageTenant,
			Reason:   "tenant role unavailable: " + roleID.String(),
		}
	}

	for _, p := range req.Permissions {
		if n, err := tenantrole.NormalizePermission(p); err == nil && snap.Has(n) {
			continue
		}
		e.logger.Info("tenant permission missing",
			slog.String("tenant_role_id", roleID.String()),
			slog.String("permission", p),
			slog.String("user_id", actor.UserID),
		)
		return &Result{
			Decision:          DecisionDenyTenantPermission,
			Stage:             StageTenant,
			Reason:            "missing tenant permission: " + p,
			MissingPermission: p,
		}
	}
	return allow("tenant role grants all required permissions")
}

func allow(reason string) *Result {
	return &Result{Allowed: true, Decision: DecisionAllow, Stage: StageTenant, Reason: reason}
}

// snapshot loads the role's permission snapshot through the cache.
// Concurrent misses for the same role and generation share one store read.
func (e *Engine) snapshot(ctx context.Context, roleID id.TenantRoleID) (*tenantrole.Snapshot, error) {
	var gen uint64
	if e.cache != nil {
		snap, g, ok := e.cache.Get(ctx, roleID)
		if ok {
			return snap, nil
		}
		gen = g
	}

	key := roleID.String() + ":" + strconv.FormatUint(gen, 10)
	// The shared load must outlive any single caller's cancellation.
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := e.loads.Do(key, func() (any, error) {
		r, err := e.store.GetRole(loadCtx, roleID)
		if err != nil {
			return nil, err
		}
		snap := tenantrole.NewSnapshot(r)
		if e.cache != nil {
			e.cache.Set(loadCtx, roleID, gen, snap)
		}
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*tenantrole.Snapshot), nil
}

// invalidate drops any cached snapshot of roleID.
func (e *Engine) invalidate(ctx context.Context, roleID id.TenantRoleID) error {
	if e.cache == nil {
		return nil
	}
	if err := e.cache.Invalidate(ctx, roleID); err != nil {
		e.logger.Error("tenant role cache invalidation failed",
			slog.String("tenant_role_id", roleID.String()),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: %s: %w", ErrCacheInvalidation, roleID, err)
	}
	return nil
}
