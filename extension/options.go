package extension

import (
	"log/slog"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/api"
	"github.com/xraph/bastion/assignment"
	"github.com/xraph/bastion/middleware"
	"github.com/xraph/bastion/plugin"
	"github.com/xraph/bastion/policy"
	"github.com/xraph/bastion/store"
)

// ExtOption configures the bastion Forge extension.
type ExtOption func(*Extension)

// WithStore sets the persistence backend.
func WithStore(s store.Store) ExtOption {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, bastion.WithStore(s))
	}
}

// WithPolicy sets the global policy, overriding Config.PolicyFile.
func WithPolicy(p policy.Store) ExtOption {
	return func(e *Extension) { e.policy = p }
}

// WithCache sets the snapshot cache, overriding Config.CacheTTL and
// Config.RedisAddr.
func WithCache(c bastion.Cache) ExtOption {
	return func(e *Extension) { e.cache = c }
}

// WithAssignmentCounter sets the counter used by the delete guard.
func WithAssignmentCounter(c assignment.Counter) ExtOption {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, bastion.WithAssignmentCounter(c))
	}
}

// WithActorResolver sets how HTTP handlers identify the caller.
func WithActorResolver(r middleware.ActorResolver) ExtOption {
	return func(e *Extension) {
		e.apiOpts = append(e.apiOpts, api.WithActorResolver(r))
	}
}

// WithConfig sets the extension configuration.
func WithConfig(cfg Config) ExtOption {
	return func(e *Extension) {
		e.config = cfg
	}
}

// WithEngineOptions adds engine-level options.
func WithEngineOptions(opts ...bastion.Option) ExtOption {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opts...)
	}
}

// WithPlugin registers a lifecycle hook plugin.
func WithPlugin(x plugin.Plugin) ExtOption {
	return func(e *Extension) {
		e.plugins = append(e.plugins, x)
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ExtOption {
	return func(e *Extension) {
		e.logger = l
	}
}

// WithDisableRoutes disables the registration of HTTP routes.
func WithDisableRoutes() ExtOption {
	return func(e *Extension) {
		e.config.DisableRoutes = true
	}
}

// WithDisableMigrate disables auto-migration on start.
func WithDisableMigrate() ExtOption {
	return func(e *Extension) {
		e.config.DisableMigrate = true
	}
}
