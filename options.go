package bastion

import (
	"log/slog"
	"time"

	"github.com/xraph/bastion/assignment"
	"github.com/xraph/bastion/plugin"
	"github.com/xraph/bastion/policy"
	"github.com/xraph/bastion/store"
)

// Option is a functional option for the Engine.
type Option func(*Engine)

// WithStore sets the composite store.
func WithStore(s store.Store) Option { return func(e *Engine) { e.store = s } }

// WithPolicy sets the global policy source.
func WithPolicy(p policy.Store) Option { return func(e *Engine) { e.policy = p } }

// WithCache sets the tenant role snapshot cache.
func WithCache(c Cache) Option { return func(e *Engine) { e.cache = c } }

// WithAssignmentCounter sets the source used to guard deletion of roles
// still assigned to users.
func WithAssignmentCounter(c assignment.Counter) Option {
	return func(e *Engine) { e.counter = c }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithConfig sets the engine configuration.
func WithConfig(c Config) Option { return func(e *Engine) { e.config = c } }

// WithClock overrides the time source used to stamp roles.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithPlugin registers a plugin with the engine.
func WithPlugin(x plugin.Plugin) Option {
	return func(e *Engine) {
		if e.plugins == nil {
			e.plugins = plugin.NewRegistry(e.logger)
		}
		e.plugins.Register(x)
	}
}
