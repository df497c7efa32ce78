// Package extension provides a Forge extension entry point for bastion.
package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/api"
	"github.com/xraph/bastion/cache"
	rediscache "github.com/xraph/bastion/cache/redis"
	"github.com/xraph/bastion/plugin"
	"github.com/xraph/bastion/policy"
	"github.com/xraph/bastion/store"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "bastion"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Two-level multi-tenant authorization (global policy + tenant roles)"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts bastion as a Forge extension.
type Extension struct {
	config     Config
	eng        *bastion.Engine
	apiHandler *api.API
	logger     *slog.Logger
	policy     policy.Store
	cache      bastion.Cache
	redis      *rediscache.Cache
	engineOpts []bastion.Option
	apiOpts    []api.Option
	plugins    []plugin.Plugin
}

// New creates a bastion Forge extension with the given options.
func New(opts ...ExtOption) *Extension {
	e := &Extension{config: DefaultConfig()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the extension name.
func (e *Extension) Name() string { return ExtensionName }

// Description returns the extension description.
func (e *Extension) Description() string { return ExtensionDescription }

// Version returns the extension version.
func (e *Extension) Version() string { return ExtensionVersion }

// Dependencies returns the list of extension names this extension depends on.
func (e *Extension) Dependencies() []string { return []string{} }

// Engine returns the underlying bastion engine.
func (e *Extension) Engine() *bastion.Engine { return e.eng }

// API returns the API handler.
func (e *Extension) API() *api.API { return e.apiHandler }

// Register implements [forge.Extension]. It initializes the engine,
// registers it in the DI container, and optionally registers HTTP routes.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.init(fapp); err != nil {
		return err
	}

	if err := vessel.Provide(fapp.Container(), func() (*bastion.Engine, error) {
		return e.eng, nil
	}); err != nil {
		return fmt.Errorf("bastion: register engine in container: %w", err)
	}

	return nil
}

func (e *Extension) init(fapp forge.App) error {
	logger := e.logger
	if logger == nil {
		logger = slog.Default()
	}

	pol, err := e.loadPolicy()
	if err != nil {
		return err
	}

	c, err := e.buildCache(logger)
	if err != nil {
		return err
	}

	opts := make([]bastion.Option, 0, len(e.engineOpts)+len(e.plugins)+4)
	opts = append(opts,
		bastion.WithLogger(logger),
		bastion.WithPolicy(pol),
		bastion.WithConfig(bastion.Config{
			BlockDeleteWhenAssigned: e.config.BlockDeleteWhenAssigned,
			MaxPermissionsPerRole:   e.config.MaxPermissionsPerRole,
		}),
	)
	if c != nil {
		opts = append(opts, bastion.WithCache(c))
	}

	// Try to resolve store from DI container, fall back to option-provided store.
	if s, err := forge.Inject[store.Store](fapp.Container()); err == nil {
		opts = append(opts, bastion.WithStore(s))
	}

	// User-provided options may override the store.
	opts = append(opts, e.engineOpts...)

	for _, x := range e.plugins {
		opts = append(opts, bastion.WithPlugin(x))
	}

	eng, err := bastion.NewEngine(opts...)
	if err != nil {
		return fmt.Errorf("bastion: create engine: %w", err)
	}
	e.eng = eng

	router := fapp.Router()
	if e.config.BasePath != "" {
		router = router.Group(e.config.BasePath)
	}
	e.apiHandler = api.New(eng, router, e.apiOpts...)

	if !e.config.DisableRoutes {
		if err := e.apiHandler.RegisterRoutes(router); err != nil {
			return fmt.Errorf("bastion: register routes: %w", err)
		}
	}

	return nil
}

func (e *Extension) loadPolicy() (policy.Store, error) {
	if e.policy != nil {
		return e.policy, nil
	}
	if e.config.PolicyFile == "" {
		return policy.Default(), nil
	}
	t, err := policy.LoadFile(e.config.PolicyFile)
	if err != nil {
		return nil, fmt.Errorf("bastion: load policy: %w", err)
	}
	return t, nil
}

func (e *Extension) buildCache(logger *slog.Logger) (bastion.Cache, error) {
	switch {
	case e.cache != nil:
		return e.cache, nil
	case e.config.CacheTTL <= 0:
		return nil, nil //nolint:nilnil // caching disabled
	case e.config.RedisAddr != "":
		rc, err := rediscache.Dial(context.Background(), e.config.RedisAddr,
			rediscache.WithTTL(e.config.CacheTTL),
			rediscache.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("bastion: connect redis cache: %w", err)
		}
		e.redis = rc
		return rc, nil
	case e.config.LocalCache:
		return cache.NewMemory(cache.WithTTL(e.config.CacheTTL)), nil
	default:
		return nil, nil //nolint:nilnil // no shared cache configured
	}
}

// Start runs migrations if enabled and starts the engine.
func (e *Extension) Start(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("bastion: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.eng.Store().Migrate(ctx); err != nil {
			return fmt.Errorf("bastion: migration failed: %w", err)
		}
	}

	return e.eng.Start(ctx)
}

// Stop gracefully shuts down the engine and releases the Redis cache.
func (e *Extension) Stop(ctx context.Context) error {
	if e.eng == nil {
		return nil
	}
	err := e.eng.Stop(ctx)
	if e.redis != nil {
		err = errors.Join(err, e.redis.Close())
	}
	return err
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("bastion: extension not initialized")
	}
	if err := e.eng.Store().Ping(ctx); err != nil {
		return err
	}
	if e.redis != nil {
		return e.redis.Ping(ctx)
	}
	return nil
}

// Handler returns the HTTP handler for all API routes.
func (e *Extension) Handler() http.Handler {
	if e.apiHandler == nil {
		return http.NotFoundHandler()
	}
	return e.apiHandler.Handler()
}

// RegisterRoutes registers all bastion API routes into a Forge router.
func (e *Extension) RegisterRoutes(router forge.Router) error {
	if e.apiHandler != nil {
		return e.apiHandler.RegisterRoutes(router)
	}
	return nil
}
