package extension

import "time"

// Config holds the bastion extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.bastion" or "bastion" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for bastion routes. Empty mounts them at
	// the router root.
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// PolicyFile is a YAML global policy table. Empty uses the built-in
	// default table.
	PolicyFile string `json:"policy_file" mapstructure:"policy_file" yaml:"policy_file"`

	// CacheTTL bounds how long a tenant role snapshot is served from cache.
	// Zero disables caching unless a cache was supplied with WithCache.
	CacheTTL time.Duration `json:"cache_ttl" mapstructure:"cache_ttl" yaml:"cache_ttl"`

	// RedisAddr enables the shared Redis snapshot cache. Without it, and
	// without LocalCache, decisions read the store directly.
	RedisAddr string `json:"redis_addr" mapstructure:"redis_addr" yaml:"redis_addr"`

	// LocalCache enables the in-process snapshot cache when RedisAddr is
	// empty. Mutations only invalidate the process that served them, so
	// enable it only for single-replica deployments.
	LocalCache bool `json:"local_cache" mapstructure:"local_cache" yaml:"local_cache"`

	// BlockDeleteWhenAssigned refuses to delete roles still assigned to
	// users. Requires an assignment counter.
	BlockDeleteWhenAssigned bool `json:"block_delete_when_assigned" mapstructure:"block_delete_when_assigned" yaml:"block_delete_when_assigned"`

	// MaxPermissionsPerRole caps a role's permission set.
	MaxPermissionsPerRole int `json:"max_permissions_per_role" mapstructure:"max_permissions_per_role" yaml:"max_permissions_per_role"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CacheTTL:              5 * time.Minute,
		MaxPermissionsPerRole: 256,
	}
}
