package bastion

// Config holds configuration for the bastion engine.
type Config struct {
	// BlockDeleteWhenAssigned makes DeleteRole fail with ErrRoleInUse while
	// any user still references the role. Requires WithAssignmentCounter.
	BlockDeleteWhenAssigned bool `json:"block_delete_when_assigned,omitempty" yaml:"block_delete_when_assigned,omitempty"`

	// MaxPermissionsPerRole caps a role's permission set. Zero means no cap.
	MaxPermissionsPerRole int `json:"max_permissions_per_role,omitempty" yaml:"max_permissions_per_role,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{MaxPermissionsPerRole: 256}
}
