package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/xraph/bastion/principal"
)

type file struct {
	Policies []Entry `yaml:"policies"`
}

// Parse decodes a YAML policy document.
func Parse(data []byte) (*Table, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("policy: decode: %w", err)
	}
	if len(f.Policies) == 0 {
		return nil, fmt.Errorf("%w: no policies defined", ErrInvalidEntry)
	}
	return New(f.Policies...)
}

// LoadFile reads and parses the policy file at path.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("policy: read %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Marshal encodes t as a YAML policy document accepted by Parse.
func Marshal(t *Table) ([]byte, error) {
	return yaml.Marshal(file{Policies: t.Entries()})
}

// Default returns the built-in platform policy.
func Default() *Table {
	var entries []Entry
	grant := func(role principal.GlobalRole, resource string, actions ...string) {
		for _, a := range actions {
			entries = append(entries, Entry{Role: role, Resource: resource, Action: a})
		}
	}

	grant(principal.RolePlatformEngineer, Wildcard, Wildcard)

	grant(principal.RolePlatformAdmin, "users", "read", "write", "delete")
	grant(principal.RolePlatformAdmin, "tenants", "read", "write", "delete")
	grant(principal.RolePlatformAdmin, "roles", "read", "write", "delete")
	grant(principal.RolePlatformAdmin, "rfqs", "read")
	grant(principal.RolePlatformAdmin, "quotes", "read")
	grant(principal.RolePlatformAdmin, "audit", "read")

	grant(principal.RoleCustomerAdmin, "users", "read", "write")
	grant(principal.RoleCustomerAdmin, "roles", "read", "write", "delete")
	grant(principal.RoleCustomerAdmin, "tenants", "read")
	grant(principal.RoleCustomerAdmin, "rfqs", "read", "write")
	grant(principal.RoleCustomerAdmin, "quotes", "read")

	grant(principal.RoleVendorAdmin, "users", "read", "write")
	grant(principal.RoleVendorAdmin, "roles", "read", "write", "delete")
	grant(principal.RoleVendorAdmin, "tenants", "read")
	grant(principal.RoleVendorAdmin, "rfqs", "read")
	grant(principal.RoleVendorAdmin, "quotes", "read", "write")

	return MustNew(entries...)
}
