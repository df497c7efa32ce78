package principal

import (
	"errors"
	"testing"
)

func TestParseGlobalRole(t *testing.T) {
	for _, r := range GlobalRoles() {
		got, err := ParseGlobalRole(string(r))
		if err != nil || got != r {
			t.Fatalf("parse %q: %v", r, err)
		}
	}
	if _, err := ParseGlobalRole("tech"); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}

func TestRoleTraits(t *testing.T) {
	if !RolePlatformEngineer.Unrestricted() || RolePlatformAdmin.Unrestricted() {
		t.Fatal("only platform-engineer is unrestricted")
	}
	if !RolePlatformAdmin.PlatformStaff() || RoleVendorAdmin.PlatformStaff() {
		t.Fatal("platform staff mismatch")
	}
	if !RoleCustomerAdmin.RequiresTenant() || RolePlatformEngineer.RequiresTenant() {
		t.Fatal("tenant requirement mismatch")
	}
}

func TestActorValidate(t *testing.T) {
	tests := []struct {
		name    string
		actor   Actor
		wantErr error
	}{
		{"engineer without tenant", Actor{Role: RolePlatformEngineer}, nil},
		{"admin without tenant", Actor{Role: RolePlatformAdmin}, nil},
		{"customer with tenant", Actor{Role: RoleCustomerAdmin, TenantID: "acme"}, nil},
		{"customer without tenant", Actor{Role: RoleCustomerAdmin}, ErrTenantRequired},
		{"vendor without tenant", Actor{Role: RoleVendorAdmin}, ErrTenantRequired},
		{"unknown role", Actor{Role: "root"}, ErrUnknownRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.actor.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
