package bastion

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/bastion/assignment"
	"github.com/xraph/bastion/principal"
	"github.com/xraph/bastion/tenantrole"
)

func TestScopedRegistryIsolation(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	own := mustRole(t, eng, "c1", "buyer", "view_rfqs")
	foreign := mustRole(t, eng, "c2", "buyer", "view_rfqs")

	scoped, err := eng.Roles().For(actor(principal.RoleCustomerAdmin, "c1", assignment.NoTenantRole()))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := scoped.GetRole(ctx, own.ID); err != nil {
		t.Fatalf("own role should be visible: %v", err)
	}
	if _, err := scoped.GetRole(ctx, foreign.ID); !errors.Is(err, ErrTenantMismatch) {
		t.Fatalf("expected ErrTenantMismatch, got %v", err)
	}
	if _, err := scoped.AddPermission(ctx, foreign.ID, "edit_rfqs"); !errors.Is(err, ErrTenantMismatch) {
		t.Fatalf("expected ErrTenantMismatch on add, got %v", err)
	}
	if _, err := scoped.RemovePermission(ctx, foreign.ID, "view_rfqs"); !errors.Is(err, ErrTenantMismatch) {
		t.Fatalf("expected ErrTenantMismatch on remove, got %v", err)
	}
	if _, err := scoped.UpdateRole(ctx, foreign.ID, &tenantrole.Update{}); !errors.Is(err, ErrTenantMismatch) {
		t.Fatalf("expected ErrTenantMismatch on update, got %v", err)
	}
	if err := scoped.DeleteRole(ctx, foreign.ID); !errors.Is(err, ErrTenantMismatch) {
		t.Fatalf("expected ErrTenantMismatch on delete, got %v", err)
	}
	if _, err := scoped.GetRolesByTenant(ctx, "c2"); !errors.Is(err, ErrTenantMismatch) {
		t.Fatalf("expected ErrTenantMismatch listing another tenant, got %v", err)
	}

	// The foreign role was left untouched.
	got, _ := eng.Roles().GetRole(ctx, foreign.ID)
	if len(got.Permissions) != 1 {
		t.Fatal("foreign role was modified")
	}

	list, err := scoped.ListRoles(ctx, &tenantrole.ListFilter{TenantID: "c2"})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].TenantID != "c1" {
		t.Fatal("list must be forced to the actor's tenant")
	}
}

func TestScopedCreateForcedIntoOwnTenant(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	a := actor(principal.RoleVendorAdmin, "v1", assignment.NoTenantRole())
	a.UserID = "vendor-user"

	scoped, err := eng.Roles().For(a)
	if err != nil {
		t.Fatal(err)
	}
	role, err := scoped.CreateRole(ctx, &CreateRoleInput{TenantID: "someone-else", Name: "quoter"})
	if err != nil {
		t.Fatal(err)
	}
	if role.TenantID != "v1" || role.CreatedBy != "vendor-user" {
		t.Fatalf("expected role in v1 created by vendor-user, got %+v", role)
	}
}

func TestScopedPlatformEngineerUnrestricted(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	foreign := mustRole(t, eng, "c2", "buyer")

	scoped, err := eng.Roles().For(actor(principal.RolePlatformEngineer, "", assignment.NoTenantRole()))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := scoped.AddPermission(ctx, foreign.ID, "view_rfqs"); err != nil {
		t.Fatalf("platform engineer should reach any tenant: %v", err)
	}
	role, err := scoped.CreateRole(ctx, &CreateRoleInput{TenantID: "c3", Name: "auditor"})
	if err != nil || role.TenantID != "c3" {
		t.Fatalf("expected role in c3, got %+v, %v", role, err)
	}
}

func TestScopedRequiresTenant(t *testing.T) {
	eng, _ := newTestEngine(t)
	if _, err := eng.Roles().For(nil); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, err := eng.Roles().For(actor(principal.RolePlatformAdmin, "", assignment.NoTenantRole())); !errors.Is(err, ErrInvalidActor) {
		t.Fatalf("expected ErrInvalidActor for tenantless platform admin, got %v", err)
	}
}
