package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/xraph/bastion/checklog"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/tenantrole"
)

func newRole(tenantID, name string, created time.Time, perms ...string) *tenantrole.Role {
	return &tenantrole.Role{
		ID:          id.NewTenantRoleID(),
		TenantID:    tenantID,
		Name:        name,
		DisplayName: name,
		Permissions: perms,
		IsActive:    true,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func TestRoleCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()
	r := newRole("t1", "viewer", time.Now(), "view_rfqs")

	// Create
	if err := s.CreateRole(ctx, r); err != nil {
		t.Fatal(err)
	}

	// Get
	got, err := s.GetRole(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "viewer" || !got.HasPermission("view_rfqs") {
		t.Fatalf("unexpected role %+v", got)
	}

	// GetByName
	got, err = s.GetRoleByName(ctx, "t1", "viewer")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != r.ID {
		t.Fatal("name lookup mismatch")
	}

	// Update
	display := "Viewer"
	got, err = s.UpdateRole(ctx, r.ID, &tenantrole.Update{DisplayName: &display}, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if got.DisplayName != "Viewer" || !got.HasPermission("view_rfqs") {
		t.Fatal("partial update clobbered fields")
	}

	// Count
	n, _ := s.CountRoles(ctx, &tenantrole.ListFilter{TenantID: "t1"})
	if n != 1 {
		t.Fatalf("expected count 1, got %d", n)
	}

	// Delete
	if err := s.DeleteRole(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetRole(ctx, r.ID); !errors.Is(err, tenantrole.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteRole(ctx, r.ID); !errors.Is(err, tenantrole.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestCreateRoleConflict(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.CreateRole(ctx, newRole("t1", "viewer", time.Now())); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateRole(ctx, newRole("t1", "viewer", time.Now())); !errors.Is(err, tenantrole.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := s.CreateRole(ctx, newRole("t2", "viewer", time.Now())); err != nil {
		t.Fatalf("same name in another tenant must succeed: %v", err)
	}
}

func TestListRolesNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Now()
	for i := 0; i < 3; i++ {
		r := newRole("t1", fmt.Sprintf("role-%d", i), base.Add(time.Duration(i)*time.Second))
		if err := s.CreateRole(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	inactive := newRole("t1", "retired", base.Add(time.Hour))
	inactive.IsActive = false
	_ = s.CreateRole(ctx, inactive)
	_ = s.CreateRole(ctx, newRole("t2", "other", base))

	list, err := s.ListRoles(ctx, &tenantrole.ListFilter{TenantID: "t1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 4 || list[0].Name != "retired" || list[3].Name != "role-0" {
		t.Fatalf("unexpected order: %v", names(list))
	}

	active := true
	list, _ = s.ListRoles(ctx, &tenantrole.ListFilter{TenantID: "t1", IsActive: &active})
	if len(list) != 3 || list[0].Name != "role-2" {
		t.Fatalf("unexpected active list: %v", names(list))
	}

	list, _ = s.ListRoles(ctx, &tenantrole.ListFilter{TenantID: "t1", Limit: 2, Offset: 1})
	if len(list) != 2 || list[0].Name != "role-2" {
		t.Fatalf("unexpected page: %v", names(list))
	}
}

func names(rs []*tenantrole.Role) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Name
	}
	return out
}

func TestPermissionIdempotence(t *testing.T) {
	ctx := context.Background()
	s := New()
	r := newRole("t1", "viewer", time.Now(), "view_rfqs")
	_ = s.CreateRole(ctx, r)

	got, err := s.AddPermission(ctx, r.ID, "view_rfqs", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Permissions) != 1 {
		t.Fatalf("adding a present permission must be a no-op, got %v", got.Permissions)
	}

	got, err = s.RemovePermission(ctx, r.ID, "create_quotes", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Permissions) != 1 {
		t.Fatalf("removing an absent permission must be a no-op, got %v", got.Permissions)
	}

	if _, err := s.AddPermission(ctx, id.NewTenantRoleID(), "x", time.Now()); !errors.Is(err, tenantrole.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentPermissionMutations(t *testing.T) {
	ctx := context.Background()
	s := New()
	r := newRole("t1", "buyer", time.Now())
	_ = s.CreateRole(ctx, r)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.AddPermission(ctx, r.ID, fmt.Sprintf("perm_%d", i), time.Now()); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	got, _ := s.GetRole(ctx, r.ID)
	if len(got.Permissions) != n {
		t.Fatalf("expected %d permissions after concurrent adds, got %d", n, len(got.Permissions))
	}

	for i := 0; i < n; i += 2 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = s.RemovePermission(ctx, r.ID, fmt.Sprintf("perm_%d", i), time.Now())
		}(i)
	}
	wg.Wait()

	got, _ = s.GetRole(ctx, r.ID)
	if len(got.Permissions) != n/2 {
		t.Fatalf("expected %d permissions after concurrent removes, got %d", n/2, len(got.Permissions))
	}
	if got.HasPermission("perm_0") || !got.HasPermission("perm_1") {
		t.Fatal("wrong permissions removed")
	}
}

func TestReturnedRoleIsCopy(t *testing.T) {
	ctx := context.Background()
	s := New()
	r := newRole("t1", "viewer", time.Now(), "view_rfqs")
	_ = s.CreateRole(ctx, r)
	r.Permissions[0] = "tampered"

	got, _ := s.GetRole(ctx, r.ID)
	got.Permissions[0] = "tampered"
	again, _ := s.GetRole(ctx, r.ID)
	if again.Permissions[0] != "view_rfqs" {
		t.Fatal("store leaked internal state")
	}
}

func TestDeleteRolesByTenant(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.CreateRole(ctx, newRole("t1", "a", time.Now()))
	_ = s.CreateRole(ctx, newRole("t1", "b", time.Now()))
	_ = s.CreateRole(ctx, newRole("t2", "a", time.Now()))

	if err := s.DeleteRolesByTenant(ctx, "t1"); err != nil {
		t.Fatal(err)
	}
	n, _ := s.CountRoles(ctx, nil)
	if n != 1 {
		t.Fatalf("expected 1 remaining role, got %d", n)
	}
}

func TestCheckLogs(t *testing.T) {
	ctx := context.Background()
	s := New()
	old := time.Now().Add(-48 * time.Hour)

	entries := []*checklog.Entry{
		{ID: id.NewCheckLogID(), TenantID: "t1", Decision: "allow", CreatedAt: old},
		{ID: id.NewCheckLogID(), TenantID: "t1", Decision: "deny_global", CreatedAt: time.Now()},
		{ID: id.NewCheckLogID(), TenantID: "t2", Decision: "allow", CreatedAt: time.Now()},
	}
	for _, e := range entries {
		if err := s.CreateCheckLog(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.GetCheckLog(ctx, entries[1].ID)
	if err != nil || got.Decision != "deny_global" {
		t.Fatalf("get: %+v, %v", got, err)
	}
	if _, err := s.GetCheckLog(ctx, id.NewCheckLogID()); !errors.Is(err, checklog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	list, _ := s.ListCheckLogs(ctx, &checklog.QueryFilter{TenantID: "t1"})
	if len(list) != 2 || list[0].ID != entries[1].ID {
		t.Fatal("expected newest-first tenant list")
	}
	n, _ := s.CountCheckLogs(ctx, &checklog.QueryFilter{Decision: "allow"})
	if n != 2 {
		t.Fatalf("expected 2 allows, got %d", n)
	}

	purged, _ := s.PurgeCheckLogs(ctx, time.Now().Add(-24*time.Hour))
	if purged != 1 {
		t.Fatalf("expected 1 purged, got %d", purged)
	}
	_ = s.DeleteCheckLogsByTenant(ctx, "t2")
	n, _ = s.CountCheckLogs(ctx, nil)
	if n != 1 {
		t.Fatalf("expected 1 remaining entry, got %d", n)
	}
}
