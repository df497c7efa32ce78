package audit

import (
	"context"
	"testing"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/assignment"
	"github.com/xraph/bastion/checklog"
	"github.com/xraph/bastion/policy"
	"github.com/xraph/bastion/principal"
	"github.com/xraph/bastion/store/memory"
)

func newEngine(t *testing.T, rec *Recorder, s *memory.Store) *bastion.Engine {
	t.Helper()
	eng, err := bastion.NewEngine(
		bastion.WithStore(s),
		bastion.WithPolicy(policy.Default()),
		bastion.WithPlugin(rec),
	)
	if err != nil {
		t.Fatal(err)
	}
	return eng
}

func TestRecorderWritesDecisions(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	eng := newEngine(t, NewRecorder(s), s)

	role, err := eng.Roles().CreateRole(ctx, &bastion.CreateRoleInput{TenantID: "v1", Name: "quoter", Permissions: []string{"view_rfqs"}})
	if err != nil {
		t.Fatal(err)
	}
	a := &bastion.Actor{UserID: "u7", Role: principal.RoleVendorAdmin, TenantID: "v1", Assignment: assignment.AssignedRole(role.ID)}

	if _, err := eng.Can(ctx, a, "rfqs", "read", "view_rfqs"); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Can(ctx, a, "rfqs", "read", "create_quotes"); err != nil {
		t.Fatal(err)
	}

	entries, err := s.ListCheckLogs(ctx, &checklog.QueryFilter{TenantID: "v1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	denied, _ := s.ListCheckLogs(ctx, &checklog.QueryFilter{Decision: string(bastion.DecisionDenyTenantPermission)})
	if len(denied) != 1 {
		t.Fatalf("expected 1 denial, got %d", len(denied))
	}
	e := denied[0]
	if e.UserID != "u7" || e.GlobalRole != "vendor-admin" || e.TenantRoleID != role.ID.String() {
		t.Fatalf("unexpected entry %+v", e)
	}
	if e.Reason != "missing tenant permission: create_quotes" {
		t.Fatalf("unexpected reason %q", e.Reason)
	}
}

func TestRecorderDenialsOnly(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	eng := newEngine(t, NewRecorder(s, DenialsOnly()), s)
	a := &bastion.Actor{UserID: "u1", Role: principal.RoleCustomerAdmin, TenantID: "c1"}

	_, _ = eng.Can(ctx, a, "rfqs", "read")
	_, _ = eng.Can(ctx, a, "tenants", "delete")

	n, _ := s.CountCheckLogs(ctx, nil)
	if n != 1 {
		t.Fatalf("expected only the denial to be recorded, got %d", n)
	}
}

func TestRecorderRejectsUnknownPayload(t *testing.T) {
	rec := NewRecorder(memory.New())
	if err := rec.OnAfterCheck(context.Background(), "not a request", nil); err == nil {
		t.Fatal("expected error for unexpected payload")
	}
}
