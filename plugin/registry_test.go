package plugin

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/tenantrole"
)

// testPlugin implements Plugin + RoleCreated + AfterCheck + PermissionAdded.
type testPlugin struct {
	roleCreatedCalled bool
	afterCheckCalled  bool
	added             []string
}

func (t *testPlugin) Name() string { return "test-plugin" }

func (t *testPlugin) OnRoleCreated(_ context.Context, _ *tenantrole.Role) error {
	t.roleCreatedCalled = true
	return nil
}

func (t *testPlugin) OnAfterCheck(_ context.Context, _, _ any) error {
	t.afterCheckCalled = true
	return nil
}

func (t *testPlugin) OnPermissionAdded(_ context.Context, _ id.TenantRoleID, p string) error {
	t.added = append(t.added, p)
	return nil
}

// minimalPlugin only implements Plugin (no hooks).
type minimalPlugin struct{}

func (m *minimalPlugin) Name() string { return "minimal" }

// failingPlugin returns an error from its only hook.
type failingPlugin struct{}

func (f *failingPlugin) Name() string { return "failing" }

func (f *failingPlugin) OnShutdown(context.Context) error { return errors.New("boom") }

func TestRegistryDispatch(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(slog.Default())

	tp := &testPlugin{}
	reg.Register(tp)
	reg.Register(&minimalPlugin{})

	if len(reg.Plugins()) != 2 {
		t.Fatalf("expected 2 plugins, got %d", len(reg.Plugins()))
	}

	reg.EmitRoleCreated(ctx, &tenantrole.Role{ID: id.NewTenantRoleID(), Name: "viewer"})
	if !tp.roleCreatedCalled {
		t.Fatal("OnRoleCreated was not called")
	}

	reg.EmitAfterCheck(ctx, nil, nil)
	if !tp.afterCheckCalled {
		t.Fatal("OnAfterCheck was not called")
	}

	reg.EmitPermissionAdded(ctx, id.NewTenantRoleID(), "view_rfqs")
	if len(tp.added) != 1 || tp.added[0] != "view_rfqs" {
		t.Fatalf("unexpected PermissionAdded calls: %v", tp.added)
	}

	// Hooks with no listeners are no-ops.
	reg.EmitBeforeCheck(ctx, nil)
	reg.EmitRoleDeleted(ctx, id.NewTenantRoleID())
	reg.EmitPermissionRemoved(ctx, id.NewTenantRoleID(), "view_rfqs")
	reg.EmitShutdown(ctx)
}

func TestHookErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	reg := NewRegistry(slog.New(slog.NewTextHandler(&buf, nil)))
	reg.Register(&failingPlugin{})

	reg.EmitShutdown(context.Background())

	out := buf.String()
	if !strings.Contains(out, "plugin hook error") || !strings.Contains(out, "plugin=failing") {
		t.Fatalf("expected hook error to be logged, got %q", out)
	}
}
