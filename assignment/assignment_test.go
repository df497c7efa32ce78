package assignment

import (
	"encoding/json"
	"testing"

	"github.com/xraph/bastion/id"
)

func TestZeroValueIsNoTenantRole(t *testing.T) {
	var a Assignment
	if a.Kind() != KindNone {
		t.Fatalf("expected none, got %s", a.Kind())
	}
	if _, ok := a.RoleID(); ok {
		t.Fatal("zero value must not carry a role")
	}
}

func TestAssignedRole(t *testing.T) {
	rid := id.NewTenantRoleID()
	a := AssignedRole(rid)
	if a.Kind() != KindRole {
		t.Fatalf("expected role, got %s", a.Kind())
	}
	got, ok := a.RoleID()
	if !ok || got != rid {
		t.Fatalf("expected %s, got %s", rid, got)
	}
	if AssignedRole(id.Nil).Kind() != KindNone {
		t.Fatal("nil role id must collapse to NoTenantRole")
	}
}

func TestFromString(t *testing.T) {
	a, err := FromString("")
	if err != nil || a.Kind() != KindNone {
		t.Fatalf("empty string: %v %s", err, a.Kind())
	}
	rid := id.NewTenantRoleID()
	a, err = FromString(rid.String())
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := a.RoleID(); got != rid {
		t.Fatal("role id mismatch")
	}
	if _, err := FromString("garbage"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestJSON(t *testing.T) {
	raw, err := json.Marshal(NoTenantRole())
	if err != nil || string(raw) != "null" {
		t.Fatalf("expected null, got %s (%v)", raw, err)
	}

	rid := id.NewTenantRoleID()
	raw, err = json.Marshal(AssignedRole(rid))
	if err != nil {
		t.Fatal(err)
	}
	var back Assignment
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatal(err)
	}
	if got, ok := back.RoleID(); !ok || got != rid {
		t.Fatal("round trip lost the role id")
	}
	if err := json.Unmarshal([]byte("null"), &back); err != nil || back.Kind() != KindNone {
		t.Fatal("null must decode to NoTenantRole")
	}
}
