package tenantrole

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xraph/bastion/id"
)

func TestNormalizePermissions(t *testing.T) {
	got, err := NormalizePermissions([]string{" View_RFQs ", "create_quotes", "view_rfqs"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"view_rfqs", "create_quotes"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}

	empty, err := NormalizePermissions(nil)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v, %v", empty, err)
	}
}

func TestValidatePermission(t *testing.T) {
	valid := []string{"view_rfqs", "rfqs:read", "quotes.create", "a-b"}
	for _, p := range valid {
		if err := ValidatePermission(p); err != nil {
			t.Errorf("%q: unexpected error %v", p, err)
		}
	}
	invalid := []string{"", "has space", "UPPER", "semi;colon", strings.Repeat("x", MaxPermissionLen+1)}
	for _, p := range invalid {
		if err := ValidatePermission(p); !errors.Is(err, ErrInvalidPermission) {
			t.Errorf("%q: expected ErrInvalidPermission, got %v", p, err)
		}
	}
}

func TestValidateName(t *testing.T) {
	if err := ValidateName("procurement-viewer"); err != nil {
		t.Fatal(err)
	}
	for _, n := range []string{"", "Procurement", "with space", "a.b", strings.Repeat("n", MaxNameLen+1)} {
		if err := ValidateName(n); !errors.Is(err, ErrInvalidName) {
			t.Errorf("%q: expected ErrInvalidName, got %v", n, err)
		}
	}
}

func TestSnapshotIsolatedFromRole(t *testing.T) {
	r := &Role{ID: id.NewTenantRoleID(), TenantID: "t1", IsActive: true, Permissions: []string{"view_rfqs"}}
	snap := NewSnapshot(r)
	r.Permissions[0] = "create_quotes"
	r.IsActive = false

	if !snap.Has("view_rfqs") {
		t.Fatal("snapshot must not observe later role changes")
	}
	if snap.Has("create_quotes") {
		t.Fatal("snapshot gained a permission it never had")
	}
}

func TestSnapshotInactive(t *testing.T) {
	snap := NewSnapshot(&Role{ID: id.NewTenantRoleID(), Permissions: []string{"view_rfqs"}})
	if snap.Has("view_rfqs") {
		t.Fatal("inactive role must grant nothing")
	}
	var nilSnap *Snapshot
	if nilSnap.Has("view_rfqs") {
		t.Fatal("nil snapshot must grant nothing")
	}
}

func TestUpdateApply(t *testing.T) {
	r := &Role{DisplayName: "Old", Permissions: []string{"a"}, IsActive: true}
	name := "New"
	inactive := false
	now := time.Now()

	(&Update{DisplayName: &name, IsActive: &inactive}).Apply(r, now)
	if r.DisplayName != "New" || r.IsActive || !r.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected role after update: %+v", r)
	}
	if len(r.Permissions) != 1 {
		t.Fatal("nil permissions must leave the set unchanged")
	}

	(&Update{Permissions: []string{}}).Apply(r, now)
	if len(r.Permissions) != 0 {
		t.Fatal("empty permissions must clear the set")
	}
	if !(&Update{}).Empty() {
		t.Fatal("zero update should be empty")
	}
}

func TestListFilterMatches(t *testing.T) {
	active := true
	f := &ListFilter{TenantID: "t1", IsActive: &active}
	if !f.Matches(&Role{TenantID: "t1", IsActive: true}) {
		t.Fatal("expected match")
	}
	if f.Matches(&Role{TenantID: "t2", IsActive: true}) {
		t.Fatal("tenant filter ignored")
	}
	if f.Matches(&Role{TenantID: "t1"}) {
		t.Fatal("active filter ignored")
	}
}
