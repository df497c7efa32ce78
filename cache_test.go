package bastion_test

import (
	"context"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/assignment"
	"github.com/xraph/bastion/cache"
	rediscache "github.com/xraph/bastion/cache/redis"
	"github.com/xraph/bastion/policy"
	"github.com/xraph/bastion/principal"
	"github.com/xraph/bastion/store/memory"
)

func TestCachedEngineSeesMutations(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory()
	eng, err := bastion.NewEngine(
		bastion.WithStore(memory.New()),
		bastion.WithPolicy(policy.Default()),
		bastion.WithCache(c),
	)
	if err != nil {
		t.Fatal(err)
	}

	role, err := eng.Roles().CreateRole(ctx, &bastion.CreateRoleInput{TenantID: "t1", Name: "viewer", Permissions: []string{"view_rfqs"}})
	if err != nil {
		t.Fatal(err)
	}
	a := &bastion.Actor{UserID: "u1", Role: principal.RoleCustomerAdmin, TenantID: "t1", Assignment: assignment.AssignedRole(role.ID)}
	req := &bastion.Request{Actor: a, Resource: "rfqs", Action: "read", Permissions: []string{"view_rfqs"}}

	res, err := eng.Authorize(ctx, req)
	if err != nil || !res.Allowed {
		t.Fatalf("expected allow, got %+v, %v", res, err)
	}
	if c.Len() != 1 {
		t.Fatalf("expected snapshot to be cached, got %d entries", c.Len())
	}

	if _, err := eng.Roles().RemovePermission(ctx, role.ID, "view_rfqs"); err != nil {
		t.Fatal(err)
	}
	res, err = eng.Authorize(ctx, req)
	if err != nil || res.Allowed {
		t.Fatalf("cached snapshot survived a revoke: %+v, %v", res, err)
	}

	if _, err := eng.Roles().AddPermission(ctx, role.ID, "view_rfqs"); err != nil {
		t.Fatal(err)
	}
	res, err = eng.Authorize(ctx, req)
	if err != nil || !res.Allowed {
		t.Fatalf("expected allow after re-grant, got %+v, %v", res, err)
	}
}

func TestRedisCachedEngineRevokeDuringOutage(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	eng, err := bastion.NewEngine(
		bastion.WithStore(memory.New()),
		bastion.WithPolicy(policy.Default()),
		bastion.WithCache(rediscache.New(client)),
	)
	if err != nil {
		t.Fatal(err)
	}
	role, err := eng.Roles().CreateRole(ctx, &bastion.CreateRoleInput{TenantID: "t1", Name: "dealer", Permissions: []string{"approve_deals"}})
	if err != nil {
		t.Fatal(err)
	}
	a := &bastion.Actor{UserID: "u1", Role: principal.RoleCustomerAdmin, TenantID: "t1", Assignment: assignment.AssignedRole(role.ID)}

	ok, err := eng.Can(ctx, a, "rfqs", "write", "approve_deals")
	if err != nil || !ok {
		t.Fatalf("expected warm allow, got %v, %v", ok, err)
	}

	mr.SetError("LOADING blip")
	_, err = eng.Roles().RemovePermission(ctx, role.ID, "approve_deals")
	if !errors.Is(err, bastion.ErrCacheInvalidation) {
		t.Fatalf("expected ErrCacheInvalidation, got %v", err)
	}
	mr.SetError("")

	ok, err = eng.Can(ctx, a, "rfqs", "write", "approve_deals")
	if err != nil || ok {
		t.Fatalf("revoked permission still granted: %v, %v", ok, err)
	}
}
