package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/tenantrole"
)

func newTestCache(t *testing.T, opts ...Option) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, opts...), mr
}

func snapshotOf(roleID id.TenantRoleID, perms ...string) *tenantrole.Snapshot {
	return tenantrole.NewSnapshot(&tenantrole.Role{ID: roleID, TenantID: "t1", IsActive: true, Permissions: perms})
}

func TestRedisCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	roleID := id.NewTenantRoleID()

	_, gen, ok := c.Get(ctx, roleID)
	if ok {
		t.Fatal("expected miss on empty cache")
	}
	c.Set(ctx, roleID, gen, snapshotOf(roleID, "view_rfqs", "view_quotes"))

	snap, _, ok := c.Get(ctx, roleID)
	if !ok {
		t.Fatal("expected hit")
	}
	if !snap.Has("view_quotes") || snap.Has("create_quotes") {
		t.Fatalf("unexpected permissions %v", snap.Permissions())
	}
	if snap.RoleID != roleID || snap.TenantID != "t1" {
		t.Fatalf("identity lost in round trip: %+v", snap)
	}
}

func TestRedisCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	roleID := id.NewTenantRoleID()

	_, gen, _ := c.Get(ctx, roleID)
	c.Set(ctx, roleID, gen, snapshotOf(roleID, "view_rfqs"))
	c.Invalidate(ctx, roleID)

	_, newGen, ok := c.Get(ctx, roleID)
	if ok {
		t.Fatal("expected miss after invalidate")
	}
	if newGen != gen+1 {
		t.Fatalf("expected generation %d, got %d", gen+1, newGen)
	}
	if v, _ := mr.Get(c.genKey(roleID)); v != "1" {
		t.Fatalf("expected generation key to be 1, got %q", v)
	}
}

func TestRedisCacheStaleSetInvisible(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	roleID := id.NewTenantRoleID()

	_, staleGen, _ := c.Get(ctx, roleID)
	c.Invalidate(ctx, roleID)
	c.Set(ctx, roleID, staleGen, snapshotOf(roleID, "old_permission"))

	if _, _, ok := c.Get(ctx, roleID); ok {
		t.Fatal("snapshot written under a stale generation must not be served")
	}
}

func TestRedisCacheTTL(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t, WithTTL(time.Minute))
	roleID := id.NewTenantRoleID()

	c.Set(ctx, roleID, 0, snapshotOf(roleID, "view_rfqs"))
	mr.FastForward(2 * time.Minute)

	if _, _, ok := c.Get(ctx, roleID); ok {
		t.Fatal("expected miss after TTL")
	}
}

func TestRedisCacheDegradesOnOutage(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	roleID := id.NewTenantRoleID()
	mr.SetError("LOADING server is loading")

	if _, _, ok := c.Get(ctx, roleID); ok {
		t.Fatal("expected miss when redis is down")
	}
	// Must not panic.
	c.Set(ctx, roleID, 0, snapshotOf(roleID))
	if err := c.Invalidate(ctx, roleID); err == nil {
		t.Fatal("expected invalidate to report the outage")
	}
}

func TestRedisCacheFailedBumpFailsClosed(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	roleID := id.NewTenantRoleID()

	_, gen, _ := c.Get(ctx, roleID)
	c.Set(ctx, roleID, gen, snapshotOf(roleID, "approve_deals"))
	if _, _, ok := c.Get(ctx, roleID); !ok {
		t.Fatal("expected warm cache")
	}

	mr.SetError("LOADING blip")
	if err := c.Invalidate(ctx, roleID); err == nil {
		t.Fatal("expected error from failed bump")
	}
	mr.SetError("")

	if _, _, ok := c.Get(ctx, roleID); ok {
		t.Fatal("snapshot from before the failed bump must not be served")
	}
	if v, _ := mr.Get(c.genKey(roleID)); v != "1" {
		t.Fatalf("expected retried bump to reach generation 1, got %q", v)
	}

	_, gen, _ = c.Get(ctx, roleID)
	c.Set(ctx, roleID, gen, snapshotOf(roleID))
	if snap, _, ok := c.Get(ctx, roleID); !ok || snap.Has("approve_deals") {
		t.Fatal("expected fresh snapshot after recovery")
	}
}
