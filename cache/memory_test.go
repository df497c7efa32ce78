package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/tenantrole"
)

func snapshotOf(roleID id.TenantRoleID, perms ...string) *tenantrole.Snapshot {
	return tenantrole.NewSnapshot(&tenantrole.Role{ID: roleID, TenantID: "t1", IsActive: true, Permissions: perms})
}

func TestMemoryCacheHitMiss(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(time.Minute))
	roleID := id.NewTenantRoleID()

	// Miss
	_, gen, ok := c.Get(ctx, roleID)
	if ok {
		t.Fatal("expected cache miss")
	}

	// Set + Hit
	c.Set(ctx, roleID, gen, snapshotOf(roleID, "view_rfqs"))
	got, _, ok := c.Get(ctx, roleID)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if !got.Has("view_rfqs") {
		t.Fatal("expected cached permission")
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(1 * time.Millisecond))
	roleID := id.NewTenantRoleID()

	c.Set(ctx, roleID, 0, snapshotOf(roleID))
	time.Sleep(5 * time.Millisecond)

	if _, _, ok := c.Get(ctx, roleID); ok {
		t.Fatal("expected cache miss after TTL expiry")
	}
}

func TestMemoryCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	roleID := id.NewTenantRoleID()

	c.Set(ctx, roleID, 0, snapshotOf(roleID, "view_rfqs"))
	c.Invalidate(ctx, roleID)

	_, gen, ok := c.Get(ctx, roleID)
	if ok {
		t.Fatal("expected miss after invalidate")
	}
	if gen != 1 {
		t.Fatalf("expected generation 1, got %d", gen)
	}
}

func TestMemoryCacheStaleSetIgnored(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	roleID := id.NewTenantRoleID()

	// A reader observes generation 0 and starts loading.
	_, gen, _ := c.Get(ctx, roleID)

	// A writer mutates the role and invalidates before the load finishes.
	c.Invalidate(ctx, roleID)

	// The reader's now-stale snapshot must not be installed.
	c.Set(ctx, roleID, gen, snapshotOf(roleID, "old_permission"))
	if _, _, ok := c.Get(ctx, roleID); ok {
		t.Fatal("stale snapshot was cached")
	}
}

func TestMemoryCacheMaxSize(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithMaxSize(2))
	for i := 0; i < 5; i++ {
		roleID := id.NewTenantRoleID()
		c.Set(ctx, roleID, 0, snapshotOf(roleID))
	}
	if c.Len() > 2 {
		t.Fatalf("expected at most 2 entries, got %d", c.Len())
	}
}

func TestMemoryCacheConcurrent(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	roleID := id.NewTenantRoleID()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, gen, ok := c.Get(ctx, roleID)
			if !ok {
				c.Set(ctx, roleID, gen, snapshotOf(roleID, "view_rfqs"))
			}
		}()
		go func() {
			defer wg.Done()
			c.Invalidate(ctx, roleID)
		}()
	}
	wg.Wait()

	c.Invalidate(ctx, roleID)
	if _, _, ok := c.Get(ctx, roleID); ok {
		t.Fatal("expected miss after final invalidate")
	}
}

func TestMemoryCacheGenerationsBounded(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithMaxSize(3))

	// A reader starts loading before the generation table is reset.
	first := id.NewTenantRoleID()
	_, staleGen, _ := c.Get(ctx, first)

	for i := 0; i < 10; i++ {
		if err := c.Invalidate(ctx, id.NewTenantRoleID()); err != nil {
			t.Fatal(err)
		}
	}
	if n := c.Generations(); n > 3 {
		t.Fatalf("expected at most 3 tracked generations, got %d", n)
	}

	c.Set(ctx, first, staleGen, snapshotOf(first, "old_permission"))
	if _, _, ok := c.Get(ctx, first); ok {
		t.Fatal("snapshot loaded before the reset must not be served")
	}

	_, gen, _ := c.Get(ctx, first)
	c.Set(ctx, first, gen, snapshotOf(first, "view_rfqs"))
	if _, _, ok := c.Get(ctx, first); !ok {
		t.Fatal("expected hit after reset")
	}
}
