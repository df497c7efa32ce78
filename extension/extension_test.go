package extension

import (
	"log/slog"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/xraph/bastion/cache"
	rediscache "github.com/xraph/bastion/cache/redis"
)

func TestBuildCacheDefaultsToNone(t *testing.T) {
	e := &Extension{config: DefaultConfig()}
	c, err := e.buildCache(slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	if c != nil {
		t.Fatalf("expected no cache by default, got %T", c)
	}
}

func TestBuildCacheSelection(t *testing.T) {
	local := DefaultConfig()
	local.LocalCache = true
	e := &Extension{config: local}
	c, err := e.buildCache(slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*cache.Memory); !ok {
		t.Fatalf("expected memory cache, got %T", c)
	}

	mr := miniredis.RunT(t)
	shared := DefaultConfig()
	shared.RedisAddr = mr.Addr()
	shared.LocalCache = true
	e = &Extension{config: shared}
	c, err = e.buildCache(slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*rediscache.Cache); !ok {
		t.Fatalf("expected redis cache to win over local, got %T", c)
	}
	_ = e.redis.Close()

	off := DefaultConfig()
	off.LocalCache = true
	off.CacheTTL = 0
	e = &Extension{config: off}
	if c, _ := e.buildCache(slog.Default()); c != nil {
		t.Fatalf("expected zero TTL to disable caching, got %T", c)
	}
}
