// Package redis provides a tenant role snapshot cache shared across
// replicas through Redis.
//
// Each role has a generation counter at "<prefix>:<roleID>:gen". Snapshots
// are stored under "<prefix>:<roleID>:<gen>", so bumping the counter
// orphans every older snapshot at once. A load that raced with an
// invalidation writes under the old generation where no reader looks, and
// the orphan expires with its TTL.
//
// A failed bump is reported to the caller and remembered. Until a retried
// bump succeeds this process neither serves nor writes snapshots of that
// role, so its own decisions always read the store.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/tenantrole"
)

// Compile-time interface check.
var _ bastion.Cache = (*Cache)(nil)

// DefaultPrefix namespaces the cache's keys.
const DefaultPrefix = "bastion:trole"

// Cache is a Redis-backed snapshot cache. Read and write failures degrade
// to cache misses; they never fail a decision.
type Cache struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]struct{}
}

// Option configures the cache.
type Option func(*Cache)

// WithTTL sets the snapshot time-to-live.
func WithTTL(ttl time.Duration) Option { return func(c *Cache) { c.ttl = ttl } }

// WithPrefix sets the key prefix.
func WithPrefix(p string) Option { return func(c *Cache) { c.prefix = p } }

// WithLogger sets the logger used for Redis errors.
func WithLogger(l *slog.Logger) Option { return func(c *Cache) { c.logger = l } }

// New creates a cache on top of client.
func New(client redis.UniversalClient, opts ...Option) *Cache {
	c := &Cache{
		client:  client,
		ttl:     5 * time.Minute,
		prefix:  DefaultPrefix,
		logger:  slog.Default(),
		pending: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dial connects to addr and verifies the connection.
func Dial(ctx context.Context, addr string, opts ...Option) (*Cache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return New(client, opts...), nil
}

// Get returns the snapshot stored for the role's current generation.
func (c *Cache) Get(ctx context.Context, roleID id.TenantRoleID) (*tenantrole.Snapshot, uint64, bool) {
	if c.isPending(roleID) {
		if err := c.Invalidate(ctx, roleID); err != nil {
			return nil, 0, false
		}
	}

	gen, err := c.generation(ctx, roleID)
	if err != nil {
		c.logError("read generation", roleID, err)
		return nil, 0, false
	}

	payload, err := c.client.Get(ctx, c.dataKey(roleID, gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false
	}
	if err != nil {
		c.logError("read snapshot", roleID, err)
		return nil, gen, false
	}

	var snap tenantrole.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		c.logError("decode snapshot", roleID, err)
		return nil, gen, false
	}
	return &snap, gen, true
}

// Set stores snap under generation gen.
func (c *Cache) Set(ctx context.Context, roleID id.TenantRoleID, gen uint64, snap *tenantrole.Snapshot) {
	if c.isPending(roleID) {
		return
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		c.logError("encode snapshot", roleID, err)
		return
	}
	if err := c.client.Set(ctx, c.dataKey(roleID, gen), payload, c.ttl).Err(); err != nil {
		c.logError("write snapshot", roleID, err)
	}
}

// Invalidate advances the role's generation. On failure the role is marked
// pending and the bump is retried by the next Get.
func (c *Cache) Invalidate(ctx context.Context, roleID id.TenantRoleID) error {
	key := roleID.String()
	if err := c.client.Incr(ctx, c.genKey(roleID)).Err(); err != nil {
		c.logError("bump generation", roleID, err)
		c.mu.Lock()
		c.pending[key] = struct{}{}
		c.mu.Unlock()
		return err
	}
	c.mu.Lock()
	delete(c.pending, key)
	c.mu.Unlock()
	return nil
}

// Close closes the underlying client.
func (c *Cache) Close() error { return c.client.Close() }

// Ping checks Redis connectivity.
func (c *Cache) Ping(ctx context.Context) error { return c.client.Ping(ctx).Err() }

func (c *Cache) isPending(roleID id.TenantRoleID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[roleID.String()]
	return ok
}

func (c *Cache) generation(ctx context.Context, roleID id.TenantRoleID) (uint64, error) {
	gen, err := c.client.Get(ctx, c.genKey(roleID)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *Cache) genKey(roleID id.TenantRoleID) string {
	return c.prefix + ":" + roleID.String() + ":gen"
}

func (c *Cache) dataKey(roleID id.TenantRoleID, gen uint64) string {
	return c.prefix + ":" + roleID.String() + ":" + strconv.FormatUint(gen, 10)
}

func (c *Cache) logError(op string, roleID id.TenantRoleID, err error) {
	c.logger.Warn("snapshot cache error",
		slog.String("op", op),
		slog.String("tenant_role_id", roleID.String()),
		slog.String("error", err.Error()),
	)
}
