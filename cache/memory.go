// Package cache provides in-process caching of tenant role snapshots.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/tenantrole"
)

// Compile-time interface check.
var _ bastion.Cache = (*Memory)(nil)

// Memory is an in-memory snapshot cache with TTL-based expiration and
// per-role generations. It is local to one process: use it only when a
// single process serves both role mutations and decisions.
//
// Generations come from one monotonic clock. Roles without an entry in gens
// sit at floor. When gens outgrows maxSize the clock advances, floor moves
// to it and every entry is dropped, so no earlier generation matches again.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*entry
	gens    map[string]uint64
	clock   uint64
	floor   uint64
	ttl     time.Duration
	maxSize int
}

type entry struct {
	snap      *tenantrole.Snapshot
	gen       uint64
	expiresAt time.Time
}

// MemoryOption configures the memory cache.
type MemoryOption func(*Memory)

// WithTTL sets the cache entry time-to-live.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(m *Memory) { m.ttl = ttl }
}

// WithMaxSize sets the maximum number of cache entries.
func WithMaxSize(n int) MemoryOption {
	return func(m *Memory) { m.maxSize = n }
}

// NewMemory creates a new in-memory cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]*entry),
		gens:    make(map[string]uint64),
		ttl:     5 * time.Minute,
		maxSize: 10000,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the cached snapshot and the role's current generation.
func (m *Memory) Get(_ context.Context, roleID id.TenantRoleID) (*tenantrole.Snapshot, uint64, bool) {
	key := roleID.String()
	m.mu.RLock()
	e, ok := m.entries[key]
	gen := m.genOf(key)
	m.mu.RUnlock()
	if !ok || e.gen != gen {
		return nil, gen, false
	}
	if time.Now().After(e.expiresAt) {
		m.mu.Lock()
		if cur, still := m.entries[key]; still && cur == e {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, gen, false
	}
	return e.snap, gen, true
}

// Set stores snap unless the role was invalidated after gen was read.
func (m *Memory) Set(_ context.Context, roleID id.TenantRoleID, gen uint64, snap *tenantrole.Snapshot) {
	key := roleID.String()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.genOf(key) != gen {
		return
	}

	if len(m.entries) >= m.maxSize {
		m.evictExpired()
		if len(m.entries) >= m.maxSize {
			m.evictOne()
		}
	}

	m.entries[key] = &entry{
		snap:      snap,
		gen:       gen,
		expiresAt: time.Now().Add(m.ttl),
	}
}

// Invalidate drops the role's snapshot and advances its generation. It
// never fails.
func (m *Memory) Invalidate(_ context.Context, roleID id.TenantRoleID) error {
	key := roleID.String()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock++
	m.gens[key] = m.clock
	delete(m.entries, key)

	if len(m.gens) > m.maxSize {
		m.clock++
		m.floor = m.clock
		clear(m.gens)
		clear(m.entries)
	}
	return nil
}

// Generations returns the number of roles with a tracked generation.
func (m *Memory) Generations() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.gens)
}

// Len returns the number of cached snapshots.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// genOf returns the role's current generation. Must hold a lock.
func (m *Memory) genOf(key string) uint64 {
	if g, ok := m.gens[key]; ok {
		return g
	}
	return m.floor
}

// evictExpired removes all expired entries. Must hold write lock.
func (m *Memory) evictExpired() {
	now := time.Now()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}

// evictOne removes one arbitrary entry. Must hold write lock.
func (m *Memory) evictOne() {
	for k := range m.entries {
		delete(m.entries, k)
		return
	}
}
