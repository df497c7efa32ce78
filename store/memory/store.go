// Package memory provides an in-memory implementation of the bastion
// composite store. It is intended for testing and development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/xraph/bastion/checklog"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/store"
	"github.com/xraph/bastion/tenantrole"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a thread-safe in-memory store for all bastion entities.
type Store struct {
	mu sync.RWMutex

	roles     map[string]*tenantrole.Role
	checkLogs map[string]*checklog.Entry
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		roles:     make(map[string]*tenantrole.Role),
		checkLogs: make(map[string]*checklog.Entry),
	}
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Tenant role store
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(_ context.Context, r *tenantrole.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[r.ID.String()]; ok {
		return fmt.Errorf("tenant role %s: %w", r.ID, tenantrole.ErrConflict)
	}
	for _, existing := range s.roles {
		if existing.TenantID == r.TenantID && existing.Name == r.Name {
			return fmt.Errorf("tenant role %q in %q: %w", r.Name, r.TenantID, tenantrole.ErrConflict)
		}
	}
	s.roles[r.ID.String()] = r.Clone()
	return nil
}

func (s *Store) GetRole(_ context.Context, roleID id.TenantRoleID) (*tenantrole.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[roleID.String()]
	if !ok {
		return nil, fmt.Errorf("tenant role %s: %w", roleID, tenantrole.ErrNotFound)
	}
	return r.Clone(), nil
}

func (s *Store) GetRoleByName(_ context.Context, tenantID, name string) (*tenantrole.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.roles {
		if r.TenantID == tenantID && r.Name == name {
			return r.Clone(), nil
		}
	}
	return nil, fmt.Errorf("tenant role %q: %w", name, tenantrole.ErrNotFound)
}

func (s *Store) UpdateRole(_ context.Context, roleID id.TenantRoleID, u *tenantrole.Update, at time.Time) (*tenantrole.Role, error) {
	return s.mutate(roleID, func(r *tenantrole.Role) { u.Apply(r, at) })
}

func (s *Store) AddPermission(_ context.Context, roleID id.TenantRoleID, p string, at time.Time) (*tenantrole.Role, error) {
	return s.mutate(roleID, func(r *tenantrole.Role) {
		if r.HasPermission(p) {
			return
		}
		r.Permissions = append(r.Permissions, p)
		r.UpdatedAt = at
	})
}

func (s *Store) RemovePermission(_ context.Context, roleID id.TenantRoleID, p string, at time.Time) (*tenantrole.Role, error) {
	return s.mutate(roleID, func(r *tenantrole.Role) {
		kept := r.Permissions[:0]
		for _, have := range r.Permissions {
			if have != p {
				kept = append(kept, have)
			}
		}
		if len(kept) != len(r.Permissions) {
			r.UpdatedAt = at
		}
		r.Permissions = kept
	})
}

// mutate applies fn to a private copy under the write lock and swaps it in,
// so readers holding an earlier Clone never observe a partial change.
func (s *Store) mutate(roleID id.TenantRoleID, fn func(*tenantrole.Role)) (*tenantrole.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.roles[roleID.String()]
	if !ok {
		return nil, fmt.Errorf("tenant role %s: %w", roleID, tenantrole.ErrNotFound)
	}
	next := cur.Clone()
	fn(next)
	s.roles[roleID.String()] = next
	return next.Clone(), nil
}

func (s *Store) DeleteRole(_ context.Context, roleID id.TenantRoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[roleID.String()]; !ok {
		return fmt.Errorf("tenant role %s: %w", roleID, tenantrole.ErrNotFound)
	}
	delete(s.roles, roleID.String())
	return nil
}

func (s *Store) ListRoles(_ context.Context, filter *tenantrole.ListFilter) ([]*tenantrole.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*tenantrole.Role, 0, len(s.roles))
	for _, r := range s.roles {
		if filter.Matches(r) {
			result = append(result, r.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID.String() > result[j].ID.String()
	})
	var p pagOpts
	if filter != nil {
		p = pagOpts{limit: filter.Limit, offset: filter.Offset}
	}
	return applyPagination(result, p), nil
}

func (s *Store) CountRoles(_ context.Context, filter *tenantrole.ListFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, r := range s.roles {
		if filter.Matches(r) {
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteRolesByTenant(_ context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, r := range s.roles {
		if r.TenantID == tenantID {
			delete(s.roles, k)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Decision log store
// ──────────────────────────────────────────────────

func (s *Store) CreateCheckLog(_ context.Context, e *checklog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkLogs[e.ID.String()] = copyCheckLog(e)
	return nil
}

func (s *Store) GetCheckLog(_ context.Context, logID id.CheckLogID) (*checklog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.checkLogs[logID.String()]
	if !ok {
		return nil, fmt.Errorf("check log %s: %w", logID, checklog.ErrNotFound)
	}
	return copyCheckLog(e), nil
}

func (s *Store) ListCheckLogs(_ context.Context, filter *checklog.QueryFilter) ([]*checklog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*checklog.Entry, 0, len(s.checkLogs))
	for _, e := range s.checkLogs {
		if filter.Matches(e) {
			result = append(result, copyCheckLog(e))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID.String() > result[j].ID.String()
	})
	var p pagOpts
	if filter != nil {
		p = pagOpts{limit: filter.Limit, offset: filter.Offset}
	}
	return applyPagination(result, p), nil
}

func (s *Store) CountCheckLogs(_ context.Context, filter *checklog.QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, e := range s.checkLogs {
		if filter.Matches(e) {
			n++
		}
	}
	return n, nil
}

func (s *Store) PurgeCheckLogs(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for k, e := range s.checkLogs {
		if e.CreatedAt.Before(before) {
			delete(s.checkLogs, k)
			count++
		}
	}
	return count, nil
}

func (s *Store) DeleteCheckLogsByTenant(_ context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.checkLogs {
		if e.TenantID == tenantID {
			delete(s.checkLogs, k)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func copyCheckLog(e *checklog.Entry) *checklog.Entry {
	c := *e
	c.Permissions = append([]string(nil), e.Permissions...)
	return &c
}

type pagOpts struct{ limit, offset int }

func applyPagination[T any](items []*T, p pagOpts) []*T {
	if p.offset > 0 && p.offset < len(items) {
		items = items[p.offset:]
	} else if p.offset >= len(items) && p.offset > 0 {
		return nil
	}
	if p.limit > 0 && p.limit < len(items) {
		items = items[:p.limit]
	}
	return items
}
