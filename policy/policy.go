// Package policy holds the global (level 1) policy table: an immutable set
// of (global role, resource, action) entries loaded once at startup.
//
// An entry whose resource or action is "*" matches any requested resource
// or action for that role. Everything not granted is denied.
package policy

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/xraph/bastion/principal"
)

// Wildcard matches any resource or any action.
const Wildcard = "*"

// ErrInvalidEntry is returned when a policy entry is malformed.
var ErrInvalidEntry = errors.New("policy: invalid entry")

// Entry grants one global role one action on one resource class.
type Entry struct {
	Role     principal.GlobalRole `json:"role" yaml:"role"`
	Resource string               `json:"resource" yaml:"resource"`
	Action   string               `json:"action" yaml:"action"`
}

// String renders the entry the way policy files are usually read.
func (e Entry) String() string {
	return string(e.Role) + ", " + e.Resource + ", " + e.Action
}

func (e Entry) validate() error {
	if !e.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidEntry, e.Role)
	}
	if !validToken(e.Resource) {
		return fmt.Errorf("%w: resource %q", ErrInvalidEntry, e.Resource)
	}
	if !validToken(e.Action) {
		return fmt.Errorf("%w: action %q", ErrInvalidEntry, e.Action)
	}
	return nil
}

func validToken(s string) bool {
	return s != "" && !strings.ContainsAny(s, " \t\r\n,")
}

// Store answers global policy lookups. Implementations backed by a remote
// source may fail; callers must treat a failure as a denial.
type Store interface {
	Allowed(ctx context.Context, role principal.GlobalRole, resource, action string) (bool, error)
}

// Compile-time interface check.
var _ Store = (*Table)(nil)

// Table is an immutable, in-memory policy set. It is safe for concurrent use.
type Table struct {
	index   map[principal.GlobalRole]map[string]map[string]struct{}
	entries []Entry
}

// New builds a Table from entries. Duplicate entries collapse silently.
func New(entries ...Entry) (*Table, error) {
	t := &Table{index: make(map[principal.GlobalRole]map[string]map[string]struct{})}
	for i, e := range entries {
		if err := e.validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		resources := t.index[e.Role]
		if resources == nil {
			resources = make(map[string]map[string]struct{})
			t.index[e.Role] = resources
		}
		actions := resources[e.Resource]
		if actions == nil {
			actions = make(map[string]struct{})
			resources[e.Resource] = actions
		}
		if _, dup := actions[e.Action]; dup {
			continue
		}
		actions[e.Action] = struct{}{}
		t.entries = append(t.entries, e)
	}
	return t, nil
}

// MustNew is like New but panics on error. Use for hardcoded tables.
func MustNew(entries ...Entry) *Table {
	t, err := New(entries...)
	if err != nil {
		panic(err.Error())
	}
	return t
}

// IsAllowed reports whether role may perform action on resource.
func (t *Table) IsAllowed(role principal.GlobalRole, resource, action string) bool {
	if t == nil {
		return false
	}
	resources, ok := t.index[role]
	if !ok {
		return false
	}
	if matchAction(resources[resource], action) {
		return true
	}
	return matchAction(resources[Wildcard], action)
}

func matchAction(actions map[string]struct{}, action string) bool {
	if actions == nil {
		return false
	}
	if _, ok := actions[action]; ok {
		return true
	}
	_, ok := actions[Wildcard]
	return ok
}

// Allowed implements Store. A Table never fails.
func (t *Table) Allowed(_ context.Context, role principal.GlobalRole, resource, action string) (bool, error) {
	return t.IsAllowed(role, resource, action), nil
}

// Len returns the number of distinct entries.
func (t *Table) Len() int { return len(t.entries) }

// Entries returns a sorted copy of the table's entries.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Role != out[j].Role {
			return out[i].Role < out[j].Role
		}
		if out[i].Resource != out[j].Resource {
			return out[i].Resource < out[j].Resource
		}
		return out[i].Action < out[j].Action
	})
	return out
}
