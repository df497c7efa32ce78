package checklog

import (
	"context"
	"errors"
	"time"

	"github.com/xraph/bastion/id"
)

// ErrNotFound is returned when a decision log entry does not exist.
var ErrNotFound = errors.New("checklog: not found")

// Store defines persistence operations for decision logs.
type Store interface {
	// CreateCheckLog persists a new decision log entry.
	CreateCheckLog(ctx context.Context, e *Entry) error

	// GetCheckLog retrieves a decision log entry by ID.
	GetCheckLog(ctx context.Context, logID id.CheckLogID) (*Entry, error)

	// ListCheckLogs returns entries matching the filter, newest first.
	ListCheckLogs(ctx context.Context, filter *QueryFilter) ([]*Entry, error)

	// CountCheckLogs returns the number of entries matching the filter.
	CountCheckLogs(ctx context.Context, filter *QueryFilter) (int64, error)

	// PurgeCheckLogs removes entries older than before.
	PurgeCheckLogs(ctx context.Context, before time.Time) (int64, error)

	// DeleteCheckLogsByTenant removes all entries for a tenant.
	DeleteCheckLogsByTenant(ctx context.Context, tenantID string) error
}
