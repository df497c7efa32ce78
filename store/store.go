// Package store defines the aggregate persistence interface. Each subsystem
// (tenantrole, checklog) defines its own store interface and the composite
// Store composes them. Backends: Memory, Postgres, SQLite and MongoDB.
package store

import (
	"context"

	"github.com/xraph/bastion/checklog"
	"github.com/xraph/bastion/tenantrole"
)

// Store is the aggregate persistence interface. A single backend implements
// every subsystem store.
type Store interface {
	tenantrole.Store
	checklog.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
