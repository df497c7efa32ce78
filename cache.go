package bastion

import (
	"context"

	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/tenantrole"
)

// Cache holds tenant role snapshots between decisions.
//
// Every entry is tagged with a generation. Invalidate bumps the generation,
// and Set is ignored unless the caller's generation is still current, so a
// load that raced with a mutation can never reinstate a stale snapshot.
type Cache interface {
	// Get returns the cached snapshot, if any, and the current generation.
	Get(ctx context.Context, roleID id.TenantRoleID) (snap *tenantrole.Snapshot, gen uint64, ok bool)

	// Set stores snap if gen is still the role's current generation.
	Set(ctx context.Context, roleID id.TenantRoleID, gen uint64, snap *tenantrole.Snapshot)

	// Invalidate drops the role's snapshot and advances its generation. An
	// error means cached snapshots of the role may still be served.
	Invalidate(ctx context.Context, roleID id.TenantRoleID) error
}
