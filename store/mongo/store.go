// Package mongo provides a MongoDB implementation of the bastion composite
// store using grove ORM. Tenant roles embed their permission list so every
// mutation is a single-document update.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/bastion/checklog"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/store"
	"github.com/xraph/bastion/tenantrole"
)

// Collection name constants.
const (
	colTenantRoles = "bastion_tenant_roles"
	colCheckLogs   = "bastion_check_logs"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a MongoDB implementation of the composite bastion store.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Migrate creates indexes for all bastion collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("bastion/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

func migrationIndexes() map[string][]mongod.IndexModel {
	return map[string][]mongod.IndexModel{
		colTenantRoles: {
			{
				Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "is_active", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		colCheckLogs: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "decision", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
	}
}

// ──────────────────────────────────────────────────
// Tenant role operations
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(ctx context.Context, r *tenantrole.Role) error {
	if _, err := s.mdb.NewInsert(tenantRoleToModel(r)).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return fmt.Errorf("tenant role %q in %q: %w", r.Name, r.TenantID, tenantrole.ErrConflict)
		}
		return fmt.Errorf("bastion: create tenant role: %w", err)
	}
	return nil
}

func (s *Store) GetRole(ctx context.Context, roleID id.TenantRoleID) (*tenantrole.Role, error) {
	var m tenantRoleModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": roleID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("tenant role %s: %w", roleID, tenantrole.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get tenant role: %w", err)
	}
	return tenantRoleFromModel(&m), nil
}

func (s *Store) GetRoleByName(ctx context.Context, tenantID, name string) (*tenantrole.Role, error) {
	var m tenantRoleModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"tenant_id": tenantID, "name": name}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("tenant role %q: %w", name, tenantrole.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get tenant role by name: %w", err)
	}
	return tenantRoleFromModel(&m), nil
}

func (s *Store) UpdateRole(ctx context.Context, roleID id.TenantRoleID, u *tenantrole.Update, at time.Time) (*tenantrole.Role, error) {
	set := bson.M{"updated_at": at}
	if u.DisplayName != nil {
		set["display_name"] = *u.DisplayName
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Permissions != nil {
		set["permissions"] = u.Permissions
	}
	if u.IsActive != nil {
		set["is_active"] = *u.IsActive
	}

	r, err := s.findAndUpdate(ctx, bson.M{"_id": roleID.String()}, bson.M{"$set": set})
	if isNoDocuments(err) {
		return nil, fmt.Errorf("tenant role %s: %w", roleID, tenantrole.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("bastion: update tenant role: %w", err)
	}
	return r, nil
}

func (s *Store) AddPermission(ctx context.Context, roleID id.TenantRoleID, p string, at time.Time) (*tenantrole.Role, error) {
	r, err := s.findAndUpdate(ctx,
		bson.M{"_id": roleID.String(), "permissions": bson.M{"$ne": p}},
		bson.M{"$push": bson.M{"permissions": p}, "$set": bson.M{"updated_at": at}},
	)
	if isNoDocuments(err) {
		// Either already present or missing; GetRole tells which.
		return s.GetRole(ctx, roleID)
	}
	if err != nil {
		return nil, fmt.Errorf("bastion: add tenant role permission: %w", err)
	}
	return r, nil
}

func (s *Store) RemovePermission(ctx context.Context, roleID id.TenantRoleID, p string, at time.Time) (*tenantrole.Role, error) {
	r, err := s.findAndUpdate(ctx,
		bson.M{"_id": roleID.String(), "permissions": p},
		bson.M{"$pull": bson.M{"permissions": p}, "$set": bson.M{"updated_at": at}},
	)
	if isNoDocuments(err) {
		return s.GetRole(ctx, roleID)
	}
	if err != nil {
		return nil, fmt.Errorf("bastion: remove tenant role permission: %w", err)
	}
	return r, nil
}

func (s *Store) findAndUpdate(ctx context.Context, filter, update bson.M) (*tenantrole.Role, error) {
	var m tenantRoleModel
	err := s.mdb.Collection(colTenantRoles).
		FindOneAndUpdate(ctx, filter, update,
			options.FindOneAndUpdate().SetReturnDocument(options.After)).
		Decode(&m)
	if err != nil {
		return nil, err
	}
	return tenantRoleFromModel(&m), nil
}

func (s *Store) DeleteRole(ctx context.Context, roleID id.TenantRoleID) error {
	res, err := s.mdb.NewDelete((*tenantRoleModel)(nil)).
		Filter(bson.M{"_id": roleID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete tenant role: %w", err)
	}
	if res.DeletedCount() == 0 {
		return fmt.Errorf("tenant role %s: %w", roleID, tenantrole.ErrNotFound)
	}
	return nil
}

func (s *Store) ListRoles(ctx context.Context, filter *tenantrole.ListFilter) ([]*tenantrole.Role, error) {
	var models []tenantRoleModel
	q := s.mdb.NewFind(&models).
		Filter(roleFilter(filter)).
		Sort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("bastion: list tenant roles: %w", err)
	}
	result := make([]*tenantrole.Role, len(models))
	for i := range models {
		result[i] = tenantRoleFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountRoles(ctx context.Context, filter *tenantrole.ListFilter) (int64, error) {
	count, err := s.mdb.NewFind((*tenantRoleModel)(nil)).
		Filter(roleFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count tenant roles: %w", err)
	}
	return count, nil
}

func roleFilter(filter *tenantrole.ListFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.TenantID != "" {
		f["tenant_id"] = filter.TenantID
	}
	if filter.IsActive != nil {
		f["is_active"] = *filter.IsActive
	}
	return f
}

func (s *Store) DeleteRolesByTenant(ctx context.Context, tenantID string) error {
	_, err := s.mdb.NewDelete((*tenantRoleModel)(nil)).
		Many().
		Filter(bson.M{"tenant_id": tenantID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete tenant roles by tenant: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Decision log operations
// ──────────────────────────────────────────────────

func (s *Store) CreateCheckLog(ctx context.Context, e *checklog.Entry) error {
	if _, err := s.mdb.NewInsert(checkLogToModel(e)).Exec(ctx); err != nil {
		return fmt.Errorf("bastion: create check log: %w", err)
	}
	return nil
}

func (s *Store) GetCheckLog(ctx context.Context, logID id.CheckLogID) (*checklog.Entry, error) {
	var m checkLogModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": logID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("check log %s: %w", logID, checklog.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get check log: %w", err)
	}
	return checkLogFromModel(&m), nil
}

func (s *Store) ListCheckLogs(ctx context.Context, filter *checklog.QueryFilter) ([]*checklog.Entry, error) {
	var models []checkLogModel
	q := s.mdb.NewFind(&models).
		Filter(checkLogFilter(filter)).
		Sort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("bastion: list check logs: %w", err)
	}
	result := make([]*checklog.Entry, len(models))
	for i := range models {
		result[i] = checkLogFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountCheckLogs(ctx context.Context, filter *checklog.QueryFilter) (int64, error) {
	count, err := s.mdb.NewFind((*checkLogModel)(nil)).
		Filter(checkLogFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count check logs: %w", err)
	}
	return count, nil
}

func checkLogFilter(filter *checklog.QueryFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.TenantID != "" {
		f["tenant_id"] = filter.TenantID
	}
	if filter.UserID != "" {
		f["user_id"] = filter.UserID
	}
	if filter.GlobalRole != "" {
		f["global_role"] = filter.GlobalRole
	}
	if filter.Resource != "" {
		f["resource"] = filter.Resource
	}
	if filter.Action != "" {
		f["action"] = filter.Action
	}
	if filter.Decision != "" {
		f["decision"] = filter.Decision
	}
	if filter.After != nil || filter.Before != nil {
		dateFilter := bson.M{}
		if filter.After != nil {
			dateFilter["$gt"] = *filter.After
		}
		if filter.Before != nil {
			dateFilter["$lt"] = *filter.Before
		}
		f["created_at"] = dateFilter
	}
	return f
}

func (s *Store) PurgeCheckLogs(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.mdb.NewDelete((*checkLogModel)(nil)).
		Many().
		Filter(bson.M{"created_at": bson.M{"$lt": before}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: purge check logs: %w", err)
	}
	return res.DeletedCount(), nil
}

func (s *Store) DeleteCheckLogsByTenant(ctx context.Context, tenantID string) error {
	_, err := s.mdb.NewDelete((*checkLogModel)(nil)).
		Many().
		Filter(bson.M{"tenant_id": tenantID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete check logs by tenant: %w", err)
	}
	return nil
}
