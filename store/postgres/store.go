// Package postgres provides a PostgreSQL implementation of the bastion
// composite store using grove ORM with Go-based migrations.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/bastion/checklog"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/store"
	"github.com/xraph/bastion/tenantrole"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a PostgreSQL implementation of the composite bastion store.
type Store struct {
	db   *grove.DB
	pgdb *pgdriver.PgDB
}

// New creates a new PostgreSQL store.
func New(db *grove.DB) *Store {
	return &Store{
		db:   db,
		pgdb: pgdriver.Unwrap(db),
	}
}

// Migrate runs programmatic migrations via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pgdb)
	if err != nil {
		return fmt.Errorf("bastion: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("bastion: migration failed: %w", err)
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

// ──────────────────────────────────────────────────
// Tenant role operations
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(ctx context.Context, r *tenantrole.Role) error {
	tx, err := s.pgdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("bastion: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	if _, err := tx.NewInsert(tenantRoleToModel(r)).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("tenant role %q in %q: %w", r.Name, r.TenantID, tenantrole.ErrConflict)
		}
		return fmt.Errorf("bastion: create tenant role: %w", err)
	}

	if len(r.Permissions) > 0 {
		rows := permissionRows(r.ID.String(), r.Permissions, r.CreatedAt.UnixNano())
		if _, err := tx.NewInsert(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("bastion: create tenant role permissions: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("bastion: commit tx: %w", err)
	}
	return nil
}

func (s *Store) GetRole(ctx context.Context, roleID id.TenantRoleID) (*tenantrole.Role, error) {
	m := new(tenantRoleModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", roleID.String()).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("tenant role %s: %w", roleID, tenantrole.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get tenant role: %w", err)
	}
	return s.withPermissions(ctx, m)
}

func (s *Store) GetRoleByName(ctx context.Context, tenantID, name string) (*tenantrole.Role, error) {
	m := new(tenantRoleModel)
	err := s.pgdb.NewSelect(m).
		Where("tenant_id = ?", tenantID).
		Where("name = ?", name).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("tenant role %q: %w", name, tenantrole.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get tenant role by name: %w", err)
	}
	return s.withPermissions(ctx, m)
}

func (s *Store) UpdateRole(ctx context.Context, roleID id.TenantRoleID, u *tenantrole.Update, at time.Time) (*tenantrole.Role, error) {
	tx, err := s.pgdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("bastion: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	q := tx.NewUpdate((*tenantRoleModel)(nil)).Set("updated_at = ?", at)
	if u.DisplayName != nil {
		q = q.Set("display_name = ?", *u.DisplayName)
	}
	if u.Description != nil {
		q = q.Set("description = ?", *u.Description)
	}
	if u.IsActive != nil {
		q = q.Set("is_active = ?", *u.IsActive)
	}
	res, err := q.Where("id = ?", roleID.String()).Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("bastion: update tenant role: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("bastion: update tenant role rows: %w", err)
	} else if n == 0 {
		return nil, fmt.Errorf("tenant role %s: %w", roleID, tenantrole.ErrNotFound)
	}

	if u.Permissions != nil {
		_, err = tx.NewDelete((*rolePermissionModel)(nil)).
			Where("role_id = ?", roleID.String()).
			Exec(ctx)
		if err != nil {
			return nil, fmt.Errorf("bastion: clear tenant role permissions: %w", err)
		}
		if len(u.Permissions) > 0 {
			rows := permissionRows(roleID.String(), u.Permissions, at.UnixNano())
			if _, err := tx.NewInsert(&rows).Exec(ctx); err != nil {
				return nil, fmt.Errorf("bastion: set tenant role permissions: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("bastion: commit tx: %w", err)
	}
	return s.GetRole(ctx, roleID)
}

func (s *Store) AddPermission(ctx context.Context, roleID id.TenantRoleID, p string, at time.Time) (*tenantrole.Role, error) {
	tx, err := s.pgdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("bastion: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	row := &rolePermissionModel{RoleID: roleID.String(), Permission: p, Position: at.UnixNano()}
	res, err := tx.NewInsert(row).
		OnConflict("(role_id, permission) DO NOTHING").
		Exec(ctx)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("tenant role %s: %w", roleID, tenantrole.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: add tenant role permission: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("bastion: add tenant role permission rows: %w", err)
	}
	if n > 0 {
		_, err = tx.NewUpdate((*tenantRoleModel)(nil)).
			Set("updated_at = ?", at).
			Where("id = ?", roleID.String()).
			Exec(ctx)
		if err != nil {
			return nil, fmt.Errorf("bastion: touch tenant role: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("bastion: commit tx: %w", err)
	}
	return s.GetRole(ctx, roleID)
}

func (s *Store) RemovePermission(ctx context.Context, roleID id.TenantRoleID, p string, at time.Time) (*tenantrole.Role, error) {
	tx, err := s.pgdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("bastion: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	res, err := tx.NewDelete((*rolePermissionModel)(nil)).
		Where("role_id = ?", roleID.String()).
		Where("permission = ?", p).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("bastion: remove tenant role permission: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("bastion: remove tenant role permission rows: %w", err)
	}
	if n > 0 {
		_, err = tx.NewUpdate((*tenantRoleModel)(nil)).
			Set("updated_at = ?", at).
			Where("id = ?", roleID.String()).
			Exec(ctx)
		if err != nil {
			return nil, fmt.Errorf("bastion: touch tenant role: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("bastion: commit tx: %w", err)
	}
	return s.GetRole(ctx, roleID)
}

func (s *Store) DeleteRole(ctx context.Context, roleID id.TenantRoleID) error {
	res, err := s.pgdb.NewDelete((*tenantRoleModel)(nil)).
		Where("id = ?", roleID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete tenant role: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("bastion: delete tenant role rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("tenant role %s: %w", roleID, tenantrole.ErrNotFound)
	}
	return nil
}

func (s *Store) ListRoles(ctx context.Context, filter *tenantrole.ListFilter) ([]*tenantrole.Role, error) {
	var models []tenantRoleModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at DESC, id DESC")
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.IsActive != nil {
			q = q.Where("is_active = ?", *filter.IsActive)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("bastion: list tenant roles: %w", err)
	}
	if len(models) == 0 {
		return []*tenantrole.Role{}, nil
	}

	ids := make([]string, len(models))
	for i := range models {
		ids[i] = models[i].ID
	}
	var rows []rolePermissionModel
	err := s.pgdb.NewSelect(&rows).
		Where("role_id = ANY(?)", ids).
		OrderExpr("role_id, position ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("bastion: list tenant role permissions: %w", err)
	}
	perms := make(map[string][]string, len(models))
	for _, r := range rows {
		perms[r.RoleID] = append(perms[r.RoleID], r.Permission)
	}

	result := make([]*tenantrole.Role, len(models))
	for i := range models {
		result[i] = tenantRoleFromModel(&models[i], perms[models[i].ID])
	}
	return result, nil
}

func (s *Store) CountRoles(ctx context.Context, filter *tenantrole.ListFilter) (int64, error) {
	q := s.pgdb.NewSelect((*tenantRoleModel)(nil))
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.IsActive != nil {
			q = q.Where("is_active = ?", *filter.IsActive)
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count tenant roles: %w", err)
	}
	return count, nil
}

func (s *Store) DeleteRolesByTenant(ctx context.Context, tenantID string) error {
	_, err := s.pgdb.NewDelete((*tenantRoleModel)(nil)).
		Where("tenant_id = ?", tenantID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete tenant roles by tenant: %w", err)
	}
	return nil
}

func (s *Store) withPermissions(ctx context.Context, m *tenantRoleModel) (*tenantrole.Role, error) {
	var rows []rolePermissionModel
	err := s.pgdb.NewSelect(&rows).
		Where("role_id = ?", m.ID).
		OrderExpr("position ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("bastion: get tenant role permissions: %w", err)
	}
	perms := make([]string, len(rows))
	for i, r := range rows {
		perms[i] = r.Permission
	}
	return tenantRoleFromModel(m, perms), nil
}

// ──────────────────────────────────────────────────
// Decision log operations
// ──────────────────────────────────────────────────

func (s *Store) CreateCheckLog(ctx context.Context, e *checklog.Entry) error {
	_, err := s.pgdb.NewInsert(checkLogToModel(e)).Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: create check log: %w", err)
	}
	return nil
}

func (s *Store) GetCheckLog(ctx context.Context, logID id.CheckLogID) (*checklog.Entry, error) {
	m := new(checkLogModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", logID.String()).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("check log %s: %w", logID, checklog.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get check log: %w", err)
	}
	return checkLogFromModel(m), nil
}

func (s *Store) ListCheckLogs(ctx context.Context, filter *checklog.QueryFilter) ([]*checklog.Entry, error) {
	var models []checkLogModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at DESC, id DESC")
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.GlobalRole != "" {
			q = q.Where("global_role = ?", filter.GlobalRole)
		}
		if filter.Resource != "" {
			q = q.Where("resource = ?", filter.Resource)
		}
		if filter.Action != "" {
			q = q.Where("action = ?", filter.Action)
		}
		if filter.Decision != "" {
			q = q.Where("decision = ?", filter.Decision)
		}
		if filter.After != nil {
			q = q.Where("created_at > ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("created_at < ?", *filter.Before)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
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
	q := s.pgdb.NewSelect((*checkLogModel)(nil))
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.GlobalRole != "" {
			q = q.Where("global_role = ?", filter.GlobalRole)
		}
		if filter.Resource != "" {
			q = q.Where("resource = ?", filter.Resource)
		}
		if filter.Action != "" {
			q = q.Where("action = ?", filter.Action)
		}
		if filter.Decision != "" {
			q = q.Where("decision = ?", filter.Decision)
		}
		if filter.After != nil {
			q = q.Where("created_at > ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("created_at < ?", *filter.Before)
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count check logs: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeCheckLogs(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.pgdb.NewDelete((*checkLogModel)(nil)).
		Where("created_at < ?", before).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: purge check logs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("bastion: purge check logs rows: %w", err)
	}
	return n, nil
}

func (s *Store) DeleteCheckLogsByTenant(ctx context.Context, tenantID string) error {
	_, err := s.pgdb.NewDelete((*checkLogModel)(nil)).
		Where("tenant_id = ?", tenantID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete check logs by tenant: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Error mapping
// ──────────────────────────────────────────────────

func isUniqueViolation(err error) bool { return pgCode(err) == "23505" }

func isForeignKeyViolation(err error) bool { return pgCode(err) == "23503" }

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
