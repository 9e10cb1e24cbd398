package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/till/internal/auth/domain"
)

type rolesRepo struct {
	db dbtx
}

const (
	roleColumns        = `id, name, label, description, created_at, updated_at, deleted_at`
	roleColumnsAliased = `r.id, r.name, r.label, r.description, r.created_at, r.updated_at, r.deleted_at`
)

func scanRole(row rowScanner) (domain.Role, error) {
	var (
		role      domain.Role
		deletedAt sql.NullTime
	)
	err := row.Scan(&role.ID, &role.Name, &role.Label, &role.Description,
		&role.CreatedAt, &role.UpdatedAt, &deletedAt)
	if err != nil {
		return domain.Role{}, err
	}
	role.CreatedAt = role.CreatedAt.UTC()
	role.UpdatedAt = role.UpdatedAt.UTC()
	role.DeletedAt = mapNullTimePtr(deletedAt)
	return role, nil
}

func scanRoles(rows *sql.Rows) ([]domain.Role, error) {
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *rolesRepo) getRole(ctx context.Context, where string, args ...any) (domain.Role, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+roleColumns+` FROM roles WHERE `+where, args...)
	role, err := scanRole(row)
	if err != nil {
		return domain.Role{}, mapNotFound(err)
	}
	return role, nil
}

func (r *rolesRepo) GetRoleByID(ctx context.Context, id string) (domain.Role, error) {
	return r.getRole(ctx, `id = ? AND deleted_at IS NULL`, id)
}

func (r *rolesRepo) GetRoleByIDWithDeleted(ctx context.Context, id string) (domain.Role, error) {
	return r.getRole(ctx, `id = ?`, id)
}

func (r *rolesRepo) GetRoleByName(ctx context.Context, name string) (domain.Role, error) {
	return r.getRole(ctx, `name = ? AND deleted_at IS NULL`, name)
}

func (r *rolesRepo) ListRoles(ctx context.Context, withDeleted bool) ([]domain.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles`
	if !withDeleted {
		query += ` WHERE deleted_at IS NULL`
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return scanRoles(rows)
}

func (r *rolesRepo) CreateRole(ctx context.Context, role domain.Role) error {
	ts := now()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO roles (id, name, label, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		role.ID, role.Name, role.Label, role.Description, ts, ts,
	)
	return mapConstraint(err)
}

func (r *rolesRepo) UpdateRole(ctx context.Context, role domain.Role) error {
	return requireAffected(r.db.ExecContext(ctx,
		`UPDATE roles SET label = ?, description = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		role.Label, role.Description, now(), role.ID,
	))
}

func (r *rolesRepo) DeleteRole(ctx context.Context, roleID string) error {
	ts := now()
	return requireAffected(r.db.ExecContext(ctx,
		`UPDATE roles SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		ts, ts, roleID,
	))
}

func (r *rolesRepo) RestoreRole(ctx context.Context, roleID string) error {
	return requireAffected(r.db.ExecContext(ctx,
		`UPDATE roles SET deleted_at = NULL, updated_at = ? WHERE id = ? AND deleted_at IS NOT NULL`,
		now(), roleID,
	))
}

func (r *rolesRepo) ForceDeleteRole(ctx context.Context, roleID string) error {
	return requireAffected(r.db.ExecContext(ctx, `DELETE FROM roles WHERE id = ?`, roleID))
}

func (r *rolesRepo) CountRoleUsers(ctx context.Context, roleID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_roles WHERE role_id = ?`, roleID).Scan(&count)
	return count, err
}

func (r *rolesRepo) ListRoleUserIDs(ctx context.Context, roleID string) ([]string, error) {
	return scanStrings(r.db.QueryContext(ctx,
		`SELECT user_id FROM user_roles WHERE role_id = ? ORDER BY user_id`, roleID))
}

func (r *rolesRepo) SetRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM role_permissions WHERE role_id = ?`, roleID); err != nil {
		return err
	}
	return r.AttachRolePermissions(ctx, roleID, permissionIDs)
}

func (r *rolesRepo) AttachRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	for _, permID := range dedupe(permissionIDs) {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO role_permissions (role_id, permission_id) VALUES (?, ?)
			 ON CONFLICT (role_id, permission_id) DO NOTHING`, roleID, permID)
		if err != nil {
			return mapConstraint(err)
		}
	}
	return nil
}

func (r *rolesRepo) DetachRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	ids := dedupe(permissionIDs)
	if len(ids) == 0 {
		return nil
	}

	args := append([]any{roleID}, stringArgs(ids)...)
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM role_permissions WHERE role_id = ? AND permission_id IN (`+placeholders(len(ids))+`)`,
		args...)
	return err
}

func (r *rolesRepo) ListRolePermissions(ctx context.Context, roleID string) ([]domain.Permission, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.name, p.created_at
		 FROM permissions p
		 JOIN role_permissions rp ON rp.permission_id = p.id
		 WHERE rp.role_id = ?
		 ORDER BY p.name`, roleID)
	if err != nil {
		return nil, err
	}
	return scanPermissions(rows)
}
