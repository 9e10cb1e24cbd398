package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aussiebroadwan/till/internal/auth/domain"
	"github.com/aussiebroadwan/till/internal/auth/store"
	"github.com/aussiebroadwan/till/pkg/idx"
)

type permissionsRepo struct {
	db dbtx
}

func scanPermissions(rows *sql.Rows) ([]domain.Permission, error) {
	defer rows.Close()

	var perms []domain.Permission
	for rows.Next() {
		var p domain.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.CreatedAt = p.CreatedAt.UTC()
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func (r *permissionsRepo) ListPermissions(ctx context.Context) ([]domain.Permission, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_at FROM permissions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return scanPermissions(rows)
}

func (r *permissionsRepo) GetPermissionsByName(ctx context.Context, names []string) ([]domain.Permission, error) {
	names = dedupe(names)
	if len(names) == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM permissions WHERE name IN (`+placeholders(len(names))+`) ORDER BY name`,
		stringArgs(names)...)
	if err != nil {
		return nil, err
	}
	perms, err := scanPermissions(rows)
	if err != nil {
		return nil, err
	}

	if len(perms) != len(names) {
		found := make(map[string]struct{}, len(perms))
		for _, p := range perms {
			found[p.Name] = struct{}{}
		}
		for _, n := range names {
			if _, ok := found[n]; !ok {
				return nil, fmt.Errorf("%w: permission %q", store.ErrNotFound, n)
			}
		}
	}
	return perms, nil
}

func (r *permissionsRepo) EnsurePermissions(ctx context.Context, names []string) error {
	ts := now()
	for _, name := range dedupe(names) {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO permissions (id, name, created_at) VALUES (?, ?, ?)
			 ON CONFLICT (name) DO NOTHING`, idx.New().String(), name, ts)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *permissionsRepo) ListRoleIDsForPermission(ctx context.Context, permissionID string) ([]string, error) {
	return scanStrings(r.db.QueryContext(ctx,
		`SELECT role_id FROM role_permissions WHERE permission_id = ? ORDER BY role_id`, permissionID))
}

func (r *permissionsRepo) PermissionNamesForUser(ctx context.Context, userID string) ([]string, error) {
	return scanStrings(r.db.QueryContext(ctx,
		`SELECT DISTINCT p.name
		 FROM permissions p
		 JOIN role_permissions rp ON rp.permission_id = p.id
		 JOIN roles r ON r.id = rp.role_id AND r.deleted_at IS NULL
		 JOIN user_roles ur ON ur.role_id = r.id
		 WHERE ur.user_id = ?
		 ORDER BY p.name`, userID))
}
