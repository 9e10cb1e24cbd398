package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/till/internal/auth/domain"
	"github.com/aussiebroadwan/till/internal/auth/rbac"
	"github.com/aussiebroadwan/till/internal/auth/store"
	"github.com/aussiebroadwan/till/pkg/cryptox"
	"github.com/aussiebroadwan/till/pkg/idx"
	"github.com/aussiebroadwan/till/pkg/slogx"
)

// DefaultRoles are created on first start. The admin role always receives
// the whole catalog.
func DefaultRoles() []domain.RoleDefinition {
	return []domain.RoleDefinition{
		{
			Name:        domain.AdminRoleName,
			Label:       "Administrator",
			Description: "Full access to every outlet and setting.",
		},
		{
			Name:        "manager",
			Label:       "Manager",
			Description: "Runs an outlet: products, transactions and reports.",
			Permissions: []string{
				"view_users",
				"view_products", "create_products", "edit_products", "delete_products",
				"view_transactions", "create_transactions",
				"view_outlets", "edit_outlets",
				"view_reports",
			},
		},
		{
			Name:        "cashier",
			Label:       "Cashier",
			Description: "Rings up sales at the till.",
			Permissions: []string{"view_products", "view_transactions", "create_transactions"},
		},
	}
}

// BootstrapService seeds the permission catalog, the default roles and the
// first admin account.
type BootstrapService struct {
	Store    store.Store
	Resolver *rbac.Resolver
	Catalog  *rbac.Catalog
}

// Seed is safe to run on every start. Missing permissions and roles are
// created, the admin role is synced to the full catalog, and the admin
// user is only created while the users table is empty.
func (s *BootstrapService) Seed(ctx context.Context, data domain.SeedData) error {
	l := slogx.FromContext(ctx)
	catalog := s.Catalog
	if catalog == nil {
		catalog = rbac.DefaultCatalog
	}

	var (
		adminRoleID string
		createdUser string
	)
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		// 1. Permissions
		if err := tx.Permissions().EnsurePermissions(ctx, catalog.Names()); err != nil {
			return fmt.Errorf("seed permissions: %w", err)
		}

		// 2. Roles
		for _, def := range data.Roles {
			perms := def.Permissions
			if def.Name == domain.AdminRoleName {
				perms = catalog.Names()
			}
			if _, err := catalog.LookupAll(perms...); err != nil {
				return fmt.Errorf("seed role %s: %w", def.Name, err)
			}

			role, err := tx.Roles().GetRoleByName(ctx, def.Name)
			created := false
			switch {
			case errors.Is(err, store.ErrNotFound):
				role = domain.Role{ID: idx.New().String(), Name: def.Name, Label: def.Label, Description: def.Description}
				err := tx.Roles().CreateRole(ctx, role)
				if errors.Is(err, store.ErrAlreadyExists) {
					// Soft deleted by an operator; leave it that way.
					continue
				}
				if err != nil {
					return fmt.Errorf("seed role %s: %w", def.Name, err)
				}
				created = true
			case err != nil:
				return err
			}

			// Existing non-admin roles keep whatever an operator changed.
			if created || role.IsAdmin() {
				ids, err := permissionIDs(ctx, tx, perms)
				if err != nil {
					return err
				}
				if err := tx.Roles().SetRolePermissions(ctx, role.ID, ids); err != nil {
					return err
				}
			}
			if created {
				l.Info("seeded role", slog.String("role", role.Name), slog.Int("permissions", len(perms)))
			}
			if role.IsAdmin() {
				adminRoleID = role.ID
			}
		}
		if adminRoleID == "" {
			return ErrSeedAdminRole
		}

		// 3. Admin user
		if data.AdminEmail == "" || data.AdminPassword == "" {
			return nil
		}
		empty, err := tx.Users().IsEmpty(ctx)
		if err != nil || !empty {
			return err
		}

		hash, err := cryptox.HashPassword(data.AdminPassword)
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}
		name := data.AdminName
		if name == "" {
			name = "Administrator"
		}
		admin := domain.User{
			ID:           idx.New().String(),
			Name:         name,
			Email:        domain.NormalizeEmail(data.AdminEmail),
			PasswordHash: hash,
			Status:       domain.StatusActive,
		}
		if err := tx.Users().CreateUser(ctx, admin); err != nil {
			return fmt.Errorf("create admin user: %w", err)
		}
		if err := tx.Users().SetUserRoles(ctx, admin.ID, []string{adminRoleID}); err != nil {
			return err
		}
		createdUser = admin.ID
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.Resolver.ForgetRole(ctx, adminRoleID); err != nil {
		l.Warn("failed to forget admin permissions", slog.Any("error", err))
	}
	if createdUser != "" {
		l.Info("seeded admin user", slog.String("admin_user_id", createdUser))
	}
	return nil
}
