package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/till/internal/auth/domain"
	"github.com/aussiebroadwan/till/internal/auth/policy"
	"github.com/aussiebroadwan/till/internal/auth/rbac"
	"github.com/aussiebroadwan/till/internal/auth/store"
	"github.com/aussiebroadwan/till/pkg/idx"
	"github.com/aussiebroadwan/till/pkg/slogx"
)

// RoleDetails is a role with its permission names and holder count.
type RoleDetails struct {
	Role        domain.Role
	Permissions []string
	UsersCount  int
}

// Target is the policy view of the role.
func (d RoleDetails) Target() policy.RoleTarget {
	return policy.RoleTarget{Role: d.Role, UsersCount: d.UsersCount}
}

type RoleService struct {
	Store    store.Store
	Resolver *rbac.Resolver
	Catalog  *rbac.Catalog
}

type CreateRoleInput struct {
	Name        string
	Label       string
	Description string
	Permissions []string
}

func (s *RoleService) catalog() *rbac.Catalog {
	if s.Catalog != nil {
		return s.Catalog
	}
	return rbac.DefaultCatalog
}

func (s *RoleService) List(ctx context.Context, withDeleted bool) ([]RoleDetails, error) {
	roles, err := s.Store.Roles().ListRoles(ctx, withDeleted)
	if err != nil {
		return nil, err
	}

	out := make([]RoleDetails, 0, len(roles))
	for _, r := range roles {
		d, err := s.details(ctx, r)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *RoleService) Get(ctx context.Context, id string, withDeleted bool) (RoleDetails, error) {
	get := s.Store.Roles().GetRoleByID
	if withDeleted {
		get = s.Store.Roles().GetRoleByIDWithDeleted
	}

	r, err := get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return RoleDetails{}, ErrRoleNotFound
		}
		return RoleDetails{}, err
	}
	return s.details(ctx, r)
}

func (s *RoleService) details(ctx context.Context, r domain.Role) (RoleDetails, error) {
	perms, err := s.Store.Roles().ListRolePermissions(ctx, r.ID)
	if err != nil {
		return RoleDetails{}, err
	}
	count, err := s.Store.Roles().CountRoleUsers(ctx, r.ID)
	if err != nil {
		return RoleDetails{}, err
	}

	names := make([]string, 0, len(perms))
	for _, p := range perms {
		names = append(names, p.Name)
	}
	return RoleDetails{Role: r, Permissions: names, UsersCount: count}, nil
}

func (s *RoleService) Create(ctx context.Context, in CreateRoleInput) (RoleDetails, error) {
	if _, err := s.catalog().LookupAll(in.Permissions...); err != nil {
		return RoleDetails{}, err
	}

	role := domain.Role{
		ID:          idx.New().String(),
		Name:        strings.TrimSpace(in.Name),
		Label:       strings.TrimSpace(in.Label),
		Description: in.Description,
	}
	if role.Label == "" {
		role.Label = role.Name
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Roles().CreateRole(ctx, role); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrRoleNameTaken
			}
			return err
		}
		if len(in.Permissions) == 0 {
			return nil
		}
		ids, err := permissionIDs(ctx, tx, in.Permissions)
		if err != nil {
			return err
		}
		return tx.Roles().SetRolePermissions(ctx, role.ID, ids)
	})
	if err != nil {
		return RoleDetails{}, err
	}

	slogx.FromContext(ctx).Info("role created", slog.String("role", role.Name))
	return s.Get(ctx, role.ID, false)
}

// Update changes the label and description. The machine name is fixed.
func (s *RoleService) Update(ctx context.Context, id, label, description string) (RoleDetails, error) {
	current, err := s.Get(ctx, id, false)
	if err != nil {
		return RoleDetails{}, err
	}

	role := current.Role
	if label = strings.TrimSpace(label); label != "" {
		role.Label = label
	}
	role.Description = description
	if err := s.Store.Roles().UpdateRole(ctx, role); err != nil {
		return RoleDetails{}, err
	}
	return s.Get(ctx, id, false)
}

// Delete soft deletes the role. Holders lose its permissions immediately.
func (s *RoleService) Delete(ctx context.Context, id string) error {
	if err := s.Store.Roles().DeleteRole(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRoleNotFound
		}
		return err
	}
	s.forgetRole(ctx, id)
	slogx.FromContext(ctx).Info("role deleted", slog.String("role_id", id))
	return nil
}

func (s *RoleService) Restore(ctx context.Context, id string) (RoleDetails, error) {
	d, err := s.Get(ctx, id, true)
	if err != nil {
		return RoleDetails{}, err
	}
	if !d.Role.IsDeleted() {
		return RoleDetails{}, ErrNotDeleted
	}
	if err := s.Store.Roles().RestoreRole(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return RoleDetails{}, ErrRoleNotFound
		}
		return RoleDetails{}, err
	}
	s.forgetRole(ctx, id)
	return s.Get(ctx, id, false)
}

// ForceDelete removes the role for good. Holder ids are collected first
// because the assignments disappear with the row.
func (s *RoleService) ForceDelete(ctx context.Context, id string) error {
	var holders []string
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		if holders, err = tx.Roles().ListRoleUserIDs(ctx, id); err != nil {
			return err
		}
		if err := tx.Roles().ForceDeleteRole(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrRoleNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.Resolver.Forget(ctx, holders...); err != nil {
		slogx.FromContext(ctx).Warn("failed to forget cached permissions", slog.Any("error", err))
	}
	slogx.FromContext(ctx).Info("role force deleted", slog.String("role_id", id))
	return nil
}

// AssignPermissions adds permissions to the role.
func (s *RoleService) AssignPermissions(ctx context.Context, id string, names []string) (RoleDetails, error) {
	return s.changePermissions(ctx, id, names, func(tx store.Tx, ids []string) error {
		return tx.Roles().AttachRolePermissions(ctx, id, ids)
	})
}

// SyncPermissions replaces the role's permissions with names.
func (s *RoleService) SyncPermissions(ctx context.Context, id string, names []string) (RoleDetails, error) {
	return s.changePermissions(ctx, id, names, func(tx store.Tx, ids []string) error {
		return tx.Roles().SetRolePermissions(ctx, id, ids)
	})
}

// RevokePermissions removes permissions from the role.
func (s *RoleService) RevokePermissions(ctx context.Context, id string, names []string) (RoleDetails, error) {
	return s.changePermissions(ctx, id, names, func(tx store.Tx, ids []string) error {
		return tx.Roles().DetachRolePermissions(ctx, id, ids)
	})
}

func (s *RoleService) changePermissions(ctx context.Context, id string, names []string, apply func(store.Tx, []string) error) (RoleDetails, error) {
	if _, err := s.catalog().LookupAll(names...); err != nil {
		return RoleDetails{}, err
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Roles().GetRoleByID(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrRoleNotFound
			}
			return err
		}
		ids, err := permissionIDs(ctx, tx, names)
		if err != nil {
			return err
		}
		return apply(tx, ids)
	})
	if err != nil {
		return RoleDetails{}, err
	}

	s.forgetRole(ctx, id)
	slogx.FromContext(ctx).Info("role permissions changed", slog.String("role_id", id), slog.Any("permissions", names))
	return s.Get(ctx, id, false)
}

// ListPermissions returns every permission name known to the store.
func (s *RoleService) ListPermissions(ctx context.Context) ([]string, error) {
	perms, err := s.Store.Permissions().ListPermissions(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(perms))
	for _, p := range perms {
		names = append(names, p.Name)
	}
	return names, nil
}

func (s *RoleService) forgetRole(ctx context.Context, id string) {
	if err := s.Resolver.ForgetRole(ctx, id); err != nil {
		slogx.FromContext(ctx).Warn("failed to forget cached permissions", slog.String("role_id", id), slog.Any("error", err))
	}
}

func permissionIDs(ctx context.Context, st store.Store, names []string) ([]string, error) {
	perms, err := st.Permissions().GetPermissionsByName(ctx, names)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", rbac.ErrUnknownPermission, err)
		}
		return nil, err
	}
	ids := make([]string, 0, len(perms))
	for _, p := range perms {
		ids = append(ids, p.ID)
	}
	return ids, nil
}
