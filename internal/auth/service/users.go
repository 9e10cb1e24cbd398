package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/till/internal/auth/domain"
	"github.com/aussiebroadwan/till/internal/auth/rbac"
	"github.com/aussiebroadwan/till/internal/auth/store"
	"github.com/aussiebroadwan/till/pkg/cryptox"
	"github.com/aussiebroadwan/till/pkg/idx"
	"github.com/aussiebroadwan/till/pkg/slogx"
)

// UserService manages user accounts. Authorization is the caller's job;
// every method assumes the gate already allowed the action.
type UserService struct {
	Store    store.Store
	Resolver *rbac.Resolver
}

type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Status   domain.UserStatus
	Roles    []string // role names
}

// UpdateUserInput fields left empty keep their current value.
type UpdateUserInput struct {
	Name     string
	Email    string
	Password string
}

func (s *UserService) List(ctx context.Context, f store.UserFilter) ([]UserDetails, error) {
	users, err := s.Store.Users().ListUsers(ctx, f)
	if err != nil {
		return nil, err
	}

	out := make([]UserDetails, 0, len(users))
	for _, u := range users {
		d, err := loadDetails(ctx, s.Store, s.Resolver, u)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Get loads a user. withDeleted also finds soft deleted users.
func (s *UserService) Get(ctx context.Context, id string, withDeleted bool) (UserDetails, error) {
	get := s.Store.Users().GetUserByID
	if withDeleted {
		get = s.Store.Users().GetUserByIDWithDeleted
	}

	u, err := get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return UserDetails{}, ErrUserNotFound
		}
		return UserDetails{}, err
	}
	return loadDetails(ctx, s.Store, s.Resolver, u)
}

func (s *UserService) Create(ctx context.Context, in CreateUserInput) (UserDetails, error) {
	l := slogx.FromContext(ctx)

	status := in.Status
	if status == "" {
		status = domain.StatusActive
	}
	if !status.Valid() {
		return UserDetails{}, ErrInvalidStatus
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return UserDetails{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:           idx.New().String(),
		Name:         strings.TrimSpace(in.Name),
		Email:        domain.NormalizeEmail(in.Email),
		PasswordHash: hash,
		Status:       status,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailTaken
			}
			return err
		}
		if len(in.Roles) == 0 {
			return nil
		}
		roleIDs, err := roleIDsByName(ctx, tx, in.Roles)
		if err != nil {
			return err
		}
		return tx.Users().SetUserRoles(ctx, user.ID, roleIDs)
	})
	if err != nil {
		return UserDetails{}, err
	}

	l.Info("user created", slog.String("target_user_id", user.ID))
	return s.Get(ctx, user.ID, false)
}

func (s *UserService) Update(ctx context.Context, id string, in UpdateUserInput) (UserDetails, error) {
	current, err := s.Get(ctx, id, false)
	if err != nil {
		return UserDetails{}, err
	}

	user := current.User
	if name := strings.TrimSpace(in.Name); name != "" {
		user.Name = name
	}
	if in.Email != "" {
		user.Email = domain.NormalizeEmail(in.Email)
	}

	var hash string
	if in.Password != "" {
		if hash, err = cryptox.HashPassword(in.Password); err != nil {
			return UserDetails{}, fmt.Errorf("hash password: %w", err)
		}
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailTaken
			}
			return err
		}
		if hash != "" {
			return tx.Users().UpdatePasswordHash(ctx, user.ID, hash)
		}
		return nil
	})
	if err != nil {
		return UserDetails{}, err
	}
	return s.Get(ctx, id, false)
}

func (s *UserService) UpdateStatus(ctx context.Context, id string, status domain.UserStatus) (UserDetails, error) {
	if !status.Valid() {
		return UserDetails{}, ErrInvalidStatus
	}
	if err := s.Store.Users().UpdateUserStatus(ctx, id, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return UserDetails{}, ErrUserNotFound
		}
		return UserDetails{}, err
	}
	slogx.FromContext(ctx).Info("user status changed",
		slog.String("target_user_id", id),
		slog.String("status", string(status)),
	)
	return s.Get(ctx, id, false)
}

// AssignRoles replaces the user's roles and drops their cached permissions.
func (s *UserService) AssignRoles(ctx context.Context, id string, roleNames []string) (UserDetails, error) {
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Users().GetUserByID(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		roleIDs, err := roleIDsByName(ctx, tx, roleNames)
		if err != nil {
			return err
		}
		return tx.Users().SetUserRoles(ctx, id, roleIDs)
	})
	if err != nil {
		return UserDetails{}, err
	}

	s.forget(ctx, id)
	return s.Get(ctx, id, false)
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.mutate(ctx, id, "user deleted", s.Store.Users().DeleteUser)
}

// Restore undoes a soft delete. Restoring a live user is ErrNotDeleted.
func (s *UserService) Restore(ctx context.Context, id string) (UserDetails, error) {
	u, err := s.Get(ctx, id, true)
	if err != nil {
		return UserDetails{}, err
	}
	if !u.User.IsDeleted() {
		return UserDetails{}, ErrNotDeleted
	}
	if err := s.mutate(ctx, id, "user restored", s.Store.Users().RestoreUser); err != nil {
		return UserDetails{}, err
	}
	return s.Get(ctx, id, false)
}

func (s *UserService) ForceDelete(ctx context.Context, id string) error {
	return s.mutate(ctx, id, "user force deleted", s.Store.Users().ForceDeleteUser)
}

func (s *UserService) mutate(ctx context.Context, id, msg string, fn func(context.Context, string) error) error {
	if err := fn(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	s.forget(ctx, id)
	slogx.FromContext(ctx).Info(msg, slog.String("target_user_id", id))
	return nil
}

// forget drops cached permissions. A failure only delays the change until
// the cache TTL runs out, so it is logged rather than returned.
func (s *UserService) forget(ctx context.Context, ids ...string) {
	if err := s.Resolver.Forget(ctx, ids...); err != nil {
		slogx.FromContext(ctx).Warn("failed to forget cached permissions", slog.Any("error", err))
	}
}

func roleIDsByName(ctx context.Context, st store.Store, names []string) ([]string, error) {
	ids := make([]string, 0, len(names))
	for _, name := range names {
		r, err := st.Roles().GetRoleByName(ctx, strings.TrimSpace(name))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownRole, name)
			}
			return nil, err
		}
		ids = append(ids, r.ID)
	}
	return ids, nil
}
