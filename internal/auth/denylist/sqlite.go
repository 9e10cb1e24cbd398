package denylist

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/till/internal/auth/store"
)

// Store keeps revoked tokens in the credential store's revoked_tokens
// table. Expired rows are purged by housekeeping.
type Store struct {
	repo func() store.RevokedTokens
	opts options
}

func NewStore(st store.Store, opts ...Option) *Store {
	return &Store{repo: st.RevokedTokens, opts: buildOptions(opts)}
}

func (d *Store) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return ErrEmptyJTI
	}
	if expiresAt.IsZero() {
		expiresAt = d.opts.now().Add(d.opts.maxTTL)
	}
	if err := d.repo().Revoke(ctx, jti, expiresAt); err != nil {
		return fmt.Errorf("denylist: revoke: %w", err)
	}
	return nil
}

func (d *Store) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, ErrEmptyJTI
	}
	revoked, err := d.repo().IsRevoked(ctx, jti, d.opts.now())
	if err != nil {
		return false, fmt.Errorf("denylist: lookup: %w", err)
	}
	return revoked, nil
}
