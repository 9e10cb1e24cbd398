package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/till/internal/auth/domain"
)

type passwordResetsRepo struct {
	db dbtx
}

func (r *passwordResetsRepo) CreatePasswordReset(ctx context.Context, p domain.PasswordReset) error {
	created := p.CreatedAt
	if created.IsZero() {
		created = now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO password_resets (email, token_hash, expires_at, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (email) DO UPDATE SET
		     token_hash = excluded.token_hash,
		     expires_at = excluded.expires_at,
		     created_at = excluded.created_at`,
		domain.NormalizeEmail(p.Email), p.TokenHash, p.ExpiresAt.Unix(), created.UTC())
	return err
}

func (r *passwordResetsRepo) GetPasswordReset(ctx context.Context, email string) (domain.PasswordReset, error) {
	var (
		p   domain.PasswordReset
		exp int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT email, token_hash, expires_at, created_at FROM password_resets WHERE email = ?`,
		domain.NormalizeEmail(email)).Scan(&p.Email, &p.TokenHash, &exp, &p.CreatedAt)
	if err != nil {
		return domain.PasswordReset{}, mapNotFound(err)
	}
	p.ExpiresAt = time.Unix(exp, 0).UTC()
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}

func (r *passwordResetsRepo) DeletePasswordReset(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM password_resets WHERE email = ?`, domain.NormalizeEmail(email))
	return err
}

func (r *passwordResetsRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM password_resets WHERE expires_at <= ?`, now.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
