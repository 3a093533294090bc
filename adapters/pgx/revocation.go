package pgx

import (
	"context"
	"time"

	"github.com/samber/oops"
)

// RevokeToken is idempotent; revoking twice keeps the first row
func (a *Adapter) RevokeToken(ctx context.Context, tokenID, accountID string, expiresAt time.Time) error {
	ctx, cancel := a.ctx(ctx)
	defer cancel()

	_, err := a.db.Exec(ctx,
		`INSERT INTO revoked_tokens (token_id, account_id, expires_at) VALUES ($1, $2, $3)
		 ON CONFLICT (token_id) DO NOTHING`,
		tokenID, accountID, expiresAt,
	)
	if err != nil {
		return oops.With("operation", "revoke token").Wrap(err)
	}
	return nil
}

func (a *Adapter) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	ctx, cancel := a.ctx(ctx)
	defer cancel()

	var revoked bool
	err := a.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_id = $1)`, tokenID,
	).Scan(&revoked)
	if err != nil {
		return false, oops.With("operation", "check token revocation").Wrap(err)
	}
	return revoked, nil
}

func (a *Adapter) DeleteExpiredRevocations(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := a.ctx(ctx)
	defer cancel()

	tag, err := a.db.Exec(ctx, `DELETE FROM revoked_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, oops.With("operation", "delete expired revocations").Wrap(err)
	}
	return tag.RowsAffected(), nil
}
