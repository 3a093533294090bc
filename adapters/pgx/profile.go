package pgx

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/lborres/guildhall/core"
)

func (a *Adapter) GetAccountDetails(ctx context.Context, id string) (*core.AccountDetails, error) {
	ctx, cancel := a.ctx(ctx)
	defer cancel()

	q := `SELECT a.id, a.email, a.created_at, p.name, p.age, p.updated_at
	      FROM accounts a JOIN profiles p ON p.account_id = a.id
	      WHERE a.id = $1`

	d := &core.AccountDetails{}
	err := a.db.QueryRow(ctx, q, id).Scan(
		&d.AccountID, &d.Email, &d.CreatedAt, &d.Profile.Name, &d.Profile.Age, &d.Profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrAccountNotFound
		}
		return nil, oops.With("operation", "get account details").Wrap(err)
	}
	d.Profile.AccountID = d.AccountID
	return d, nil
}

// UpdateProfile keeps any column whose field in u is nil
func (a *Adapter) UpdateProfile(ctx context.Context, accountID string, u core.ProfileUpdate) (*core.Profile, error) {
	ctx, cancel := a.ctx(ctx)
	defer cancel()

	q := `UPDATE profiles
	      SET name = COALESCE($2, name), age = COALESCE($3, age), updated_at = now()
	      WHERE account_id = $1
	      RETURNING name, age, updated_at`

	p := &core.Profile{AccountID: accountID}
	err := a.db.QueryRow(ctx, q, accountID, u.Name, u.Age).Scan(&p.Name, &p.Age, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrAccountNotFound
		}
		return nil, oops.With("operation", "update profile").Wrap(err)
	}
	return p, nil
}
