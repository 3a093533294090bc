package pgx

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/lborres/guildhall/core"
)

const accountColumns = `id, email, password_hash, created_at, updated_at`

// CreateAccount inserts the account and its profile in one transaction.
// The unique index on email turns a duplicate into core.ErrEmailTaken.
func (a *Adapter) CreateAccount(ctx context.Context, acc *core.Account, p *core.Profile) error {
	ctx, cancel := a.ctx(ctx)
	defer cancel()

	err := pgx.BeginFunc(ctx, a.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO accounts (id, email, password_hash) VALUES ($1, $2, $3)
			 RETURNING created_at, updated_at`,
			acc.ID, acc.Email, acc.PasswordHash,
		).Scan(&acc.CreatedAt, &acc.UpdatedAt)
		if err != nil {
			return err
		}

		p.AccountID = acc.ID
		return tx.QueryRow(ctx,
			`INSERT INTO profiles (account_id, name, age) VALUES ($1, $2, $3)
			 RETURNING updated_at`,
			p.AccountID, p.Name, p.Age,
		).Scan(&p.UpdatedAt)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrEmailTaken
		}
		return oops.With("operation", "create account").Wrap(err)
	}
	return nil
}

func (a *Adapter) GetAccountByID(ctx context.Context, id string) (*core.Account, error) {
	return a.getAccount(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

func (a *Adapter) GetAccountByEmail(ctx context.Context, email string) (*core.Account, error) {
	return a.getAccount(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
}

func (a *Adapter) getAccount(ctx context.Context, query string, arg string) (*core.Account, error) {
	ctx, cancel := a.ctx(ctx)
	defer cancel()

	acc := &core.Account{}
	err := a.db.QueryRow(ctx, query, arg).Scan(
		&acc.ID, &acc.Email, &acc.PasswordHash, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrAccountNotFound
		}
		return nil, oops.With("operation", "get account").Wrap(err)
	}
	return acc, nil
}

func (a *Adapter) UpdatePasswordHash(ctx context.Context, accountID, hash string) error {
	ctx, cancel := a.ctx(ctx)
	defer cancel()

	tag, err := a.db.Exec(ctx,
		`UPDATE accounts SET password_hash = $2, updated_at = now() WHERE id = $1`,
		accountID, hash,
	)
	if err != nil {
		return oops.With("operation", "update password hash").Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrAccountNotFound
	}
	return nil
}

// DeleteAccount removes the account; profiles, characters and items go
// with it through ON DELETE CASCADE.
func (a *Adapter) DeleteAccount(ctx context.Context, id string) error {
	ctx, cancel := a.ctx(ctx)
	defer cancel()

	tag, err := a.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return oops.With("operation", "delete account").Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrAccountNotFound
	}
	return nil
}
