package pgx

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/lborres/guildhall/core"
)

const characterColumns = `id, account_id, name, hp, power, money, created_at, updated_at`

func scanCharacter(row scanner) (*core.Character, error) {
	c := &core.Character{}
	err := row.Scan(&c.ID, &c.AccountID, &c.Name, &c.HP, &c.Power, &c.Money, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (a *Adapter) CreateCharacter(ctx context.Context, c *core.Character) error {
	ctx, cancel := a.ctx(ctx)
	defer cancel()

	err := a.db.QueryRow(ctx,
		`INSERT INTO characters (id, account_id, name, hp, power, money)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`,
		c.ID, c.AccountID, c.Name, c.HP, c.Power, c.Money,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return core.ErrAccountNotFound
		}
		return oops.With("operation", "create character").Wrap(err)
	}
	return nil
}

func (a *Adapter) GetCharacter(ctx context.Context, id string) (*core.Character, error) {
	ctx, cancel := a.ctx(ctx)
	defer cancel()

	c, err := scanCharacter(a.db.QueryRow(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrCharacterNotFound
		}
		return nil, oops.With("operation", "get character").Wrap(err)
	}
	return c, nil
}

func (a *Adapter) ListCharacters(ctx context.Context) ([]*core.Character, error) {
	ctx, cancel := a.ctx(ctx)
	defer cancel()

	rows, err := a.db.Query(ctx, `SELECT `+characterColumns+` FROM characters ORDER BY id`)
	if err != nil {
		return nil, oops.With("operation", "list characters").Wrap(err)
	}
	defer rows.Close()

	out := []*core.Character{}
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, oops.With("operation", "scan character row").Wrap(err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate characters").Wrap(err)
	}
	return out, nil
}

func (a *Adapter) RenameCharacter(ctx context.Context, id, ownerID, name string) (*core.Character, error) {
	ctx, cancel := a.ctx(ctx)
	defer cancel()

	c, err := scanCharacter(a.db.QueryRow(ctx,
		`UPDATE characters SET name = $3, updated_at = now()
		 WHERE id = $1 AND account_id = $2
		 RETURNING `+characterColumns,
		id, ownerID, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrCharacterNotFound
		}
		return nil, oops.With("operation", "rename character").Wrap(err)
	}
	return c, nil
}

// DeleteCharacter is a single statement conditional on id and owner
func (a *Adapter) DeleteCharacter(ctx context.Context, id, ownerID string) error {
	ctx, cancel := a.ctx(ctx)
	defer cancel()

	tag, err := a.db.Exec(ctx, `DELETE FROM characters WHERE id = $1 AND account_id = $2`, id, ownerID)
	if err != nil {
		return oops.With("operation", "delete character").Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrCharacterNotFound
	}
	return nil
}
