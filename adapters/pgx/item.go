package pgx

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/lborres/guildhall/core"
)

const itemColumns = `id, account_id, name, hp, power, price, created_at, updated_at`

func scanItem(row scanner) (*core.Item, error) {
	i := &core.Item{}
	err := row.Scan(&i.ID, &i.AccountID, &i.Name, &i.HP, &i.Power, &i.Price, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

func (a *Adapter) CreateItem(ctx context.Context, i *core.Item) error {
	ctx, cancel := a.ctx(ctx)
	defer cancel()

	err := a.db.QueryRow(ctx,
		`INSERT INTO items (id, account_id, name, hp, power, price)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`,
		i.ID, i.AccountID, i.Name, i.HP, i.Power, i.Price,
	).Scan(&i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return core.ErrAccountNotFound
		}
		return oops.With("operation", "create item").Wrap(err)
	}
	return nil
}

func (a *Adapter) GetItem(ctx context.Context, id string) (*core.Item, error) {
	ctx, cancel := a.ctx(ctx)
	defer cancel()

	i, err := scanItem(a.db.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrItemNotFound
		}
		return nil, oops.With("operation", "get item").Wrap(err)
	}
	return i, nil
}

func (a *Adapter) ListItems(ctx context.Context) ([]*core.Item, error) {
	ctx, cancel := a.ctx(ctx)
	defer cancel()

	rows, err := a.db.Query(ctx, `SELECT `+itemColumns+` FROM items ORDER BY id`)
	if err != nil {
		return nil, oops.With("operation", "list items").Wrap(err)
	}
	defer rows.Close()

	out := []*core.Item{}
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, oops.With("operation", "scan item row").Wrap(err)
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate items").Wrap(err)
	}
	return out, nil
}

// UpdateItem keeps any column whose field in u is nil
func (a *Adapter) UpdateItem(ctx context.Context, id, ownerID string, u core.ItemUpdate) (*core.Item, error) {
	ctx, cancel := a.ctx(ctx)
	defer cancel()

	i, err := scanItem(a.db.QueryRow(ctx,
		`UPDATE items
		 SET name = COALESCE($3, name), hp = COALESCE($4, hp),
		     power = COALESCE($5, power), price = COALESCE($6, price),
		     updated_at = now()
		 WHERE id = $1 AND account_id = $2
		 RETURNING `+itemColumns,
		id, ownerID, u.Name, u.HP, u.Power, u.Price))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrItemNotFound
		}
		return nil, oops.With("operation", "update item").Wrap(err)
	}
	return i, nil
}

func (a *Adapter) DeleteItem(ctx context.Context, id, ownerID string) error {
	ctx, cancel := a.ctx(ctx)
	defer cancel()

	tag, err := a.db.Exec(ctx, `DELETE FROM items WHERE id = $1 AND account_id = $2`, id, ownerID)
	if err != nil {
		return oops.With("operation", "delete item").Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrItemNotFound
	}
	return nil
}
