package services

import (
	"context"
	"errors"

	"github.com/samber/oops"

	"github.com/lborres/guildhall/core"
)

type ItemService struct {
	db    core.ItemStorage
	guard *Guard
}

var _ core.ItemHandler = (*ItemService)(nil)

func NewItemService(db core.ItemStorage, guard *Guard) *ItemService {
	return &ItemService{db: db, guard: guard}
}

func (s *ItemService) Create(ctx context.Context, p core.Principal, in core.ItemInput) (*core.Item, error) {
	i := &core.Item{
		ID:        core.NewID(),
		AccountID: p.AccountID,
		Name:      in.Name,
		HP:        in.HP,
		Power:     in.Power,
		Price:     in.Price,
	}

	if err := s.db.CreateItem(ctx, i); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.ErrSessionAccount
		}
		return nil, oops.Code("ITEM_CREATE_FAILED").With("account_id", p.AccountID).Wrap(err)
	}
	return i, nil
}

func (s *ItemService) List(ctx context.Context) ([]*core.Item, error) {
	items, err := s.db.ListItems(ctx)
	if err != nil {
		return nil, oops.Code("ITEM_LIST_FAILED").Wrap(err)
	}
	return items, nil
}

func (s *ItemService) Get(ctx context.Context, id string) (*core.Item, error) {
	if !core.ValidID(id) {
		return nil, core.ErrItemNotFound
	}
	i, err := s.db.GetItem(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, err
		}
		return nil, oops.Code("ITEM_LOOKUP_FAILED").With("item_id", id).Wrap(err)
	}
	return i, nil
}

// Update applies the non-nil fields of u to an item the caller owns
func (s *ItemService) Update(ctx context.Context, p core.Principal, id string, u core.ItemUpdate) (*core.Item, error) {
	i, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Owns(i.AccountID) {
		return nil, core.ErrNotOwner
	}

	updated, err := s.db.UpdateItem(ctx, id, p.AccountID, u)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, err
		}
		return nil, oops.Code("ITEM_UPDATE_FAILED").With("item_id", id).Wrap(err)
	}
	return updated, nil
}

func (s *ItemService) Delete(ctx context.Context, p core.Principal, id, password string) error {
	return s.guard.Delete(ctx, p, password, Target{
		Lookup: func(ctx context.Context) (string, error) {
			i, err := s.Get(ctx, id)
			if err != nil {
				return "", err
			}
			return i.AccountID, nil
		},
		Remove: func(ctx context.Context) error {
			return s.db.DeleteItem(ctx, id, p.AccountID)
		},
	})
}
