package services

import (
	"context"
	"errors"

	"github.com/samber/oops"

	"github.com/lborres/guildhall/core"
)

type CharacterService struct {
	db    core.CharacterStorage
	guard *Guard
}

var _ core.CharacterHandler = (*CharacterService)(nil)

func NewCharacterService(db core.CharacterStorage, guard *Guard) *CharacterService {
	return &CharacterService{db: db, guard: guard}
}

// Create makes a character with the starting stats, owned by the caller
func (s *CharacterService) Create(ctx context.Context, p core.Principal, in core.CharacterInput) (*core.Character, error) {
	c := &core.Character{
		ID:        core.NewID(),
		AccountID: p.AccountID,
		Name:      in.Name,
		HP:        core.DefaultCharacterHP,
		Power:     core.DefaultCharacterPower,
		Money:     core.DefaultCharacterMoney,
	}

	if err := s.db.CreateCharacter(ctx, c); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.ErrSessionAccount
		}
		return nil, oops.Code("CHARACTER_CREATE_FAILED").With("account_id", p.AccountID).Wrap(err)
	}
	return c, nil
}

func (s *CharacterService) List(ctx context.Context) ([]*core.Character, error) {
	cs, err := s.db.ListCharacters(ctx)
	if err != nil {
		return nil, oops.Code("CHARACTER_LIST_FAILED").Wrap(err)
	}
	return cs, nil
}

func (s *CharacterService) Get(ctx context.Context, id string) (*core.Character, error) {
	if !core.ValidID(id) {
		return nil, core.ErrCharacterNotFound
	}
	c, err := s.db.GetCharacter(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, err
		}
		return nil, oops.Code("CHARACTER_LOOKUP_FAILED").With("character_id", id).Wrap(err)
	}
	return c, nil
}

// Rename changes the name of a character the caller owns.
// Someone else's character reads as not found.
func (s *CharacterService) Rename(ctx context.Context, p core.Principal, id string, in core.CharacterInput) (*core.Character, error) {
	if _, err := s.owned(ctx, p, id); err != nil {
		return nil, err
	}

	c, err := s.db.RenameCharacter(ctx, id, p.AccountID, in.Name)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, err
		}
		return nil, oops.Code("CHARACTER_UPDATE_FAILED").With("character_id", id).Wrap(err)
	}
	return c, nil
}

func (s *CharacterService) Delete(ctx context.Context, p core.Principal, id, password string) error {
	return s.guard.Delete(ctx, p, password, Target{
		Lookup: func(ctx context.Context) (string, error) {
			c, err := s.Get(ctx, id)
			if err != nil {
				return "", err
			}
			return c.AccountID, nil
		},
		Remove: func(ctx context.Context) error {
			return s.db.DeleteCharacter(ctx, id, p.AccountID)
		},
	})
}

func (s *CharacterService) owned(ctx context.Context, p core.Principal, id string) (*core.Character, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Owns(c.AccountID) {
		return nil, core.ErrNotOwner
	}
	return c, nil
}
