package services

import (
	"context"
	"errors"

	"github.com/samber/oops"

	"github.com/lborres/guildhall/core"
)

type AccountService struct {
	db    core.AccountStorage
	guard *Guard
}

var _ core.AccountHandler = (*AccountService)(nil)

func NewAccountService(db core.AccountStorage, guard *Guard) *AccountService {
	return &AccountService{db: db, guard: guard}
}

// Me returns the caller's account and profile
func (s *AccountService) Me(ctx context.Context, p core.Principal) (*core.AccountDetails, error) {
	details, err := s.db.GetAccountDetails(ctx, p.AccountID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.ErrSessionAccount
		}
		return nil, oops.Code("ACCOUNT_LOOKUP_FAILED").With("account_id", p.AccountID).Wrap(err)
	}
	return details, nil
}

// UpdateProfile changes the caller's own profile. Any other id is not found.
func (s *AccountService) UpdateProfile(ctx context.Context, p core.Principal, id string, u core.ProfileUpdate) (*core.Profile, error) {
	if !core.ValidID(id) {
		return nil, core.ErrAccountNotFound
	}
	if !p.Owns(id) {
		return nil, core.ErrNotOwner
	}

	profile, err := s.db.UpdateProfile(ctx, id, u)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, err
		}
		return nil, oops.Code("PROFILE_UPDATE_FAILED").With("account_id", id).Wrap(err)
	}
	return profile, nil
}

// Delete removes the caller's account and everything it owns
func (s *AccountService) Delete(ctx context.Context, p core.Principal, id, password string) error {
	return s.guard.Delete(ctx, p, password, Target{
		Lookup: func(ctx context.Context) (string, error) {
			if !core.ValidID(id) {
				return "", core.ErrAccountNotFound
			}
			a, err := s.db.GetAccountByID(ctx, id)
			if err != nil {
				return "", err
			}
			return a.ID, nil
		},
		Remove: func(ctx context.Context) error {
			return s.db.DeleteAccount(ctx, id)
		},
	})
}
