package services

import (
	"context"
	"errors"

	"github.com/samber/oops"

	"github.com/lborres/guildhall/core"
)

// Target describes a resource a Guard may delete.
type Target struct {
	// Lookup returns the owner of the resource, or a core.ErrNotFound
	// wrapping error when it does not exist.
	Lookup func(ctx context.Context) (ownerID string, err error)
	// Remove deletes the resource. It must be conditional on the owner
	// so a concurrent delete surfaces as core.ErrNotFound.
	Remove func(ctx context.Context) error
}

// Guard gates destructive operations behind the caller's password.
//
// Checks run in a fixed order and stop at the first failure:
// existence, ownership, password, then the delete itself. The hasher is
// never consulted for a resource the caller cannot delete.
type Guard struct {
	accounts core.AccountStorage
	hasher   core.PasswordHasher
}

func NewGuard(accounts core.AccountStorage, hasher core.PasswordHasher) *Guard {
	return &Guard{accounts: accounts, hasher: hasher}
}

// Delete removes t on behalf of p after re-checking password.
func (g *Guard) Delete(ctx context.Context, p core.Principal, password string, t Target) error {
	ownerID, err := t.Lookup(ctx)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return err
		}
		return oops.Code("GUARD_LOOKUP_FAILED").Wrap(err)
	}

	if !p.Owns(ownerID) {
		return core.ErrNotOwner
	}

	account, err := g.accounts.GetAccountByID(ctx, p.AccountID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.ErrSessionAccount
		}
		return oops.Code("GUARD_ACCOUNT_LOOKUP_FAILED").With("account_id", p.AccountID).Wrap(err)
	}

	ok, err := g.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		return oops.Code("PASSWORD_VERIFY_FAILED").With("account_id", p.AccountID).Wrap(err)
	}
	if !ok {
		return core.ErrUnauthorized
	}

	if err := t.Remove(ctx); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return err
		}
		return oops.Code("GUARD_REMOVE_FAILED").Wrap(err)
	}
	return nil
}
