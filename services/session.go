package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/lborres/guildhall/core"
	"github.com/lborres/guildhall/pkg/crypto"
)

// TokenCodec signs and verifies session tokens
type TokenCodec interface {
	Issue(accountID string) (*crypto.Token, error)
	Parse(token string) (*crypto.Claims, error)
}

// SessionManager issues session tokens and turns presented tokens back
// into a core.Principal. Tokens are stateless; the only server-side state
// is the set of revoked token ids.
type SessionManager struct {
	tokens      TokenCodec
	accounts    core.AccountStorage
	revocations core.RevocationStorage
	cache       core.RevocationCache // optional, can be nil if caching is disabled
	now         func() time.Time
}

func NewSessionManager(tokens TokenCodec, accounts core.AccountStorage, revocations core.RevocationStorage, cache core.RevocationCache) *SessionManager {
	return &SessionManager{
		tokens:      tokens,
		accounts:    accounts,
		revocations: revocations,
		cache:       cache,
		now:         time.Now,
	}
}

// Create issues a token bound to accountID
func (sm *SessionManager) Create(accountID string) (*core.IssuedToken, error) {
	tok, err := sm.tokens.Issue(accountID)
	if err != nil {
		return nil, oops.Code("SESSION_ISSUE_FAILED").With("account_id", accountID).Wrap(err)
	}

	return &core.IssuedToken{
		AccountID: accountID,
		TokenID:   tok.Claims.ID,
		Token:     tok.Value,
		IssuedAt:  tok.Claims.IssuedAt.Time,
		ExpiresAt: tok.Claims.ExpiresAt.Time,
	}, nil
}

// Validate verifies token and resolves it to the account it was issued for.
// It performs no writes.
func (sm *SessionManager) Validate(ctx context.Context, token string) (core.Principal, error) {
	if token == "" {
		return core.Principal{}, core.ErrMissingToken
	}

	claims, err := sm.tokens.Parse(token)
	if err != nil {
		return core.Principal{}, fmt.Errorf("%w: %v", core.ErrInvalidToken, err)
	}

	revoked, err := sm.isRevoked(ctx, claims.ID, claims.ExpiresAt.Time)
	if err != nil {
		return core.Principal{}, oops.Code("SESSION_REVOCATION_LOOKUP_FAILED").With("token_id", claims.ID).Wrap(err)
	}
	if revoked {
		return core.Principal{}, core.ErrSessionRevoked
	}

	if _, err := sm.accounts.GetAccountByID(ctx, claims.AccountID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Principal{}, core.ErrSessionAccount
		}
		return core.Principal{}, oops.Code("SESSION_ACCOUNT_LOOKUP_FAILED").With("account_id", claims.AccountID).Wrap(err)
	}

	return core.Principal{
		AccountID: claims.AccountID,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (sm *SessionManager) isRevoked(ctx context.Context, tokenID string, expiresAt time.Time) (bool, error) {
	// Try cache first if caching is enabled
	if sm.cache != nil {
		if _, ok := sm.cache.Get(tokenID); ok {
			return true, nil
		}
	}

	revoked, err := sm.revocations.IsTokenRevoked(ctx, tokenID)
	if err != nil {
		return false, err
	}

	if revoked && sm.cache != nil {
		sm.cache.Set(tokenID, struct{}{}, expiresAt)
	}
	return revoked, nil
}

// Revoke denies the principal's token for the rest of its lifetime
func (sm *SessionManager) Revoke(ctx context.Context, p core.Principal) error {
	if p.TokenID == "" {
		return core.ErrInvalidToken
	}

	if err := sm.revocations.RevokeToken(ctx, p.TokenID, p.AccountID, p.ExpiresAt); err != nil {
		return oops.Code("SESSION_REVOKE_FAILED").With("token_id", p.TokenID).Wrap(err)
	}

	if sm.cache != nil {
		sm.cache.Set(p.TokenID, struct{}{}, p.ExpiresAt)
	}

	return nil
}

// PurgeExpired drops revocation entries whose tokens have expired anyway
func (sm *SessionManager) PurgeExpired(ctx context.Context) (int64, error) {
	now := sm.now()

	if sm.cache != nil {
		sm.cache.Purge(now)
	}

	n, err := sm.revocations.DeleteExpiredRevocations(ctx, now)
	if err != nil {
		return 0, oops.Code("SESSION_PURGE_FAILED").Wrap(err)
	}
	return n, nil
}

// RunJanitor purges expired revocations every interval until ctx is done.
func (sm *SessionManager) RunJanitor(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sm.PurgeExpired(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.WarnContext(ctx, "revocation purge failed", "error", err)
				continue
			}
			if n > 0 {
				logger.DebugContext(ctx, "purged expired revocations", "count", n)
			}
		}
	}
}
