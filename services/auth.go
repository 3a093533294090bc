package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/samber/oops"

	"github.com/lborres/guildhall/core"
)

// dummyPassword is hashed once and verified against when a sign-in names
// an unknown email, so both paths pay for one hash comparison.
const dummyPassword = "guildhall-dummy-password"

type AuthService struct {
	db       core.AccountStorage
	hasher   core.PasswordHasher
	sessions *SessionManager
	logger   *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// Ensure AuthService implements AuthHandler
var _ core.AuthHandler = (*AuthService)(nil)

func NewAuthService(db core.AccountStorage, hasher core.PasswordHasher, sessions *SessionManager, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		db:       db,
		hasher:   hasher,
		sessions: sessions,
		logger:   logger,
	}
}

// SignUp registers an account and its profile in one write.
// A taken email is core.ErrEmailTaken and nothing is written.
func (s *AuthService) SignUp(ctx context.Context, input core.SignUpInput) (*core.AccountDetails, error) {
	email := core.NormalizeEmail(input.Email)

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, oops.Code("PASSWORD_HASH_FAILED").Wrap(err)
	}

	account := &core.Account{
		ID:           core.NewID(),
		Email:        email,
		PasswordHash: hash,
	}
	profile := &core.Profile{
		AccountID: account.ID,
		Name:      input.Name,
		Age:       input.Age,
	}

	if err := s.db.CreateAccount(ctx, account, profile); err != nil {
		if errors.Is(err, core.ErrConflict) {
			return nil, core.ErrEmailTaken
		}
		return nil, oops.Code("ACCOUNT_CREATE_FAILED").With("email", email).Wrap(err)
	}

	return &core.AccountDetails{
		AccountID: account.ID,
		Email:     account.Email,
		CreatedAt: account.CreatedAt,
		Profile:   *profile,
	}, nil
}

// SignIn checks the credentials and issues a session token.
// Unknown email and wrong password are the same error.
func (s *AuthService) SignIn(ctx context.Context, input core.SignInInput) (*core.IssuedToken, error) {
	email := core.NormalizeEmail(input.Email)

	account, err := s.db.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			s.burnVerify(input.Password)
			return nil, core.ErrInvalidCredentials
		}
		return nil, oops.Code("ACCOUNT_LOOKUP_FAILED").With("email", email).Wrap(err)
	}

	ok, err := s.hasher.Verify(input.Password, account.PasswordHash)
	if err != nil {
		return nil, oops.Code("PASSWORD_VERIFY_FAILED").With("account_id", account.ID).Wrap(err)
	}
	if !ok {
		return nil, core.ErrInvalidCredentials
	}

	if s.hasher.NeedsUpgrade(account.PasswordHash) {
		s.upgradeHash(ctx, account.ID, input.Password)
	}

	return s.sessions.Create(account.ID)
}

// SignOut revokes the token the principal presented
func (s *AuthService) SignOut(ctx context.Context, p core.Principal) error {
	return s.sessions.Revoke(ctx, p)
}

// Authenticate resolves a bearer token to a principal
func (s *AuthService) Authenticate(ctx context.Context, token string) (core.Principal, error) {
	return s.sessions.Validate(ctx, token)
}

// upgradeHash rehashes with the current parameters. Failure leaves the
// old hash in place, which still verifies.
func (s *AuthService) upgradeHash(ctx context.Context, accountID, password string) {
	hash, err := s.hasher.Hash(password)
	if err == nil {
		err = s.db.UpdatePasswordHash(ctx, accountID, hash)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "password rehash failed", "account_id", accountID, "error", err)
		return
	}
	s.logger.InfoContext(ctx, "password hash upgraded", "account_id", accountID)
}

func (s *AuthService) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			s.logger.Warn("dummy hash unavailable", "error", err)
			return
		}
		s.dummyHash = hash
	})
	if s.dummyHash != "" {
		_, _ = s.hasher.Verify(password, s.dummyHash)
	}
}
