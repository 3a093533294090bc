package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lborres/guildhall/core"
	"github.com/lborres/guildhall/pkg/cache"
	"github.com/lborres/guildhall/pkg/crypto"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testEnv struct {
	storage    *FakeStorageProvider
	hasher     *FakeHasher
	codec      *crypto.TokenCodec
	cache      *cache.Memory[string, struct{}]
	sessions   *SessionManager
	auth       *AuthService
	guard      *Guard
	accounts   *AccountService
	characters *CharacterService
	items      *ItemService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	storage := NewFakeStorageProvider()
	hasher := &FakeHasher{}
	codec, err := crypto.NewTokenCodec(testSecret, time.Hour)
	require.NoError(t, err)
	revoked := cache.NewMemory[string, struct{}](cache.Config{MaxSize: 100})

	sessions := NewSessionManager(codec, storage, storage, revoked)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	guard := NewGuard(storage, hasher)

	return &testEnv{
		storage:    storage,
		hasher:     hasher,
		codec:      codec,
		cache:      revoked,
		sessions:   sessions,
		auth:       NewAuthService(storage, hasher, sessions, logger),
		guard:      guard,
		accounts:   NewAccountService(storage, guard),
		characters: NewCharacterService(storage, guard),
		items:      NewItemService(storage, guard),
	}
}

// signUpAndIn registers email with password and returns the caller's principal.
func (e *testEnv) signUpAndIn(t *testing.T, email, password string) core.Principal {
	t.Helper()
	ctx := context.Background()

	_, err := e.auth.SignUp(ctx, core.SignUpInput{Email: email, Password: password, Name: "Tester", Age: 30})
	require.NoError(t, err)

	tok, err := e.auth.SignIn(ctx, core.SignInInput{Email: email, Password: password})
	require.NoError(t, err)

	p, err := e.auth.Authenticate(ctx, tok.Token)
	require.NoError(t, err)
	return p
}
