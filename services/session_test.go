package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/lborres/guildhall/core"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// Requirement: Create issues a token whose claims resolve back to the account.
func TestSessionManager_Create(t *testing.T) {
	env := newTestEnv(t)

	issued, err := env.sessions.Create("account-a")

	require.NoError(t, err)
	assert.Equal(t, "account-a", issued.AccountID)
	assert.NotEmpty(t, issued.TokenID)
	assert.Equal(t, time.Hour, issued.ExpiresAt.Sub(issued.IssuedAt))

	claims, err := env.codec.Parse(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, issued.TokenID, claims.ID)
}

func TestSessionManager_Create_RequiresAccount(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.sessions.Create("")

	assert.Error(t, err)
}

// Requirement: every failure to establish a session is Unauthenticated and
// nothing is written while validating.
func TestSessionManager_Validate(t *testing.T) {
	tests := []struct {
		name    string
		token   func(t *testing.T, env *testEnv, accountID string) string
		wantErr error
	}{
		{
			name: "valid token",
			token: func(t *testing.T, env *testEnv, accountID string) string {
				tok, err := env.codec.Issue(accountID)
				require.NoError(t, err)
				return tok.Value
			},
		},
		{
			name:    "missing token",
			token:   func(t *testing.T, env *testEnv, accountID string) string { return "" },
			wantErr: core.ErrMissingToken,
		},
		{
			name:    "garbage token",
			token:   func(t *testing.T, env *testEnv, accountID string) string { return "a.b.c" },
			wantErr: core.ErrInvalidToken,
		},
		{
			name: "token for an unknown account",
			token: func(t *testing.T, env *testEnv, accountID string) string {
				tok, err := env.codec.Issue(core.NewID())
				require.NoError(t, err)
				return tok.Value
			},
			wantErr: core.ErrSessionAccount,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			env := newTestEnv(t)
			ctx := context.Background()
			details, err := env.auth.SignUp(ctx, core.SignUpInput{Email: "a@x.com", Password: "abc123", Name: "A", Age: 20})
			require.NoError(t, err)
			token := test.token(t, env, details.AccountID)
			writes := env.storage.Writes()

			// Act
			p, err := env.sessions.Validate(ctx, token)

			// Assert
			assert.Equal(t, writes, env.storage.Writes())
			if test.wantErr != nil {
				assert.ErrorIs(t, err, test.wantErr)
				assert.ErrorIs(t, err, core.ErrUnauthenticated)
				assert.Equal(t, core.Principal{}, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, details.AccountID, p.AccountID)
			assert.NotEmpty(t, p.TokenID)
		})
	}
}

// Requirement: a token for an account deleted after issue no longer authenticates.
func TestSessionManager_Validate_DeletedAccount(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.signUpAndIn(t, "a@x.com", "abc123")
	tok, err := env.codec.Issue(p.AccountID)
	require.NoError(t, err)

	// Act
	require.NoError(t, env.accounts.Delete(ctx, p, p.AccountID, "abc123"))
	_, err = env.sessions.Validate(ctx, tok.Value)

	// Assert
	assert.ErrorIs(t, err, core.ErrSessionAccount)
	assert.ErrorIs(t, err, core.ErrUnauthenticated)
}

func TestSessionManager_Validate_Revoked(t *testing.T) {
	tests := []struct {
		name      string
		withCache bool
	}{
		{name: "revoked through this manager", withCache: true},
		{name: "revoked by another process", withCache: false},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			env := newTestEnv(t)
			ctx := context.Background()
			details, err := env.auth.SignUp(ctx, core.SignUpInput{Email: "a@x.com", Password: "abc123", Name: "A", Age: 20})
			require.NoError(t, err)
			issued, err := env.sessions.Create(details.AccountID)
			require.NoError(t, err)
			p := core.Principal{AccountID: issued.AccountID, TokenID: issued.TokenID, ExpiresAt: issued.ExpiresAt}

			if test.withCache {
				require.NoError(t, env.sessions.Revoke(ctx, p))
			} else {
				require.NoError(t, env.storage.RevokeToken(ctx, p.TokenID, p.AccountID, p.ExpiresAt))
			}

			// Act
			_, err = env.sessions.Validate(ctx, issued.Token)

			// Assert
			assert.ErrorIs(t, err, core.ErrSessionRevoked)
			_, cached := env.cache.Get(p.TokenID)
			assert.True(t, cached, "revocation should be cached after the first lookup")
		})
	}
}

// Requirement: a store outage is an internal failure, not an auth failure.
func TestSessionManager_Validate_StorageFailure(t *testing.T) {
	tests := []struct {
		name   string
		method string
	}{
		{name: "revocation lookup", method: "IsTokenRevoked"},
		{name: "account lookup", method: "GetAccountByID"},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			env := newTestEnv(t)
			tok, err := env.codec.Issue(core.NewID())
			require.NoError(t, err)
			env.storage.FailWith(test.method, errors.New("connection refused"))

			_, err = env.sessions.Validate(context.Background(), tok.Value)

			require.Error(t, err)
			assert.NotErrorIs(t, err, core.ErrUnauthenticated)
		})
	}
}

func TestSessionManager_Revoke_RequiresTokenID(t *testing.T) {
	env := newTestEnv(t)

	err := env.sessions.Revoke(context.Background(), core.Principal{AccountID: "a"})

	assert.ErrorIs(t, err, core.ErrInvalidToken)
	assert.Zero(t, env.storage.Writes())
}

func TestSessionManager_PurgeExpired(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	env.sessions.now = func() time.Time { return now }

	require.NoError(t, env.sessions.Revoke(ctx, core.Principal{AccountID: "a", TokenID: "old", ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, env.sessions.Revoke(ctx, core.Principal{AccountID: "a", TokenID: "live", ExpiresAt: now.Add(time.Hour)}))

	// Act
	n, err := env.sessions.PurgeExpired(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	revoked, err := env.storage.IsTokenRevoked(ctx, "live")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestSessionManager_PurgeExpired_StorageFailure(t *testing.T) {
	env := newTestEnv(t)
	env.storage.FailWith("DeleteExpiredRevocations", errors.New("timeout"))

	_, err := env.sessions.PurgeExpired(context.Background())

	assert.Error(t, err)
}

// Requirement: the janitor runs until its context ends and leaves no goroutine behind.
func TestSessionManager_RunJanitor(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	require.NoError(t, env.storage.RevokeToken(ctx, "old", "a", time.Now().Add(-time.Hour)))

	done := make(chan struct{})
	go func() {
		defer close(done)
		env.sessions.RunJanitor(ctx, 5*time.Millisecond, logger)
	}()

	assert.Eventually(t, func() bool {
		revoked, err := env.storage.IsTokenRevoked(context.Background(), "old")
		return err == nil && !revoked
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
