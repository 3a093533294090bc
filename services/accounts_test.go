package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lborres/guildhall/core"
)

func TestAccountService_Me(t *testing.T) {
	env := newTestEnv(t)
	p := env.signUpAndIn(t, "a@x.com", "abc123")

	me, err := env.accounts.Me(context.Background(), p)

	require.NoError(t, err)
	assert.Equal(t, p.AccountID, me.AccountID)
	assert.Equal(t, "Tester", me.Profile.Name)
	assert.Equal(t, 30, me.Profile.Age)
}

func TestAccountService_UpdateProfile(t *testing.T) {
	tests := []struct {
		name    string
		target  func(self, other core.Principal) string
		update  core.ProfileUpdate
		wantErr error
		wantAge int
	}{
		{
			name:    "own profile",
			target:  func(self, _ core.Principal) string { return self.AccountID },
			update:  core.ProfileUpdate{Age: ptr(41)},
			wantAge: 41,
		},
		{
			name:    "someone else's profile",
			target:  func(_, other core.Principal) string { return other.AccountID },
			update:  core.ProfileUpdate{Age: ptr(41)},
			wantErr: core.ErrNotFound,
		},
		{
			name:    "malformed id",
			target:  func(core.Principal, core.Principal) string { return "me" },
			update:  core.ProfileUpdate{Name: ptr("X")},
			wantErr: core.ErrAccountNotFound,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			env := newTestEnv(t)
			ctx := context.Background()
			self := env.signUpAndIn(t, "a@x.com", "abc123")
			other := env.signUpAndIn(t, "b@x.com", "abc123")

			// Act
			profile, err := env.accounts.UpdateProfile(ctx, self, test.target(self, other), test.update)

			// Assert
			if test.wantErr != nil {
				assert.ErrorIs(t, err, test.wantErr)
				theirs, getErr := env.storage.GetAccountDetails(ctx, other.AccountID)
				require.NoError(t, getErr)
				assert.Equal(t, 30, theirs.Profile.Age)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.wantAge, profile.Age)
			assert.Equal(t, "Tester", profile.Name)
		})
	}
}

// Requirement: deleting an account cascades to everything it owns and
// leaves other accounts alone.
func TestAccountService_Delete_Cascades(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.signUpAndIn(t, "a@x.com", "abc123")
	bob := env.signUpAndIn(t, "b@x.com", "abc123")
	_, err := env.characters.Create(ctx, alice, core.CharacterInput{Name: "Rogue"})
	require.NoError(t, err)
	_, err = env.items.Create(ctx, alice, core.ItemInput{Name: "Sword", HP: 1, Power: 1, Price: 1})
	require.NoError(t, err)
	kept, err := env.characters.Create(ctx, bob, core.CharacterInput{Name: "Mage"})
	require.NoError(t, err)

	// Act
	err = env.accounts.Delete(ctx, alice, alice.AccountID, "abc123")

	// Assert
	require.NoError(t, err)
	cs, err := env.characters.List(ctx)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, kept.ID, cs[0].ID)
	items, err := env.items.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = env.auth.SignIn(ctx, core.SignInInput{Email: "a@x.com", Password: "abc123"})
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)
}

func TestAccountService_Delete_OtherAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.signUpAndIn(t, "a@x.com", "abc123")
	bob := env.signUpAndIn(t, "b@x.com", "abc123")
	verifies := env.hasher.Verifies()

	err := env.accounts.Delete(ctx, alice, bob.AccountID, "abc123")

	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Equal(t, verifies, env.hasher.Verifies())
	_, err = env.storage.GetAccountByID(ctx, bob.AccountID)
	assert.NoError(t, err)
}
