package core

import (
	"context"
	"time"
)

// Ports define interfaces for external dependencies

// ============================================
// STORAGE PORTS (Database operations)
// ============================================

// AccountStorage defines account and profile database operations
type AccountStorage interface {
	// CreateAccount inserts the account and its profile atomically.
	// A duplicate email fails with ErrEmailTaken and writes nothing.
	CreateAccount(ctx context.Context, a *Account, p *Profile) error
	GetAccountByID(ctx context.Context, id string) (*Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)
	GetAccountDetails(ctx context.Context, id string) (*AccountDetails, error)
	UpdateProfile(ctx context.Context, accountID string, u ProfileUpdate) (*Profile, error)
	UpdatePasswordHash(ctx context.Context, accountID, hash string) error
	// DeleteAccount removes the account if it exists, cascading to its
	// profile and owned resources. Nothing removed is ErrAccountNotFound.
	DeleteAccount(ctx context.Context, id string) error
}

// CharacterStorage defines character database operations.
// Mutations are conditional on both id and owner.
type CharacterStorage interface {
	CreateCharacter(ctx context.Context, c *Character) error
	GetCharacter(ctx context.Context, id string) (*Character, error)
	ListCharacters(ctx context.Context) ([]*Character, error)
	RenameCharacter(ctx context.Context, id, ownerID, name string) (*Character, error)
	DeleteCharacter(ctx context.Context, id, ownerID string) error
}

// ItemStorage defines item database operations.
// Mutations are conditional on both id and owner.
type ItemStorage interface {
	CreateItem(ctx context.Context, i *Item) error
	GetItem(ctx context.Context, id string) (*Item, error)
	ListItems(ctx context.Context) ([]*Item, error)
	UpdateItem(ctx context.Context, id, ownerID string, u ItemUpdate) (*Item, error)
	DeleteItem(ctx context.Context, id, ownerID string) error
}

// RevocationStorage persists revoked token ids until they expire
type RevocationStorage interface {
	RevokeToken(ctx context.Context, tokenID, accountID string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
	DeleteExpiredRevocations(ctx context.Context, now time.Time) (int64, error)
}

type StorageAdapter interface {
	AccountStorage
	CharacterStorage
	ItemStorage
	RevocationStorage
	Ping(ctx context.Context) error
}

// ============================================
// CACHE PORT
// ============================================

// RevocationCache fronts RevocationStorage for tokens revoked by this process
type RevocationCache interface {
	Get(tokenID string) (struct{}, bool)
	Set(tokenID string, v struct{}, expiresAt time.Time)
	Purge(now time.Time) int
}

// ============================================
// CRYPTO PORT
// ============================================

// PasswordHasher hashes and verifies account passwords.
// Verify returns (false, nil) on mismatch and an error only on failure.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
	NeedsUpgrade(hash string) bool
}

// ============================================
// HANDLER PORTS (for HTTP adapters)
// ============================================

// AuthHandler provides authentication operations for HTTP adapters
type AuthHandler interface {
	SignUp(ctx context.Context, input SignUpInput) (*AccountDetails, error)
	SignIn(ctx context.Context, input SignInInput) (*IssuedToken, error)
	SignOut(ctx context.Context, p Principal) error
	Authenticate(ctx context.Context, token string) (Principal, error)
}

// AccountHandler serves the caller's own account
type AccountHandler interface {
	Me(ctx context.Context, p Principal) (*AccountDetails, error)
	UpdateProfile(ctx context.Context, p Principal, id string, u ProfileUpdate) (*Profile, error)
	Delete(ctx context.Context, p Principal, id, password string) error
}

type CharacterHandler interface {
	Create(ctx context.Context, p Principal, in CharacterInput) (*Character, error)
	List(ctx context.Context) ([]*Character, error)
	Get(ctx context.Context, id string) (*Character, error)
	Rename(ctx context.Context, p Principal, id string, in CharacterInput) (*Character, error)
	Delete(ctx context.Context, p Principal, id, password string) error
}

type ItemHandler interface {
	Create(ctx context.Context, p Principal, in ItemInput) (*Item, error)
	List(ctx context.Context) ([]*Item, error)
	Get(ctx context.Context, id string) (*Item, error)
	Update(ctx context.Context, p Principal, id string, u ItemUpdate) (*Item, error)
	Delete(ctx context.Context, p Principal, id, password string) error
}
