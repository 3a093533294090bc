package core

import "time"

// Account is the credential record.
//
// This is the "identity" - who someone is and how they prove it
type Account struct {
	ID           string    `json:"accountId"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Profile is the display data owned 1:1 by an Account
type Profile struct {
	AccountID string    `json:"-"`
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AccountDetails combines account and profile info
// The model returned to clients
type AccountDetails struct {
	AccountID string    `json:"accountId"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	Profile   Profile   `json:"profile"`
}

// Character is an owned resource. AccountID never changes after creation.
type Character struct {
	ID        string    `json:"characterId"`
	AccountID string    `json:"accountId"`
	Name      string    `json:"name"`
	HP        int       `json:"hp"`
	Power     int       `json:"power"`
	Money     int       `json:"money"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Starting stats for new characters
const (
	DefaultCharacterHP    = 100
	DefaultCharacterPower = 10
	DefaultCharacterMoney = 10000
)

// Item is an owned resource. AccountID never changes after creation.
type Item struct {
	ID        string    `json:"itemId"`
	AccountID string    `json:"accountId"`
	Name      string    `json:"name"`
	HP        int       `json:"hp"`
	Power     int       `json:"power"`
	Price     int       `json:"price"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
