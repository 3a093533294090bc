package core

import (
	"strings"
	"time"
)

// Request payloads. The jsonschema tags are the declarative validation
// rules for each endpoint; nothing reads a payload before they pass.

// SignUpInput contains the data needed to register a new account
type SignUpInput struct {
	Email    string `json:"email" jsonschema:"required,format=email,minLength=1,maxLength=50"`
	Password string `json:"password" jsonschema:"required,pattern=^[a-zA-Z0-9]+$,minLength=6,maxLength=50"`
	Name     string `json:"name" jsonschema:"required,minLength=1,maxLength=50"`
	Age      int    `json:"age" jsonschema:"required,minimum=1,maximum=150"`
}

// SignInInput contains the credentials for authentication
type SignInInput struct {
	Email    string `json:"email" jsonschema:"required,minLength=1,maxLength=50"`
	Password string `json:"password" jsonschema:"required,minLength=1,maxLength=50"`
}

// ProfileUpdate carries the profile fields to change. Nil fields are kept.
type ProfileUpdate struct {
	Name *string `json:"name,omitempty" jsonschema:"minLength=1,maxLength=50"`
	Age  *int    `json:"age,omitempty" jsonschema:"minimum=1,maximum=150"`
}

func (u ProfileUpdate) Empty() bool { return u.Name == nil && u.Age == nil }

// ReauthInput is the body of every delete request.
type ReauthInput struct {
	Password string `json:"password" jsonschema:"required,minLength=1,maxLength=50"`
}

type CharacterInput struct {
	Name string `json:"name" jsonschema:"required,minLength=1,maxLength=50"`
}

type ItemInput struct {
	Name  string `json:"name" jsonschema:"required,minLength=1,maxLength=50"`
	HP    int    `json:"hp" jsonschema:"required,minimum=0,maximum=150"`
	Power int    `json:"power" jsonschema:"required,minimum=1,maximum=150"`
	Price int    `json:"price" jsonschema:"required,minimum=1,maximum=1500"`
}

// ItemUpdate carries the item fields to change. Nil fields are kept.
type ItemUpdate struct {
	Name  *string `json:"name,omitempty" jsonschema:"minLength=1,maxLength=50"`
	HP    *int    `json:"hp,omitempty" jsonschema:"minimum=0,maximum=150"`
	Power *int    `json:"power,omitempty" jsonschema:"minimum=1,maximum=150"`
	Price *int    `json:"price,omitempty" jsonschema:"minimum=1,maximum=1500"`
}

func (u ItemUpdate) Empty() bool {
	return u.Name == nil && u.HP == nil && u.Power == nil && u.Price == nil
}

// SignInResult is returned to the client after a successful sign-in
type SignInResult struct {
	AccountID string    `json:"accountId"`
	Token     string    `json:"token"` // also set as the authorization cookie
	ExpiresAt time.Time `json:"expiresAt"`
}

// NormalizeEmail is applied before every email lookup or insert.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
