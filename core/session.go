package core

import "time"

// SessionConfig configures issued session credentials
type SessionConfig struct {
	// MaxAge bounds how long a token stays valid after issue.
	MaxAge time.Duration
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MaxAge: 24 * time.Hour,
	}
}

// Principal is the authenticated caller of a request.
//
// The session validator builds it once per request; handlers receive it by
// value and pass it down explicitly. It is never mutated after construction.
type Principal struct {
	AccountID string
	TokenID   string
	ExpiresAt time.Time
}

// Owns reports whether the principal is the owner recorded on a resource.
func (p Principal) Owns(ownerID string) bool {
	return p.AccountID != "" && p.AccountID == ownerID
}

// IssuedToken is a freshly minted session credential.
type IssuedToken struct {
	AccountID string
	TokenID   string
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
