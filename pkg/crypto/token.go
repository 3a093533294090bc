package crypto

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

var (
	ErrSecretTooShort = errors.New("token secret too short")
	ErrInvalidTTL     = errors.New("token ttl must be positive")
	ErrInvalidToken   = errors.New("invalid token")
)

const (
	MinSecretLength = 32 // bytes
	DefaultTokenTTL = 24 * time.Hour
)

// Claims is the signed payload of a session token.
type Claims struct {
	jwt.RegisteredClaims
	AccountID string `json:"accountId"`
}

// Token is an issued, signed session token.
type Token struct {
	Value  string
	Claims Claims
}

// TokenCodec signs and verifies HS256 session tokens.
// The secret is copied at construction and never exposed.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenCodec(secret string, ttl time.Duration) (*TokenCodec, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w - minimum of %d bytes", ErrSecretTooShort, MinSecretLength)
	}
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}

	return &TokenCodec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

func (c *TokenCodec) TTL() time.Duration { return c.ttl }

// Issue signs a token for accountID that expires after the codec's TTL.
func (c *TokenCodec) Issue(accountID string) (*Token, error) {
	if accountID == "" {
		return nil, errors.New("account id is required")
	}

	now := c.now().UTC().Truncate(time.Second)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ulid.Make().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		AccountID: accountID,
	}

	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &Token{Value: value, Claims: claims}, nil
}

// Parse verifies signature, algorithm and expiry and returns the claims.
// Segments must be canonical base64url, so no two strings carry one token.
// Every failure wraps ErrInvalidToken; callers must not surface the cause.
func (c *TokenCodec) Parse(value string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(value, claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.AccountID == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
