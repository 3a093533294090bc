package core

import (
	"errors"
	"fmt"
	"strings"
)

// Taxonomy. Every error returned by a service is, or wraps, one of these.
var (
	ErrValidation      = errors.New("request validation failed") // 400 Bad Request
	ErrUnauthenticated = errors.New("authentication required")   // 401 Unauthorized
	ErrUnauthorized    = errors.New("password does not match")   // 401 Unauthorized
	ErrNotFound        = errors.New("resource not found")        // 404 Not Found
	ErrConflict        = errors.New("resource already exists")   // 409 Conflict
	ErrInternal        = errors.New("internal server error")     // 500 Internal Server Error
)

// Account errors
var (
	ErrEmailTaken         = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrAccountNotFound    = fmt.Errorf("%w: account does not exist", ErrNotFound)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthenticated)
)

// Resource errors
var (
	ErrCharacterNotFound = fmt.Errorf("%w: character does not exist", ErrNotFound)
	ErrItemNotFound      = fmt.Errorf("%w: item does not exist", ErrNotFound)
	ErrNotOwner          = fmt.Errorf("%w: resource is owned by another account", ErrNotFound)
)

// Session errors. These never reach a response body verbatim; the HTTP
// boundary reports all of them as ErrUnauthenticated.
var (
	ErrMissingToken      = fmt.Errorf("%w: missing session token", ErrUnauthenticated)
	ErrInvalidAuthHeader = fmt.Errorf("%w: expected 'Bearer <token>'", ErrUnauthenticated)
	ErrInvalidToken      = fmt.Errorf("%w: invalid session token", ErrUnauthenticated)
	ErrSessionRevoked    = fmt.Errorf("%w: session revoked", ErrUnauthenticated)
	ErrSessionAccount    = fmt.Errorf("%w: session account no longer exists", ErrUnauthenticated)
)

// Config errors (server-side configuration)
var (
	ErrStorageRequired     = errors.New("storage adapter is required") // 500
	ErrHTTPAdapterRequired = errors.New("http adapter is required")    // 500
	ErrSecretRequired      = errors.New("secret is required")          // 500
	ErrSecretTooShort      = errors.New("secret too short")            // 500
)

// Violation is one field-level validation failure.
type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError reports every violation found in a payload.
type ValidationError struct {
	Violations []Violation
}

func NewValidationError(violations ...Violation) *ValidationError {
	return &ValidationError{Violations: violations}
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return ErrValidation.Error()
	}

	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		if v.Field == "" {
			parts = append(parts, v.Message)
			continue
		}
		parts = append(parts, v.Field+": "+v.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
