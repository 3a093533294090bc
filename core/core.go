// Package core holds the domain types, taxonomy errors and ports shared by
// services and adapters.
package core

import (
	"github.com/oklog/ulid/v2"
)

// NewID returns a new sortable identifier for accounts, resources and tokens.
func NewID() string {
	return ulid.Make().String()
}

// ValidID reports whether id could have been produced by NewID.
// Lookups skip the store for ids that fail this check.
func ValidID(id string) bool {
	_, err := ulid.ParseStrict(id)
	return err == nil
}
