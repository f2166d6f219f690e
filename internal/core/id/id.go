// Package id provides identifiers for lifecycle-managed records and audit entries.
// All identifiers are UUIDv7, so sorting by id follows creation order.
package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID is the identifier type shared by entities and audit entries.
type ID = uuid.UUID

// New returns a fresh UUIDv7.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source is broken.
		return uuid.New()
	}
	return v
}

// Parse converts a string to ID. Surrounding whitespace is ignored
// and the nil UUID is rejected.
func Parse(s string) (ID, error) {
	v, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, err
	}
	if v == uuid.Nil {
		return uuid.Nil, fmt.Errorf("nil id is not allowed")
	}
	return v, nil
}

// MustParse is Parse that panics. Tests and constants only.
func MustParse(s string) ID {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// IsNil reports whether v is the zero UUID.
func IsNil(v ID) bool {
	return v == uuid.Nil
}
