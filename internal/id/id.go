// Package id generates the opaque identifiers used for accounts,
// transactions and splits.
package id

import (
	"fmt"

	"github.com/google/uuid"
)

// New returns a fresh random (v4) identifier in canonical UUID form.
func New() string {
	return uuid.NewString()
}

// Valid reports whether s is a well-formed UUID string.
func Valid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// Parse normalizes s to the canonical lower-case UUID form.
func Parse(s string) (string, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid identifier %q: %w", s, err)
	}
	return u.String(), nil
}
