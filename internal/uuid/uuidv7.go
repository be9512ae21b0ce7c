// Package uuid generates the identifiers used as primary keys.
package uuid

import (
	googleuuid "github.com/google/uuid"
)

// New returns a UUIDv7 string. Values produced by one process are strictly
// increasing, so ordering rows by id reproduces their insertion order.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		// Entropy failure; fall back to a random (unordered) v4 id.
		return googleuuid.NewString()
	}
	return id.String()
}

// IsValid checks if a string is a UUID in canonical hyphenated form.
func IsValid(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := googleuuid.Parse(s)
	return err == nil
}
