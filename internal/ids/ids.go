// Package ids generates opaque record identifiers.
package ids

import "github.com/google/uuid"

// New returns a time-ordered UUID v7 string, falling back to a random v4.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
