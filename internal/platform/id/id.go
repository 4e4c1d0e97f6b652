// Package id generates unique identifiers for domain entities.
package id

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewID generates a URL-safe, time-ordered identifier using UUIDv7 bytes
// encoded as base32. The identifier is 26 characters long, lowercase, and
// contains no padding. Lexicographic order follows creation order.
func NewID() (string, error) {
	raw, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}

	encoded := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw[:])
	return strings.ToLower(encoded), nil
}
