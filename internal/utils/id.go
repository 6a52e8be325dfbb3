package utils

import (
	"github.com/google/uuid"
)

// NewRandomID returns a fresh unique identifier.
func NewRandomID() string {
	return uuid.NewString()
}

// NewKey returns a fresh opaque external-facing handle (job / task keys).
// Dashes are stripped so keys survive being path segments & cookie names.
func NewKey() string {
	id := uuid.New()
	out := make([]byte, 0, 32)
	for _, b := range id {
		out = append(out, hexDigits[b>>4], hexDigits[b&0xf])
	}
	return string(out)
}

const hexDigits = "0123456789abcdef"

// IsValidID reports whether the given string parses as an ID we issue.
func IsValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
