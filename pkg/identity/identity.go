package identity

import "github.com/google/uuid"

// New returns a fresh random version-4 UUID, e.g.
// "9b2f63a4-1f0e-4c5d-8a6b-3e1d2c4b5a69".
func New() string { return uuid.NewString() }

// Valid reports whether s is a canonical version-4 UUID with the RFC 4122
// variant bits set.
func Valid(s string) bool {
	if len(s) != 36 {
		return false
	}

	id, err := uuid.Parse(s)
	if err != nil {
		return false
	}

	return id.Version() == 4 && id.Variant() == uuid.RFC4122
}
