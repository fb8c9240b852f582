package identity

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var v4Pattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func TestNew_UniqueAndVersion4(t *testing.T) {
	const n = 10000

	seen := make(map[string]struct{}, n)
	for range n {
		id := New()
		require.Regexp(t, v4Pattern, id)
		require.True(t, Valid(id), "generated id %q should be valid", id)

		_, dup := seen[id]
		require.False(t, dup, "duplicate id %q", id)
		seen[id] = struct{}{}
	}

	assert.Len(t, seen, n)
}

func TestValid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"v4", "9b2f63a4-1f0e-4c5d-8a6b-3e1d2c4b5a69", true},
		{"v1", "6ba7b810-9dad-11d1-80b4-00c04fd430c8", false},
		{"wrong variant", "9b2f63a4-1f0e-4c5d-cab6-3e1d2c4b5a69", false},
		{"braced", "{9b2f63a4-1f0e-4c5d-8a6b-3e1d2c4b5a69}", false},
		{"urn", "urn:uuid:9b2f63a4-1f0e-4c5d-8a6b-3e1d2c4b5a69", false},
		{"empty", "", false},
		{"garbage", "S1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid(tt.in))
		})
	}
}
