package capability

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDNSName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"hostname", "api.example.com", true},
		{"wildcard", "*.example.com", true},
		{"underscore label", "_acme.example.com", true},
		{"unicode", "café.example", false},
		{"space", "my host", false},
		{"comma", "a.com,DNS:evil.com", false},
		{"empty", "", false},
		{"bare wildcard", "*.", false},
		{"too long", strings.Repeat("a", 254), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDNSName(tt.in))
		})
	}
}
