package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLower(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "nil slice", input: nil, expected: []string{}},
		{name: "lower-cases and trims", input: []string{" RSA ", "EcDsA"}, expected: []string{"rsa", "ecdsa"}},
		{name: "drops duplicates after folding", input: []string{"rsa", "RSA", " rsa"}, expected: []string{"rsa"}},
		{name: "drops empties", input: []string{"", "  ", "dsa"}, expected: []string{"dsa"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeLower(tt.input))
		})
	}
}

func TestSet(t *testing.T) {
	s := Set([]string{"rsa", "ecdsa"})
	assert.Len(t, s, 2)
	_, ok := s["rsa"]
	assert.True(t, ok)
}
