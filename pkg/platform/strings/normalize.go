// Package strings provides string-set helpers shared by config loaders.
package strings

import (
	"strings"
)

// NormalizeLower trims and lower-cases every element, dropping empties and
// duplicates. Order of first occurrence is preserved.
//
// Example:
//
//	NormalizeLower([]string{" RSA ", "ecdsa", "rsa", ""})
//	// Returns: []string{"rsa", "ecdsa"}
func NormalizeLower(values []string) []string {
	result := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		n := strings.ToLower(strings.TrimSpace(v))
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		result = append(result, n)
	}
	return result
}

// Set builds a membership set from already-normalized values.
func Set(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
