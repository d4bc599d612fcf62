package policy

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	pstrings "certgate/pkg/platform/strings"
)

// ruleSetYAML is the on-disk shape of the policy document. Pointers
// distinguish a missing key from an explicitly empty value.
type ruleSetYAML struct {
	AllowedAlgorithms   []string        `yaml:"allowed_algorithms"`
	ForbiddenAlgorithms []string        `yaml:"forbidden_algorithms"`
	MinimumKeySizes     *map[string]int `yaml:"minimum_key_sizes"`
	MaximumValidityDays *int            `yaml:"maximum_validity_days"`
}

// RuleSet is the loaded, validated policy. It is read-only after load and safe
// to share between goroutines without synchronization.
type RuleSet struct {
	allowed             []string
	allowedSet          map[string]struct{}
	forbidden           []string
	forbiddenSet        map[string]struct{}
	minimumKeySizes     map[string]int
	maximumValidityDays int
}

// LoadRuleSetFromFile reads and validates a YAML policy document.
func LoadRuleSetFromFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Source: path, Reason: "failed to read policy file", Err: err}
	}
	return LoadRuleSetFromBytes(data, path)
}

// LoadRuleSetFromBytes parses and validates a YAML policy document. source is
// only used to label errors.
func LoadRuleSetFromBytes(data []byte, source string) (*RuleSet, error) {
	var doc ruleSetYAML
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ConfigError{Source: source, Reason: "policy document is empty"}
		}
		return nil, &ConfigError{Source: source, Reason: "failed to parse YAML", Err: err}
	}
	return fromYAML(&doc, source)
}

func fromYAML(doc *ruleSetYAML, source string) (*RuleSet, error) {
	allowed := pstrings.NormalizeLower(doc.AllowedAlgorithms)
	if len(allowed) == 0 {
		return nil, fieldError(source, "allowed_algorithms", "must list at least one algorithm")
	}
	forbidden := pstrings.NormalizeLower(doc.ForbiddenAlgorithms)

	if doc.MinimumKeySizes == nil {
		return nil, fieldError(source, "minimum_key_sizes", "is required")
	}
	minimums := make(map[string]int, len(*doc.MinimumKeySizes))
	for alg, bits := range *doc.MinimumKeySizes {
		norm := pstrings.NormalizeLower([]string{alg})
		if len(norm) == 0 {
			return nil, fieldError(source, "minimum_key_sizes", "contains an empty algorithm name")
		}
		if bits <= 0 {
			return nil, fieldError(source, "minimum_key_sizes", fmt.Sprintf("%s must be positive, got %d", alg, bits))
		}
		if _, dup := minimums[norm[0]]; dup {
			return nil, fieldError(source, "minimum_key_sizes", fmt.Sprintf("duplicate entry for %s", norm[0]))
		}
		minimums[norm[0]] = bits
	}

	if doc.MaximumValidityDays == nil {
		return nil, fieldError(source, "maximum_validity_days", "is required")
	}
	if *doc.MaximumValidityDays <= 0 {
		return nil, fieldError(source, "maximum_validity_days", fmt.Sprintf("must be positive, got %d", *doc.MaximumValidityDays))
	}

	return &RuleSet{
		allowed:             allowed,
		allowedSet:          pstrings.Set(allowed),
		forbidden:           forbidden,
		forbiddenSet:        pstrings.Set(forbidden),
		minimumKeySizes:     minimums,
		maximumValidityDays: *doc.MaximumValidityDays,
	}, nil
}

// AllowedAlgorithms returns the allowed algorithms in document order.
func (r *RuleSet) AllowedAlgorithms() []string {
	return append([]string{}, r.allowed...)
}

// ForbiddenAlgorithms returns the forbidden algorithms in document order.
func (r *RuleSet) ForbiddenAlgorithms() []string {
	return append([]string{}, r.forbidden...)
}

// MinimumKeySize returns the configured minimum for alg, if any.
func (r *RuleSet) MinimumKeySize(alg string) (int, bool) {
	bits, ok := r.minimumKeySizes[alg]
	return bits, ok
}

// MaximumValidityDays returns the validity ceiling.
func (r *RuleSet) MaximumValidityDays() int {
	return r.maximumValidityDays
}

func (r *RuleSet) isAllowed(alg string) bool {
	_, ok := r.allowedSet[alg]
	return ok
}

func (r *RuleSet) isForbidden(alg string) bool {
	_, ok := r.forbiddenSet[alg]
	return ok
}
