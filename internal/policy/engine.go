package policy

import (
	"errors"
	"fmt"
	"strings"

	"certgate/pkg/domain"
)

// Engine evaluates issuance requests against a loaded rule set.
type Engine struct {
	rules *RuleSet
}

// NewEngine binds an engine to a validated rule set.
func NewEngine(rules *RuleSet) (*Engine, error) {
	if rules == nil {
		return nil, errors.New("rule set is required")
	}
	return &Engine{rules: rules}, nil
}

// Rules exposes the rule set for display purposes.
func (e *Engine) Rules() *RuleSet {
	return e.rules
}

// Validate is a pure function of the request and the rule set. Every check
// runs; violations are collected in check order, never short-circuited. An
// algorithm that is both outside the allowed list and explicitly forbidden
// yields two violations, one per reason.
func (e *Engine) Validate(req domain.OperationRequest) domain.Verdict {
	var violations, warnings []string
	alg := strings.ToLower(strings.TrimSpace(string(req.Algorithm)))

	if !e.rules.isAllowed(alg) {
		violations = append(violations,
			fmt.Sprintf("Algorithm '%s' not in allowed list: %v", alg, e.rules.allowed))
	}

	if minSize, ok := e.rules.MinimumKeySize(alg); ok {
		switch {
		case req.KeySizeBits < minSize:
			violations = append(violations,
				fmt.Sprintf("%s key size must be ≥%d bits, got %d", strings.ToUpper(alg), minSize, req.KeySizeBits))
		case req.KeySizeBits == minSize:
			warnings = append(warnings,
				fmt.Sprintf("Using minimum key size %d. Consider larger for better security.", minSize))
		}
	}

	if req.ValidityDays > e.rules.maximumValidityDays {
		violations = append(violations,
			fmt.Sprintf("Validity period (%d days) exceeds maximum (%d days)", req.ValidityDays, e.rules.maximumValidityDays))
	}

	if e.rules.isForbidden(alg) {
		violations = append(violations,
			fmt.Sprintf("Algorithm '%s' is explicitly forbidden", alg))
	}

	return domain.NewVerdict(violations, warnings)
}
