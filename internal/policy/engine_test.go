package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certgate/pkg/domain"
)

const scenarioPolicy = `
allowed_algorithms: [rsa]
minimum_key_sizes:
  rsa: 2048
maximum_validity_days: 825
`

func newEngine(t *testing.T, doc string) *Engine {
	t.Helper()
	rules, err := LoadRuleSetFromBytes([]byte(doc), "test")
	require.NoError(t, err)
	eng, err := NewEngine(rules)
	require.NoError(t, err)
	return eng
}

func issuance(alg string, keySize, validity int) domain.OperationRequest {
	return domain.NewOperationRequest(domain.KindCertificateIssuance, "api.example.com", alg, keySize, validity)
}

func TestNewEngine_RequiresRules(t *testing.T) {
	_, err := NewEngine(nil)
	assert.Error(t, err)
}

func TestValidate_MinimumKeySizeApprovesWithOneWarning(t *testing.T) {
	eng := newEngine(t, scenarioPolicy)

	v := eng.Validate(issuance("rsa", 2048, 365))

	assert.True(t, v.Approved)
	assert.Empty(t, v.Violations)
	require.Len(t, v.Warnings, 1)
	assert.Contains(t, v.Warnings[0], "minimum key size")
}

func TestValidate_BelowMinimumIsDenied(t *testing.T) {
	eng := newEngine(t, scenarioPolicy)

	v := eng.Validate(issuance("rsa", 1024, 365))

	assert.False(t, v.Approved)
	assert.Equal(t, []string{"RSA key size must be ≥2048 bits, got 1024"}, v.Violations)
	assert.Empty(t, v.Warnings)
}

func TestValidate_AboveMinimumHasNoWarning(t *testing.T) {
	eng := newEngine(t, scenarioPolicy)

	v := eng.Validate(issuance("rsa", 4096, 365))

	assert.True(t, v.Approved)
	assert.Empty(t, v.Warnings)
}

func TestValidate_ValidityCeiling(t *testing.T) {
	eng := newEngine(t, scenarioPolicy)

	t.Run("equal to maximum is allowed", func(t *testing.T) {
		v := eng.Validate(issuance("rsa", 3072, 825))
		assert.True(t, v.Approved)
	})

	t.Run("above maximum is a violation", func(t *testing.T) {
		v := eng.Validate(issuance("rsa", 3072, 826))
		assert.False(t, v.Approved)
		assert.Equal(t, []string{"Validity period (826 days) exceeds maximum (825 days)"}, v.Violations)
	})
}

func TestValidate_NotAllowedAndForbiddenReportsBoth(t *testing.T) {
	eng := newEngine(t, `
allowed_algorithms: [rsa]
forbidden_algorithms: [dsa]
minimum_key_sizes: {rsa: 2048}
maximum_validity_days: 825
`)

	v := eng.Validate(issuance("dsa", 2048, 365))

	assert.False(t, v.Approved)
	require.Len(t, v.Violations, 2)
	assert.Equal(t, "Algorithm 'dsa' not in allowed list: [rsa]", v.Violations[0])
	assert.Equal(t, "Algorithm 'dsa' is explicitly forbidden", v.Violations[1])
}

func TestValidate_CollectsAllViolationsInCheckOrder(t *testing.T) {
	eng := newEngine(t, `
allowed_algorithms: [ecdsa]
forbidden_algorithms: [rsa]
minimum_key_sizes: {rsa: 2048}
maximum_validity_days: 90
`)

	v := eng.Validate(issuance("RSA", 1024, 365))

	require.Len(t, v.Violations, 4)
	assert.Contains(t, v.Violations[0], "not in allowed list")
	assert.Contains(t, v.Violations[1], "key size must be")
	assert.Contains(t, v.Violations[2], "Validity period")
	assert.Contains(t, v.Violations[3], "explicitly forbidden")
}

func TestValidate_ForbiddenIsNeverApproved(t *testing.T) {
	// The forbidden algorithm is also allowed and has a minimum, so only the
	// forbidden check can deny it.
	eng := newEngine(t, `
allowed_algorithms: [rsa, ecdsa]
forbidden_algorithms: [ecdsa]
minimum_key_sizes: {ecdsa: 256}
maximum_validity_days: 825
`)

	for _, keySize := range []int{0, 255, 256, 384, 521, 4096} {
		for _, validity := range []int{0, 1, 365, 825, 826} {
			v := eng.Validate(issuance("ecdsa", keySize, validity))
			assert.False(t, v.Approved, "key_size=%d validity=%d", keySize, validity)
			assert.Contains(t, v.Violations, "Algorithm 'ecdsa' is explicitly forbidden")
		}
	}
}

func TestValidate_IsPure(t *testing.T) {
	eng := newEngine(t, scenarioPolicy)
	req := issuance("rsa", 2048, 365)

	first := eng.Validate(req)
	first.Warnings[0] = "mutated"
	second := eng.Validate(req)

	assert.Contains(t, second.Warnings[0], "minimum key size")
	assert.Equal(t, []string{"rsa"}, eng.Rules().AllowedAlgorithms())
}
