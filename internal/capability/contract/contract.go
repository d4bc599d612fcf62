// Package contract holds the checks every capability backend must pass.
// Backend test files call Suite.Run with their own provider.
package contract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certgate/internal/capability"
)

// Case executes one operation with working params and validates the result.
type Case struct {
	Name         string
	Operation    string
	Params       func(t *testing.T) capability.Params
	ExpectedKeys []string
	ValidateFunc func(t *testing.T, result capability.Result)
}

// Suite is the contract for a single provider.
type Suite struct {
	Provider capability.Provider
	Cases    []Case
}

// Run executes the declaration, missing-parameter and per-case checks.
func (s *Suite) Run(t *testing.T) {
	t.Helper()
	p := s.Provider
	require.NotNil(t, p)

	t.Run("declares operations", func(t *testing.T) {
		assert.NotEmpty(t, p.Name())
		require.NotEmpty(t, p.Operations())
	})

	t.Run("CanHandle matches Operations", func(t *testing.T) {
		for _, op := range p.Operations() {
			assert.True(t, p.CanHandle(op), "declared operation %s not handled", op)
		}
		assert.False(t, p.CanHandle("no_such_operation"))
	})

	t.Run("registers cleanly", func(t *testing.T) {
		reg := capability.NewRegistry()
		require.NoError(t, reg.Register(p))
		assert.Equal(t, p.Operations(), reg.Operations())
	})

	t.Run("empty params report missing parameters", func(t *testing.T) {
		for _, op := range p.Operations() {
			_, err := p.Execute(context.Background(), op, capability.Params{})
			require.Error(t, err, op)

			var pe *capability.ProviderError
			require.True(t, errors.As(err, &pe), "%s: expected ProviderError, got %T", op, err)
			assert.Equal(t, capability.ErrorMissingParameter, pe.Category, op)
			assert.NotEmpty(t, pe.Missing, op)
			assert.Equal(t, op, pe.Operation)
		}
	})

	for _, c := range s.Cases {
		t.Run(c.Name, func(t *testing.T) {
			result, err := p.Execute(context.Background(), c.Operation, c.Params(t))
			require.NoError(t, err)
			for _, key := range c.ExpectedKeys {
				assert.Contains(t, result, key)
			}
			if c.ValidateFunc != nil {
				c.ValidateFunc(t, result)
			}
		})
	}
}
