package capability

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCategory is the normalized failure taxonomy for capability invocations.
type ErrorCategory string

const (
	// ErrorMissingParameter means required input keys were absent; no work
	// was attempted.
	ErrorMissingParameter ErrorCategory = "missing_parameter"

	// ErrorExecutionFailure means the operation itself failed.
	ErrorExecutionFailure ErrorCategory = "execution_failure"
)

// ProviderError wraps provider failures with a normalized category.
type ProviderError struct {
	Category   ErrorCategory
	Provider   string
	Operation  string
	Message    string
	Missing    []string // only for ErrorMissingParameter
	Underlying error
}

func (e *ProviderError) Error() string {
	prefix := fmt.Sprintf("provider %s [%s] %s", e.Provider, e.Category, e.Operation)
	if e.Category == ErrorMissingParameter {
		return fmt.Sprintf("%s: missing required parameter(s): %s", prefix, strings.Join(e.Missing, ", "))
	}
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// NewMissingParameterError names every missing key.
func NewMissingParameterError(provider, op string, missing []string) *ProviderError {
	return &ProviderError{
		Category:  ErrorMissingParameter,
		Provider:  provider,
		Operation: op,
		Message:   "missing required parameters",
		Missing:   append([]string{}, missing...),
	}
}

// NewExecutionError reports a failed operation.
func NewExecutionError(provider, op, message string, underlying error) *ProviderError {
	return &ProviderError{
		Category:   ErrorExecutionFailure,
		Provider:   provider,
		Operation:  op,
		Message:    message,
		Underlying: underlying,
	}
}

// GetCategory extracts the category from err. Errors that are not provider
// errors count as execution failures.
func GetCategory(err error) ErrorCategory {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ErrorExecutionFailure
}
