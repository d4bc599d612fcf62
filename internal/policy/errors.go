package policy

import "fmt"

// ConfigError reports a malformed or incomplete rule-set document. It is only
// ever returned at load time; a request is never evaluated against a partially
// loaded policy.
type ConfigError struct {
	Source string // file path or "embedded"
	Field  string // YAML key, empty when the document itself is unreadable
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := "policy config " + e.Source
	if e.Field != "" {
		msg += ": " + e.Field
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func fieldError(source, field, reason string) *ConfigError {
	return &ConfigError{Source: source, Field: field, Reason: reason}
}
