// Package capability resolves operation names to the providers that perform
// them. The orchestrator only ever talks to the Registry; it never knows which
// backend (native Go crypto or the openssl binary) did the work.
package capability

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// Operation names understood by the issuance pipelines.
const (
	OpGenerateKeyRSA   = "generate_key_rsa"
	OpGenerateKeyECDSA = "generate_key_ecdsa"
	OpCreateCSR        = "create_csr"
	OpSelfSignCert     = "self_sign_cert"
)

// Parameter and result keys. These are the wire names used between steps: a
// step's result keys become the next step's parameter keys.
const (
	ParamKeySize        = "key_size"
	ParamOutputName     = "output_name"
	ParamAlgorithm      = "algorithm"
	ParamPrivateKeyPath = "private_key_path"
	ParamPublicKeyPath  = "public_key_path"
	ParamCommonName     = "common_name"
	ParamSubject        = "subject"
	ParamCSRPath        = "csr_path"
	ParamValidityDays   = "validity_days"
	ParamCertPath       = "cert_path"
	ParamSerialNumber   = "serial_number"
	ParamNotAfter       = "not_after"
)

// GenerateKeyOperation returns the key-pair operation name for an algorithm.
func GenerateKeyOperation(algorithm string) string {
	return "generate_key_" + algorithm
}

// Provider is implemented by every capability backend.
type Provider interface {
	// Name identifies the provider in logs, metrics and errors.
	Name() string

	// Operations lists every operation name the provider performs. The
	// registry uses it to reject duplicate claims at registration time.
	Operations() []string

	// CanHandle reports whether the provider performs op.
	CanHandle(op string) bool

	// Execute performs op. Failures are returned as *ProviderError.
	Execute(ctx context.Context, op string, params Params) (Result, error)
}

// Params is the input of a single capability invocation.
type Params map[string]any

// Result is the output of a single capability invocation.
type Result map[string]any

// String returns the string stored under key.
func (p Params) String(key string) (string, error) {
	return stringValue(p, key)
}

// Int returns the integer stored under key. Whole floats are accepted because
// JSON-decoded params carry numbers as float64.
func (p Params) Int(key string) (int, error) {
	return intValue(p, key)
}

// Clone returns a shallow copy.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// String returns the string stored under key.
func (r Result) String(key string) (string, error) {
	return stringValue(r, key)
}

// Int returns the integer stored under key.
func (r Result) Int(key string) (int, error) {
	return intValue(r, key)
}

// Clone returns a shallow copy.
func (r Result) Clone() Result {
	out := make(Result, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func stringValue(m map[string]any, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", fmt.Errorf("%s is not set", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %T", key, v)
	}
	return s, nil
}

func intValue(m map[string]any, key string) (int, error) {
	v, ok := m[key]
	if !ok {
		return 0, fmt.Errorf("%s is not set", key)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%s must be a whole number, got %v", key, n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("%s must be an integer, got %T", key, v)
	}
}

// RequireParams checks that every key is present and non-empty before a
// provider does any work. All missing keys are reported together.
func RequireParams(provider, op string, params Params, keys ...string) error {
	var missing []string
	for _, k := range keys {
		v, ok := params[k]
		if !ok || v == nil {
			missing = append(missing, k)
			continue
		}
		if s, isString := v.(string); isString && s == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return NewMissingParameterError(provider, op, missing)
	}
	return nil
}

// IsDNSName reports whether name can be carried as a DNS subjectAltName:
// ASCII letters, digits, '-', '_', '.' and a leading "*." wildcard only.
// Other common names stay in the subject CN alone.
func IsDNSName(name string) bool {
	name = strings.TrimPrefix(name, "*.")
	if name == "" || len(name) > 253 {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}
