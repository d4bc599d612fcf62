package domain

import "strings"

// Algorithm names a public-key algorithm. It is deliberately an open string:
// policies may name algorithms (e.g. "dsa", "md5") that no provider implements
// so that such requests can be denied with a reason rather than rejected as
// unparseable.
type Algorithm string

// Algorithms with a key-pair generator in this repository.
const (
	AlgorithmRSA   Algorithm = "rsa"
	AlgorithmECDSA Algorithm = "ecdsa"
)

// NormalizeAlgorithm lower-cases and trims an algorithm name.
func NormalizeAlgorithm(s string) Algorithm {
	return Algorithm(strings.ToLower(strings.TrimSpace(s)))
}

func (a Algorithm) String() string {
	return string(a)
}

// OperationRequest is a fully populated issuance request. It is a value type;
// nothing downstream mutates it.
type OperationRequest struct {
	Kind         OperationKind `json:"operation"`
	SubjectName  string        `json:"common_name"`
	Algorithm    Algorithm     `json:"algorithm"`
	KeySizeBits  int           `json:"key_size"`
	ValidityDays int           `json:"validity_days"`
}

// NewOperationRequest builds a request with a normalized algorithm name and a
// trimmed subject.
func NewOperationRequest(kind OperationKind, subject, algorithm string, keySizeBits, validityDays int) OperationRequest {
	return OperationRequest{
		Kind:         kind,
		SubjectName:  strings.TrimSpace(subject),
		Algorithm:    NormalizeAlgorithm(algorithm),
		KeySizeBits:  keySizeBits,
		ValidityDays: validityDays,
	}
}
