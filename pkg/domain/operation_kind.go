package domain

import (
	"fmt"
	"strings"
)

// OperationKind identifies which issuance workflow a request asks for.
// Invariant: the value must be one of the supported kinds.
//
// Usage: construct via ParseOperationKind at trust boundaries; direct casting
// bypasses validation and yields an unsupported-kind failure downstream.
type OperationKind string

// Supported operation kinds.
const (
	KindCertificateIssuance OperationKind = "certificate_issuance"
	KindKeyGeneration       OperationKind = "key_generation"
)

// validOperationKinds is the single source of truth for valid kinds.
var validOperationKinds = map[OperationKind]bool{
	KindCertificateIssuance: true,
	KindKeyGeneration:       true,
}

// ParseOperationKind constructs an OperationKind from external input.
// An empty string defaults to certificate issuance.
func ParseOperationKind(s string) (OperationKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return KindCertificateIssuance, nil
	}
	k := OperationKind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("unsupported operation kind %q", s)
	}
	return k, nil
}

// IsValid checks if the kind is one of the supported enum values.
func (k OperationKind) IsValid() bool {
	return validOperationKinds[k]
}

func (k OperationKind) String() string {
	return string(k)
}
