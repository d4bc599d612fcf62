// Package ports declares what the orchestrator needs from its collaborators
// so it never depends on a concrete policy engine, registry or audit store.
package ports

import (
	"context"

	"certgate/internal/audit"
	"certgate/internal/capability"
	"certgate/pkg/domain"
)

// PolicyEvaluator decides whether a request may proceed.
type PolicyEvaluator interface {
	Validate(req domain.OperationRequest) domain.Verdict
}

// CapabilityInvoker runs a named operation.
type CapabilityInvoker interface {
	Invoke(ctx context.Context, op string, params capability.Params) (capability.Result, error)
}

// AuditTrail records exactly one entry per processed request.
type AuditTrail interface {
	Append(ctx context.Context, rec audit.Record) error
}
