package audit

import (
	"time"

	"certgate/pkg/domain"
)

// Status is the terminal outcome recorded for a request. The values are the
// wire values of the audit log.
type Status string

const (
	StatusDenied  Status = "DENIED"
	StatusSuccess Status = "SUCCESS"
	StatusError   Status = "ERROR"
)

// Operation names written to the audit log, one per operation kind.
const (
	OperationCertificateGeneration = "certificate_generation"
	OperationKeyGeneration         = "key_generation"
)

// OperationFor maps an operation kind to its audit operation name. Unknown
// kinds are recorded verbatim.
func OperationFor(kind domain.OperationKind) string {
	switch kind {
	case domain.KindCertificateIssuance:
		return OperationCertificateGeneration
	case domain.KindKeyGeneration:
		return OperationKeyGeneration
	default:
		return string(kind)
	}
}

// Result is one of Denied{violations}, Success{artifacts} or
// Error{message, failed step}, discriminated by Status.
type Result struct {
	Status     Status            `json:"status"`
	Reason     string            `json:"reason,omitempty"`
	Violations []string          `json:"violations,omitempty"`
	Artifacts  map[string]string `json:"artifacts,omitempty"`
	Error      string            `json:"error,omitempty"`
	FailedStep string            `json:"failed_step,omitempty"`
}

// DeniedResult records a policy denial.
func DeniedResult(violations []string) Result {
	return Result{
		Status:     StatusDenied,
		Reason:     "Policy violations",
		Violations: append([]string{}, violations...),
	}
}

// SuccessResult records the artifacts of a completed pipeline.
func SuccessResult(artifacts map[string]string) Result {
	copied := make(map[string]string, len(artifacts))
	for k, v := range artifacts {
		copied[k] = v
	}
	return Result{Status: StatusSuccess, Artifacts: copied}
}

// ErrorResult records a pipeline that stopped at failedStep. Artifacts
// produced before the failure are kept so operators can find them.
func ErrorResult(message, failedStep string, artifacts map[string]string) Result {
	r := Result{Status: StatusError, Error: message, FailedStep: failedStep}
	if len(artifacts) > 0 {
		r.Artifacts = make(map[string]string, len(artifacts))
		for k, v := range artifacts {
			r.Artifacts[k] = v
		}
	}
	return r
}

// StepSummary names an executed step and how it ended.
type StepSummary struct {
	Operation string `json:"operation"`
	Status    string `json:"status"` // "ok" or "failed"
}

// Record is one audit log entry. Exactly one is written per request that
// reached the orchestrator; records are never mutated after append.
type Record struct {
	Timestamp   time.Time               `json:"timestamp"`
	RequestID   string                  `json:"request_id"`
	Actor       string                  `json:"actor"`
	Operation   string                  `json:"operation"`
	Request     domain.OperationRequest `json:"request"`
	PolicyCheck *domain.Verdict         `json:"policy_check"`
	Result      Result                  `json:"result"`
	Steps       []StepSummary           `json:"steps"`
}

// Clone returns a copy of r that shares no slices, maps or pointers with it.
func (r Record) Clone() Record {
	c := r
	if r.PolicyCheck != nil {
		v := r.PolicyCheck.Clone()
		c.PolicyCheck = &v
	}
	if r.Result.Violations != nil {
		c.Result.Violations = append([]string{}, r.Result.Violations...)
	}
	if r.Result.Artifacts != nil {
		c.Result.Artifacts = make(map[string]string, len(r.Result.Artifacts))
		for k, v := range r.Result.Artifacts {
			c.Result.Artifacts[k] = v
		}
	}
	if r.Steps != nil {
		c.Steps = append([]StepSummary{}, r.Steps...)
	}
	return c
}
