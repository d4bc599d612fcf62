package httptransport

import (
	"errors"
	"fmt"
	"time"

	"certgate/internal/audit"
	"certgate/internal/issuance"
	"certgate/pkg/domain"
)

// MaxBatchSize bounds the number of requests in one batch call.
const MaxBatchSize = 100

// IssuanceRequest is the JSON body of POST /v1/issuance.
type IssuanceRequest struct {
	Kind         string `json:"kind"`
	SubjectName  string `json:"subject_name"`
	Algorithm    string `json:"algorithm"`
	KeySizeBits  int    `json:"key_size_bits"`
	ValidityDays int    `json:"validity_days"`
}

// ToDomain validates the shape of the request. Policy decisions are left to
// the policy engine; only structurally unusable input is rejected here.
func (r IssuanceRequest) ToDomain() (domain.OperationRequest, error) {
	kind, err := domain.ParseOperationKind(r.Kind)
	if err != nil {
		return domain.OperationRequest{}, err
	}
	req := domain.NewOperationRequest(kind, r.SubjectName, r.Algorithm, r.KeySizeBits, r.ValidityDays)
	if req.SubjectName == "" {
		return domain.OperationRequest{}, errors.New("subject_name is required")
	}
	if req.KeySizeBits < 0 {
		return domain.OperationRequest{}, errors.New("key_size_bits must not be negative")
	}
	if req.ValidityDays < 0 {
		return domain.OperationRequest{}, errors.New("validity_days must not be negative")
	}
	return req, nil
}

// BatchRequest is the JSON body of POST /v1/issuance/batch.
type BatchRequest struct {
	Requests []IssuanceRequest `json:"requests"`
}

// ToDomain validates every item and reports the first bad index.
func (b BatchRequest) ToDomain() ([]domain.OperationRequest, error) {
	if len(b.Requests) == 0 {
		return nil, errors.New("requests must not be empty")
	}
	if len(b.Requests) > MaxBatchSize {
		return nil, fmt.Errorf("at most %d requests per batch", MaxBatchSize)
	}
	out := make([]domain.OperationRequest, len(b.Requests))
	for i, item := range b.Requests {
		req, err := item.ToDomain()
		if err != nil {
			return nil, fmt.Errorf("requests[%d]: %w", i, err)
		}
		out[i] = req
	}
	return out, nil
}

// StepResponse summarizes one executed step.
type StepResponse struct {
	Operation  string    `json:"operation"`
	Succeeded  bool      `json:"succeeded"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// IssuanceResponse is the JSON view of an issuance outcome.
type IssuanceResponse struct {
	RequestID  string                  `json:"request_id"`
	State      string                  `json:"state"`
	Request    domain.OperationRequest `json:"request"`
	Verdict    *domain.Verdict         `json:"policy_check,omitempty"`
	Artifacts  map[string]string       `json:"artifacts,omitempty"`
	Steps      []StepResponse          `json:"steps"`
	Error      string                  `json:"error,omitempty"`
	FailedStep string                  `json:"failed_step,omitempty"`
}

func toIssuanceResponse(out *issuance.Outcome) IssuanceResponse {
	steps := make([]StepResponse, 0, len(out.Steps))
	for _, st := range out.Steps {
		steps = append(steps, StepResponse{
			Operation:  st.Operation,
			Succeeded:  st.Succeeded(),
			Error:      st.Error,
			StartedAt:  st.StartedAt,
			FinishedAt: st.FinishedAt,
		})
	}
	return IssuanceResponse{
		RequestID:  out.RequestID,
		State:      out.State.String(),
		Request:    out.Request,
		Verdict:    out.Verdict,
		Artifacts:  out.Artifacts,
		Steps:      steps,
		Error:      out.Error,
		FailedStep: out.FailedStep,
	}
}

// BatchResponse carries outcomes in request order.
type BatchResponse struct {
	Outcomes []IssuanceResponse `json:"outcomes"`
}

// AuditRecordsResponse is the JSON body of GET /v1/audit/records.
type AuditRecordsResponse struct {
	Records []audit.Record `json:"records"`
}
