package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"certgate/internal/issuance"
	"certgate/pkg/domain"
	"certgate/pkg/platform/httputil"
	request "certgate/pkg/platform/middleware/request"
)

// IssuanceService is the orchestrator as seen by the transport.
type IssuanceService interface {
	Process(ctx context.Context, req domain.OperationRequest) (*issuance.Outcome, error)
	ProcessBatch(ctx context.Context, reqs []domain.OperationRequest, concurrency int) ([]*issuance.Outcome, error)
}

type IssuanceHandler struct {
	service     IssuanceService
	concurrency int
	logger      *slog.Logger
}

func NewIssuanceHandler(service IssuanceService, concurrency int, logger *slog.Logger) *IssuanceHandler {
	return &IssuanceHandler{service: service, concurrency: concurrency, logger: logger}
}

func (h *IssuanceHandler) Register(r chi.Router) {
	r.Post("/issuance", h.handleIssue)
	r.Post("/issuance/batch", h.handleBatch)
}

// handleIssue maps the terminal state to a status: 201 succeeded, 403 denied,
// 502 failed in a provider.
func (h *IssuanceHandler) handleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var body IssuanceRequest
	if err := httputil.DecodeJSON(r, &body); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, httputil.CodeBadRequest, err.Error())
		return
	}
	req, err := body.ToDomain()
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, httputil.CodeBadRequest, err.Error())
		return
	}

	out, err := h.service.Process(ctx, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "issuance processing failed",
			"error", err,
			"request_id", request.GetRequestID(ctx),
		)
		httputil.WriteError(w, http.StatusInternalServerError, httputil.CodeInternal, "")
		return
	}

	httputil.WriteJSON(w, statusFor(out.State), toIssuanceResponse(out))
}

func (h *IssuanceHandler) handleBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var body BatchRequest
	if err := httputil.DecodeJSON(r, &body); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, httputil.CodeBadRequest, err.Error())
		return
	}
	reqs, err := body.ToDomain()
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, httputil.CodeBadRequest, err.Error())
		return
	}

	outs, err := h.service.ProcessBatch(ctx, reqs, h.concurrency)
	if err != nil {
		h.logger.ErrorContext(ctx, "batch processing failed",
			"error", err,
			"request_id", request.GetRequestID(ctx),
			"size", len(reqs),
		)
		httputil.WriteError(w, http.StatusInternalServerError, httputil.CodeInternal, "")
		return
	}

	resp := BatchResponse{Outcomes: make([]IssuanceResponse, 0, len(outs))}
	for _, out := range outs {
		resp.Outcomes = append(resp.Outcomes, toIssuanceResponse(out))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func statusFor(state issuance.State) int {
	switch state {
	case issuance.StateSucceeded:
		return http.StatusCreated
	case issuance.StateDenied:
		return http.StatusForbidden
	default:
		return http.StatusBadGateway
	}
}
