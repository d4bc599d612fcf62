package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"certgate/internal/audit"
	"certgate/pkg/platform/httputil"
	request "certgate/pkg/platform/middleware/request"
)

const (
	defaultAuditLimit = 10
	maxAuditLimit     = 1000
)

// AuditReader lists the most recent audit records, oldest first.
type AuditReader interface {
	Recent(ctx context.Context, limit int) ([]audit.Record, error)
}

type AuditHandler struct {
	reader AuditReader
	logger *slog.Logger
}

func NewAuditHandler(reader AuditReader, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{reader: reader, logger: logger}
}

func (h *AuditHandler) Register(r chi.Router) {
	r.Get("/audit/records", h.handleRecent)
}

func (h *AuditHandler) handleRecent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httputil.WriteError(w, http.StatusBadRequest, httputil.CodeBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxAuditLimit)
	}

	records, err := h.reader.Recent(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read audit records",
			"error", err,
			"request_id", request.GetRequestID(ctx),
		)
		httputil.WriteError(w, http.StatusInternalServerError, httputil.CodeInternal, "")
		return
	}
	if records == nil {
		records = []audit.Record{}
	}
	httputil.WriteJSON(w, http.StatusOK, AuditRecordsResponse{Records: records})
}
