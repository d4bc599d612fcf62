package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"certgate/pkg/platform/httputil"
	request "certgate/pkg/platform/middleware/request"
)

// RouterConfig carries what NewRouter mounts. Auth and Metrics are optional:
// without Auth the /v1 routes are open, without Metrics /metrics is absent.
type RouterConfig struct {
	Issuance *IssuanceHandler
	Audit    *AuditHandler
	Auth     func(http.Handler) http.Handler
	Metrics  http.Handler
	Logger   *slog.Logger
}

// NewRouter wires all public endpoints. Handlers stay thin and delegate to
// the orchestrator.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Logger(cfg.Logger))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Route("/v1", func(v1 chi.Router) {
		if cfg.Auth != nil {
			v1.Use(cfg.Auth)
		}
		if cfg.Issuance != nil {
			cfg.Issuance.Register(v1)
		}
		if cfg.Audit != nil {
			cfg.Audit.Register(v1)
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteError(w, http.StatusNotFound, httputil.CodeNotFound, "no such route")
	})
	return r
}
