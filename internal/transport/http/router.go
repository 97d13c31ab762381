package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cartera/internal/platform/metrics"
	"cartera/internal/platform/middleware"
	"cartera/pkg/platform/httputil"
)

// Registerer attaches a domain's routes to the shared router. Each domain
// handler adds its own route group with its own auth and rate-limit policy.
type Registerer interface {
	Register(r chi.Router)
}

// NewRouter builds the top-level router. Platform middleware runs once here
// for every domain; handlers must not re-apply it.
func NewRouter(logger *slog.Logger, m *metrics.Metrics, handlers ...Registerer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.LatencyMiddleware(m))

	r.Get("/healthz", handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, h := range handlers {
		h.Register(r)
	}
	return r
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
