package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/vitiscan/treatment-plan/internal/api/docs"
	"github.com/vitiscan/treatment-plan/internal/api/middleware"
	solutionapi "github.com/vitiscan/treatment-plan/internal/api/solution"
	"github.com/vitiscan/treatment-plan/internal/config"
	"github.com/vitiscan/treatment-plan/internal/entity"
	"github.com/vitiscan/treatment-plan/internal/pkg/metrics"
	"github.com/vitiscan/treatment-plan/internal/pkg/response"
)

const serviceBanner = "Vitiscan Treatment Plan API is running"

// SetupRouter creates and configures the HTTP router
func SetupRouter(
	cfg *config.Config,
	solutionHandler *solutionapi.Handler,
	m *metrics.Metrics,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}

	// Middleware stack
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(m.Middleware)
	r.Use(chimiddleware.Timeout(timeout))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		response.Success(w, entity.HealthResponse{Message: serviceBanner, Status: "ok"})
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		response.Success(w, entity.HealthResponse{Status: "ok"})
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	docs.RegisterRoutes(r)

	solutionapi.RegisterRoutes(r, solutionHandler, middleware.RateLimit(cfg.RateLimitCfg))

	return r
}
