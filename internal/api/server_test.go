package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	solutionapi "github.com/vitiscan/treatment-plan/internal/api/solution"
	"github.com/vitiscan/treatment-plan/internal/config"
	"github.com/vitiscan/treatment-plan/internal/entity"
	"github.com/vitiscan/treatment-plan/internal/pkg/metrics"
	"github.com/vitiscan/treatment-plan/internal/usecase/treatment"
)

type notFoundUsecase struct{}

func (notFoundUsecase) GenerateTreatmentAdvice(context.Context, *entity.SolutionRequest) (*entity.TreatmentAdvice, error) {
	return nil, entity.ErrMissingField
}

func (notFoundUsecase) GetPlan(context.Context, string) (*entity.TreatmentAdvice, error) {
	return nil, entity.ErrPlanNotFound
}

func (notFoundUsecase) ExportPlan(context.Context, string, string) (*treatment.ExportedPlan, error) {
	return nil, entity.ErrPlanNotFound
}

func newTestRouter() http.Handler {
	cfg := &config.Config{RateLimitCfg: config.RateLimitConfig{Enabled: false}}
	return SetupRouter(cfg, solutionapi.NewHandler(notFoundUsecase{}), metrics.New(), zap.NewNop())
}

func TestRouter(t *testing.T) {
	router := newTestRouter()

	t.Run("Should answer the root health check", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var body entity.HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, entity.HealthResponse{Message: "Vitiscan Treatment Plan API is running", Status: "ok"}, body)
	})

	t.Run("Should answer /health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("Should route solution requests", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/solutions/7c9e6679-7425-40de-944b-e07fc1f90ae7", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Should expose request metrics", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "vitiscan_http_requests_total")
	})
}
