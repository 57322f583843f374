package solution

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitiscan/treatment-plan/internal/entity"
	"github.com/vitiscan/treatment-plan/internal/usecase/treatment"
)

const planID = "2f1b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d"

type fakeUsecase struct {
	plan     *entity.TreatmentAdvice
	err      error
	exported *treatment.ExportedPlan
	requests []*entity.SolutionRequest
	format   string
}

func (f *fakeUsecase) GenerateTreatmentAdvice(_ context.Context, req *entity.SolutionRequest) (*entity.TreatmentAdvice, error) {
	f.requests = append(f.requests, req)
	return f.plan, f.err
}

func (f *fakeUsecase) GetPlan(_ context.Context, id string) (*entity.TreatmentAdvice, error) {
	if f.err != nil {
		return nil, f.err
	}
	if id != f.plan.ID {
		return nil, entity.ErrPlanNotFound
	}
	return f.plan, nil
}

func (f *fakeUsecase) ExportPlan(_ context.Context, _ string, format string) (*treatment.ExportedPlan, error) {
	f.format = format
	return f.exported, f.err
}

func samplePlan() *entity.TreatmentAdvice {
	return &entity.TreatmentAdvice{
		ID: planID,
		Context: entity.TreatmentContext{
			CNNLabel:    "esca",
			DiseaseKey:  "phaeomoniella_chlamydospora",
			DiseaseName: "Esca",
			Mode:        entity.FarmingModeOrganic,
			Severity:    entity.SeverityLow,
			AreaM2:      500,
			Season:      entity.SeasonUnknown,
		},
		Advice:      entity.EmptyAdvice("Trunk disease, no curative spray."),
		DosageNote:  "No dosage rule available for this disease/mode/severity combination.",
		Fragments:   0,
		RawLLMText:  `{"diagnostic":"Trunk disease, no curative spray."}`,
		GeneratedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newRouter(uc *fakeUsecase) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(uc), func(next http.Handler) http.Handler { return next })
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const validBody = `{"cnn_label":"esca","mode":"organic","severity":"low","area_m2":500}`

func TestCreateSolution(t *testing.T) {
	t.Run("Should wrap the plan in data and hide the raw output", func(t *testing.T) {
		uc := &fakeUsecase{plan: samplePlan()}
		rec := do(t, newRouter(uc), http.MethodPost, "/solutions", validBody)

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

		data := body["data"]
		assert.Equal(t, planID, data["id"])
		assert.Equal(t, "esca", data["cnn_label"])
		assert.Equal(t, "Esca", data["disease_name"])
		assert.Equal(t, "unknown", data["season"])
		assert.Equal(t, []any{}, data["treatment_actions"])
		assert.Equal(t, map[string]any{
			"note": "No dosage rule available for this disease/mode/severity combination.",
		}, data["treatment_plan"])
		assert.NotContains(t, data, "raw_llm_output")

		require.Len(t, uc.requests, 1)
		require.NotNil(t, uc.requests[0].AreaM2)
		assert.Equal(t, 500.0, *uc.requests[0].AreaM2)
	})

	t.Run("Should include the raw output in debug mode", func(t *testing.T) {
		uc := &fakeUsecase{plan: samplePlan()}
		rec := do(t, newRouter(uc), http.MethodPost, "/solutions?debug=true", validBody)

		require.Equal(t, http.StatusOK, rec.Code)
		var body entity.SolutionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.NotNil(t, body.Data.RawLLMOutput)
		assert.Equal(t, `{"diagnostic":"Trunk disease, no curative spray."}`, *body.Data.RawLLMOutput)
	})

	t.Run("Should render the dosage when configured", func(t *testing.T) {
		plan := samplePlan()
		dose := 2.0
		plan.Dosage = &entity.Dosage{AreaM2: 500, DoseLHa: &dose, VolumeBouillieLHa: 200, Configured: true}
		rec := do(t, newRouter(&fakeUsecase{plan: plan}), http.MethodPost, "/solutions", validBody)

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		tp := body["data"]["treatment_plan"].(map[string]any)
		assert.Equal(t, 2.0, tp["dose_l_ha"])
		assert.Equal(t, true, tp["configured"])
	})

	t.Run("Should answer 400 for malformed JSON", func(t *testing.T) {
		uc := &fakeUsecase{plan: samplePlan()}
		rec := do(t, newRouter(uc), http.MethodPost, "/solutions", `{"cnn_label":`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, uc.requests)
	})

	t.Run("Should answer 422 for validation failures", func(t *testing.T) {
		uc := &fakeUsecase{err: fmt.Errorf("%w: mode", entity.ErrInvalidParameter)}
		rec := do(t, newRouter(uc), http.MethodPost, "/solutions", validBody)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		var body entity.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "validation failed", body.Message)
		assert.Contains(t, body.Detail, "mode")
	})

	t.Run("Should answer 422 for a non boolean debug flag", func(t *testing.T) {
		rec := do(t, newRouter(&fakeUsecase{plan: samplePlan()}), http.MethodPost, "/solutions?debug=maybe", validBody)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("Should hide internal error details", func(t *testing.T) {
		uc := &fakeUsecase{err: errors.New("template exploded")}
		rec := do(t, newRouter(uc), http.MethodPost, "/solutions", validBody)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "template exploded")
	})
}

func TestGetSolution(t *testing.T) {
	t.Run("Should return a stored plan", func(t *testing.T) {
		rec := do(t, newRouter(&fakeUsecase{plan: samplePlan()}), http.MethodGet, "/solutions/"+planID, "")

		require.Equal(t, http.StatusOK, rec.Code)
		var body entity.SolutionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, planID, body.Data.ID)
		assert.Nil(t, body.Data.RawLLMOutput)
	})

	t.Run("Should answer 404 for unknown plans", func(t *testing.T) {
		rec := do(t, newRouter(&fakeUsecase{plan: samplePlan()}), http.MethodGet,
			"/solutions/7c9e6679-7425-40de-944b-e07fc1f90ae7", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Should answer 400 for malformed IDs", func(t *testing.T) {
		uc := &fakeUsecase{plan: samplePlan(), err: fmt.Errorf("%w: plan id", entity.ErrInvalidFormat)}
		rec := do(t, newRouter(uc), http.MethodGet, "/solutions/abc", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestExportSolution(t *testing.T) {
	t.Run("Should send the document as an attachment", func(t *testing.T) {
		uc := &fakeUsecase{exported: &treatment.ExportedPlan{
			Data:        []byte("# Vineyard treatment plan\n"),
			ContentType: "text/markdown; charset=utf-8",
			Filename:    "treatment-plan-" + planID + ".md",
		}}
		rec := do(t, newRouter(uc), http.MethodGet, "/solutions/"+planID+"/export?format=markdown", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "markdown", uc.format)
		assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "treatment-plan-"+planID+".md")
		assert.Equal(t, "# Vineyard treatment plan\n", rec.Body.String())
	})

	t.Run("Should answer 400 for unsupported formats", func(t *testing.T) {
		uc := &fakeUsecase{err: fmt.Errorf("%w: odt", entity.ErrUnsupportedFormat)}
		rec := do(t, newRouter(uc), http.MethodGet, "/solutions/"+planID+"/export?format=odt", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
