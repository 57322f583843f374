package solution

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/vitiscan/treatment-plan/internal/entity"
	"github.com/vitiscan/treatment-plan/internal/pkg/logger"
	"github.com/vitiscan/treatment-plan/internal/pkg/response"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	usecase SolutionUsecase
}

func NewHandler(usecase SolutionUsecase) *Handler {
	return &Handler{usecase: usecase}
}

// CreateSolution handles POST /solutions
func (h *Handler) CreateSolution(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "CreateSolution")

	debug, err := parseDebug(r)
	if err != nil {
		h.respondError(ctx, w, http.StatusUnprocessableEntity, "debug must be a boolean", err)
		return
	}

	var req entity.SolutionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	ctxzap.Info(ctx, "generating treatment plan",
		zap.String("cnn_label", req.CNNLabel),
		zap.String("mode", req.Mode),
		zap.String("severity", req.Severity),
		zap.Bool("debug", debug),
	)

	plan, err := h.usecase.GenerateTreatmentAdvice(ctx, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, entity.SolutionResponse{Data: toSolutionDTO(plan, debug)})
}

// GetSolution handles GET /solutions/{plan_id}
func (h *Handler) GetSolution(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GetSolution")

	debug, err := parseDebug(r)
	if err != nil {
		h.respondError(ctx, w, http.StatusUnprocessableEntity, "debug must be a boolean", err)
		return
	}

	plan, err := h.usecase.GetPlan(ctx, chi.URLParam(r, "plan_id"))
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, entity.SolutionResponse{Data: toSolutionDTO(plan, debug)})
}

// ExportSolution handles GET /solutions/{plan_id}/export?format=
func (h *Handler) ExportSolution(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ExportSolution")

	exported, err := h.usecase.ExportPlan(ctx, chi.URLParam(r, "plan_id"), r.URL.Query().Get("format"))
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Attachment(w, exported.ContentType, exported.Filename, exported.Data)
}

func parseDebug(r *http.Request) (bool, error) {
	raw := r.URL.Query().Get("debug")
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		ctxzap.Error(ctx, message, zap.Error(err))
	} else {
		ctxzap.Error(ctx, message)
	}

	detail := ""
	if err != nil && status < http.StatusInternalServerError {
		detail = err.Error()
	}
	response.ErrorWithDetail(w, status, message, detail)
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrMissingField), errors.Is(err, entity.ErrInvalidParameter):
		h.respondError(ctx, w, http.StatusUnprocessableEntity, "validation failed", err)
	case errors.Is(err, entity.ErrInvalidFormat), errors.Is(err, entity.ErrUnsupportedFormat):
		h.respondError(ctx, w, http.StatusBadRequest, "invalid parameter", err)
	case errors.Is(err, entity.ErrPlanNotFound):
		h.respondError(ctx, w, http.StatusNotFound, "resource not found", err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
