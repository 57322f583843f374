package solution

import (
	"context"

	"github.com/vitiscan/treatment-plan/internal/entity"
	"github.com/vitiscan/treatment-plan/internal/usecase/treatment"
)

type SolutionUsecase interface {
	GenerateTreatmentAdvice(ctx context.Context, req *entity.SolutionRequest) (*entity.TreatmentAdvice, error)
	GetPlan(ctx context.Context, id string) (*entity.TreatmentAdvice, error)
	ExportPlan(ctx context.Context, id, format string) (*treatment.ExportedPlan, error)
}
