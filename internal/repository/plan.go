package repository

import (
	"context"

	"github.com/vitiscan/treatment-plan/internal/entity"
)

// PlanRepository keeps an audit record of generated treatment plans.
type PlanRepository interface {
	Save(ctx context.Context, plan *entity.TreatmentAdvice) error
	Get(ctx context.Context, id string) (*entity.TreatmentAdvice, error)
}
