package repository

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/vitiscan/treatment-plan/internal/entity"
)

var _ PlanRepository = &PlanMemory{}

// PlanMemory keeps plans in process for the retention period. It is used
// when no database is configured.
type PlanMemory struct {
	plans *cache.Cache
}

func NewPlanMemory(retention time.Duration) *PlanMemory {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &PlanMemory{plans: cache.New(retention, retention/2)}
}

// Save stores a serialized copy so later mutations of plan are not visible.
func (r *PlanMemory) Save(_ context.Context, plan *entity.TreatmentAdvice) error {
	payload, err := marshalPlan(plan)
	if err != nil {
		return err
	}
	r.plans.SetDefault(plan.ID, payload)
	return nil
}

func (r *PlanMemory) Get(_ context.Context, id string) (*entity.TreatmentAdvice, error) {
	v, ok := r.plans.Get(id)
	if !ok {
		return nil, entity.ErrPlanNotFound
	}
	return unmarshalPlan(v.([]byte))
}
