package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vitiscan/treatment-plan/internal/entity"
)

// DBInterface is the subset of pgxpool.Pool used by the repositories;
// pgxmock pools satisfy it too.
type DBInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ PlanRepository = &PlanPostgres{}

// PlanPostgres stores plans in the treatment_plans table as JSONB.
type PlanPostgres struct {
	db DBInterface
}

func NewPlanPostgres(db DBInterface) *PlanPostgres {
	return &PlanPostgres{db: db}
}

const insertPlanSQL = `INSERT INTO treatment_plans
	(id, cnn_label, disease_key, farming_mode, severity, payload, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

const selectPlanSQL = `SELECT payload FROM treatment_plans WHERE id = $1`

func (r *PlanPostgres) Save(ctx context.Context, plan *entity.TreatmentAdvice) error {
	planID, err := uuid.Parse(plan.ID)
	if err != nil {
		return fmt.Errorf("parse plan ID: %w", err)
	}

	payload, err := marshalPlan(plan)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, insertPlanSQL,
		planID,
		plan.Context.CNNLabel,
		plan.Context.DiseaseKey,
		string(plan.Context.Mode),
		string(plan.Context.Severity),
		payload,
		plan.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}

	return nil
}

func (r *PlanPostgres) Get(ctx context.Context, id string) (*entity.TreatmentAdvice, error) {
	planID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: plan ID %q", entity.ErrInvalidFormat, id)
	}

	var payload []byte
	if err := r.db.QueryRow(ctx, selectPlanSQL, planID).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrPlanNotFound
		}
		return nil, fmt.Errorf("get plan: %w", err)
	}

	return unmarshalPlan(payload)
}
