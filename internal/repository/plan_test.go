package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitiscan/treatment-plan/internal/entity"
)

func samplePlan() *entity.TreatmentAdvice {
	dose := 1.6
	product := 1.76
	return &entity.TreatmentAdvice{
		ID: uuid.NewString(),
		Context: entity.TreatmentContext{
			CNNLabel:    "Mildiou.md",
			DiseaseKey:  "plasmopara_viticola",
			DiseaseName: "Downy Mildew",
			Mode:        entity.FarmingModeConventional,
			Severity:    entity.SeverityModerate,
			AreaM2:      10000,
			Season:      entity.SeasonSpring,
		},
		Advice: entity.StructuredAdvice{
			Diagnostic:        "Downy mildew pressure is high.",
			TreatmentActions:  []string{"Spray before rain"},
			PreventiveActions: []string{},
			Warnings:          []string{"These recommendations are indicative only."},
		},
		Dosage: &entity.Dosage{
			AreaM2:                   10000,
			DoseLHa:                  &dose,
			VolumeBouillieLHa:        250,
			EstimatedProductLForArea: &product,
			EstimatedVolumeLForArea:  275,
			Configured:               true,
		},
		Fragments:   3,
		RawLLMText:  `{"diagnostic":"Downy mildew pressure is high."}`,
		GeneratedAt: time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestPlanPostgres_Save(t *testing.T) {
	t.Run("Should insert the plan with its JSON payload", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		plan := samplePlan()
		mockPool.ExpectExec("INSERT INTO treatment_plans").
			WithArgs(
				uuid.MustParse(plan.ID),
				"Mildiou.md",
				"plasmopara_viticola",
				"conventional",
				"moderate",
				pgxmock.AnyArg(),
				plan.GeneratedAt,
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err = NewPlanPostgres(mockPool).Save(context.Background(), plan)
		assert.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should wrap database failures", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		dbErr := errors.New("connection reset")
		mockPool.ExpectExec("INSERT INTO treatment_plans").
			WithArgs(
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			).
			WillReturnError(dbErr)

		err = NewPlanPostgres(mockPool).Save(context.Background(), samplePlan())
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should reject a malformed plan ID", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		plan := samplePlan()
		plan.ID = "not-a-uuid"
		assert.Error(t, NewPlanPostgres(mockPool).Save(context.Background(), plan))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPlanPostgres_Get(t *testing.T) {
	t.Run("Should load the stored payload", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		plan := samplePlan()
		payload, err := marshalPlan(plan)
		require.NoError(t, err)

		rows := mockPool.NewRows([]string{"payload"}).AddRow(payload)
		mockPool.ExpectQuery("SELECT payload FROM treatment_plans WHERE id = \\$1").
			WithArgs(uuid.MustParse(plan.ID)).
			WillReturnRows(rows)

		got, err := NewPlanPostgres(mockPool).Get(context.Background(), plan.ID)
		require.NoError(t, err)
		assert.Equal(t, plan, got)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should map missing rows to ErrPlanNotFound", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		id := uuid.NewString()
		mockPool.ExpectQuery("SELECT payload FROM treatment_plans").
			WithArgs(uuid.MustParse(id)).
			WillReturnError(pgx.ErrNoRows)

		_, err = NewPlanPostgres(mockPool).Get(context.Background(), id)
		assert.ErrorIs(t, err, entity.ErrPlanNotFound)
	})

	t.Run("Should reject a malformed ID without querying", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		_, err = NewPlanPostgres(mockPool).Get(context.Background(), "42")
		assert.ErrorIs(t, err, entity.ErrInvalidFormat)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPlanMemory(t *testing.T) {
	t.Run("Should return a saved plan", func(t *testing.T) {
		repo := NewPlanMemory(time.Hour)
		plan := samplePlan()
		require.NoError(t, repo.Save(context.Background(), plan))

		got, err := repo.Get(context.Background(), plan.ID)
		require.NoError(t, err)
		assert.Equal(t, plan, got)
	})

	t.Run("Should not share state with the caller", func(t *testing.T) {
		repo := NewPlanMemory(time.Hour)
		plan := samplePlan()
		require.NoError(t, repo.Save(context.Background(), plan))

		plan.Advice.Diagnostic = "changed"
		got, err := repo.Get(context.Background(), plan.ID)
		require.NoError(t, err)
		assert.Equal(t, "Downy mildew pressure is high.", got.Advice.Diagnostic)
	})

	t.Run("Should report unknown plans", func(t *testing.T) {
		_, err := NewPlanMemory(time.Hour).Get(context.Background(), uuid.NewString())
		assert.ErrorIs(t, err, entity.ErrPlanNotFound)
	})
}
