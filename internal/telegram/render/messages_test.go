package render

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/vitiscan/treatment-plan/internal/entity"
)

func TestPlan(t *testing.T) {
	t.Run("Should escape model text and skip empty sections", func(t *testing.T) {
		plan := &entity.TreatmentAdvice{
			ID: "plan-1",
			Context: entity.TreatmentContext{
				DiseaseKey:  "phaeomoniella_chlamydospora",
				DiseaseName: "Esca",
				Mode:        entity.FarmingModeConventional,
				Severity:    entity.SeverityHigh,
				AreaM2:      250,
				Season:      entity.SeasonUnknown,
			},
			Advice: entity.StructuredAdvice{
				Diagnostic:       "Tiger stripes & dieback",
				TreatmentActions: []string{"Remove <dead> wood"},
			},
			DosageNote: "No dosage rule configured",
		}

		text := Plan(plan)

		assert.True(t, strings.HasPrefix(text, "🍇 <b>Vineyard treatment plan</b>"))
		assert.Contains(t, text, "Tiger stripes &amp; dieback")
		assert.Contains(t, text, "• Remove &lt;dead&gt; wood")
		assert.Contains(t, text, "No dosage rule configured")
		assert.NotContains(t, text, "<b>Warnings</b>")
		assert.Contains(t, text, "/export plan-1 pdf")
	})
}

func TestTruncate(t *testing.T) {
	t.Run("Should keep short text", func(t *testing.T) {
		assert.Equal(t, "hello", Truncate("hello"))
	})

	t.Run("Should cut long text on rune boundaries", func(t *testing.T) {
		long := strings.Repeat("é", maxMessageRunes+10)

		out := Truncate(long)

		assert.Equal(t, maxMessageRunes, utf8.RuneCountInString(out))
		assert.True(t, strings.HasSuffix(out, "…"))
	})
}

func TestError(t *testing.T) {
	t.Run("Should map known errors", func(t *testing.T) {
		assert.Equal(t, ErrPlanNotFound, Error(fmt.Errorf("get plan: %w", entity.ErrPlanNotFound)))
		assert.Equal(t, ErrFormat, Error(entity.ErrUnsupportedFormat))
		assert.Equal(t, ErrInvalidPlanID, Error(entity.ErrInvalidFormat))
		assert.Contains(t, Error(fmt.Errorf("%w: area_m2", entity.ErrMissingField)), "area_m2")
	})

	t.Run("Should hide unknown errors", func(t *testing.T) {
		assert.Equal(t, ErrGeneric, Error(errors.New("connection reset")))
	})
}
