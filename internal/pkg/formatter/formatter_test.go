package formatter

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitiscan/treatment-plan/internal/entity"
)

func ptr(v float64) *float64 { return &v }

func samplePlan() *entity.TreatmentAdvice {
	return &entity.TreatmentAdvice{
		ID: "0b9d1f3e-6c1a-4f55-9a51-1c7f6f0d2a10",
		Context: entity.TreatmentContext{
			CNNLabel:    "plasmopara_viticola",
			DiseaseKey:  "plasmopara_viticola",
			DiseaseName: "Downy Mildew",
			Mode:        entity.FarmingModeOrganic,
			Severity:    entity.SeverityModerate,
			AreaM2:      10000,
			DateISO:     "2025-06-12",
			Season:      entity.SeasonSummer,
		},
		Advice: entity.StructuredAdvice{
			Diagnostic:        "Active downy mildew on young leaves.",
			TreatmentActions:  []string{"Apply copper before rain"},
			PreventiveActions: []string{"Thin the canopy"},
			Warnings:          []string{"These recommendations are indicative only."},
		},
		Dosage: &entity.Dosage{
			AreaM2:                   10000,
			DoseLHa:                  ptr(2),
			VolumeBouillieLHa:        200,
			EstimatedProductLForArea: ptr(2.2),
			EstimatedVolumeLForArea:  220,
			TreatmentProduct:         []string{"Product type: Copper / biocontrol"},
			Configured:               true,
		},
		Fragments:   2,
		GeneratedAt: time.Date(2025, 6, 12, 8, 30, 0, 0, time.UTC),
	}
}

func TestPlanDocument(t *testing.T) {
	t.Run("Should lay out every plan section", func(t *testing.T) {
		doc := PlanDocument(samplePlan())

		headings := make([]string, 0, len(doc.Sections))
		for _, s := range doc.Sections {
			headings = append(headings, s.Heading)
		}
		assert.Equal(t, []string{
			"Situation", "Diagnostic", "Dosage", "Treatment actions", "Preventive actions", "Warnings",
		}, headings)
		assert.Contains(t, doc.Sections[0].Bullets, "Disease: Downy Mildew (plasmopara_viticola)")
		assert.Contains(t, doc.Sections[0].Bullets, "Area: 10000 m²")
		assert.Contains(t, doc.Sections[2].Bullets, "Dose: 2 L/ha")
		assert.Contains(t, doc.Sections[2].Bullets, "Estimated product for the area: 2.2 L")
		assert.Contains(t, doc.Footer, "2025-06-12T08:30:00Z")
	})

	t.Run("Should show the dosage note when no rule applies", func(t *testing.T) {
		plan := samplePlan()
		plan.Dosage = nil
		plan.DosageNote = "No dosage rule available for this disease/mode/severity combination."

		s := PlanDocument(plan).Sections[2]
		assert.Empty(t, s.Bullets)
		assert.Equal(t, []string{plan.DosageNote}, s.Paragraphs)
	})
}

func TestMarkdownFormatter(t *testing.T) {
	t.Run("Should render headings and bullets and skip empty sections", func(t *testing.T) {
		plan := samplePlan()
		plan.Advice.PreventiveActions = []string{}

		out, err := NewMarkdownFormatter().Format(PlanDocument(plan))
		require.NoError(t, err)

		text := string(out)
		assert.Contains(t, text, "# Vineyard treatment plan\n")
		assert.Contains(t, text, "## Diagnostic\n\nActive downy mildew on young leaves.\n")
		assert.Contains(t, text, "- Apply copper before rain\n")
		assert.NotContains(t, text, "## Preventive actions")
	})
}

func TestPDFFormatter(t *testing.T) {
	t.Run("Should produce a PDF document", func(t *testing.T) {
		out, err := NewPDFFormatter().Format(PlanDocument(samplePlan()))
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	})
}

func TestFactory(t *testing.T) {
	f := NewFactory()

	t.Run("Should pick the formatter per format", func(t *testing.T) {
		for format, ext := range map[entity.ResultFormat]string{
			entity.FormatMarkdown: ".md",
			entity.FormatPDF:      ".pdf",
			entity.FormatDOCX:     ".docx",
		} {
			fm, err := f.Create(format)
			require.NoError(t, err)
			assert.Equal(t, ext, fm.FileExtension())
			assert.NotEmpty(t, fm.ContentType())
		}
	})

	t.Run("Should reject unknown formats", func(t *testing.T) {
		_, err := f.Create("odt")
		assert.ErrorIs(t, err, entity.ErrUnsupportedFormat)
	})
}
