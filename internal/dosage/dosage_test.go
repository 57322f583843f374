package dosage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitiscan/treatment-plan/internal/entity"
)

func TestCompute_Standard(t *testing.T) {
	cases := []struct {
		name        string
		disease     string
		mode        entity.FarmingMode
		area        float64
		severity    entity.Severity
		wantDose    float64
		wantProduct float64
		wantVolume  float64
	}{
		{"downy mildew conventional one hectare", "plasmopara_viticola", entity.FarmingModeConventional, 10_000, entity.SeverityModerate, 1.6, 1.76, 275},
		{"high severity multiplier", "plasmopara_viticola", entity.FarmingModeConventional, 10_000, entity.SeverityHigh, 2.24, 2.46, 275},
		{"low severity half hectare organic", "erysiphe_necator", entity.FarmingModeOrganic, 5_000, entity.SeverityLow, 4.5, 2.48, 137.5},
		{"unknown severity counts as moderate", "guignardia_bidwellii", entity.FarmingModeOrganic, 2_000, "extreme", 2.5, 0.55, 66},
		{"alias label and mixed case mode", "black_rot.md", "Organic", 2_000, entity.SeverityModerate, 2.5, 0.55, 66},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Compute(tc.disease, tc.mode, tc.area, tc.severity)

			require.NotNil(t, got)
			require.NotNil(t, got.DoseLHa)
			require.NotNil(t, got.EstimatedProductLForArea)
			assert.True(t, got.Configured)
			assert.Equal(t, tc.area, got.AreaM2)
			assert.InDelta(t, tc.wantDose, *got.DoseLHa, 1e-9)
			assert.InDelta(t, tc.wantProduct, *got.EstimatedProductLForArea, 1e-9)
			assert.InDelta(t, tc.wantVolume, got.EstimatedVolumeLForArea, 1e-9)
			assert.NotEmpty(t, got.TreatmentProduct)
			assert.Empty(t, got.Note)
		})
	}
}

func TestCompute_Healthy(t *testing.T) {
	got := Compute("healthy", entity.FarmingModeConventional, 1_000, entity.SeverityHigh)

	require.NotNil(t, got)
	assert.True(t, got.Configured)
	assert.Equal(t, NoteNoTreatment, got.Note)
	require.NotNil(t, got.DoseLHa)
	assert.Zero(t, *got.DoseLHa)
	assert.Zero(t, got.EstimatedVolumeLForArea)
	assert.Empty(t, got.TreatmentProduct)
}

func TestCompute_NoDoseConfigured(t *testing.T) {
	got := Compute("esca", entity.FarmingModeOrganic, 10_000, entity.SeverityModerate)

	require.NotNil(t, got)
	assert.False(t, got.Configured)
	assert.Nil(t, got.DoseLHa)
	assert.Nil(t, got.EstimatedProductLForArea)
	assert.InDelta(t, 220.0, got.EstimatedVolumeLForArea, 1e-9)
	assert.Equal(t, NoteNoDose, got.Note)
	assert.Contains(t, got.TreatmentProduct, "Strategy: Prophylaxis")
}

func TestCompute_Unconfigured(t *testing.T) {
	assert.Nil(t, Compute("botrytis_cinerea", entity.FarmingModeOrganic, 100, entity.SeverityLow))
	assert.Nil(t, Compute("plasmopara_viticola", "biodynamic", 100, entity.SeverityLow))
	assert.Nil(t, Compute("", entity.FarmingModeOrganic, 100, entity.SeverityLow))
}

func TestProductBullets(t *testing.T) {
	p, ok := Product("plasmopara_viticola", entity.FarmingModeOrganic)
	require.True(t, ok)

	bullets := ProductBullets(p)

	assert.Equal(t, []string{
		"Product type: Copper / biocontrol",
		"Examples: Copper (copper hydroxide / Bordeaux mixture), Phosphonates (subject to local regulations), Natural defense stimulators (NDS)",
		"Indicative unit: kg/ha",
		"Strategy: Preventive",
		"Note: Copper is mainly preventive: target risk periods (leaf wetness). Respect annual regulatory limits.",
	}, bullets)

	assert.Empty(t, ProductBullets(entity.TreatmentProduct{}))
}
