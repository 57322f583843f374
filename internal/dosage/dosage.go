// Package dosage computes deterministic spray volumes for a disease, farming
// mode, severity and treated area.
package dosage

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vitiscan/treatment-plan/internal/entity"
	"github.com/vitiscan/treatment-plan/internal/pkg/label"
)

const (
	NoteNoTreatment  = "No treatment required for this disease/severity level."
	NoteNoDose       = "No dose configured for this label/mode. See treatment product recommendations."
	NoteUnconfigured = "No dosage rule available for this disease/mode/severity combination."
)

var (
	safetyFactor = decimal.NewFromFloat(1.10)
	squareMPerHa = decimal.NewFromInt(10_000)
)

// Compute returns the dosage for the given situation, or nil when no rule
// exists for the disease and mode. Unknown severities count as moderate.
func Compute(diseaseKey string, mode entity.FarmingMode, areaM2 float64, severity entity.Severity) *entity.Dosage {
	key := label.Normalize(diseaseKey)
	mode = entity.FarmingMode(strings.ToLower(strings.TrimSpace(string(mode))))

	r, ok := rules[key][mode]
	if !ok {
		return nil
	}

	area := decimal.NewFromFloat(areaM2)
	fraction := area.Div(squareMPerHa)
	volumeLHa := decimal.NewFromFloat(r.volumeBouillieLHa)
	volumeForArea := round2(volumeLHa.Mul(fraction).Mul(safetyFactor))

	if r.doseLHa != nil && *r.doseLHa == 0 && r.volumeBouillieLHa == 0 {
		zero := 0.0
		zeroProduct := 0.0
		return &entity.Dosage{
			AreaM2:                   areaM2,
			DoseLHa:                  &zero,
			VolumeBouillieLHa:        0,
			EstimatedProductLForArea: &zeroProduct,
			EstimatedVolumeLForArea:  0,
			Configured:               true,
			Note:                     NoteNoTreatment,
		}
	}

	bullets := productBullets(key, mode)

	if r.doseLHa == nil {
		return &entity.Dosage{
			AreaM2:                  areaM2,
			VolumeBouillieLHa:       r.volumeBouillieLHa,
			EstimatedVolumeLForArea: volumeForArea,
			TreatmentProduct:        bullets,
			Configured:              false,
			Note:                    NoteNoDose,
		}
	}

	doseEff := decimal.NewFromFloat(*r.doseLHa).Mul(decimal.NewFromFloat(multiplier(severity)))
	doseLHa := round2(doseEff)
	productForArea := round2(doseEff.Mul(fraction).Mul(safetyFactor))

	return &entity.Dosage{
		AreaM2:                   areaM2,
		DoseLHa:                  &doseLHa,
		VolumeBouillieLHa:        r.volumeBouillieLHa,
		EstimatedProductLForArea: &productForArea,
		EstimatedVolumeLForArea:  volumeForArea,
		TreatmentProduct:         bullets,
		Configured:               true,
	}
}

func multiplier(severity entity.Severity) float64 {
	m, ok := severityMultipliers[entity.Severity(strings.ToLower(strings.TrimSpace(string(severity))))]
	if !ok {
		return 1.0
	}
	return m
}

func productBullets(key string, mode entity.FarmingMode) []string {
	p, ok := products[key][mode]
	if !ok {
		return nil
	}
	return ProductBullets(p)
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
