package dosage

import (
	"github.com/vitiscan/treatment-plan/internal/entity"
	"github.com/vitiscan/treatment-plan/internal/pkg/label"
)

// rule is the per-hectare reference for one disease and farming mode.
// A nil dose means no standard product dose exists.
type rule struct {
	doseLHa           *float64
	volumeBouillieLHa float64
}

func dose(v float64) *float64 { return &v }

var rules = map[string]map[entity.FarmingMode]rule{
	label.PlasmoparaViticola: {
		entity.FarmingModeConventional: {doseLHa: dose(1.6), volumeBouillieLHa: 250},
		entity.FarmingModeOrganic:      {doseLHa: dose(2.8), volumeBouillieLHa: 300},
	},
	label.ErysipheNecator: {
		entity.FarmingModeConventional: {doseLHa: dose(0.8), volumeBouillieLHa: 220},
		entity.FarmingModeOrganic:      {doseLHa: dose(6.0), volumeBouillieLHa: 250},
	},
	label.ColomerusVitis: {
		entity.FarmingModeConventional: {doseLHa: dose(0.9), volumeBouillieLHa: 180},
		entity.FarmingModeOrganic:      {doseLHa: dose(1.2), volumeBouillieLHa: 200},
	},
	label.ElsinoeAmpelina: {
		entity.FarmingModeConventional: {doseLHa: dose(2.0), volumeBouillieLHa: 250},
		entity.FarmingModeOrganic:      {doseLHa: dose(3.0), volumeBouillieLHa: 300},
	},
	label.GuignardiaBidwellii: {
		entity.FarmingModeConventional: {doseLHa: dose(1.5), volumeBouillieLHa: 250},
		entity.FarmingModeOrganic:      {doseLHa: dose(2.5), volumeBouillieLHa: 300},
	},
	label.PhaeomoniellaChlamydospora: {
		entity.FarmingModeConventional: {doseLHa: nil, volumeBouillieLHa: 200},
		entity.FarmingModeOrganic:      {doseLHa: nil, volumeBouillieLHa: 200},
	},
	label.Healthy: {
		entity.FarmingModeConventional: {doseLHa: dose(0), volumeBouillieLHa: 0},
		entity.FarmingModeOrganic:      {doseLHa: dose(0), volumeBouillieLHa: 0},
	},
}

var severityMultipliers = map[entity.Severity]float64{
	entity.SeverityLow:      0.75,
	entity.SeverityModerate: 1.0,
	entity.SeverityHigh:     1.4,
}
