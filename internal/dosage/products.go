package dosage

import (
	"strings"

	"github.com/vitiscan/treatment-plan/internal/entity"
	"github.com/vitiscan/treatment-plan/internal/pkg/label"
)

var noTreatment = entity.TreatmentProduct{
	Type:     "None",
	Strategy: "None",
	Note:     "No treatment required. Maintain regular monitoring.",
}

var products = map[string]map[entity.FarmingMode]entity.TreatmentProduct{
	label.PlasmoparaViticola: {
		entity.FarmingModeConventional: {
			Type: "Anti-downy mildew (fungicides)",
			Examples: []string{
				"CAA family (e.g. dimethomorph)",
				"QoI family (e.g. azoxystrobin)",
				"Contact products (e.g. folpet)",
			},
			DoseUnit: "kg/ha or L/ha (depending on formulation)",
			Strategy: "Preventive + reinforce after rainfall",
			Note:     "Alternate fungicide families to limit resistance. Increase frequency during repeated rainfall.",
		},
		entity.FarmingModeOrganic: {
			Type: "Copper / biocontrol",
			Examples: []string{
				"Copper (copper hydroxide / Bordeaux mixture)",
				"Phosphonates (subject to local regulations)",
				"Natural defense stimulators (NDS)",
			},
			DoseUnit: "kg/ha",
			Strategy: "Preventive",
			Note:     "Copper is mainly preventive: target risk periods (leaf wetness). Respect annual regulatory limits.",
		},
	},
	label.ErysipheNecator: {
		entity.FarmingModeConventional: {
			Type: "Anti-powdery mildew (fungicides)",
			Examples: []string{
				"Triazoles (e.g. myclobutanil / tebuconazole)",
				"Strobilurins (QoI)",
				"Sulfur (as complement if compatible)",
			},
			DoseUnit: "kg/ha or L/ha",
			Strategy: "Strict preventive",
			Note:     "Powdery mildew cannot be reversed: regularity is critical. Mandatory rotation of modes of action.",
		},
		entity.FarmingModeOrganic: {
			Type: "Sulfur / biocontrol",
			Examples: []string{
				"Wettable sulfur",
				"Potassium bicarbonate",
				"Vegetable oils (depending on conditions)",
			},
			DoseUnit: "kg/ha",
			Strategy: "Preventive",
			Note:     "Sulfur is effective but risk of phytotoxicity above 30°C. Adjust interval based on weather and disease pressure.",
		},
	},
	label.ColomerusVitis: {
		entity.FarmingModeConventional: {
			Type: "Acaricide",
			Examples: []string{
				"Abamectin (subject to authorization)",
				"Spirodiclofen (subject to authorization)",
				"Hexythiazox (subject to authorization)",
			},
			DoseUnit: "L/ha",
			Strategy: "Targeted",
			Note:     "Intervene early if outbreak detected. Avoid systematic treatments to preserve beneficial fauna.",
		},
		entity.FarmingModeOrganic: {
			Type: "Oils / soap / sulfur",
			Examples: []string{
				"Paraffinic oil (white oils)",
				"Black soap (mechanical effect)",
				"Sulfur (partial effect)",
			},
			DoseUnit: "L/ha",
			Strategy: "Pressure reduction",
			Note:     "Mainly mechanical approach: target the right stage and ensure good coverage. Repeat if necessary.",
		},
	},
	label.ElsinoeAmpelina: {
		entity.FarmingModeConventional: {
			Type: "Contact fungicide",
			Examples: []string{
				"Mancozeb (if locally authorized)",
				"Folpet",
				"Copper (depending on strategy)",
			},
			DoseUnit: "kg/ha",
			Strategy: "Preventive",
			Note:     "Intervene early on young tissues during humid periods. Reinforce after heavy rain or rapid growth.",
		},
		entity.FarmingModeOrganic: {
			Type: "Copper / biocontrol",
			Examples: []string{
				"Copper (hydroxide / Bordeaux mixture)",
				"Biocontrol (plant extracts subject to authorization)",
			},
			DoseUnit: "kg/ha",
			Strategy: "Preventive",
			Note:     "Efficacy depends on application regularity and weather (rain = washout). Improve ventilation.",
		},
	},
	label.GuignardiaBidwellii: {
		entity.FarmingModeConventional: {
			Type: "Anti-black rot (fungicides)",
			Examples: []string{
				"Dithiocarbamates (subject to regulations)",
				"Strobilurins (QoI)",
				"Contact fungicides (e.g. captan / folpet depending on availability)",
			},
			DoseUnit: "kg/ha or L/ha",
			Strategy: "Preventive + reinforce after rainfall",
			Note:     "Target risk periods (rain + heat). Ensure good bunch coverage and renew after washout.",
		},
		entity.FarmingModeOrganic: {
			Type: "Copper / biocontrol",
			Examples: []string{
				"Copper (Bordeaux mixture / hydroxide)",
				"Natural defense stimulators (NDS)",
			},
			DoseUnit: "kg/ha",
			Strategy: "Preventive",
			Note:     "Mainly preventive protection. Reinforce prophylaxis (ventilation, removal of infected debris).",
		},
	},
	label.PhaeomoniellaChlamydospora: {
		entity.FarmingModeConventional: {
			Type: "No direct curative treatment",
			Examples: []string{
				"Sanitary pruning / trunk surgery (depending on practice)",
				"Replacement of severely affected vines",
			},
			Strategy: "Prophylaxis + vineyard management",
			Note:     "Esca is a wood disease: the approach is mainly agronomic (hygiene, wound protection, vine management).",
		},
		entity.FarmingModeOrganic: {
			Type: "No direct curative treatment",
			Examples: []string{
				"Prophylaxis (pruning hygiene)",
				"Water stress management and canopy ventilation",
			},
			Strategy: "Prophylaxis",
			Note:     "Same logic: wood disease. Monitoring + cultural measures; no standard product treatment available.",
		},
	},
	label.Healthy: {
		entity.FarmingModeConventional: noTreatment,
		entity.FarmingModeOrganic:      noTreatment,
	},
}

// Product returns the recommended product family for a disease and mode.
func Product(diseaseKey string, mode entity.FarmingMode) (entity.TreatmentProduct, bool) {
	p, ok := products[label.Normalize(diseaseKey)][mode]
	return p, ok
}

// ProductBullets renders a product as readable bullet lines, skipping
// empty attributes.
func ProductBullets(p entity.TreatmentProduct) []string {
	var bullets []string
	if p.Type != "" {
		bullets = append(bullets, "Product type: "+p.Type)
	}
	if len(p.Examples) > 0 {
		bullets = append(bullets, "Examples: "+strings.Join(p.Examples, ", "))
	}
	if p.DoseUnit != "" {
		bullets = append(bullets, "Indicative unit: "+p.DoseUnit)
	}
	if p.Strategy != "" {
		bullets = append(bullets, "Strategy: "+p.Strategy)
	}
	if p.Note != "" {
		bullets = append(bullets, "Note: "+p.Note)
	}
	return bullets
}
