package treatment

import (
	"fmt"
	"strings"
	"time"

	"github.com/vitiscan/treatment-plan/internal/entity"
	"github.com/vitiscan/treatment-plan/internal/pkg/label"
)

const (
	noKnowledgeText = "No relevant extract found in the knowledge base. " +
		"Base recommendations on dosage rules and general best practices only."

	advisorNarrative = "The situation requires technical assessment. " +
		"No detailed recommendation could be generated automatically. " +
		"Please consult a local viticulture advisor."
)

// BaseWarnings precede the model warnings in every plan.
var BaseWarnings = []string{
	"These recommendations are indicative only.",
	"Always verify local regulations and product labels before application.",
}

// DiseaseNames maps canonical disease keys to display names.
var DiseaseNames = map[string]string{
	label.ColomerusVitis:             "Erinose",
	label.ElsinoeAmpelina:            "Anthracnose",
	label.ErysipheNecator:            "Powdery Mildew",
	label.GuignardiaBidwellii:        "Black Rot",
	label.Healthy:                    "Healthy",
	label.PhaeomoniellaChlamydospora: "Esca",
	label.PlasmoparaViticola:         "Downy Mildew",
}

// DiseaseName returns the display name of key, or key itself when unknown.
func DiseaseName(key string) string {
	if name, ok := DiseaseNames[key]; ok {
		return name
	}
	return key
}

var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateTime,
}

// InferSeason maps an ISO date to a northern-hemisphere season. Empty or
// unparsable dates give SeasonUnknown.
func InferSeason(dateISO string) entity.Season {
	dateISO = strings.TrimSpace(dateISO)
	if dateISO == "" {
		return entity.SeasonUnknown
	}

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, dateISO)
		if err != nil {
			continue
		}
		switch t.Month() {
		case time.December, time.January, time.February:
			return entity.SeasonWinter
		case time.March, time.April, time.May:
			return entity.SeasonSpring
		case time.June, time.July, time.August:
			return entity.SeasonSummer
		default:
			return entity.SeasonAutumn
		}
	}

	return entity.SeasonUnknown
}

func fallbackFragments() []entity.KnowledgeFragment {
	return []entity.KnowledgeFragment{{Text: noKnowledgeText}}
}

func llmFailureNarrative(err error) string {
	return fmt.Sprintf("%s (Technical detail: %v)", advisorNarrative, err)
}

func withBaseWarnings(warnings []string) []string {
	out := make([]string, 0, len(BaseWarnings)+len(warnings))
	out = append(out, BaseWarnings...)
	return append(out, warnings...)
}
