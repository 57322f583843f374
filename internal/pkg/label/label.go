// Package label maps the free-form disease identifiers produced by the
// classifier, the knowledge sheets and users to canonical disease keys.
package label

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const sheetSuffix = ".md"

// Canonical disease keys (INRAE scientific names).
const (
	ColomerusVitis             = "colomerus_vitis"
	ElsinoeAmpelina            = "elsinoe_ampelina"
	ErysipheNecator            = "erysiphe_necator"
	GuignardiaBidwellii        = "guignardia_bidwellii"
	Healthy                    = "healthy"
	PhaeomoniellaChlamydospora = "phaeomoniella_chlamydospora"
	PlasmoparaViticola         = "plasmopara_viticola"
)

var aliases = map[string]string{
	ColomerusVitis:             ColomerusVitis,
	ElsinoeAmpelina:            ElsinoeAmpelina,
	ErysipheNecator:            ErysipheNecator,
	GuignardiaBidwellii:        GuignardiaBidwellii,
	Healthy:                    Healthy,
	PhaeomoniellaChlamydospora: PhaeomoniellaChlamydospora,
	PlasmoparaViticola:         PlasmoparaViticola,

	"downy_mildew":   PlasmoparaViticola,
	"mildiou":        PlasmoparaViticola,
	"powdery_mildew": ErysipheNecator,
	"oidium":         ErysipheNecator,
	"black_rot":      GuignardiaBidwellii,
	"esca":           PhaeomoniellaChlamydospora,
	"anthracnose":    ElsinoeAmpelina,
	"erinose":        ColomerusVitis,
	"sain":           Healthy,
	"normal":         Healthy,
}

// Normalize returns the canonical key for raw. Unknown labels are returned
// cleaned but otherwise unchanged; empty input stays empty.
func Normalize(raw string) string {
	if raw == "" {
		return raw
	}

	cleaned := strings.TrimSpace(raw)
	if len(cleaned) >= len(sheetSuffix) && strings.EqualFold(cleaned[len(cleaned)-len(sheetSuffix):], sheetSuffix) {
		cleaned = cleaned[:len(cleaned)-len(sheetSuffix)]
	}

	lower := strings.ToLower(cleaned)
	if key, ok := aliases[lower]; ok {
		return key
	}
	if key, ok := aliases[fold(lower)]; ok {
		return key
	}

	return cleaned
}

// Known reports whether raw resolves to one of the canonical keys.
func Known(raw string) bool {
	_, ok := aliases[Normalize(raw)]
	return ok
}

// fold strips diacritics: "oïdium" becomes "oidium".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}
