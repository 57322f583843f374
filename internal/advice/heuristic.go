package advice

import (
	"regexp"
	"strings"
)

const (
	fieldDiagnostic        = "diagnostic"
	fieldTreatmentActions  = "treatment_actions"
	fieldPreventiveActions = "preventive_actions"
	fieldWarnings          = "warnings"
)

var (
	diagnosticRe = regexp.MustCompile(`"diagnostic"\s*:\s*"([^"]*)"`)
	quotedItemRe = regexp.MustCompile(`"([^"]+)"`)
	listFieldRes = map[string]*regexp.Regexp{
		fieldTreatmentActions:  listFieldRe(fieldTreatmentActions),
		fieldPreventiveActions: listFieldRe(fieldPreventiveActions),
		fieldWarnings:          listFieldRe(fieldWarnings),
	}
)

func listFieldRe(field string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)"` + field + `"\s*:\s*\[(.*?)\]`)
}

// HeuristicFields is what pattern matching recovered from text that did not
// decode. Lower confidence than a strict decode.
type HeuristicFields struct {
	Diagnostic        string
	TreatmentActions  []string
	PreventiveActions []string
	Warnings          []string
}

// Empty reports whether nothing was recovered.
func (h HeuristicFields) Empty() bool {
	return h.Diagnostic == "" &&
		len(h.TreatmentActions) == 0 &&
		len(h.PreventiveActions) == 0 &&
		len(h.Warnings) == 0
}

// ExtractHeuristically pattern-matches the diagnostic value and the three
// list fields anywhere in text. A list item ends at the next double quote.
func ExtractHeuristically(text string) HeuristicFields {
	var out HeuristicFields
	if text == "" {
		return out
	}

	if m := diagnosticRe.FindStringSubmatch(text); m != nil {
		out.Diagnostic = unescapeNewlines(m[1])
	}

	out.TreatmentActions = extractList(text, fieldTreatmentActions)
	out.PreventiveActions = extractList(text, fieldPreventiveActions)
	out.Warnings = extractList(text, fieldWarnings)

	return out
}

func extractList(text, field string) []string {
	m := listFieldRes[field].FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	var items []string
	for _, item := range quotedItemRe.FindAllStringSubmatch(m[1], -1) {
		items = append(items, unescapeNewlines(item[1]))
	}
	return items
}

func unescapeNewlines(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `\n`, "\n"))
}
