package advice

import (
	"strings"

	"github.com/vitiscan/treatment-plan/internal/entity"
)

// Stage names the step that produced a normalized record.
type Stage string

const (
	StageEmpty     Stage = "empty"
	StageStrict    Stage = "strict"
	StageHeuristic Stage = "heuristic"
	StageFallback  Stage = "fallback"
)

// stage produces a record or declines.
type stage struct {
	name Stage
	run  func() (entity.StructuredAdvice, bool)
}

// firstOf runs the stages in order and keeps the first record produced.
// When every stage declines, the last stage's record is kept.
func firstOf(stages ...stage) (entity.StructuredAdvice, Stage) {
	var (
		advice entity.StructuredAdvice
		name   Stage
	)
	for _, s := range stages {
		var ok bool
		advice, ok = s.run()
		name = s.name
		if ok {
			break
		}
	}
	return advice, name
}

// Normalize converts a raw model answer into StructuredAdvice.
func Normalize(raw string) entity.StructuredAdvice {
	advice, _ := NormalizeWithStage(raw)
	return advice
}

// NormalizeWithStage is Normalize that also reports which stage produced
// the record.
func NormalizeWithStage(raw string) (entity.StructuredAdvice, Stage) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return entity.EmptyAdvice(""), StageEmpty
	}

	text := unwrapFence(unquote(trimmed))

	return firstOf(
		stage{name: StageStrict, run: func() (entity.StructuredAdvice, bool) {
			return strictStage(text, trimmed)
		}},
		stage{name: StageHeuristic, run: func() (entity.StructuredAdvice, bool) {
			return heuristicStage(text, trimmed)
		}},
		stage{name: StageFallback, run: func() (entity.StructuredAdvice, bool) {
			return entity.EmptyAdvice(trimmed), true
		}},
	)
}

// unquote returns the content of an answer encoded as a single JSON string,
// or text unchanged.
func unquote(text string) string {
	if !strings.HasPrefix(text, `"`) {
		return text
	}
	value, err := decodeJSON(text)
	if err != nil {
		return text
	}
	inner, ok := value.(string)
	if !ok {
		return text
	}
	return strings.TrimSpace(inner)
}

func strictStage(text, fallback string) (entity.StructuredAdvice, bool) {
	candidate, ok := LocatePayload(text)
	if !ok {
		return entity.StructuredAdvice{}, false
	}

	data, ok := Decode(candidate)
	if !ok {
		return entity.StructuredAdvice{}, false
	}

	diagnostic := strings.TrimSpace(stringify(data[fieldDiagnostic]))
	if diagnostic == "" {
		diagnostic = fallback
	}

	return entity.StructuredAdvice{
		Diagnostic:        diagnostic,
		TreatmentActions:  ToStringList(data[fieldTreatmentActions]),
		PreventiveActions: ToStringList(data[fieldPreventiveActions]),
		Warnings:          ToStringList(data[fieldWarnings]),
	}, true
}

func heuristicStage(text, fallback string) (entity.StructuredAdvice, bool) {
	fields := ExtractHeuristically(text)
	if fields.Empty() {
		return entity.StructuredAdvice{}, false
	}

	diagnostic := fields.Diagnostic
	if diagnostic == "" {
		diagnostic = fallback
	}

	return entity.StructuredAdvice{
		Diagnostic:        diagnostic,
		TreatmentActions:  ToStringList(fields.TreatmentActions),
		PreventiveActions: ToStringList(fields.PreventiveActions),
		Warnings:          ToStringList(fields.Warnings),
	}, true
}
