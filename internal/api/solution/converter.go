package solution

import "github.com/vitiscan/treatment-plan/internal/entity"

// toSolutionDTO converts a plan to the response payload. The raw model
// output is only exposed in debug mode.
func toSolutionDTO(p *entity.TreatmentAdvice, debug bool) *entity.SolutionDTO {
	dto := &entity.SolutionDTO{
		ID:                p.ID,
		CNNLabel:          p.Context.CNNLabel,
		DiseaseName:       p.Context.DiseaseName,
		Mode:              string(p.Context.Mode),
		AreaM2:            p.Context.AreaM2,
		Severity:          string(p.Context.Severity),
		Season:            string(p.Context.Season),
		TreatmentPlan:     treatmentPlan(p),
		Diagnostic:        p.Advice.Diagnostic,
		TreatmentActions:  nonNil(p.Advice.TreatmentActions),
		PreventiveActions: nonNil(p.Advice.PreventiveActions),
		Warnings:          nonNil(p.Advice.Warnings),
		ContextFragments:  p.Fragments,
		GeneratedAt:       p.GeneratedAt,
	}

	if debug {
		raw := p.RawLLMText
		dto.RawLLMOutput = &raw
	}

	return dto
}

func treatmentPlan(p *entity.TreatmentAdvice) any {
	if p.Dosage != nil {
		return p.Dosage
	}
	return entity.DosageNoteDTO{Note: p.DosageNote}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
