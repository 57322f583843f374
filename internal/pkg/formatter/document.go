package formatter

import (
	"fmt"
	"strconv"
	"time"

	"github.com/vitiscan/treatment-plan/internal/entity"
)

const planTitle = "Vineyard treatment plan"

// Document is a format-neutral rendering of a treatment plan.
type Document struct {
	Title    string
	Sections []Section
	Footer   string
}

// Section holds paragraphs followed by bullet items; empty sections are
// skipped by the formatters.
type Section struct {
	Heading    string
	Paragraphs []string
	Bullets    []string
}

func (s Section) empty() bool {
	return len(s.Paragraphs) == 0 && len(s.Bullets) == 0
}

// PlanDocument lays out a stored plan for export.
func PlanDocument(plan *entity.TreatmentAdvice) Document {
	tc := plan.Context

	situation := []string{
		fmt.Sprintf("Disease: %s (%s)", tc.DiseaseName, tc.DiseaseKey),
		"Farming mode: " + string(tc.Mode),
		"Severity: " + string(tc.Severity),
		"Area: " + formatNumber(tc.AreaM2) + " m²",
		"Season: " + string(tc.Season),
	}
	if tc.DateISO != "" {
		situation = append(situation, "Observation date: "+tc.DateISO)
	}
	if tc.Location != "" {
		situation = append(situation, "Location: "+tc.Location)
	}

	return Document{
		Title: planTitle,
		Sections: []Section{
			{Heading: "Situation", Bullets: situation},
			{Heading: "Diagnostic", Paragraphs: nonEmpty(plan.Advice.Diagnostic)},
			dosageSection(plan),
			{Heading: "Treatment actions", Bullets: plan.Advice.TreatmentActions},
			{Heading: "Preventive actions", Bullets: plan.Advice.PreventiveActions},
			{Heading: "Warnings", Bullets: plan.Advice.Warnings},
		},
		Footer: fmt.Sprintf("Plan %s generated on %s from %d knowledge extract(s).",
			plan.ID, plan.GeneratedAt.UTC().Format(time.RFC3339), plan.Fragments),
	}
}

func dosageSection(plan *entity.TreatmentAdvice) Section {
	s := Section{Heading: "Dosage"}
	d := plan.Dosage
	if d == nil {
		s.Paragraphs = nonEmpty(plan.DosageNote)
		return s
	}

	if d.DoseLHa != nil {
		s.Bullets = append(s.Bullets, "Dose: "+formatNumber(*d.DoseLHa)+" L/ha")
	}
	s.Bullets = append(s.Bullets, "Spray volume: "+formatNumber(d.VolumeBouillieLHa)+" L/ha")
	if d.EstimatedProductLForArea != nil {
		s.Bullets = append(s.Bullets, "Estimated product for the area: "+formatNumber(*d.EstimatedProductLForArea)+" L")
	}
	s.Bullets = append(s.Bullets, "Estimated spray volume for the area: "+formatNumber(d.EstimatedVolumeLForArea)+" L")
	s.Bullets = append(s.Bullets, d.TreatmentProduct...)
	s.Paragraphs = nonEmpty(d.Note)

	return s
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}
