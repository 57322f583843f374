package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vitiscan/treatment-plan/internal/entity"
)

// planRecord is the stored JSON payload of a treatment plan.
type planRecord struct {
	ID          string                  `json:"id"`
	CNNLabel    string                  `json:"cnn_label"`
	DiseaseKey  string                  `json:"disease_key"`
	DiseaseName string                  `json:"disease_name"`
	Mode        string                  `json:"mode"`
	Severity    string                  `json:"severity"`
	AreaM2      float64                 `json:"area_m2"`
	DateISO     string                  `json:"date_iso,omitempty"`
	Season      string                  `json:"season"`
	Location    string                  `json:"location,omitempty"`
	Advice      entity.StructuredAdvice `json:"advice"`
	Dosage      *entity.Dosage          `json:"dosage,omitempty"`
	DosageNote  string                  `json:"dosage_note,omitempty"`
	Fragments   int                     `json:"context_fragments"`
	RawLLMText  string                  `json:"raw_llm_output"`
	LLMFailed   bool                    `json:"llm_failed"`
	GeneratedAt time.Time               `json:"generated_at"`
}

func toPlanRecord(plan *entity.TreatmentAdvice) planRecord {
	tc := plan.Context
	return planRecord{
		ID:          plan.ID,
		CNNLabel:    tc.CNNLabel,
		DiseaseKey:  tc.DiseaseKey,
		DiseaseName: tc.DiseaseName,
		Mode:        string(tc.Mode),
		Severity:    string(tc.Severity),
		AreaM2:      tc.AreaM2,
		DateISO:     tc.DateISO,
		Season:      string(tc.Season),
		Location:    tc.Location,
		Advice:      plan.Advice,
		Dosage:      plan.Dosage,
		DosageNote:  plan.DosageNote,
		Fragments:   plan.Fragments,
		RawLLMText:  plan.RawLLMText,
		LLMFailed:   plan.LLMFailed,
		GeneratedAt: plan.GeneratedAt,
	}
}

func (r planRecord) toEntity() *entity.TreatmentAdvice {
	return &entity.TreatmentAdvice{
		ID: r.ID,
		Context: entity.TreatmentContext{
			CNNLabel:    r.CNNLabel,
			DiseaseKey:  r.DiseaseKey,
			DiseaseName: r.DiseaseName,
			Mode:        entity.FarmingMode(r.Mode),
			Severity:    entity.Severity(r.Severity),
			AreaM2:      r.AreaM2,
			DateISO:     r.DateISO,
			Season:      entity.Season(r.Season),
			Location:    r.Location,
		},
		Advice:      withLists(r.Advice),
		Dosage:      r.Dosage,
		DosageNote:  r.DosageNote,
		Fragments:   r.Fragments,
		RawLLMText:  r.RawLLMText,
		LLMFailed:   r.LLMFailed,
		GeneratedAt: r.GeneratedAt,
	}
}

// withLists restores empty lists dropped as null by older payloads.
func withLists(a entity.StructuredAdvice) entity.StructuredAdvice {
	if a.TreatmentActions == nil {
		a.TreatmentActions = []string{}
	}
	if a.PreventiveActions == nil {
		a.PreventiveActions = []string{}
	}
	if a.Warnings == nil {
		a.Warnings = []string{}
	}
	return a
}

func marshalPlan(plan *entity.TreatmentAdvice) ([]byte, error) {
	data, err := json.Marshal(toPlanRecord(plan))
	if err != nil {
		return nil, fmt.Errorf("marshal plan: %w", err)
	}
	return data, nil
}

func unmarshalPlan(data []byte) (*entity.TreatmentAdvice, error) {
	var rec planRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal plan: %w", err)
	}
	return rec.toEntity(), nil
}
