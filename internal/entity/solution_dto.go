package entity

import "time"

// SolutionRequest is the body of POST /solutions. An unparsable date_iso
// is accepted and yields the "unknown" season.
type SolutionRequest struct {
	CNNLabel string   `json:"cnn_label" validate:"required,min=1,max=128"`
	Mode     string   `json:"mode" validate:"required,oneof=conventional organic"`
	Severity string   `json:"severity" validate:"required,oneof=low moderate high"`
	AreaM2   *float64 `json:"area_m2" validate:"required,gte=0"`
	DateISO  string   `json:"date_iso,omitempty" validate:"omitempty,max=32"`
	Location string   `json:"location,omitempty" validate:"omitempty,max=200"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

type HealthResponse struct {
	Message string `json:"message,omitempty"`
	Status  string `json:"status"`
}

// SolutionResponse wraps the treatment plan payload.
type SolutionResponse struct {
	Data *SolutionDTO `json:"data"`
}

// DosageNoteDTO is returned as treatment_plan when no dosage rule applies.
type DosageNoteDTO struct {
	Note string `json:"note"`
}

type SolutionDTO struct {
	ID                string    `json:"id"`
	CNNLabel          string    `json:"cnn_label"`
	DiseaseName       string    `json:"disease_name"`
	Mode              string    `json:"mode"`
	AreaM2            float64   `json:"area_m2"`
	Severity          string    `json:"severity"`
	Season            string    `json:"season"`
	TreatmentPlan     any       `json:"treatment_plan"`
	Diagnostic        string    `json:"diagnostic"`
	TreatmentActions  []string  `json:"treatment_actions"`
	PreventiveActions []string  `json:"preventive_actions"`
	Warnings          []string  `json:"warnings"`
	ContextFragments  int       `json:"context_fragments"`
	GeneratedAt       time.Time `json:"generated_at"`
	RawLLMOutput      *string   `json:"raw_llm_output,omitempty"`
}
