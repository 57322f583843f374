package entity

import (
	"fmt"
	"time"
)

type FarmingMode string

const (
	FarmingModeConventional FarmingMode = "conventional"
	FarmingModeOrganic      FarmingMode = "organic"
)

func (m FarmingMode) Validate() error {
	switch m {
	case FarmingModeConventional, FarmingModeOrganic:
		return nil
	default:
		return fmt.Errorf("%w: unknown farming mode: %s", ErrInvalidParameter, m)
	}
}

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
)

func (s Severity) Validate() error {
	switch s {
	case SeverityLow, SeverityModerate, SeverityHigh:
		return nil
	default:
		return fmt.Errorf("%w: unknown severity: %s", ErrInvalidParameter, s)
	}
}

type Season string

const (
	SeasonWinter  Season = "winter"
	SeasonSpring  Season = "spring"
	SeasonSummer  Season = "summer"
	SeasonAutumn  Season = "autumn"
	SeasonUnknown Season = "unknown"
)

type ResultFormat string

const (
	FormatMarkdown ResultFormat = "markdown"
	FormatPDF      ResultFormat = "pdf"
	FormatDOCX     ResultFormat = "docx"
)

// TreatmentContext is the field context of one treatment request after
// label normalization.
type TreatmentContext struct {
	CNNLabel    string
	DiseaseKey  string
	DiseaseName string
	Mode        FarmingMode
	Severity    Severity
	AreaM2      float64
	DateISO     string
	Season      Season
	Location    string
}

// TreatmentAdvice is the merged result of retrieval, model advice and dosage.
type TreatmentAdvice struct {
	ID          string
	Context     TreatmentContext
	Advice      StructuredAdvice
	Dosage      *Dosage
	DosageNote  string
	Fragments   int
	RawLLMText  string
	LLMFailed   bool
	GeneratedAt time.Time
}
