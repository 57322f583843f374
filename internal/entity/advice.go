package entity

// StructuredAdvice is the normalized shape of a model response. All four
// fields are always present; the slices are never nil.
type StructuredAdvice struct {
	Diagnostic        string   `json:"diagnostic"`
	TreatmentActions  []string `json:"treatment_actions"`
	PreventiveActions []string `json:"preventive_actions"`
	Warnings          []string `json:"warnings"`
}

// EmptyAdvice returns a record with the given diagnostic and empty lists.
func EmptyAdvice(diagnostic string) StructuredAdvice {
	return StructuredAdvice{
		Diagnostic:        diagnostic,
		TreatmentActions:  []string{},
		PreventiveActions: []string{},
		Warnings:          []string{},
	}
}
