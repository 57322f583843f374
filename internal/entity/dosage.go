package entity

// Dosage is the deterministic dosage computation for one disease/mode/area.
// Nil pointers mean "not configured" and serialize as null.
type Dosage struct {
	AreaM2                   float64  `json:"area_m2"`
	DoseLHa                  *float64 `json:"dose_l_ha"`
	VolumeBouillieLHa        float64  `json:"volume_bouillie_l_ha"`
	EstimatedProductLForArea *float64 `json:"estimated_product_l_for_area"`
	EstimatedVolumeLForArea  float64  `json:"estimated_volume_l_for_area"`
	TreatmentProduct         []string `json:"treatment_product,omitempty"`
	Configured               bool     `json:"configured"`
	Note                     string   `json:"note,omitempty"`
}

// TreatmentProduct describes the product family recommended for a
// disease and farming mode.
type TreatmentProduct struct {
	Type     string
	Examples []string
	DoseUnit string
	Strategy string
	Note     string
}
