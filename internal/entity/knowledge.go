package entity

const DefaultRetrievalLimit = 8

// KnowledgeFragment is one retrieved unit of reference text.
type KnowledgeFragment struct {
	Text        string   `json:"text"`
	Section     string   `json:"section"`
	DiseaseKey  string   `json:"disease_id"`
	DiseaseName string   `json:"disease_name,omitempty"`
	FarmingMode *string  `json:"farming_mode,omitempty"`
	Distance    *float64 `json:"distance,omitempty"`
}

type RetrievalQuery struct {
	DiseaseKey   string
	FarmingMode  string
	SeverityHint string
	Limit        int
}

// KnowledgeChunk is a unit of a knowledge sheet ready to be indexed.
type KnowledgeChunk struct {
	Text        string `json:"text"`
	Section     string `json:"section"`
	DiseaseID   string `json:"disease_id"`
	CNNLabel    string `json:"cnn_label"`
	DiseaseName string `json:"disease_name"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	FarmingMode string `json:"farming_mode"`
}

// Properties returns the chunk as a property map of the knowledge collection.
func (c KnowledgeChunk) Properties() map[string]any {
	return map[string]any{
		"text":         c.Text,
		"section":      c.Section,
		"disease_id":   c.DiseaseID,
		"cnn_label":    c.CNNLabel,
		"disease_name": c.DiseaseName,
		"type":         c.Type,
		"category":     c.Category,
		"farming_mode": c.FarmingMode,
	}
}
