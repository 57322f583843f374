// Package prompt renders the instruction sent to the language model.
package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/vitiscan/treatment-plan/internal/entity"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const treatmentTemplate = "treatment.tmpl"

// ExtractSeparator separates knowledge extracts inside the prompt.
const ExtractSeparator = "\n\n---\n\n"

type treatmentData struct {
	DiseaseKey  string
	DiseaseName string
	Mode        string
	Severity    string
	AreaM2      float64
	Season      string
	Location    string
	Extracts    []string
}

type Builder struct {
	template *template.Template
}

func NewBuilder() *Builder {
	tpl := template.Must(
		template.New("prompt").
			Option("missingkey=error").
			Funcs(sprig.TxtFuncMap()).
			ParseFS(templateFS, "templates/*.tmpl"),
	)
	return &Builder{
		template: tpl.Lookup(treatmentTemplate),
	}
}

// Treatment renders the treatment plan prompt for a situation and the
// retrieved knowledge fragments.
func (b *Builder) Treatment(tc entity.TreatmentContext, fragments []entity.KnowledgeFragment) (string, error) {
	extracts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		extracts = append(extracts, f.Text)
	}

	data := treatmentData{
		DiseaseKey:  tc.DiseaseKey,
		DiseaseName: tc.DiseaseName,
		Mode:        string(tc.Mode),
		Severity:    string(tc.Severity),
		AreaM2:      tc.AreaM2,
		Season:      string(tc.Season),
		Location:    tc.Location,
		Extracts:    extracts,
	}

	var buf bytes.Buffer
	if err := b.template.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render treatment prompt: %w", err)
	}

	return strings.TrimSpace(buf.String()), nil
}
