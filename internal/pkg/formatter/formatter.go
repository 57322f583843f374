package formatter

import (
	"fmt"

	"github.com/vitiscan/treatment-plan/internal/entity"
)

// Formatter renders a plan document into one downloadable format.
type Formatter interface {
	Format(doc Document) ([]byte, error)
	ContentType() string
	FileExtension() string
}

// Factory resolves an export format to its formatter.
type Factory struct {
	formatters map[entity.ResultFormat]Formatter
}

func NewFactory() *Factory {
	return &Factory{
		formatters: map[entity.ResultFormat]Formatter{
			entity.FormatMarkdown: NewMarkdownFormatter(),
			entity.FormatPDF:      NewPDFFormatter(),
			entity.FormatDOCX:     NewDOCXFormatter(),
		},
	}
}

func (f *Factory) Create(format entity.ResultFormat) (Formatter, error) {
	formatter, ok := f.formatters[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrUnsupportedFormat, format)
	}
	return formatter, nil
}
