package formatter

import (
	"bytes"
	"fmt"
)

const (
	markdownContentType   = "text/markdown; charset=utf-8"
	markdownFileExtension = ".md"
)

type MarkdownFormatter struct{}

func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

func (mf *MarkdownFormatter) Format(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n", doc.Title)

	for _, s := range doc.Sections {
		if s.empty() {
			continue
		}
		fmt.Fprintf(&buf, "\n## %s\n\n", s.Heading)
		for _, p := range s.Paragraphs {
			fmt.Fprintf(&buf, "%s\n\n", p)
		}
		for _, b := range s.Bullets {
			fmt.Fprintf(&buf, "- %s\n", b)
		}
	}

	if doc.Footer != "" {
		fmt.Fprintf(&buf, "\n---\n\n_%s_\n", doc.Footer)
	}

	return buf.Bytes(), nil
}

func (mf *MarkdownFormatter) ContentType() string {
	return markdownContentType
}

func (mf *MarkdownFormatter) FileExtension() string {
	return markdownFileExtension
}
