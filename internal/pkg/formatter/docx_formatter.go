package formatter

import (
	"bytes"

	"github.com/unidoc/unioffice/document"
)

const (
	docxContentType   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	docxFileExtension = ".docx"
)

type DOCXFormatter struct{}

func NewDOCXFormatter() *DOCXFormatter {
	return &DOCXFormatter{}
}

func (mf *DOCXFormatter) Format(d Document) ([]byte, error) {
	doc := document.New()
	defer doc.Close()

	addStyled(doc, "Title", d.Title)

	for _, s := range d.Sections {
		if s.empty() {
			continue
		}
		addStyled(doc, "Heading1", s.Heading)
		for _, p := range s.Paragraphs {
			doc.AddParagraph().AddRun().AddText(p)
		}
		for _, b := range s.Bullets {
			addStyled(doc, "ListBullet", b)
		}
	}

	if d.Footer != "" {
		doc.AddParagraph()
		run := doc.AddParagraph().AddRun()
		run.Properties().SetItalic(true)
		run.AddText(d.Footer)
	}

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func addStyled(doc *document.Document, style, text string) {
	par := doc.AddParagraph()
	par.SetStyle(style)
	par.AddRun().AddText(text)
}

func (mf *DOCXFormatter) ContentType() string {
	return docxContentType
}

func (mf *DOCXFormatter) FileExtension() string {
	return docxFileExtension
}
