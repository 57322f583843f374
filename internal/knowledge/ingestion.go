package knowledge

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/vitiscan/treatment-plan/internal/entity"
)

const frontmatterDelimiter = "---"

var headingRe = regexp.MustCompile(`^#\s+(.*)`)

// SheetMeta is the YAML frontmatter of a knowledge sheet.
type SheetMeta struct {
	ID          string     `yaml:"id"`
	CNNLabel    string     `yaml:"cnn_label"`
	DiseaseName string     `yaml:"disease_name"`
	Type        string     `yaml:"type"`
	Category    string     `yaml:"category"`
	FarmingMode stringList `yaml:"farming_mode"`
}

// stringList accepts a YAML sequence or a single scalar.
type stringList []string

func (l *stringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Value != "" {
			*l = stringList{node.Value}
		}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	default:
		return fmt.Errorf("farming_mode: expected list or string, got YAML kind %d", node.Kind)
	}
}

type Sheet struct {
	Path    string
	Meta    SheetMeta
	Content string
}

type Section struct {
	Title string
	Text  string
}

// LoadSheets reads every *.md file of dir in name order.
func LoadSheets(dir string) ([]Sheet, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("list knowledge sheets: %w", err)
	}
	sort.Strings(paths)

	sheets := make([]Sheet, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		sheet, err := ParseSheet(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		sheet.Path = path
		sheets = append(sheets, sheet)
	}

	return sheets, nil
}

// ParseSheet splits an optional "---" delimited YAML header from the
// markdown body.
func ParseSheet(data []byte) (Sheet, error) {
	text := strings.TrimPrefix(string(bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))), "\ufeff")

	if !strings.HasPrefix(text, frontmatterDelimiter+"\n") {
		return Sheet{Content: text}, nil
	}

	rest := text[len(frontmatterDelimiter)+1:]
	var header, body string
	switch {
	case strings.HasPrefix(rest, frontmatterDelimiter+"\n"), rest == frontmatterDelimiter:
		body = strings.TrimPrefix(strings.TrimPrefix(rest, frontmatterDelimiter), "\n")
	default:
		end := strings.Index(rest, "\n"+frontmatterDelimiter)
		if end == -1 {
			return Sheet{}, fmt.Errorf("%w: unterminated frontmatter", entity.ErrInvalidFormat)
		}
		header = rest[:end]
		body = rest[end+len(frontmatterDelimiter)+1:]
		if nl := strings.Index(body, "\n"); nl != -1 {
			body = body[nl+1:]
		} else {
			body = ""
		}
	}

	var meta SheetMeta
	if err := yaml.Unmarshal([]byte(header), &meta); err != nil {
		return Sheet{}, fmt.Errorf("%w: frontmatter: %v", entity.ErrInvalidFormat, err)
	}

	return Sheet{Meta: meta, Content: body}, nil
}

// SplitSections cuts markdown on level-1 headings. Text before the first
// heading is dropped, as are headings directly followed by another heading.
func SplitSections(content string) []Section {
	var sections []Section
	var title string
	var lines []string
	inSection := false

	flush := func() {
		if inSection && len(lines) > 0 {
			sections = append(sections, Section{
				Title: title,
				Text:  strings.TrimSpace(strings.Join(lines, "\n")),
			})
		}
	}

	for _, line := range strings.Split(content, "\n") {
		if m := headingRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			flush()
			title = strings.TrimSpace(m[1])
			lines = nil
			inSection = true
			continue
		}
		lines = append(lines, line)
	}
	flush()

	return sections
}

// BuildChunks turns sheets into one chunk per section carrying the sheet
// metadata. The chunk text is the section title, a blank line, the body.
func BuildChunks(sheets []Sheet) []entity.KnowledgeChunk {
	var chunks []entity.KnowledgeChunk
	for _, sheet := range sheets {
		mode := strings.Join(sheet.Meta.FarmingMode, ", ")
		for _, section := range SplitSections(sheet.Content) {
			chunks = append(chunks, entity.KnowledgeChunk{
				Text:        strings.TrimSpace(section.Title + "\n\n" + section.Text),
				Section:     section.Title,
				DiseaseID:   sheet.Meta.ID,
				CNNLabel:    sheet.Meta.CNNLabel,
				DiseaseName: sheet.Meta.DiseaseName,
				Type:        sheet.Meta.Type,
				Category:    sheet.Meta.Category,
				FarmingMode: mode,
			})
		}
	}
	return chunks
}

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	Chunks  int
	Batches int
}

// Ingester embeds chunks and writes them to the knowledge collection.
type Ingester struct {
	indexer    Indexer
	embedder   BatchEmbedder
	collection string
	batchSize  int
}

func NewIngester(indexer Indexer, embedder BatchEmbedder, collection string, batchSize int) *Ingester {
	if batchSize <= 0 {
		batchSize = 20
	}
	return &Ingester{
		indexer:    indexer,
		embedder:   embedder,
		collection: collection,
		batchSize:  batchSize,
	}
}

// Ingest ensures the collection exists and inserts chunks batch by batch.
// The first failing batch stops the run.
func (i *Ingester) Ingest(ctx context.Context, chunks []entity.KnowledgeChunk) (IngestReport, error) {
	var report IngestReport

	if err := i.indexer.EnsureCollection(ctx, i.collection); err != nil {
		return report, fmt.Errorf("ensure collection %s: %w", i.collection, err)
	}

	for start := 0; start < len(chunks); start += i.batchSize {
		end := min(start+i.batchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for j, c := range batch {
			texts[j] = c.Text
		}

		vectors, err := i.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return report, fmt.Errorf("embed chunks %d-%d: %w", start, end-1, err)
		}

		objects := make([]Object, len(batch))
		for j, c := range batch {
			objects[j] = Object{Properties: c.Properties(), Vector: vectors[j]}
		}

		if err := i.indexer.BatchInsert(ctx, i.collection, objects); err != nil {
			return report, fmt.Errorf("insert chunks %d-%d: %w", start, end-1, err)
		}

		report.Chunks += len(batch)
		report.Batches++
		ctxzap.Info(ctx, "chunks indexed", zap.Int("indexed", report.Chunks), zap.Int("total", len(chunks)))
	}

	return report, nil
}
