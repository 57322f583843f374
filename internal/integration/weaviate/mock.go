package weaviate

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"

	"github.com/vitiscan/treatment-plan/internal/entity"
	"github.com/vitiscan/treatment-plan/internal/knowledge"
)

// MockStore is an in-memory knowledge store with the filter semantics of
// the Weaviate one: Equal compares whole values, ContainsAny matches list
// elements or words of a text property. Results are ordered by cosine
// distance.
type MockStore struct {
	mu          sync.RWMutex
	collections map[string][]knowledge.Object
}

func NewMockStore() *MockStore {
	return &MockStore{collections: make(map[string][]knowledge.Object)}
}

func (m *MockStore) Connect(ctx context.Context) (knowledge.Session, error) {
	ctxzap.Debug(ctx, "[MOCK] connecting to knowledge store")
	return &mockSession{store: m}, nil
}

func (m *MockStore) EnsureCollection(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[name]; !ok {
		m.collections[name] = []knowledge.Object{}
	}
	return nil
}

func (m *MockStore) BatchInsert(_ context.Context, collection string, objects []knowledge.Object) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[collection]; !ok {
		return fmt.Errorf("%w: %s", entity.ErrCollectionNotFound, collection)
	}
	m.collections[collection] = append(m.collections[collection], objects...)
	return nil
}

type mockSession struct {
	store *MockStore
}

func (s *mockSession) Collection(_ context.Context, name string) (knowledge.Collection, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	if _, ok := s.store.collections[name]; !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrCollectionNotFound, name)
	}
	return &mockCollection{store: s.store, name: name}, nil
}

func (s *mockSession) Close() error { return nil }

type mockCollection struct {
	store *MockStore
	name  string
}

func (c *mockCollection) Search(ctx context.Context, req knowledge.SearchRequest) ([]knowledge.SearchHit, error) {
	ctxzap.Debug(ctx, "[MOCK] searching knowledge store")

	c.store.mu.RLock()
	objects := c.store.collections[c.name]
	c.store.mu.RUnlock()

	hits := make([]knowledge.SearchHit, 0, len(objects))
	for _, o := range objects {
		if req.Filter != nil && !matches(*req.Filter, o.Properties) {
			continue
		}
		hit := knowledge.SearchHit{Properties: copyProps(o.Properties)}
		if len(req.Vector) > 0 {
			d := cosineDistance(req.Vector, o.Vector)
			hit.Distance = &d
		}
		hits = append(hits, hit)
	}

	if len(req.Vector) > 0 {
		sort.SliceStable(hits, func(i, j int) bool { return *hits[i].Distance < *hits[j].Distance })
	}
	if req.Limit > 0 && len(hits) > req.Limit {
		hits = hits[:req.Limit]
	}
	if !req.WithDistance {
		for i := range hits {
			hits[i].Distance = nil
		}
	}

	return hits, nil
}

func matches(f entity.Filter, props map[string]any) bool {
	switch f.Operator {
	case entity.FilterAnd:
		for _, op := range f.Operands {
			if !matches(op, props) {
				return false
			}
		}
		return true
	case entity.FilterOr:
		for _, op := range f.Operands {
			if matches(op, props) {
				return true
			}
		}
		return false
	case entity.FilterContainsAny:
		have := propertyTokens(props[f.Property])
		for _, want := range f.Values {
			if have[strings.ToLower(want)] {
				return true
			}
		}
		return false
	default:
		v, ok := props[f.Property]
		return ok && fmt.Sprint(v) == f.Value
	}
}

// propertyTokens splits a text property into lowercase words; list
// properties contribute whole elements.
func propertyTokens(v any) map[string]bool {
	tokens := make(map[string]bool)
	add := func(s string) {
		for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
		}) {
			tokens[w] = true
		}
	}
	switch val := v.(type) {
	case string:
		add(val)
	case []string:
		for _, s := range val {
			tokens[strings.ToLower(s)] = true
		}
	case []any:
		for _, s := range val {
			tokens[strings.ToLower(fmt.Sprint(s))] = true
		}
	}
	return tokens
}

func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

func copyProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

// DemoChunks is the knowledge the mock store is seeded with.
var DemoChunks = []entity.KnowledgeChunk{
	{
		Text: "Treatment\n\nApply a copper-based or anti-downy mildew fungicide before forecast rainfall. " +
			"Renew protection after more than 20 mm of rain and alternate fungicide families.",
		Section:     "Treatment",
		DiseaseID:   "plasmopara_viticola",
		CNNLabel:    "plasmopara_viticola",
		DiseaseName: "Downy Mildew",
		Type:        "fungal",
		Category:    "disease",
		FarmingMode: "conventional, organic",
	},
	{
		Text: "Prevention\n\nThin the canopy to speed up leaf drying, remove infected shoots and avoid " +
			"excess nitrogen. Respect annual copper limits in organic farming.",
		Section:     "Prevention",
		DiseaseID:   "plasmopara_viticola",
		CNNLabel:    "plasmopara_viticola",
		DiseaseName: "Downy Mildew",
		Type:        "fungal",
		Category:    "disease",
		FarmingMode: "organic",
	},
}

// SeedDemoKnowledge indexes DemoChunks into collection.
func SeedDemoKnowledge(ctx context.Context, store *MockStore, embedder knowledge.BatchEmbedder, collection string) error {
	_, err := knowledge.NewIngester(store, embedder, collection, len(DemoChunks)).Ingest(ctx, DemoChunks)
	return err
}
