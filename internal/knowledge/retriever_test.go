package knowledge

import (
	"context"
	"errors"
	"testing"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vitiscan/treatment-plan/internal/config"
	"github.com/vitiscan/treatment-plan/internal/entity"
)

type fakeEmbedder struct {
	texts []string
	err   error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.texts = append(f.texts, text)
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 0}, nil
}

// fakeStore answers searches from a queue of canned results.
type fakeStore struct {
	connectErr    error
	collectionErr error
	results       [][]SearchHit
	errs          []error

	connects   int
	closes     int
	requests   []SearchRequest
	collection string
}

func (s *fakeStore) Connect(context.Context) (Session, error) {
	s.connects++
	if s.connectErr != nil {
		return nil, s.connectErr
	}
	return s, nil
}

func (s *fakeStore) Close() error {
	s.closes++
	return nil
}

func (s *fakeStore) Collection(_ context.Context, name string) (Collection, error) {
	s.collection = name
	if s.collectionErr != nil {
		return nil, s.collectionErr
	}
	return s, nil
}

func (s *fakeStore) Search(_ context.Context, req SearchRequest) ([]SearchHit, error) {
	i := len(s.requests)
	s.requests = append(s.requests, req)
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i < len(s.results) {
		return s.results[i], nil
	}
	return nil, nil
}

type fakeRecorder struct {
	attempts []string
	outcomes []string
}

func (r *fakeRecorder) RetrievalAttempt(tier string)    { r.attempts = append(r.attempts, tier) }
func (r *fakeRecorder) RetrievalResult(outcome string) { r.outcomes = append(r.outcomes, outcome) }

func testRetrievalConfig() config.RetrievalConfig {
	return config.RetrievalConfig{
		Collection: "VitiScanKnowledge",
		Limit:      8,
		LabelField: "cnn_label",
		IDField:    "disease_id",
		ModeField:  "farming_mode",
	}
}

func hit(text string, distance float64) SearchHit {
	return SearchHit{
		Properties: map[string]any{
			"text":         text,
			"section":      "Treatment",
			"disease_id":   "plasmopara_viticola",
			"disease_name": "Downy Mildew",
			"farming_mode": "conventional, organic",
		},
		Distance: &distance,
	}
}

func TestRetriever_Retrieve(t *testing.T) {
	query := entity.RetrievalQuery{DiseaseKey: "plasmopara_viticola", FarmingMode: "organic", SeverityHint: "high"}

	t.Run("Should not relax when the strict search finds fragments", func(t *testing.T) {
		store := &fakeStore{results: [][]SearchHit{{hit("Copper sprays.", 0.12), hit("Leaf removal.", 0.3)}}}
		rec := &fakeRecorder{}
		r := NewRetriever(store, &fakeEmbedder{}, rec, testRetrievalConfig())

		got := r.Retrieve(context.Background(), query)

		require.Len(t, got, 2)
		assert.Equal(t, "Copper sprays.", got[0].Text)
		assert.Equal(t, "Treatment", got[0].Section)
		assert.Equal(t, "plasmopara_viticola", got[0].DiseaseKey)
		require.NotNil(t, got[0].Distance)
		assert.InDelta(t, 0.12, *got[0].Distance, 1e-9)
		require.NotNil(t, got[0].FarmingMode)
		assert.Equal(t, "conventional, organic", *got[0].FarmingMode)

		require.Len(t, store.requests, 1)
		assert.Equal(t, 8, store.requests[0].Limit)
		assert.True(t, store.requests[0].WithDistance)
		assert.Equal(t, entity.AllOf(
			entity.AnyOf(
				entity.PropertyEqual("cnn_label", "plasmopara_viticola"),
				entity.PropertyEqual("disease_id", "plasmopara_viticola"),
			),
			entity.PropertyContainsAny("farming_mode", "organic"),
		), *store.requests[0].Filter)
		assert.Equal(t, "VitiScanKnowledge", store.collection)
		assert.Equal(t, 1, store.closes)
		assert.Equal(t, []string{TierStrict}, rec.attempts)
		assert.Equal(t, []string{TierStrict}, rec.outcomes)
	})

	t.Run("Should relax exactly once without the mode predicate", func(t *testing.T) {
		store := &fakeStore{results: [][]SearchHit{{}, {hit("Generic advice.", 0.4)}}}
		rec := &fakeRecorder{}
		r := NewRetriever(store, &fakeEmbedder{}, rec, testRetrievalConfig())

		got := r.Retrieve(context.Background(), query)

		require.Len(t, got, 1)
		require.Len(t, store.requests, 2)
		assert.Equal(t, entity.AnyOf(
			entity.PropertyEqual("cnn_label", "plasmopara_viticola"),
			entity.PropertyEqual("disease_id", "plasmopara_viticola"),
		), *store.requests[1].Filter)
		assert.Equal(t, []string{TierStrict, TierRelaxed}, rec.attempts)
		assert.Equal(t, []string{TierRelaxed}, rec.outcomes)
	})

	t.Run("Should treat a failed strict search as empty and still relax", func(t *testing.T) {
		store := &fakeStore{
			errs:    []error{errors.New("graphql: timeout")},
			results: [][]SearchHit{nil, {hit("Recovered.", 0.2)}},
		}
		r := NewRetriever(store, &fakeEmbedder{}, nil, testRetrievalConfig())

		got := r.Retrieve(context.Background(), query)

		require.Len(t, got, 1)
		assert.Equal(t, "Recovered.", got[0].Text)
		assert.Len(t, store.requests, 2)
		assert.Equal(t, 1, store.closes)
	})

	t.Run("Should return empty when both tiers fail", func(t *testing.T) {
		store := &fakeStore{errs: []error{errors.New("down"), errors.New("down")}}
		rec := &fakeRecorder{}
		r := NewRetriever(store, &fakeEmbedder{}, rec, testRetrievalConfig())

		got := r.Retrieve(context.Background(), query)

		assert.NotNil(t, got)
		assert.Empty(t, got)
		assert.Len(t, store.requests, 2)
		assert.Equal(t, []string{OutcomeNone}, rec.outcomes)
		assert.Equal(t, 1, store.closes)
	})

	t.Run("Should skip the mode predicate when no mode is given", func(t *testing.T) {
		store := &fakeStore{}
		r := NewRetriever(store, &fakeEmbedder{}, nil, testRetrievalConfig())

		got := r.Retrieve(context.Background(), entity.RetrievalQuery{DiseaseKey: "esca"})

		assert.Empty(t, got)
		require.Len(t, store.requests, 2)
		assert.Equal(t, *store.requests[0].Filter, *store.requests[1].Filter)
	})

	t.Run("Should discard hits with empty text", func(t *testing.T) {
		store := &fakeStore{results: [][]SearchHit{{
			hit("", 0.1),
			{Properties: map[string]any{"text": "   "}},
			hit("Useful.", 0.2),
		}}}
		r := NewRetriever(store, &fakeEmbedder{}, nil, testRetrievalConfig())

		got := r.Retrieve(context.Background(), query)

		require.Len(t, got, 1)
		assert.Equal(t, "Useful.", got[0].Text)
	})

	t.Run("Should not call the store for an empty key", func(t *testing.T) {
		store := &fakeStore{}
		emb := &fakeEmbedder{}
		r := NewRetriever(store, emb, nil, testRetrievalConfig())

		got := r.Retrieve(context.Background(), entity.RetrievalQuery{DiseaseKey: "   ", FarmingMode: "organic"})

		assert.Empty(t, got)
		assert.Zero(t, store.connects)
		assert.Empty(t, store.requests)
		assert.Empty(t, emb.texts)
	})

	t.Run("Should not call the store when no identity field is configured", func(t *testing.T) {
		cfg := testRetrievalConfig()
		cfg.LabelField, cfg.IDField = "", ""
		store := &fakeStore{}
		r := NewRetriever(store, &fakeEmbedder{}, nil, cfg)

		assert.Empty(t, r.Retrieve(context.Background(), query))
		assert.Zero(t, store.connects)
	})

	t.Run("Should return empty on connect, collection or embedding failure", func(t *testing.T) {
		cases := map[string]struct {
			store *fakeStore
			emb   *fakeEmbedder
		}{
			"connect":    {&fakeStore{connectErr: entity.ErrStoreUnavailable}, &fakeEmbedder{}},
			"collection": {&fakeStore{collectionErr: entity.ErrCollectionNotFound}, &fakeEmbedder{}},
			"embedding":  {&fakeStore{}, &fakeEmbedder{err: entity.ErrEmbedding}},
		}
		for name, tc := range cases {
			r := NewRetriever(tc.store, tc.emb, nil, testRetrievalConfig())
			got := r.Retrieve(context.Background(), query)
			assert.Empty(t, got, name)
			assert.Empty(t, tc.store.requests, name)
		}
	})

	t.Run("Should honour an explicit limit", func(t *testing.T) {
		store := &fakeStore{results: [][]SearchHit{{hit("a", 0.1)}}}
		r := NewRetriever(store, &fakeEmbedder{}, nil, testRetrievalConfig())

		q := query
		q.Limit = 3
		r.Retrieve(context.Background(), q)

		assert.Equal(t, 3, store.requests[0].Limit)
	})

	t.Run("Should log under the retriever component", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		ctx := ctxzap.ToContext(context.Background(), zap.New(core))
		r := NewRetriever(&fakeStore{}, &fakeEmbedder{}, nil, testRetrievalConfig())

		r.Retrieve(ctx, entity.RetrievalQuery{})

		entries := logs.All()
		require.NotEmpty(t, entries)
		assert.Equal(t, "retriever", entries[0].LoggerName)
		assert.Equal(t, "retrieve_knowledge", entries[0].ContextMap()["action"])
	})
}

func TestSimilarityText(t *testing.T) {
	assert.Equal(t,
		"Treatment recommendations for grapevine disease: esca. Farming mode: organic. Severity: high. "+
			"Include diagnosis, curative actions, prevention and safety precautions.",
		SimilarityText("esca", "organic", "high"))
	assert.Contains(t, SimilarityText("esca", "", ""), "Farming mode: unspecified. Severity: unspecified.")
}
