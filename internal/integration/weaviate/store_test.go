package weaviate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitiscan/treatment-plan/internal/config"
	"github.com/vitiscan/treatment-plan/internal/entity"
	"github.com/vitiscan/treatment-plan/internal/knowledge"
	pkgRetry "github.com/vitiscan/treatment-plan/internal/pkg/retry"
)

const testClass = "VitiScanKnowledge"

func newTestStore(url string) *Store {
	return NewStore(config.WeaviateConnectorConfig{
		HTTPClientConfig: config.HTTPClientConfig{
			Url:            url,
			RequestTimeout: 5 * time.Second,
			ConnTimeout:    time.Second,
		},
		Retry: pkgRetry.RetryConfig{Attempts: 2, Delay: time.Millisecond, MaxDelay: time.Millisecond},
	})
}

// fakeWeaviate serves the endpoints the store uses.
type fakeWeaviate struct {
	ready        bool
	classExists  bool
	graphqlBody  string
	batchBody    string
	queries      []string
	createdClass map[string]any
	batch        map[string]any
}

func (f *fakeWeaviate) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/.well-known/ready", func(w http.ResponseWriter, _ *http.Request) {
		if !f.ready {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/v1/schema/"+testClass, func(w http.ResponseWriter, _ *http.Request) {
		if !f.classExists {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"class":"` + testClass + `"}`))
	})
	mux.HandleFunc("/v1/schema", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&f.createdClass))
		f.classExists = true
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/v1/graphql", func(w http.ResponseWriter, r *http.Request) {
		var req graphqlRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		f.queries = append(f.queries, req.Query)
		_, _ = w.Write([]byte(f.graphqlBody))
	})
	mux.HandleFunc("/v1/batch/objects", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&f.batch))
		_, _ = w.Write([]byte(f.batchBody))
	})
	return mux
}

func TestStore_Search(t *testing.T) {
	t.Run("Should search the collection and parse hits", func(t *testing.T) {
		fake := &fakeWeaviate{
			ready:       true,
			classExists: true,
			graphqlBody: `{"data":{"Get":{"VitiScanKnowledge":[` +
				`{"text":"Apply copper","section":"Treatment","farming_mode":"organic","_additional":{"distance":0.12}}` +
				`]}}}`,
		}
		srv := httptest.NewServer(fake.handler(t))
		defer srv.Close()

		store := newTestStore(srv.URL)
		session, err := store.Connect(context.Background())
		require.NoError(t, err)
		defer session.Close()

		coll, err := session.Collection(context.Background(), testClass)
		require.NoError(t, err)

		f := entity.PropertyEqual("cnn_label", "plasmopara_viticola")
		hits, err := coll.Search(context.Background(), knowledge.SearchRequest{
			Filter:       &f,
			Vector:       []float32{1, 0},
			Limit:        4,
			WithDistance: true,
		})
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "Apply copper", hits[0].Properties["text"])
		assert.Equal(t, "organic", hits[0].Properties["farming_mode"])
		assert.NotContains(t, hits[0].Properties, "_additional")
		require.NotNil(t, hits[0].Distance)
		assert.InDelta(t, 0.12, *hits[0].Distance, 1e-9)

		require.Len(t, fake.queries, 1)
		assert.Contains(t, fake.queries[0], "limit: 4")
		assert.Contains(t, fake.queries[0], `valueText: "plasmopara_viticola"`)
	})

	t.Run("Should report a missing collection", func(t *testing.T) {
		fake := &fakeWeaviate{ready: true}
		srv := httptest.NewServer(fake.handler(t))
		defer srv.Close()

		session, err := newTestStore(srv.URL).Connect(context.Background())
		require.NoError(t, err)

		_, err = session.Collection(context.Background(), testClass)
		assert.ErrorIs(t, err, entity.ErrCollectionNotFound)
	})

	t.Run("Should fail to connect when the instance is not ready", func(t *testing.T) {
		fake := &fakeWeaviate{}
		srv := httptest.NewServer(fake.handler(t))
		defer srv.Close()

		_, err := newTestStore(srv.URL).Connect(context.Background())
		assert.ErrorIs(t, err, entity.ErrStoreUnavailable)
	})

	t.Run("Should reject use of a closed session", func(t *testing.T) {
		fake := &fakeWeaviate{ready: true, classExists: true}
		srv := httptest.NewServer(fake.handler(t))
		defer srv.Close()

		session, err := newTestStore(srv.URL).Connect(context.Background())
		require.NoError(t, err)
		require.NoError(t, session.Close())

		_, err = session.Collection(context.Background(), testClass)
		assert.Error(t, err)
	})

	t.Run("Should surface GraphQL errors", func(t *testing.T) {
		fake := &fakeWeaviate{
			ready:       true,
			classExists: true,
			graphqlBody: `{"errors":[{"message":"no such property"}]}`,
		}
		srv := httptest.NewServer(fake.handler(t))
		defer srv.Close()

		session, err := newTestStore(srv.URL).Connect(context.Background())
		require.NoError(t, err)
		coll, err := session.Collection(context.Background(), testClass)
		require.NoError(t, err)

		_, err = coll.Search(context.Background(), knowledge.SearchRequest{Limit: 1})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no such property")
	})
}

func TestParseGetResponse(t *testing.T) {
	t.Run("Should return no hits for a null class result", func(t *testing.T) {
		hits, err := parseGetResponse([]byte(`{"data":{"Get":{"VitiScanKnowledge":null}}}`), testClass)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("Should leave distance nil when not reported", func(t *testing.T) {
		hits, err := parseGetResponse([]byte(`{"data":{"Get":{"VitiScanKnowledge":[{"text":"x"}]}}}`), testClass)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Nil(t, hits[0].Distance)
	})

	t.Run("Should keep list properties as lists", func(t *testing.T) {
		hits, err := parseGetResponse(
			[]byte(`{"data":{"Get":{"VitiScanKnowledge":[{"farming_mode":["organic","conventional"]}]}}}`), testClass)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, []any{"organic", "conventional"}, hits[0].Properties["farming_mode"])
	})
}

func TestStore_Indexing(t *testing.T) {
	t.Run("Should create the collection once with text properties", func(t *testing.T) {
		fake := &fakeWeaviate{}
		srv := httptest.NewServer(fake.handler(t))
		defer srv.Close()

		store := newTestStore(srv.URL)
		require.NoError(t, store.EnsureCollection(context.Background(), testClass))
		require.NotNil(t, fake.createdClass)
		assert.Equal(t, testClass, fake.createdClass["class"])
		assert.Equal(t, "none", fake.createdClass["vectorizer"])
		assert.Len(t, fake.createdClass["properties"], len(Properties))

		fake.createdClass = nil
		require.NoError(t, store.EnsureCollection(context.Background(), testClass))
		assert.Nil(t, fake.createdClass)
	})

	t.Run("Should send objects with their vectors", func(t *testing.T) {
		fake := &fakeWeaviate{batchBody: `[{"result":{}}]`}
		srv := httptest.NewServer(fake.handler(t))
		defer srv.Close()

		err := newTestStore(srv.URL).BatchInsert(context.Background(), testClass, []knowledge.Object{
			{Properties: map[string]any{"text": "a"}, Vector: []float32{1, 2}},
		})
		require.NoError(t, err)

		objects, ok := fake.batch["objects"].([]any)
		require.True(t, ok)
		require.Len(t, objects, 1)
		obj := objects[0].(map[string]any)
		assert.Equal(t, testClass, obj["class"])
		assert.Equal(t, []any{1.0, 2.0}, obj["vector"])
	})

	t.Run("Should report per-object failures", func(t *testing.T) {
		fake := &fakeWeaviate{
			batchBody: `[{"result":{}},{"result":{"errors":{"error":[{"message":"vector length mismatch"}]}}}]`,
		}
		srv := httptest.NewServer(fake.handler(t))
		defer srv.Close()

		err := newTestStore(srv.URL).BatchInsert(context.Background(), testClass, []knowledge.Object{
			{Properties: map[string]any{"text": "a"}}, {Properties: map[string]any{"text": "b"}},
		})
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "1 of 2 objects failed"))
		assert.Contains(t, err.Error(), "vector length mismatch")
	})
}
