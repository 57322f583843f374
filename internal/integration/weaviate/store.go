package weaviate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync/atomic"

	"github.com/avast/retry-go/v4"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/vitiscan/treatment-plan/internal/config"
	"github.com/vitiscan/treatment-plan/internal/entity"
	"github.com/vitiscan/treatment-plan/internal/integration/common"
	"github.com/vitiscan/treatment-plan/internal/knowledge"
	pkghttp "github.com/vitiscan/treatment-plan/pkg/http"
)

const (
	readyEndpoint   = "/v1/.well-known/ready"
	schemaEndpoint  = "/v1/schema"
	graphqlEndpoint = "/v1/graphql"
	batchEndpoint   = "/v1/batch/objects"
)

var errSessionClosed = errors.New("weaviate session closed")

// Properties of the knowledge collection, in schema order.
var Properties = []string{"text", "section", "disease_id", "cnn_label", "disease_name", "type", "category", "farming_mode"}

// Store talks to Weaviate over its REST and GraphQL endpoints.
type Store struct {
	config    config.WeaviateConnectorConfig
	connector *pkghttp.Connector
}

func NewStore(cfg config.WeaviateConnectorConfig) *Store {
	return &Store{
		config:    cfg,
		connector: common.NewBaseConnector(cfg.HTTPClientConfig),
	}
}

// Connect checks that the instance is ready and opens a session.
func (s *Store) Connect(ctx context.Context) (knowledge.Session, error) {
	err := retry.Do(
		func() error {
			attemptCtx, cancel := s.config.Retry.AttemptContext(ctx)
			defer cancel()
			return s.connector.DoRequest(attemptCtx, http.MethodGet, readyEndpoint, nil, nil)
		},
		s.config.Retry.ToRetryOptions(ctx, "weaviate_ready", pkghttp.IsRetryable)...,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrStoreUnavailable, err)
	}

	return &session{store: s}, nil
}

type session struct {
	store  *Store
	closed atomic.Bool
}

func (s *session) Collection(ctx context.Context, name string) (knowledge.Collection, error) {
	if s.closed.Load() {
		return nil, errSessionClosed
	}

	exists, err := s.store.collectionExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", entity.ErrCollectionNotFound, name)
	}

	return &collection{session: s, name: name}, nil
}

// Close ends the session; the HTTP transport keeps its pooled connections.
func (s *session) Close() error {
	s.closed.Store(true)
	return nil
}

type collection struct {
	session *session
	name    string
}

type graphqlRequest struct {
	Query string `json:"query"`
}

func (c *collection) Search(ctx context.Context, req knowledge.SearchRequest) ([]knowledge.SearchHit, error) {
	if c.session.closed.Load() {
		return nil, errSessionClosed
	}

	store := c.session.store
	body := &graphqlRequest{Query: buildGetQuery(c.name, Properties, req)}

	raw, err := retry.DoWithData(
		func() (json.RawMessage, error) {
			attemptCtx, cancel := store.config.Retry.AttemptContext(ctx)
			defer cancel()
			var raw json.RawMessage
			err := store.connector.DoRequest(attemptCtx, http.MethodPost, graphqlEndpoint, body, &raw)
			return raw, err
		},
		store.config.Retry.ToRetryOptions(ctx, "weaviate_search", pkghttp.IsRetryable)...,
	)
	if err != nil {
		return nil, fmt.Errorf("graphql search: %w", err)
	}

	hits, err := parseGetResponse(raw, c.name)
	if err != nil {
		return nil, err
	}

	ctxzap.Debug(ctx, "weaviate search done", zap.String("collection", c.name), zap.Int("hits", len(hits)))

	return hits, nil
}

func parseGetResponse(raw []byte, class string) ([]knowledge.SearchHit, error) {
	doc := gjson.ParseBytes(raw)
	if msg := doc.Get("errors.0.message"); msg.Exists() {
		return nil, fmt.Errorf("graphql error: %s", msg.String())
	}

	objects := doc.Get("data.Get." + class)
	if !objects.Exists() || objects.Type == gjson.Null {
		return []knowledge.SearchHit{}, nil
	}
	if !objects.IsArray() {
		return nil, fmt.Errorf("unexpected graphql result for %s", class)
	}

	hits := make([]knowledge.SearchHit, 0, len(objects.Array()))
	for _, obj := range objects.Array() {
		hit := knowledge.SearchHit{Properties: make(map[string]any)}
		obj.ForEach(func(key, value gjson.Result) bool {
			if key.String() == "_additional" {
				if d := value.Get("distance"); d.Exists() && d.Type == gjson.Number {
					distance := d.Float()
					hit.Distance = &distance
				}
				return true
			}
			hit.Properties[key.String()] = value.Value()
			return true
		})
		hits = append(hits, hit)
	}

	return hits, nil
}

func (s *Store) collectionExists(ctx context.Context, name string) (bool, error) {
	err := retry.Do(
		func() error {
			attemptCtx, cancel := s.config.Retry.AttemptContext(ctx)
			defer cancel()
			return s.connector.DoRequest(attemptCtx, http.MethodGet, schemaEndpoint+"/"+url.PathEscape(name), nil, nil)
		},
		s.config.Retry.ToRetryOptions(ctx, "weaviate_schema", pkghttp.IsRetryable)...,
	)
	if err == nil {
		return true, nil
	}

	var httpErr *pkghttp.HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
		return false, nil
	}

	return false, fmt.Errorf("%w: %v", entity.ErrStoreUnavailable, err)
}
