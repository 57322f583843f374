package weaviate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/vitiscan/treatment-plan/internal/knowledge"
)

type classProperty struct {
	Name     string   `json:"name"`
	DataType []string `json:"dataType"`
}

type classDefinition struct {
	Class      string          `json:"class"`
	Vectorizer string          `json:"vectorizer"`
	Properties []classProperty `json:"properties"`
}

type batchObject struct {
	Class      string         `json:"class"`
	Properties map[string]any `json:"properties"`
	Vector     []float32      `json:"vector"`
}

type batchRequest struct {
	Objects []batchObject `json:"objects"`
}

// EnsureCollection creates the knowledge class with self-provided vectors
// when it does not exist yet.
func (s *Store) EnsureCollection(ctx context.Context, name string) error {
	exists, err := s.collectionExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		ctxzap.Info(ctx, "collection already exists", zap.String("collection", name))
		return nil
	}

	def := classDefinition{Class: name, Vectorizer: "none"}
	for _, p := range Properties {
		def.Properties = append(def.Properties, classProperty{Name: p, DataType: []string{"text"}})
	}

	if err := s.connector.DoRequest(ctx, http.MethodPost, schemaEndpoint, &def, nil); err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}

	ctxzap.Info(ctx, "collection created", zap.String("collection", name))

	return nil
}

// BatchInsert writes objects in one batch request. Per-object failures
// reported by Weaviate are returned as one error.
func (s *Store) BatchInsert(ctx context.Context, collection string, objects []knowledge.Object) error {
	if len(objects) == 0 {
		return nil
	}

	req := batchRequest{Objects: make([]batchObject, len(objects))}
	for i, o := range objects {
		req.Objects[i] = batchObject{Class: collection, Properties: o.Properties, Vector: o.Vector}
	}

	var raw json.RawMessage
	if err := s.connector.DoRequest(ctx, http.MethodPost, batchEndpoint, &req, &raw); err != nil {
		return fmt.Errorf("batch insert: %w", err)
	}

	if failures := batchFailures(raw); len(failures) > 0 {
		return fmt.Errorf("batch insert: %d of %d objects failed: %s",
			len(failures), len(objects), strings.Join(failures, "; "))
	}

	return nil
}

func batchFailures(raw []byte) []string {
	var failures []string
	gjson.ParseBytes(raw).ForEach(func(_, obj gjson.Result) bool {
		obj.Get("result.errors.error").ForEach(func(_, e gjson.Result) bool {
			failures = append(failures, e.Get("message").String())
			return true
		})
		return true
	})
	return failures
}
