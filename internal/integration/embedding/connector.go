package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/avast/retry-go/v4"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/patrickmn/go-cache"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/vitiscan/treatment-plan/internal/config"
	"github.com/vitiscan/treatment-plan/internal/entity"
	"github.com/vitiscan/treatment-plan/internal/integration/common"
	pkghttp "github.com/vitiscan/treatment-plan/pkg/http"
)

// Embedder turns text into a dense vector. Identical input gives an
// identical vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Connector calls a Hugging Face feature-extraction endpoint (Inference API
// or text-embeddings-inference). Vectors are cached per text.
type Connector struct {
	config    config.EmbeddingConnectorConfig
	connector *pkghttp.Connector
	cache     *cache.Cache
}

func NewConnector(cfg config.EmbeddingConnectorConfig) *Connector {
	return &Connector{
		config:    cfg,
		connector: common.NewBaseConnector(cfg.HTTPClientConfig),
		cache:     cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
	}
}

func (c *Connector) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)
	if v, ok := c.cache.Get(key); ok {
		return v.([]float32), nil
	}

	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	return vectors[0], nil
}

// EmbedBatch embeds texts in one request, serving cached texts locally.
func (c *Connector) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if v, ok := c.cache.Get(cacheKey(text)); ok {
			out[i] = v.([]float32)
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return out, nil
	}

	ctxzap.Debug(ctx, "requesting embeddings", zap.Int("texts", len(missing)))

	vectors, err := retry.DoWithData(
		func() ([][]float32, error) {
			attemptCtx, cancel := c.config.Retry.AttemptContext(ctx)
			defer cancel()
			return c.embed(attemptCtx, missing)
		},
		c.config.Retry.ToRetryOptions(ctx, "embedding", pkghttp.IsRetryable)...,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrEmbedding, err)
	}

	for j, vec := range vectors {
		out[missingIdx[j]] = vec
		c.cache.SetDefault(cacheKey(missing[j]), vec)
	}

	return out, nil
}

func (c *Connector) embed(ctx context.Context, texts []string) ([][]float32, error) {
	req := &entity.EmbeddingRequest{
		Inputs:    texts,
		Normalize: c.config.Normalize,
	}

	var raw json.RawMessage
	if err := c.connector.DoRequest(ctx, http.MethodPost, c.config.Endpoint, req, &raw); err != nil {
		return nil, fmt.Errorf("feature extraction failed: %w", err)
	}

	return parseVectors(raw, len(texts))
}

// parseVectors accepts [[...], ...] and, for a single input, a bare [...].
func parseVectors(raw []byte, want int) ([][]float32, error) {
	doc := gjson.ParseBytes(raw)
	if !doc.IsArray() {
		return nil, fmt.Errorf("unexpected embedding response: %.120s", string(raw))
	}

	rows := doc.Array()
	if len(rows) > 0 && !rows[0].IsArray() {
		rows = []gjson.Result{doc}
	}
	if len(rows) != want {
		return nil, fmt.Errorf("expected %d embeddings, got %d", want, len(rows))
	}

	vectors := make([][]float32, 0, len(rows))
	for _, row := range rows {
		values := row.Array()
		if len(values) == 0 {
			return nil, fmt.Errorf("empty embedding in response")
		}
		vec := make([]float32, len(values))
		for i, v := range values {
			vec[i] = float32(v.Float())
		}
		vectors = append(vectors, vec)
	}

	return vectors, nil
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
