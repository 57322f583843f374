package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/vitiscan/treatment-plan/internal/config"
	"github.com/vitiscan/treatment-plan/internal/entity"
	"github.com/vitiscan/treatment-plan/internal/pkg/logger"
)

const (
	TierStrict  = "strict"
	TierRelaxed = "relaxed"
	OutcomeNone = "empty"
)

const unspecified = "unspecified"

type Retriever struct {
	store    VectorStore
	embedder Embedder
	recorder Recorder
	cfg      config.RetrievalConfig
}

func NewRetriever(store VectorStore, embedder Embedder, recorder Recorder, cfg config.RetrievalConfig) *Retriever {
	return &Retriever{
		store:    store,
		embedder: embedder,
		recorder: recorder,
		cfg:      cfg,
	}
}

// Retrieve returns the fragments matching the disease, preferring those
// tagged with the farming mode. The mode filter is dropped only when the
// strict search yields nothing. Store failures are logged and count as no
// results, so the result may be empty but never an error.
func (r *Retriever) Retrieve(ctx context.Context, q entity.RetrievalQuery) []entity.KnowledgeFragment {
	ctx = logger.WithComponent(ctx, "retriever")
	ctx = logger.WithAction(ctx, "retrieve_knowledge")

	key := strings.TrimSpace(q.DiseaseKey)
	mode := strings.TrimSpace(q.FarmingMode)
	identity, ok := r.identityFilter(key)
	if !ok {
		ctxzap.Info(ctx, "no disease key to retrieve knowledge for")
		r.result(OutcomeNone)
		return []entity.KnowledgeFragment{}
	}

	ctx = logger.AddFields(ctx, zap.String("disease_key", key), zap.String("farming_mode", mode))

	limit := q.Limit
	if limit <= 0 {
		limit = r.cfg.Limit
	}
	if limit <= 0 {
		limit = entity.DefaultRetrievalLimit
	}

	vector, err := r.embedder.Embed(ctx, SimilarityText(key, mode, q.SeverityHint))
	if err != nil {
		ctxzap.Error(ctx, "failed to embed retrieval query", zap.Error(err))
		r.result(OutcomeNone)
		return []entity.KnowledgeFragment{}
	}

	session, err := r.store.Connect(ctx)
	if err != nil {
		ctxzap.Error(ctx, "failed to connect to knowledge store", zap.Error(err))
		r.result(OutcomeNone)
		return []entity.KnowledgeFragment{}
	}
	defer func() {
		if err := session.Close(); err != nil {
			ctxzap.Warn(ctx, "failed to close knowledge store session", zap.Error(err))
		}
	}()

	collection, err := session.Collection(ctx, r.cfg.Collection)
	if err != nil {
		ctxzap.Error(ctx, "knowledge collection unavailable",
			zap.String("collection", r.cfg.Collection), zap.Error(err))
		r.result(OutcomeNone)
		return []entity.KnowledgeFragment{}
	}

	strict := identity
	if mode != "" {
		strict = entity.AllOf(identity, entity.PropertyContainsAny(r.cfg.ModeField, mode))
	}

	fragments := r.search(ctx, collection, TierStrict, strict, vector, limit)
	if len(fragments) > 0 {
		r.result(TierStrict)
		return fragments
	}

	ctxzap.Warn(ctx, "no fragments with farming mode filter, retrying without it")

	fragments = r.search(ctx, collection, TierRelaxed, identity, vector, limit)
	if len(fragments) > 0 {
		r.result(TierRelaxed)
		return fragments
	}

	r.result(OutcomeNone)
	return fragments
}

// identityFilter matches the key against either identity field.
func (r *Retriever) identityFilter(key string) (entity.Filter, bool) {
	if key == "" {
		return entity.Filter{}, false
	}

	var operands []entity.Filter
	for _, field := range []string{r.cfg.LabelField, r.cfg.IDField} {
		if field != "" {
			operands = append(operands, entity.PropertyEqual(field, key))
		}
	}

	switch len(operands) {
	case 0:
		return entity.Filter{}, false
	case 1:
		return operands[0], true
	default:
		return entity.AnyOf(operands...), true
	}
}

func (r *Retriever) search(
	ctx context.Context,
	collection Collection,
	tier string,
	filter entity.Filter,
	vector []float32,
	limit int,
) []entity.KnowledgeFragment {
	if r.recorder != nil {
		r.recorder.RetrievalAttempt(tier)
	}

	hits, err := collection.Search(ctx, SearchRequest{
		Filter:       &filter,
		Vector:       vector,
		Limit:        limit,
		WithDistance: true,
	})
	if err != nil {
		ctxzap.Error(ctx, "knowledge search failed", zap.String("tier", tier), zap.Error(err))
		return []entity.KnowledgeFragment{}
	}

	fragments := make([]entity.KnowledgeFragment, 0, len(hits))
	for _, hit := range hits {
		if f, ok := r.toFragment(hit); ok {
			fragments = append(fragments, f)
		}
	}

	ctxzap.Debug(ctx, "knowledge search done",
		zap.String("tier", tier),
		zap.Int("hits", len(hits)),
		zap.Int("fragments", len(fragments)),
	)

	return fragments
}

func (r *Retriever) toFragment(hit SearchHit) (entity.KnowledgeFragment, bool) {
	text := stringProp(hit.Properties, "text")
	if strings.TrimSpace(text) == "" {
		return entity.KnowledgeFragment{}, false
	}

	f := entity.KnowledgeFragment{
		Text:        text,
		Section:     stringProp(hit.Properties, "section"),
		DiseaseKey:  stringProp(hit.Properties, r.cfg.IDField),
		DiseaseName: stringProp(hit.Properties, "disease_name"),
		Distance:    hit.Distance,
	}
	if v, ok := hit.Properties[r.cfg.ModeField]; ok && v != nil {
		mode := fmt.Sprint(v)
		if list, ok := v.([]any); ok {
			parts := make([]string, 0, len(list))
			for _, item := range list {
				parts = append(parts, fmt.Sprint(item))
			}
			mode = strings.Join(parts, ", ")
		}
		f.FarmingMode = &mode
	}

	return f, true
}

func (r *Retriever) result(outcome string) {
	if r.recorder != nil {
		r.recorder.RetrievalResult(outcome)
	}
}

// SimilarityText is the text embedded to rank fragments. It describes the
// situation; it does not filter.
func SimilarityText(key, mode, severity string) string {
	if mode == "" {
		mode = unspecified
	}
	if severity == "" {
		severity = unspecified
	}
	return fmt.Sprintf(
		"Treatment recommendations for grapevine disease: %s. Farming mode: %s. Severity: %s. "+
			"Include diagnosis, curative actions, prevention and safety precautions.",
		key, mode, severity,
	)
}

func stringProp(props map[string]any, name string) string {
	if name == "" {
		return ""
	}
	switch v := props[name].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
