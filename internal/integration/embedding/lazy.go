package embedding

import (
	"context"
	"sync"
)

// Factory builds the underlying embedder on first use.
type Factory func(ctx context.Context) (Embedder, error)

// Lazy defers building the embedder until the first call. A failed build is
// attempted again on the next call; once built the embedder is shared.
type Lazy struct {
	factory Factory

	mu       sync.Mutex
	embedder Embedder
}

func NewLazy(factory Factory) *Lazy {
	return &Lazy{factory: factory}
}

func (l *Lazy) get(ctx context.Context) (Embedder, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.embedder != nil {
		return l.embedder, nil
	}

	e, err := l.factory(ctx)
	if err != nil {
		return nil, err
	}
	l.embedder = e

	return e, nil
}

func (l *Lazy) Embed(ctx context.Context, text string) ([]float32, error) {
	e, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return e.Embed(ctx, text)
}

func (l *Lazy) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return e.EmbedBatch(ctx, texts)
}
