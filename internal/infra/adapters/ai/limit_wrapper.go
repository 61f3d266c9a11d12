package ai

import (
	"context"

	"ai-image-studio/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.ImageGenerator = (*limitedGenerator)(nil)

type limitedGenerator struct {
	inner adapter.ImageGenerator
	sem   chan struct{}
}

// NewLimitedGenerator caps concurrent upstream generation calls.
func NewLimitedGenerator(inner adapter.ImageGenerator, maxConcurrent int) adapter.ImageGenerator {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedGenerator{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedGenerator) Name() string { return l.inner.Name() }

func (l *limitedGenerator) Generate(ctx context.Context, req adapter.GenerationRequest) (*adapter.GeneratedImage, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-l.sem }()
	return l.inner.Generate(ctx, req)
}
