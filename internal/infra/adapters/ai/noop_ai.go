package ai

import (
	"context"
	"errors"
	"log"
	"time"

	"ai-image-studio/internal/domain/ports/adapter"
)

// ErrNoProvider is returned when no image provider is configured.
var ErrNoProvider = errors.New("no image provider configured")

var _ adapter.ImageGenerator = (*NoopImageAdapter)(nil)

// NoopImageAdapter implements adapter.ImageGenerator for local/dev testing.
// It logs prompts instead of calling a real provider.
type NoopImageAdapter struct{}

func NewNoopImageAdapter() *NoopImageAdapter {
	return &NoopImageAdapter{}
}

func (a *NoopImageAdapter) Name() string { return "noop" }

func (a *NoopImageAdapter) Generate(ctx context.Context, req adapter.GenerationRequest) (*adapter.GeneratedImage, error) {
	// Simulate slight processing time and respect ctx
	select {
	case <-time.After(100 * time.Millisecond):
		// proceed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	log.Printf("[noop-ai] generate %q (model=%s, ratio=%s)\n", req.Prompt, req.Model, req.AspectRatio)
	return &adapter.GeneratedImage{URL: "https://example.invalid/noop.png"}, nil
}
