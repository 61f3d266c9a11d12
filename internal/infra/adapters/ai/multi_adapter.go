package ai

import (
	"context"
	"strings"

	"ai-image-studio/internal/domain/ports/adapter"
)

var _ adapter.ImageGenerator = (*MultiImageAdapter)(nil)

type MultiImageAdapter struct {
	defaultProvider string // e.g., "flux" or "gemini"
	byProvider      map[string]adapter.ImageGenerator
	modelToProvider map[string]string // model -> provider ("flux" | "gemini")
}

// NewMultiImageAdapter does not inject any default model; it only knows a
// default provider. Each provider adapter is responsible for its own default
// model.
func NewMultiImageAdapter(
	defaultProvider string,
	byProvider map[string]adapter.ImageGenerator,
	modelToProvider map[string]string,
) *MultiImageAdapter {
	return &MultiImageAdapter{
		defaultProvider: strings.ToLower(defaultProvider),
		byProvider:      byProvider,
		modelToProvider: modelToProvider,
	}
}

func (m *MultiImageAdapter) Name() string { return "multi" }

func (m *MultiImageAdapter) resolveProvider(model string) string {
	if p := m.modelToProvider[model]; p != "" {
		return strings.ToLower(p)
	}
	l := strings.ToLower(model)
	switch {
	case strings.HasPrefix(l, "flux"):
		return "flux"
	case strings.HasPrefix(l, "gemini"), strings.HasPrefix(l, "imagen"):
		return "gemini"
	default:
		return m.defaultProvider
	}
}

func (m *MultiImageAdapter) pick(model string) adapter.ImageGenerator {
	prov := m.resolveProvider(model)
	if a := m.byProvider[prov]; a != nil {
		return a
	}
	// last resort: first available
	for _, a := range m.byProvider {
		if a != nil {
			return a
		}
	}
	return nil
}

func (m *MultiImageAdapter) Generate(ctx context.Context, req adapter.GenerationRequest) (*adapter.GeneratedImage, error) {
	a := m.pick(req.Model)
	if a == nil {
		return nil, ErrNoProvider
	}
	return a.Generate(ctx, req)
}
