package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"ai-image-studio/internal/domain"
	"ai-image-studio/internal/domain/ports/adapter"
)

var _ adapter.ImageGenerator = (*GeminiAdapter)(nil)

// GeminiAdapter generates images through the official Gemini SDK. Unlike the
// Flux gateway it returns raw bytes, so callers must persist the result
// themselves.
type GeminiAdapter struct {
	client       *genai.Client
	defaultModel string
}

func NewGeminiAdapter(ctx context.Context, apiKey, baseUrl, defaultModel string) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseUrl,
		},
	})
	if err != nil {
		return nil, err
	}
	if defaultModel == "" {
		defaultModel = "imagen-3.0-generate-002"
	}
	return &GeminiAdapter{client: c, defaultModel: defaultModel}, nil
}

func (g *GeminiAdapter) Name() string { return "gemini" }

func (g *GeminiAdapter) Generate(ctx context.Context, req adapter.GenerationRequest) (*adapter.GeneratedImage, error) {
	cfg := &genai.GenerateImagesConfig{
		NumberOfImages: 1,
	}
	if req.AspectRatio != "" {
		cfg.AspectRatio = req.AspectRatio
	}
	resp, err := g.client.Models.GenerateImages(ctx, modelOrDefault(req.Model, g.defaultModel), req.Prompt, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamFailure, err)
	}
	if resp == nil || len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return nil, fmt.Errorf("%w: empty gemini response", domain.ErrUpstreamFailure)
	}
	img := resp.GeneratedImages[0].Image
	contentType := img.MIMEType
	if contentType == "" {
		contentType = "image/png"
	}
	return &adapter.GeneratedImage{
		Data:        img.ImageBytes,
		ContentType: contentType,
	}, nil
}

func modelOrDefault(model, def string) string {
	if strings.TrimSpace(model) != "" {
		return model
	}
	return def
}
