package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ai-image-studio/internal/domain"
	"ai-image-studio/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.ImageGenerator = (*FluxAdapter)(nil)

// FluxAdapter implements adapter.ImageGenerator against an OpenAI-compatible
// images gateway hosting the Flux Kontext models.
// Base URL defaults to https://api.tu-zi.com/v1 (configurable).
// Generations path is the same as OpenAI: /images/generations
// Authorization: Bearer <FLUX_API_KEY>
type FluxAdapter struct {
	apiKey string
	base   string // e.g., https://api.tu-zi.com/v1
	model  string
	client *http.Client
}

func NewFluxAdapter(apiKey, model, base string) (*FluxAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("flux api key empty")
	}
	if model == "" {
		model = "flux-kontext-pro"
	}
	if base == "" {
		base = "https://api.tu-zi.com/v1"
	}
	return &FluxAdapter{
		apiKey: apiKey,
		base:   strings.TrimRight(base, "/"),
		model:  model,
		client: &http.Client{Timeout: 120 * time.Second},
	}, nil
}

func (f *FluxAdapter) Name() string { return "flux" }

func (f *FluxAdapter) Generate(ctx context.Context, greq adapter.GenerationRequest) (*adapter.GeneratedImage, error) {
	model := greq.Model
	if model == "" {
		model = f.model
	}
	reqBody := struct {
		Model       string `json:"model"`
		Prompt      string `json:"prompt"`
		Image       string `json:"image,omitempty"`
		AspectRatio string `json:"aspect_ratio,omitempty"`
	}{Model: model, Prompt: greq.Prompt, Image: greq.ImageReferenceURL, AspectRatio: greq.AspectRatio}

	b, _ := json.Marshal(reqBody)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, f.base+"/images/generations", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.apiKey)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamFailure, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, upstreamError(resp)
	}

	var payload struct {
		Data []struct {
			URL     string `json:"url"`
			B64JSON string `json:"b64_json"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode response", domain.ErrUpstreamFailure)
	}
	for _, d := range payload.Data {
		if d.URL != "" {
			return &adapter.GeneratedImage{URL: d.URL}, nil
		}
	}
	return nil, fmt.Errorf("%w: no image url in response", domain.ErrUpstreamFailure)
}

// upstreamError surfaces the provider's own message so callers can pass
// it through to the client verbatim.
func upstreamError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error.Message != "" {
		return fmt.Errorf("%w: %s", domain.ErrUpstreamFailure, payload.Error.Message)
	}
	return fmt.Errorf("%w: http %d - %s", domain.ErrUpstreamFailure, resp.StatusCode, strings.TrimSpace(string(body)))
}
