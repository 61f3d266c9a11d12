package adapter

import "context"

// GenerationRequest is one paid image generation.
type GenerationRequest struct {
	Prompt            string
	ImageReferenceURL string // optional source image for image-to-image edits
	AspectRatio       string // e.g. "1:1", "16:9"; empty lets the model decide
	Model             string // empty uses the adapter default
}

// GeneratedImage is the provider result. Providers that host results return
// URL; providers that return raw bytes fill Data instead, and the caller is
// responsible for storing them somewhere durable.
type GeneratedImage struct {
	URL         string
	Data        []byte
	ContentType string
}

// ImageGenerator is the paid external generation operation the debit gate
// wraps. Implementations must not charge the user; billing is the caller's
// concern.
type ImageGenerator interface {
	Name() string
	Generate(ctx context.Context, req GenerationRequest) (*GeneratedImage, error)
}
