package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"ai-image-studio/internal/domain"
	"ai-image-studio/internal/domain/ports/adapter"
)

var _ adapter.RemoteFetcher = (*HTTPFetcher)(nil)

// HTTPFetcher downloads provider-hosted images. Kept separate from the object
// store so tests can fake downloads without a network.
type HTTPFetcher struct {
	client  *http.Client
	maxSize int64
}

func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		client:  &http.Client{Timeout: 60 * time.Second},
		maxSize: 32 << 20, // 32 MiB
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrUpstreamFailure, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%w: fetch image http %d", domain.ErrUpstreamFailure, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize))
	if err != nil {
		return nil, "", fmt.Errorf("%w: read image body", domain.ErrUpstreamFailure)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}
	return data, contentType, nil
}
