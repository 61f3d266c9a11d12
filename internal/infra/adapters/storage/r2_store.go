package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"ai-image-studio/internal/config"
	"ai-image-studio/internal/domain"
	"ai-image-studio/internal/domain/ports/adapter"
)

var _ adapter.ObjectStore = (*R2Store)(nil)

// R2Store stores objects in an S3-compatible bucket (Cloudflare R2 in
// production) served through a public URL prefix.
type R2Store struct {
	client    *minio.Client
	bucket    string
	publicURL string // e.g. https://cdn.example.com, no trailing slash
}

func NewR2Store(cfg *config.StorageConfig) (*R2Store, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" || cfg.PublicURL == "" {
		return nil, errors.New("storage endpoint, bucket and public_url are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage client: %w", err)
	}
	return &R2Store{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
	}, nil
}

func (s *R2Store) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: empty object key", domain.ErrInvalidArgument)
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.publicURL + "/" + key, nil
}

func (s *R2Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty object key", domain.ErrInvalidArgument)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}

func (s *R2Store) KeyFromURL(url string) (string, error) {
	if !strings.HasPrefix(url, s.publicURL+"/") {
		return "", fmt.Errorf("%w: url not under storage prefix", domain.ErrInvalidArgument)
	}
	key := strings.TrimPrefix(url, s.publicURL+"/")
	if key == "" {
		return "", fmt.Errorf("%w: url has no object key", domain.ErrInvalidArgument)
	}
	return key, nil
}
