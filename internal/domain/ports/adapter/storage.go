package adapter

import "context"

// ObjectStore abstracts the S3-compatible bucket holding generated assets and
// user uploads. Objects are write-once and keyed by generated identifiers, so
// no coordination is needed.
type ObjectStore interface {
	// Upload stores the object and returns its public URL.
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	// KeyFromURL maps a public URL back to its object key.
	// domain.ErrInvalidArgument when the URL is not under this store.
	KeyFromURL(url string) (string, error)
}

// RemoteFetcher downloads a provider-hosted image so it can be mirrored into
// our own bucket before the provider's URL expires.
type RemoteFetcher interface {
	Fetch(ctx context.Context, url string) (data []byte, contentType string, err error)
}
