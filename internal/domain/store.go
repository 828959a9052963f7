package domain

import (
	"context"
	"io"
	"time"
)

// QuoteStore persists served quotes.
type QuoteStore interface {
	Insert(ctx context.Context, rec QuoteRecord) error
	ListRecent(ctx context.Context, opts ListOpts) ([]QuoteRecord, error)
}

// SnapshotCache holds a precomputed MarketSnapshot so replicas and restarts
// can warm-start without re-parsing the snapshot data file. Get returns
// ErrNotFound when no snapshot is cached.
type SnapshotCache interface {
	Set(ctx context.Context, snap MarketSnapshot) error
	Get(ctx context.Context) (MarketSnapshot, error)
}

// BlobReader retrieves objects from blob storage. Get returns ErrNotFound
// if the object does not exist; the caller closes the returned reader.
type BlobReader interface {
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	Exists(ctx context.Context, path string) (bool, error)
}

// RateLimiter limits actions per key within a sliding window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
