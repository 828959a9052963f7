package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/metaquote/internal/domain"
)

const snapshotKey = "snapshot:market"

// SnapshotCache implements domain.SnapshotCache. The whole precomputed
// snapshot is stored as a single JSON value so replicas and restarts can
// warm-start without re-parsing the data file.
type SnapshotCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSnapshotCache creates a SnapshotCache backed by the given Client. A zero
// ttl means the cached snapshot never expires.
func NewSnapshotCache(c *Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{rdb: c.Underlying(), ttl: ttl}
}

// Set stores the snapshot, replacing any previous one.
func (sc *SnapshotCache) Set(ctx context.Context, snap domain.MarketSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("redis: marshal snapshot: %w", err)
	}
	if err := sc.rdb.Set(ctx, snapshotKey, data, sc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set snapshot: %w", err)
	}
	return nil
}

// Get returns the cached snapshot, or domain.ErrNotFound if none is cached.
func (sc *SnapshotCache) Get(ctx context.Context) (domain.MarketSnapshot, error) {
	data, err := sc.rdb.Get(ctx, snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.MarketSnapshot{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.MarketSnapshot{}, fmt.Errorf("redis: get snapshot: %w", err)
	}

	var snap domain.MarketSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.MarketSnapshot{}, fmt.Errorf("redis: unmarshal snapshot: %w", err)
	}
	return snap, nil
}

// Compile-time interface check.
var _ domain.SnapshotCache = (*SnapshotCache)(nil)
