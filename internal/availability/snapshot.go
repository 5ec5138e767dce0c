package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoSnapshot is returned by Load when no snapshot exists for a location.
var ErrNoSnapshot = redis.Nil

// SnapshotStore persists the latest computed Stats per location in Redis.
// The zone-change consumer writes snapshots; the public availability
// endpoint reads them and falls back to a direct recompute on miss.
type SnapshotStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSnapshotStore wraps a Redis client. The TTL bounds staleness if the
// consumer stops: a dead snapshot expires and readers recompute from the
// database instead of serving old numbers forever.
func NewSnapshotStore(rdb *redis.Client, ttl time.Duration) *SnapshotStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SnapshotStore{rdb: rdb, ttl: ttl}
}

func snapshotKey(locationID uint64) string {
	return fmt.Sprintf("availability:%d", locationID)
}

// Save stores the stats snapshot for a location.
func (s *SnapshotStore) Save(ctx context.Context, locationID uint64, stats Stats) error {
	body, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, snapshotKey(locationID), body, s.ttl).Err()
}

// Load returns the stored snapshot for a location, or ErrNoSnapshot when
// none exists.
func (s *SnapshotStore) Load(ctx context.Context, locationID uint64) (Stats, error) {
	var stats Stats
	body, err := s.rdb.Get(ctx, snapshotKey(locationID)).Bytes()
	if err != nil {
		return stats, err
	}
	if err := json.Unmarshal(body, &stats); err != nil {
		return stats, err
	}
	return stats, nil
}
