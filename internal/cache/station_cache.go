package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"voltgrid/internal/models"
)

const snapshotKey = "stations:snapshot"

// Loader fetches the full station catalogue from the store of record.
type Loader func(ctx context.Context) ([]models.Station, error)

// StationCache layers an in-process expirable LRU above redis above the
// repository loader. The search engine reads station snapshots through it so
// repeated searches do not rescan Postgres; staleness within the ttl is
// acceptable for search.
type StationCache struct {
	mem    *expirable.LRU[string, []models.Station]
	client *redis.Client
	loader Loader
	ttl    time.Duration
	logger *zap.Logger
}

// NewStationCache builds the cache. client may be nil, which drops the redis
// layer.
func NewStationCache(client *redis.Client, loader Loader, size int, ttl time.Duration, logger *zap.Logger) *StationCache {
	if size <= 0 {
		size = 8
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &StationCache{
		mem:    expirable.NewLRU[string, []models.Station](size, nil, ttl),
		client: client,
		loader: loader,
		ttl:    ttl,
		logger: logger,
	}
}

// ListStations returns the current station snapshot, filling missed layers on
// the way back.
func (c *StationCache) ListStations(ctx context.Context) ([]models.Station, error) {
	if stations, ok := c.mem.Get(snapshotKey); ok {
		return stations, nil
	}

	if c.client != nil {
		raw, err := c.client.Get(ctx, snapshotKey).Result()
		switch {
		case err == nil:
			var stations []models.Station
			if err := json.Unmarshal([]byte(raw), &stations); err == nil {
				c.mem.Add(snapshotKey, stations)
				return stations, nil
			}
			c.logger.Warn("discarding corrupt station snapshot", zap.Error(err))
		case !errors.Is(err, redis.Nil):
			c.logger.Warn("redis snapshot read failed", zap.Error(err))
		}
	}

	stations, err := c.loader(ctx)
	if err != nil {
		return nil, err
	}

	c.mem.Add(snapshotKey, stations)
	if c.client != nil {
		if data, err := json.Marshal(stations); err == nil {
			if err := c.client.Set(ctx, snapshotKey, data, c.ttl).Err(); err != nil {
				c.logger.Warn("redis snapshot write failed", zap.Error(err))
			}
		}
	}
	return stations, nil
}

// Invalidate drops all layers after a catalogue mutation.
func (c *StationCache) Invalidate(ctx context.Context) {
	c.mem.Remove(snapshotKey)
	if c.client != nil {
		if err := c.client.Del(ctx, snapshotKey).Err(); err != nil && !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis snapshot invalidation failed", zap.Error(err))
		}
	}
}
