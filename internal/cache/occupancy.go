package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const occupancySetKey = "sessions:active:stations"

// SessionSource lists stations with a running charging session from the store
// of record.
type SessionSource interface {
	ActiveStationIDs(ctx context.Context) ([]string, error)
}

// OccupancyStore tracks which stations currently have an active charging
// session. Redis carries the hot set; on redis trouble it falls back to the
// session repository.
type OccupancyStore struct {
	client   *redis.Client
	sessions SessionSource
	logger   *zap.Logger
}

// NewOccupancyStore returns the store. client may be nil; reads then always go
// to the session source.
func NewOccupancyStore(client *redis.Client, sessions SessionSource, logger *zap.Logger) *OccupancyStore {
	return &OccupancyStore{client: client, sessions: sessions, logger: logger}
}

// MarkActive records a running session at the station.
func (s *OccupancyStore) MarkActive(ctx context.Context, stationID string) error {
	if s.client == nil {
		return nil
	}
	return s.client.SAdd(ctx, occupancySetKey, stationID).Err()
}

// ClearActive removes the station from the active set.
func (s *OccupancyStore) ClearActive(ctx context.Context, stationID string) error {
	if s.client == nil {
		return nil
	}
	return s.client.SRem(ctx, occupancySetKey, stationID).Err()
}

// ActiveStations returns the set of station ids with a running session.
func (s *OccupancyStore) ActiveStations(ctx context.Context) (map[string]struct{}, error) {
	if s.client != nil {
		ids, err := s.client.SMembers(ctx, occupancySetKey).Result()
		if err == nil {
			return toSet(ids), nil
		}
		s.logger.Warn("occupancy read from redis failed, falling back to store", zap.Error(err))
	}

	if s.sessions == nil {
		return map[string]struct{}{}, nil
	}
	ids, err := s.sessions.ActiveStationIDs(ctx)
	if err != nil {
		return nil, err
	}
	return toSet(ids), nil
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
