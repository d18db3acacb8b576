package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"voltgrid/internal/models"
)

func TestStationCacheMemoizesLoader(t *testing.T) {
	calls := 0
	loader := func(ctx context.Context) ([]models.Station, error) {
		calls++
		return []models.Station{{ID: "st-1"}, {ID: "st-2"}}, nil
	}
	c := NewStationCache(nil, loader, 8, time.Minute, zap.NewNop())
	ctx := context.Background()

	first, err := c.ListStations(ctx)
	require.NoError(t, err)
	second, err := c.ListStations(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestStationCacheInvalidate(t *testing.T) {
	calls := 0
	loader := func(ctx context.Context) ([]models.Station, error) {
		calls++
		return []models.Station{{ID: "st-1"}}, nil
	}
	c := NewStationCache(nil, loader, 8, time.Minute, zap.NewNop())
	ctx := context.Background()

	_, err := c.ListStations(ctx)
	require.NoError(t, err)

	c.Invalidate(ctx)

	_, err = c.ListStations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
