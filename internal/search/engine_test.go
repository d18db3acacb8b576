package search

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"voltgrid/internal/apperr"
	"voltgrid/internal/models"
)

type fakeSource struct {
	stations []models.Station
}

func (f *fakeSource) ListStations(ctx context.Context) ([]models.Station, error) {
	return f.stations, nil
}

type fakeOccupancy map[string]struct{}

func (f fakeOccupancy) ActiveStations(ctx context.Context) (map[string]struct{}, error) {
	return f, nil
}

func testStation(id string, lat, lon float64) models.Station {
	return models.Station{
		ID:            id,
		Name:          "Station " + id,
		City:          "Lisbon",
		Country:       "Portugal",
		Latitude:      lat,
		Longitude:     lon,
		ConnectorType: "Type2",
		PowerKW:       22,
		PricePerKWh:   0.30,
		Operational:   true,
		ChargerCount:  2,
		Status:        models.StationStatusAvailable,
	}
}

func newTestEngine(stations []models.Station, occupied fakeOccupancy) *Engine {
	return NewEngine(&fakeSource{stations: stations}, occupied, zap.NewNop())
}

func TestHaversineKm(t *testing.T) {
	assert.Zero(t, HaversineKm(38.7223, -9.1393, 38.7223, -9.1393))

	// One degree of latitude at the equator.
	assert.InDelta(t, 111.19, HaversineKm(0, 0, 1, 0), 0.01)
}

func TestSearchRejectsInvalidArguments(t *testing.T) {
	engine := newTestEngine(nil, nil)
	ctx := context.Background()

	cases := []struct {
		name  string
		query Query
		field string
	}{
		{"latitude out of range", Query{Lat: 95, Lon: 0, RadiusKm: 10}, "latitude"},
		{"longitude out of range", Query{Lat: 0, Lon: 181, RadiusKm: 10}, "longitude"},
		{"zero radius", Query{Lat: 0, Lon: 0, RadiusKm: 0}, "radius_km"},
		{"radius above limit", Query{Lat: 0, Lon: 0, RadiusKm: 100.5}, "radius_km"},
		{"NaN latitude", Query{Lat: math.NaN(), Lon: 0, RadiusKm: 10}, "latitude"},
		{"infinite latitude", Query{Lat: math.Inf(1), Lon: 0, RadiusKm: 10}, "latitude"},
		{"NaN longitude", Query{Lat: 0, Lon: math.NaN(), RadiusKm: 10}, "longitude"},
		{"NaN radius", Query{Lat: 0, Lon: 0, RadiusKm: math.NaN()}, "radius_km"},
		{"infinite radius", Query{Lat: 0, Lon: 0, RadiusKm: math.Inf(1)}, "radius_km"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.Search(ctx, tc.query)
			e, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, apperr.KindInvalidArgument, e.Kind)
			assert.Equal(t, tc.field, e.Field)
		})
	}
}

func TestSearchRadiusAndOrdering(t *testing.T) {
	near := testStation("b-near", 0.1, 0) // ~11 km north
	center := testStation("a-center", 0, 0)
	far := testStation("c-far", 1, 0) // ~111 km, outside radius

	engine := newTestEngine([]models.Station{near, far, center}, nil)

	results, err := engine.Search(context.Background(), Query{Lat: 0, Lon: 0, RadiusKm: 60})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "a-center", results[0].ID)
	assert.Equal(t, "b-near", results[1].ID)
	assert.Zero(t, results[0].DistanceKm)
	assert.InDelta(t, 11.12, results[1].DistanceKm, 0.01)

	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i].DistanceKm, results[i-1].DistanceKm)
	}
}

func TestSearchTieBreaksByStationID(t *testing.T) {
	s1 := testStation("zz", 0.05, 0)
	s2 := testStation("aa", 0.05, 0)

	engine := newTestEngine([]models.Station{s1, s2}, nil)

	results, err := engine.Search(context.Background(), Query{Lat: 0, Lon: 0, RadiusKm: 10})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "aa", results[0].ID)
	assert.Equal(t, "zz", results[1].ID)
}

func TestSearchIncludesStationAtCenter(t *testing.T) {
	lisbon := testStation("lisbon", 38.7223, -9.1393)
	engine := newTestEngine([]models.Station{lisbon}, nil)

	results, err := engine.Search(context.Background(), Query{Lat: 38.7223, Lon: -9.1393, RadiusKm: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Zero(t, results[0].DistanceKm)
}

func TestSearchFiltersAreConjunctive(t *testing.T) {
	match := testStation("match", 0, 0)
	wrongConnector := testStation("wrong-connector", 0, 0)
	wrongConnector.ConnectorType = "CCS"
	tooWeak := testStation("too-weak", 0, 0)
	tooWeak.PowerKW = 7
	tooPricey := testStation("too-pricey", 0, 0)
	tooPricey.PricePerKWh = 0.80
	down := testStation("down", 0, 0)
	down.Operational = false
	elsewhere := testStation("elsewhere", 0, 0)
	elsewhere.City = "Porto"
	offline := testStation("offline", 0, 0)
	offline.Status = models.StationStatusOffline

	engine := newTestEngine([]models.Station{match, wrongConnector, tooWeak, tooPricey, down, elsewhere, offline}, nil)

	minPower := 11.0
	maxPrice := 0.50
	operational := true
	results, err := engine.Search(context.Background(), Query{
		Lat: 0, Lon: 0, RadiusKm: 10,
		Filters: Filters{
			ConnectorType: "Type2",
			MinPowerKW:    &minPower,
			MaxPrice:      &maxPrice,
			Operational:   &operational,
			City:          "lis", // substring, case-insensitive
			Status:        models.StationStatusAvailable,
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "match", results[0].ID)
}

func TestSearchAvailableOnlyExcludesOccupiedStations(t *testing.T) {
	free := testStation("free", 0, 0)
	busy := testStation("busy", 0, 0)

	engine := newTestEngine([]models.Station{free, busy}, fakeOccupancy{"busy": {}})

	results, err := engine.Search(context.Background(), Query{
		Lat: 0, Lon: 0, RadiusKm: 10,
		Filters: Filters{AvailableOnly: true},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "free", results[0].ID)
}

func TestSearchNaNRadiusDoesNotRetainDistantStations(t *testing.T) {
	// Comparisons with NaN are always false, so without the explicit check a
	// NaN radius would pass validation and keep every station in the catalogue.
	far := testStation("far", 50, 50)
	engine := newTestEngine([]models.Station{far}, nil)

	results, err := engine.Search(context.Background(), Query{Lat: 0, Lon: 0, RadiusKm: math.NaN()})
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
	assert.Nil(t, results)
}

func TestSearchEmptyResultIsNotAnError(t *testing.T) {
	engine := newTestEngine(nil, nil)

	results, err := engine.Search(context.Background(), Query{Lat: 0, Lon: 0, RadiusKm: 5})
	require.NoError(t, err)
	assert.Empty(t, results)
}
