package repository

import (
	"context"
	"database/sql"
	"errors"

	"voltgrid/internal/models"
)

// StationRepository persists the station catalogue.
type StationRepository struct {
	db *sql.DB
}

// NewStationRepository returns repository.
func NewStationRepository(db *sql.DB) *StationRepository {
	return &StationRepository{db: db}
}

const stationColumns = `id, name, address, city, country, latitude, longitude,
	connector_type, power_kw, price_per_kwh, operational, charger_count, status,
	created_at, updated_at`

// Upsert creates the station or updates an existing one by id.
func (r *StationRepository) Upsert(ctx context.Context, station *models.Station) error {
	const query = `
		INSERT INTO stations (id, name, address, city, country, latitude, longitude,
			connector_type, power_kw, price_per_kwh, operational, charger_count, status,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			address = EXCLUDED.address,
			city = EXCLUDED.city,
			country = EXCLUDED.country,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			connector_type = EXCLUDED.connector_type,
			power_kw = EXCLUDED.power_kw,
			price_per_kwh = EXCLUDED.price_per_kwh,
			operational = EXCLUDED.operational,
			charger_count = EXCLUDED.charger_count,
			status = EXCLUDED.status,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		station.ID,
		station.Name,
		station.Address,
		station.City,
		station.Country,
		station.Latitude,
		station.Longitude,
		station.ConnectorType,
		station.PowerKW,
		station.PricePerKWh,
		station.Operational,
		station.ChargerCount,
		station.Status,
	).Scan(&station.CreatedAt, &station.UpdatedAt)
}

// GetByID returns a single station or ErrNotFound.
func (r *StationRepository) GetByID(ctx context.Context, id string) (*models.Station, error) {
	const query = `
		SELECT ` + stationColumns + `
		FROM stations
		WHERE id = $1
	`
	var s models.Station
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID,
		&s.Name,
		&s.Address,
		&s.City,
		&s.Country,
		&s.Latitude,
		&s.Longitude,
		&s.ConnectorType,
		&s.PowerKW,
		&s.PricePerKWh,
		&s.Operational,
		&s.ChargerCount,
		&s.Status,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListAll returns the whole catalogue ordered by id.
func (r *StationRepository) ListAll(ctx context.Context) ([]models.Station, error) {
	const query = `
		SELECT ` + stationColumns + `
		FROM stations
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanStations(rows)
}

// Delete removes the station. Returns ErrNotFound when no row matched.
func (r *StationRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM stations WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanStations(rows *sql.Rows) ([]models.Station, error) {
	var stations []models.Station
	for rows.Next() {
		var s models.Station
		if err := rows.Scan(
			&s.ID,
			&s.Name,
			&s.Address,
			&s.City,
			&s.Country,
			&s.Latitude,
			&s.Longitude,
			&s.ConnectorType,
			&s.PowerKW,
			&s.PricePerKWh,
			&s.Operational,
			&s.ChargerCount,
			&s.Status,
			&s.CreatedAt,
			&s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		stations = append(stations, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stations, nil
}
