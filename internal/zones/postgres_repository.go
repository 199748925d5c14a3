package zones

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL zone repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const zoneColumns = `
	id, zone_type, name,
	center_lat, center_lon, radius_meters,
	active, expires_at, created_at, updated_at
`

// Get retrieves a zone by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Zone, error) {
	query := `SELECT` + zoneColumns + `FROM zones WHERE id = $1`

	zone, err := scanZone(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrZoneNotFound
		}
		return nil, err
	}
	return zone, nil
}

// List retrieves all zones, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]*Zone, error) {
	query := `SELECT` + zoneColumns + `FROM zones ORDER BY created_at DESC`
	return r.queryZones(ctx, query)
}

// ListActive retrieves zones currently in force.
func (r *PostgresRepository) ListActive(ctx context.Context) ([]*Zone, error) {
	query := `
		SELECT` + zoneColumns + `
		FROM zones
		WHERE active AND (expires_at IS NULL OR expires_at > now())
		ORDER BY created_at DESC
	`
	return r.queryZones(ctx, query)
}

func (r *PostgresRepository) queryZones(ctx context.Context, query string, args ...interface{}) ([]*Zone, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Zone
	for rows.Next() {
		zone, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, zone)
	}
	return result, rows.Err()
}

// Create persists a new zone.
func (r *PostgresRepository) Create(ctx context.Context, zone *Zone) error {
	query := `
		INSERT INTO zones (` + zoneColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		zone.ID,
		zone.Type,
		zone.Name,
		zone.CenterLat,
		zone.CenterLon,
		zone.RadiusMeters,
		zone.Active,
		zone.ExpiresAt,
		zone.CreatedAt,
		zone.UpdatedAt,
	)
	return err
}

// Update updates an existing zone.
func (r *PostgresRepository) Update(ctx context.Context, zone *Zone) error {
	query := `
		UPDATE zones SET
			zone_type = $2,
			name = $3,
			center_lat = $4,
			center_lon = $5,
			radius_meters = $6,
			active = $7,
			expires_at = $8,
			updated_at = $9
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		zone.ID,
		zone.Type,
		zone.Name,
		zone.CenterLat,
		zone.CenterLon,
		zone.RadiusMeters,
		zone.Active,
		zone.ExpiresAt,
		zone.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrZoneNotFound
	}
	return nil
}

// Deactivate marks a zone inactive.
func (r *PostgresRepository) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE zones SET active = false, updated_at = $2 WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, time.Now().UTC())
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrZoneNotFound
	}
	return nil
}

// DeactivateExpired marks all zones past their expiry inactive.
func (r *PostgresRepository) DeactivateExpired(ctx context.Context) (int, error) {
	query := `
		UPDATE zones SET active = false, updated_at = now()
		WHERE active AND expires_at IS NOT NULL AND expires_at <= now()
	`

	result, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return int(result.RowsAffected()), nil
}

func scanZone(row interface{ Scan(dest ...interface{}) error }) (*Zone, error) {
	var zone Zone
	err := row.Scan(
		&zone.ID,
		&zone.Type,
		&zone.Name,
		&zone.CenterLat,
		&zone.CenterLon,
		&zone.RadiusMeters,
		&zone.Active,
		&zone.ExpiresAt,
		&zone.CreatedAt,
		&zone.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &zone, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
