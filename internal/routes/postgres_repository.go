package routes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saferoute/saferoute/internal/avoidance"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL route repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const routeColumns = `
	id, start_location, end_location,
	start_lat, start_lon, end_lat, end_lon,
	geometry, avoidance_ring,
	distance_km, estimated_minutes, safety_score,
	risk_factors, provider, status, created_at
`

// Get retrieves a route by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Route, error) {
	query := `SELECT` + routeColumns + `FROM routes WHERE id = $1`

	route, err := scanRoute(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRouteNotFound
		}
		return nil, err
	}
	return route, nil
}

// List retrieves routes ordered by creation time, newest first.
func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	// Fetch one extra to determine if there are more results
	fetchLimit := limit + 1

	query := `SELECT` + routeColumns + `FROM routes`
	args := []interface{}{fetchLimit}
	if opts.Cursor != "" {
		query += ` WHERE created_at < (SELECT created_at FROM routes WHERE id = $2)`
		args = append(args, opts.Cursor)
	}
	query += ` ORDER BY created_at DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Route
	for rows.Next() {
		route, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, route)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &ListResult{Items: items}
	if len(items) > limit {
		result.Items = items[:limit]
		result.NextCursor = items[limit-1].ID
	}
	return result, nil
}

// Create persists a new route.
func (r *PostgresRepository) Create(ctx context.Context, route *Route) error {
	ringJSON, err := marshalRing(route.AvoidanceRing)
	if err != nil {
		return err
	}
	factorsJSON, err := json.Marshal(route.RiskFactors)
	if err != nil {
		return fmt.Errorf("marshaling risk factors: %w", err)
	}

	query := `
		INSERT INTO routes (` + routeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err = r.pool.Exec(ctx, query,
		route.ID,
		route.StartLocation,
		route.EndLocation,
		route.StartLat,
		route.StartLon,
		route.EndLat,
		route.EndLon,
		route.Geometry,
		ringJSON,
		route.DistanceKm,
		route.EstimatedMinutes,
		route.SafetyScore,
		factorsJSON,
		route.Provider,
		route.Status,
		route.CreatedAt,
	)
	return err
}

// Delete deletes a route by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM routes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrRouteNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRoute(row rowScanner) (*Route, error) {
	var route Route
	var ringJSON, factorsJSON []byte

	err := row.Scan(
		&route.ID,
		&route.StartLocation,
		&route.EndLocation,
		&route.StartLat,
		&route.StartLon,
		&route.EndLat,
		&route.EndLon,
		&route.Geometry,
		&ringJSON,
		&route.DistanceKm,
		&route.EstimatedMinutes,
		&route.SafetyScore,
		&factorsJSON,
		&route.Provider,
		&route.Status,
		&route.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(ringJSON) > 0 {
		if err := json.Unmarshal(ringJSON, &route.AvoidanceRing); err != nil {
			return nil, fmt.Errorf("unmarshaling avoidance ring: %w", err)
		}
	}
	if len(factorsJSON) > 0 {
		if err := json.Unmarshal(factorsJSON, &route.RiskFactors); err != nil {
			return nil, fmt.Errorf("unmarshaling risk factors: %w", err)
		}
	}
	return &route, nil
}

func marshalRing(ring []avoidance.Point) ([]byte, error) {
	if ring == nil {
		return nil, nil
	}
	data, err := json.Marshal(ring)
	if err != nil {
		return nil, fmt.Errorf("marshaling avoidance ring: %w", err)
	}
	return data, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
