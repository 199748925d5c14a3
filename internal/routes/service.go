package routes

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/saferoute/saferoute/internal/routing"
	"github.com/saferoute/saferoute/pkg/polyline"
)

// Service provides route persistence operations.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

// NewService creates a new routes service.
func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// SaveInput carries the request context a plan was produced for.
type SaveInput struct {
	Start routing.Coordinate
	End   routing.Coordinate

	// StartName and EndName are display names. When empty, formatted
	// coordinates are stored instead.
	StartName string
	EndName   string
}

// SavePlan persists a plan's winning route and returns the stored record.
func (s *Service) SavePlan(ctx context.Context, plan *routing.Plan, in SaveInput) (*Route, error) {
	coords := make([]polyline.Coordinate, 0, len(plan.Path.Points))
	for _, p := range plan.Path.Points {
		coords = append(coords, polyline.Coordinate{Lat: p.Lat, Lon: p.Lon})
	}

	startName := in.StartName
	if startName == "" {
		startName = formatCoordinate(in.Start)
	}
	endName := in.EndName
	if endName == "" {
		endName = formatCoordinate(in.End)
	}

	route := &Route{
		ID:               uuid.NewString(),
		StartLocation:    startName,
		EndLocation:      endName,
		StartLat:         in.Start.Lat,
		StartLon:         in.Start.Lon,
		EndLat:           in.End.Lat,
		EndLon:           in.End.Lon,
		Geometry:         polyline.Encode(coords),
		AvoidanceRing:    plan.AvoidanceRing,
		DistanceKm:       plan.Path.DistanceMeters / 1000,
		EstimatedMinutes: float64(plan.Path.DurationMillis) / 60000,
		SafetyScore:      plan.Risk.SafetyScore,
		RiskFactors:      plan.Risk,
		Provider:         plan.Provider,
		Status:           string(plan.Status),
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, route); err != nil {
		return nil, fmt.Errorf("persisting route: %w", err)
	}

	s.logger.Info().
		Str("route_id", route.ID).
		Float64("distance_km", route.DistanceKm).
		Float64("safety_score", route.SafetyScore).
		Msg("route saved")

	return route, nil
}

// Get retrieves a route by ID.
func (s *Service) Get(ctx context.Context, id string) (*Route, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrRouteNotFound
	}
	return s.repo.Get(ctx, id)
}

// List retrieves stored routes, newest first.
func (s *Service) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	return s.repo.List(ctx, opts)
}

// Delete removes a stored route.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrRouteNotFound
	}
	return s.repo.Delete(ctx, id)
}

func formatCoordinate(c routing.Coordinate) string {
	return fmt.Sprintf("%.5f, %.5f", c.Lat, c.Lon)
}
