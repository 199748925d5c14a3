package zones

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/saferoute/saferoute/internal/routing"
)

// ServiceConfig holds configuration for the zone service.
type ServiceConfig struct {
	Repository Repository
	Logger     zerolog.Logger

	// CacheTTL is how long the active-zone set is cached in memory
	// (default: 1 minute). Route planning reads it on every request.
	CacheTTL time.Duration
}

// Service manages disaster zones with a short-lived active-set cache.
type Service struct {
	repo     Repository
	logger   zerolog.Logger
	cacheTTL time.Duration

	mu          sync.RWMutex
	cache       []*Zone
	cacheExpiry time.Time
}

// NewService creates a new zone service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 1 * time.Minute
	}
	return &Service{
		repo:     cfg.Repository,
		logger:   cfg.Logger,
		cacheTTL: cacheTTL,
	}
}

// CreateInput carries the fields for a new zone.
type CreateInput struct {
	Type         Type
	Name         string
	CenterLat    float64
	CenterLon    float64
	RadiusMeters float64
	ExpiresAt    *time.Time
}

// Create registers a new active zone.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Zone, error) {
	if !ValidType(in.Type) {
		return nil, fmt.Errorf("unknown zone type %q", in.Type)
	}
	if in.RadiusMeters < 0 {
		return nil, fmt.Errorf("negative radius %f", in.RadiusMeters)
	}

	now := time.Now().UTC()
	zone := &Zone{
		ID:           uuid.NewString(),
		Type:         in.Type,
		Name:         in.Name,
		CenterLat:    in.CenterLat,
		CenterLon:    in.CenterLon,
		RadiusMeters: in.RadiusMeters,
		Active:       true,
		ExpiresAt:    in.ExpiresAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, zone); err != nil {
		return nil, fmt.Errorf("persisting zone: %w", err)
	}
	s.invalidate()

	s.logger.Info().
		Str("zone_id", zone.ID).
		Str("zone_type", string(zone.Type)).
		Str("name", zone.Name).
		Msg("zone created")

	return zone, nil
}

// Get retrieves a zone by ID.
func (s *Service) Get(ctx context.Context, id string) (*Zone, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrZoneNotFound
	}
	return s.repo.Get(ctx, id)
}

// List retrieves all zones.
func (s *Service) List(ctx context.Context) ([]*Zone, error) {
	return s.repo.List(ctx)
}

// Deactivate marks a zone cleared.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrZoneNotFound
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.invalidate()
	s.logger.Info().Str("zone_id", id).Msg("zone deactivated")
	return nil
}

// SweepExpired deactivates all zones past their expiry.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	swept, err := s.repo.DeactivateExpired(ctx)
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		s.invalidate()
		s.logger.Info().Int("swept", swept).Msg("expired zones deactivated")
	}
	return swept, nil
}

// Active returns the zones currently in force, served from cache when
// fresh. A repository failure falls back to the last known set.
func (s *Service) Active(ctx context.Context) []*Zone {
	s.mu.RLock()
	if time.Now().Before(s.cacheExpiry) {
		cached := s.cache
		s.mu.RUnlock()
		return cached
	}
	s.mu.RUnlock()

	active, err := s.repo.ListActive(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to list active zones, using last known set")
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.cache
	}

	s.mu.Lock()
	s.cache = active
	s.cacheExpiry = time.Now().Add(s.cacheTTL)
	s.mu.Unlock()

	return active
}

// ActiveBlockAreas returns the active zones encoded as provider block
// areas, plus the zone count for the risk calculator.
func (s *Service) ActiveBlockAreas(ctx context.Context) ([]string, int) {
	active := s.Active(ctx)
	if len(active) == 0 {
		return nil, 0
	}

	areas := make([]string, 0, len(active))
	for _, zone := range active {
		areas = append(areas, routing.EncodeBlockArea(zone.Ring()))
	}
	return areas, len(active)
}

func (s *Service) invalidate() {
	s.mu.Lock()
	s.cacheExpiry = time.Time{}
	s.mu.Unlock()
}
