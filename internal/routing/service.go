package routing

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ServiceConfig holds configuration for the caching routing service.
type ServiceConfig struct {
	// Provider is the underlying routing provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long to cache directions (default: 5 minutes).
	CacheTTL time.Duration

	// CacheGridSize is the size of cache grid cells in degrees (default:
	// 0.01 ~ 1.1km). Waypoints within the same cell share cached data.
	CacheGridSize float64

	// StaleIfErrorTTL allows serving stale data on provider errors
	// (default: 15 minutes).
	StaleIfErrorTTL time.Duration

	// CleanupInterval is how often expired entries are removed (default:
	// 5 minutes).
	CleanupInterval time.Duration
}

// Service wraps a Provider with a short-lived directions cache. It
// implements Provider itself so the engine can sit directly on top of it.
type Service struct {
	provider        Provider
	logger          zerolog.Logger
	cacheTTL        time.Duration
	cacheGridSize   float64
	staleIfErrorTTL time.Duration
	cleanupInterval time.Duration

	mu          sync.RWMutex
	cache       map[string]*cachedRoutes
	lastCleanup time.Time
}

type cachedRoutes struct {
	response  *RoutesResponse
	fetchedAt time.Time
	expiresAt time.Time
}

// NewService creates a new caching routing service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}
	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.01 // ~1.1km at equator
	}
	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 15 * time.Minute
	}
	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval == 0 {
		cleanupInterval = 5 * time.Minute
	}

	return &Service{
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		cacheTTL:        cacheTTL,
		cacheGridSize:   cacheGridSize,
		staleIfErrorTTL: staleIfErrorTTL,
		cleanupInterval: cleanupInterval,
		cache:           make(map[string]*cachedRoutes),
	}
}

// Name returns the underlying provider's name.
func (s *Service) Name() string {
	return s.provider.Name()
}

// SupportedProfiles returns the underlying provider's profiles.
func (s *Service) SupportedProfiles() []Profile {
	return s.provider.SupportedProfiles()
}

// GetRoutes returns candidate paths, served from cache when a recent
// equivalent request exists.
func (s *Service) GetRoutes(ctx context.Context, req RoutesRequest) (*RoutesResponse, error) {
	for _, wp := range req.Waypoints {
		if err := ValidateCoordinate(wp); err != nil {
			return nil, &Error{
				Provider: s.provider.Name(),
				Code:     "INVALID_WAYPOINT",
				Message:  "invalid waypoint coordinates",
				Err:      ErrInvalidCoordinates,
			}
		}
	}

	cacheKey := s.cacheKey(req)

	s.mu.RLock()
	if cached, ok := s.cache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		s.logger.Debug().Str("cache_key", cacheKey).Msg("cache hit for routes")
		return cached.response, nil
	}
	s.mu.RUnlock()

	return s.fetchRoutes(ctx, req, cacheKey)
}

// fetchRoutes fetches from the provider and updates the cache.
func (s *Service) fetchRoutes(ctx context.Context, req RoutesRequest, cacheKey string) (*RoutesResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check cache (prevents thundering herd).
	if cached, ok := s.cache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		s.logger.Debug().Str("cache_key", cacheKey).Msg("cache hit after double-check")
		return cached.response, nil
	}

	s.logger.Debug().
		Int("waypoints", len(req.Waypoints)).
		Int("block_areas", len(req.BlockAreas)).
		Str("profile", string(req.Profile)).
		Str("provider", s.provider.Name()).
		Msg("fetching routes from provider")

	resp, err := s.provider.GetRoutes(ctx, req)
	if err != nil {
		s.logger.Error().Err(err).
			Str("profile", string(req.Profile)).
			Msg("failed to fetch routes")

		// Stale-if-error: serve the previous response while the provider
		// is down.
		if cached, ok := s.cache[cacheKey]; ok {
			if time.Now().Before(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
				s.logger.Warn().
					Time("fetched_at", cached.fetchedAt).
					Str("cache_key", cacheKey).
					Msg("serving stale routes due to provider error")
				return cached.response, nil
			}
		}

		return nil, err
	}

	now := time.Now()
	s.cache[cacheKey] = &cachedRoutes{
		response:  resp,
		fetchedAt: now,
		expiresAt: now.Add(s.cacheTTL),
	}

	s.logger.Debug().
		Str("cache_key", cacheKey).
		Int("path_count", len(resp.Paths)).
		Msg("cached routes response")

	s.cleanupIfNeeded()

	return resp, nil
}

// cacheKey quantizes every waypoint onto the grid and folds the block
// areas into a hash, so requests with different avoidance constraints
// never share an entry.
func (s *Service) cacheKey(req RoutesRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%d", req.Profile, req.MaxAlternatives)
	for _, wp := range req.Waypoints {
		gridLat := math.Floor(wp.Lat/s.cacheGridSize) * s.cacheGridSize
		gridLon := math.Floor(wp.Lon/s.cacheGridSize) * s.cacheGridSize
		fmt.Fprintf(&b, ":%.2f,%.2f", gridLat, gridLon)
	}
	if len(req.BlockAreas) > 0 {
		h := fnv.New64a()
		for _, area := range req.BlockAreas {
			_, _ = h.Write([]byte(area))
			_, _ = h.Write([]byte{';'})
		}
		fmt.Fprintf(&b, ":%x", h.Sum64())
	}
	return b.String()
}

// cleanupIfNeeded removes expired entries if the cleanup interval passed.
func (s *Service) cleanupIfNeeded() {
	now := time.Now()
	if now.Sub(s.lastCleanup) < s.cleanupInterval {
		return
	}

	s.lastCleanup = now
	expired := 0
	for key, cached := range s.cache {
		if now.After(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			delete(s.cache, key)
			expired++
		}
	}

	if expired > 0 {
		s.logger.Debug().Int("expired_entries", expired).Msg("cleaned up expired route cache entries")
	}
}

// InvalidateCache clears all cached directions.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*cachedRoutes)
}
