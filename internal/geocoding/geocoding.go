// Package geocoding resolves free-text place names to coordinates.
package geocoding

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Sentinel errors for geocoding operations.
var (
	// ErrNotFound indicates no location matched the query.
	ErrNotFound = errors.New("location not found")
	// ErrUnavailable indicates the geocoding provider is down.
	ErrUnavailable = errors.New("geocoding provider unavailable")
)

// Location is a resolved place.
type Location struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	DisplayName string  `json:"displayName"`
}

// Geocoder resolves a free-text query to its best-matching location.
type Geocoder interface {
	Search(ctx context.Context, query string) (*Location, error)
	Name() string
}

// linearBackOff waits interval*attempt between tries, so successive
// retries back off as 1x, 2x, 3x the base interval.
type linearBackOff struct {
	interval time.Duration
	attempt  int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return time.Duration(b.attempt) * b.interval
}

func (b *linearBackOff) Reset() {
	b.attempt = 0
}

// ServiceConfig holds configuration for the retrying geocoding service.
type ServiceConfig struct {
	// Geocoder is the underlying provider.
	Geocoder Geocoder

	// Logger for service operations.
	Logger zerolog.Logger

	// MaxRetries is the number of additional attempts after the first
	// failure (default: 3).
	MaxRetries uint64

	// RetryInterval is the linear backoff base interval (default: 300ms).
	RetryInterval time.Duration
}

// Service wraps a Geocoder with retries. Not-found results are terminal;
// only provider failures are retried.
type Service struct {
	geocoder      Geocoder
	logger        zerolog.Logger
	maxRetries    uint64
	retryInterval time.Duration
}

// NewService creates a geocoding service, filling zero config fields with
// defaults.
func NewService(cfg ServiceConfig) *Service {
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}
	retryInterval := cfg.RetryInterval
	if retryInterval == 0 {
		retryInterval = 300 * time.Millisecond
	}
	return &Service{
		geocoder:      cfg.Geocoder,
		logger:        cfg.Logger,
		maxRetries:    maxRetries,
		retryInterval: retryInterval,
	}
}

// Search resolves a query, retrying transient provider failures with
// linear backoff.
func (s *Service) Search(ctx context.Context, query string) (*Location, error) {
	if query == "" {
		return nil, ErrNotFound
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{interval: s.retryInterval}, s.maxRetries),
		ctx,
	)

	var loc *Location
	operation := func() error {
		result, err := s.geocoder.Search(ctx, query)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return backoff.Permanent(err)
			}
			s.logger.Warn().Err(err).Str("query", query).Msg("geocoding attempt failed, retrying")
			return err
		}
		loc = result
		return nil
	}

	if err := backoff.Retry(operation, bo); err != nil {
		return nil, err
	}
	return loc, nil
}
