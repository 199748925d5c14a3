// Package routing provides the route selection and risk-scoring engine:
// candidate scoring against avoidance zones, winner selection, and forced
// detour synthesis.
package routing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/saferoute/saferoute/internal/avoidance"
	"github.com/saferoute/saferoute/internal/risk"
)

// Sentinel errors for routing operations.
var (
	// ErrProviderUnavailable indicates the routing provider is down or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("routing provider unavailable")
	// ErrNoRouteFound indicates no valid route exists between the given points.
	ErrNoRouteFound = errors.New("no route found between the given points")
	// ErrRateLimitExceeded indicates the API quota has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrInvalidCoordinates indicates the provided coordinates are invalid or out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// Provider defines the interface for routing providers.
type Provider interface {
	// GetRoutes retrieves candidate paths through the given waypoints.
	// Returns alternatives when the request asks for them and the provider
	// has any.
	GetRoutes(ctx context.Context, req RoutesRequest) (*RoutesResponse, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
	// SupportedProfiles returns the vehicle profiles this provider supports.
	SupportedProfiles() []Profile
}

// Profile represents a vehicle routing profile.
type Profile string

const (
	// ProfileCar is the default driving profile.
	ProfileCar Profile = "car"
	// ProfileTruck is the heavy-vehicle profile.
	ProfileTruck Profile = "truck"
)

// Coordinate represents a geographic point in WGS84 degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

// RoutesRequest is the request for candidate paths.
type RoutesRequest struct {
	// Waypoints is the ordered point list: start, optional via points, end.
	Waypoints []Coordinate

	// Profile is the vehicle profile.
	Profile Profile

	// MaxAlternatives is the number of alternative paths to request in
	// addition to the primary one. Zero requests a single path.
	MaxAlternatives int

	// BlockAreas are encoded polygon rings the provider must exclude from
	// path computation (see EncodeBlockArea).
	BlockAreas []string

	// Details lists the per-segment detail categories to request
	// (road_class, surface, road_access).
	Details []string
}

// RoutesResponse is the provider's candidate set.
type RoutesResponse struct {
	Paths     []Path
	Provider  string
	FetchedAt time.Time
}

// Path is one candidate path.
type Path struct {
	// Points is the ordered coordinate sequence, at least 2 long.
	Points []Coordinate

	// DistanceMeters is the provider-reported total distance.
	DistanceMeters float64

	// DurationMillis is the provider-reported total duration.
	DurationMillis int64

	// Details maps detail name (road_class, surface, road_access) to its
	// per-segment entries. May be empty.
	Details map[string][]risk.Segment

	// Steps are the turn-by-turn instructions.
	Steps []Step
}

// Step is a single turn-by-turn instruction.
type Step struct {
	Text           string
	DistanceMeters float64
	DurationMillis int64
	StreetName     string
	// Anchor is the coordinate the instruction applies at.
	Anchor Coordinate
}

// EncodeBlockArea encodes a polygon ring into the provider's block-area
// wire format: `lat,lon` pairs joined by `:`. Multiple areas are joined
// with `;` by the caller.
func EncodeBlockArea(ring []avoidance.Point) string {
	if len(ring) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(ring))
	for _, p := range ring {
		pairs = append(pairs, fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lon))
	}
	return strings.Join(pairs, ":")
}

// Error provides detailed error information from the routing provider.
type Error struct {
	Provider string // Provider that generated the error
	Code     string // Error code from the provider
	Message  string // Human-readable error message
	Err      error  // Underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is transient and the request can be retried.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable) || errors.Is(e.Err, ErrRateLimitExceeded)
}

// ValidateCoordinate checks that a coordinate is within WGS84 ranges.
func ValidateCoordinate(c Coordinate) error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %f out of range [-90, 90]", c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("longitude %f out of range [-180, 180]", c.Lon)
	}
	return nil
}
