// Package graphhopper provides a client for the GraphHopper route API.
package graphhopper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/saferoute/saferoute/internal/provider/resilience"
	"github.com/saferoute/saferoute/internal/risk"
	"github.com/saferoute/saferoute/internal/routing"
	"github.com/saferoute/saferoute/pkg/polyline"
)

const (
	// ProviderName identifies this routing provider.
	ProviderName = "graphhopper"

	// DefaultBaseURL is the GraphHopper API base URL.
	DefaultBaseURL = "https://graphhopper.com/api/1"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the GraphHopper client.
type ClientConfig struct {
	// APIKey is the GraphHopper API key (required for the hosted API).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to the hosted API;
	// point it at a self-hosted instance otherwise).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a GraphHopper API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new GraphHopper client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		if cfg.Registry != nil {
			clientCfg.Registry = cfg.Registry
		}
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// SupportedProfiles returns the supported routing profiles.
func (c *Client) SupportedProfiles() []routing.Profile {
	return []routing.Profile{
		routing.ProfileCar,
		routing.ProfileTruck,
	}
}

// GetRoutes retrieves candidate paths through the given waypoints.
func (c *Client) GetRoutes(ctx context.Context, req routing.RoutesRequest) (*routing.RoutesResponse, error) {
	if len(req.Waypoints) < 2 {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "TOO_FEW_WAYPOINTS",
			Message:  "at least two waypoints are required",
			Err:      routing.ErrInvalidCoordinates,
		}
	}
	for _, wp := range req.Waypoints {
		if err := routing.ValidateCoordinate(wp); err != nil {
			return nil, &routing.Error{
				Provider: ProviderName,
				Code:     "INVALID_WAYPOINT",
				Message:  "invalid waypoint coordinates",
				Err:      routing.ErrInvalidCoordinates,
			}
		}
	}

	profile := req.Profile
	if profile == "" {
		profile = routing.ProfileCar
	}

	points := make([][]float64, 0, len(req.Waypoints))
	for _, wp := range req.Waypoints {
		// GraphHopper uses [lon, lat] order (GeoJSON).
		points = append(points, []float64{wp.Lon, wp.Lat})
	}

	ghReq := ghRequest{
		Points:        points,
		Profile:       string(profile),
		Details:       req.Details,
		Instructions:  true,
		CalcPoints:    true,
		PointsEncoded: true,
		Locale:        "en",
	}

	// Alternatives are only supported for two-point requests; via-point
	// detour requests get the single best path.
	if req.MaxAlternatives > 0 && len(req.Waypoints) == 2 {
		ghReq.Algorithm = "alternative_route"
		ghReq.AlternativeRoute = &altOpts{MaxPaths: req.MaxAlternatives + 1}
	}

	// block_area requires the flexible algorithm, so contraction
	// hierarchies must be disabled alongside it.
	if len(req.BlockAreas) > 0 {
		ghReq.BlockArea = strings.Join(req.BlockAreas, ";")
		ghReq.CHDisable = true
	}

	body, err := json.Marshal(ghReq)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/route?key=%s", c.baseURL, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("profile", string(profile)).
		Int("waypoints", len(req.Waypoints)).
		Int("block_areas", len(req.BlockAreas)).
		Msg("requesting routes from GraphHopper")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach routing provider",
			Err:      routing.ErrProviderUnavailable,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(resp.StatusCode, respBody)
	}

	var ghResp ghResponse
	if err := json.Unmarshal(respBody, &ghResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	result := c.toRoutesResponse(&ghResp)

	c.logger.Debug().
		Int("path_count", len(result.Paths)).
		Msg("received routes from GraphHopper")

	return result, nil
}

// handleErrorResponse maps GraphHopper error responses to domain errors.
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	var ghErr ghErrorResponse
	if err := json.Unmarshal(body, &ghErr); err != nil {
		return &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", statusCode),
			Message:  fmt.Sprintf("routing provider returned status %d", statusCode),
			Err:      routing.ErrProviderUnavailable,
		}
	}

	switch statusCode {
	case http.StatusTooManyRequests:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "RATE_LIMIT",
			Message:  "API rate limit exceeded, please try again later",
			Err:      routing.ErrRateLimitExceeded,
		}
	case http.StatusUnauthorized, http.StatusForbidden:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "FORBIDDEN",
			Message:  "API access denied - check API key configuration",
			Err:      routing.ErrProviderUnavailable,
		}
	case http.StatusBadRequest:
		// GraphHopper reports unroutable point pairs as a 400 with a
		// connection-not-found message rather than a distinct status.
		if isNoRouteMessage(ghErr.Message) {
			return &routing.Error{
				Provider: ProviderName,
				Code:     "NO_ROUTE",
				Message:  ghErr.Message,
				Err:      routing.ErrNoRouteFound,
			}
		}
		return &routing.Error{
			Provider: ProviderName,
			Code:     "BAD_REQUEST",
			Message:  ghErr.Message,
			Err:      routing.ErrInvalidCoordinates,
		}
	default:
		if statusCode >= 500 {
			return &routing.Error{
				Provider: ProviderName,
				Code:     fmt.Sprintf("SERVER_%d", statusCode),
				Message:  "routing provider is temporarily unavailable",
				Err:      routing.ErrProviderUnavailable,
			}
		}
		return &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", statusCode),
			Message:  ghErr.Message,
			Err:      routing.ErrProviderUnavailable,
		}
	}
}

func isNoRouteMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "connection between locations not found") ||
		strings.Contains(lower, "cannot find point")
}

// toRoutesResponse converts a GraphHopper response to the domain model.
func (c *Client) toRoutesResponse(resp *ghResponse) *routing.RoutesResponse {
	paths := make([]routing.Path, 0, len(resp.Paths))

	for i := range resp.Paths {
		ghPath := &resp.Paths[i]

		decoded := polyline.Decode(ghPath.Points)
		points := make([]routing.Coordinate, 0, len(decoded))
		for _, p := range decoded {
			points = append(points, routing.Coordinate{Lat: p.Lat, Lon: p.Lon})
		}

		path := routing.Path{
			Points:         points,
			DistanceMeters: ghPath.Distance,
			DurationMillis: ghPath.Time,
		}

		if len(ghPath.Details) > 0 {
			path.Details = make(map[string][]risk.Segment, len(ghPath.Details))
			for name, entries := range ghPath.Details {
				segs := make([]risk.Segment, 0, len(entries))
				for _, e := range entries {
					segs = append(segs, risk.Segment{From: e.From, To: e.To, Value: e.Value})
				}
				path.Details[name] = segs
			}
		}

		for _, inst := range ghPath.Instructions {
			step := routing.Step{
				Text:           inst.Text,
				DistanceMeters: inst.Distance,
				DurationMillis: inst.Time,
				StreetName:     inst.StreetName,
			}
			if len(inst.Interval) > 0 && inst.Interval[0] < len(points) {
				step.Anchor = points[inst.Interval[0]]
			}
			path.Steps = append(path.Steps, step)
		}

		paths = append(paths, path)
	}

	return &routing.RoutesResponse{
		Paths:     paths,
		Provider:  ProviderName,
		FetchedAt: time.Now(),
	}
}
