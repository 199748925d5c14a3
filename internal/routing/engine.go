package routing

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/saferoute/saferoute/internal/avoidance"
	"github.com/saferoute/saferoute/internal/geometry"
	"github.com/saferoute/saferoute/internal/risk"
	"github.com/saferoute/saferoute/pkg/polyline"
)

const tracerName = "github.com/saferoute/saferoute/internal/routing"

// degenerateDistanceMeters flags a provider data gap: a path whose points
// collapse to a single repeated coordinate while the provider still reports
// a distance above this threshold is unusable.
const degenerateDistanceMeters = 1000

// fallbackSpeedKmh is the assumed speed for the synthetic fallback path's
// placeholder duration.
const fallbackSpeedKmh = 50.0

// PlanStatus reports whether the engine produced a real provider route or
// degraded to a synthetic one.
type PlanStatus string

const (
	// StatusOK means the winning path came from the routing provider.
	StatusOK PlanStatus = "OK"
	// StatusDegraded means the provider failed and the winning path is
	// synthetic.
	StatusDegraded PlanStatus = "DEGRADED"
)

// EngineConfig holds the engine's collaborators and tuning constants.
type EngineConfig struct {
	// Provider supplies candidate paths.
	Provider Provider

	// ZoneBuilder cleans raw avoidance polygons.
	ZoneBuilder *avoidance.Builder

	// Risk derives safety breakdowns.
	Risk *risk.Calculator

	// Logger for engine operations.
	Logger zerolog.Logger

	// Profile is the vehicle profile (default: car).
	Profile Profile

	// MaxAlternatives is how many alternatives to request beyond the
	// primary path (default: 2, i.e. up to 3 candidates).
	MaxAlternatives int

	// DetourOffset is the perpendicular waypoint displacement in degrees
	// (default: DefaultDetourOffset).
	DetourOffset float64
}

// Engine runs the route selection pipeline. All per-request state lives on
// the stack, so a single Engine is safe for concurrent requests.
type Engine struct {
	provider    Provider
	zoneBuilder *avoidance.Builder
	risk        *risk.Calculator
	logger      zerolog.Logger
	profile     Profile
	maxAlts     int
	detourOff   float64
}

// NewEngine creates an Engine, filling zero config fields with defaults.
func NewEngine(cfg EngineConfig) *Engine {
	profile := cfg.Profile
	if profile == "" {
		profile = ProfileCar
	}
	maxAlts := cfg.MaxAlternatives
	if maxAlts == 0 {
		maxAlts = 2
	}
	detourOff := cfg.DetourOffset
	if detourOff == 0 {
		detourOff = DefaultDetourOffset
	}
	return &Engine{
		provider:    cfg.Provider,
		zoneBuilder: cfg.ZoneBuilder,
		risk:        cfg.Risk,
		logger:      cfg.Logger,
		profile:     profile,
		maxAlts:     maxAlts,
		detourOff:   detourOff,
	}
}

// PlanRequest is one route planning request.
type PlanRequest struct {
	Start Coordinate
	End   Coordinate

	// AvoidancePoints is the raw user-drawn avoidance polygon, possibly
	// empty.
	AvoidancePoints []avoidance.Point

	// ExtraBlockAreas are additional pre-encoded block areas (active
	// disaster zones) passed through to the provider.
	ExtraBlockAreas []string

	// ExtraZoneCount is how many extra avoidance constraints the block
	// areas represent, feeding the risk calculator's avoidance factor.
	ExtraZoneCount int

	// RequestedIndex optionally forces selection of a specific candidate.
	RequestedIndex *int
}

// Plan is the engine's result.
type Plan struct {
	Status   PlanStatus
	Provider string

	// SelectedIndex is the winner's index within Candidates.
	SelectedIndex int

	// Path is the winning path.
	Path Path

	// IntersectionRatio is the winner's overlap with the avoidance zone.
	IntersectionRatio float64

	// Risk is the winner's full safety breakdown.
	Risk risk.Breakdown

	// BlockAreaApplied reports whether any block-area constraint was sent
	// to the provider.
	BlockAreaApplied bool

	// DetourApplied reports whether a forced detour replaced the original
	// selection.
	DetourApplied bool

	// AvoidanceRing is the cleaned avoidance polygon's exterior ring, nil
	// when no usable polygon was supplied.
	AvoidanceRing []avoidance.Point

	// Candidates are all scored alternatives, for summary display.
	Candidates []ScoredCandidate
}

// PlanRoute runs the full pipeline: clean the avoidance polygon, fetch and
// score candidates, select a winner, attempt forced detours when the winner
// is not clean, and compute the final risk breakdown. Provider failures
// degrade to a synthetic path rather than an error; only invalid input
// returns one.
func (e *Engine) PlanRoute(ctx context.Context, req PlanRequest) (*Plan, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "engine.PlanRoute")
	defer span.End()

	if err := ValidateCoordinate(req.Start); err != nil {
		return nil, &Error{Provider: e.provider.Name(), Code: "INVALID_START", Message: "invalid start coordinates", Err: ErrInvalidCoordinates}
	}
	if err := ValidateCoordinate(req.End); err != nil {
		return nil, &Error{Provider: e.provider.Name(), Code: "INVALID_END", Message: "invalid end coordinates", Err: ErrInvalidCoordinates}
	}

	var zone *avoidance.Zone
	if len(req.AvoidancePoints) > 0 {
		zone = e.zoneBuilder.Build(req.AvoidancePoints,
			avoidance.Point{Lat: req.Start.Lat, Lon: req.Start.Lon},
			avoidance.Point{Lat: req.End.Lat, Lon: req.End.Lon})
	}

	blockAreas := make([]string, 0, 1+len(req.ExtraBlockAreas))
	avoidanceCount := req.ExtraZoneCount
	if zone != nil {
		blockAreas = append(blockAreas, EncodeBlockArea(zone.Ring))
		avoidanceCount++
	}
	blockAreas = append(blockAreas, req.ExtraBlockAreas...)

	span.SetAttributes(
		attribute.Bool("avoidance.zone", zone != nil),
		attribute.Int("avoidance.count", avoidanceCount),
	)

	resp, err := e.provider.GetRoutes(ctx, RoutesRequest{
		Waypoints:       []Coordinate{req.Start, req.End},
		Profile:         e.profile,
		MaxAlternatives: e.maxAlts,
		BlockAreas:      blockAreas,
		Details:         []string{risk.DetailRoadClass, risk.DetailSurface, risk.DetailRoadAccess},
	})
	if err != nil || len(resp.Paths) == 0 || allDegenerate(resp.Paths) {
		if err != nil {
			e.logger.Warn().Err(err).Msg("routing provider failed, degrading to synthetic path")
		} else {
			e.logger.Warn().Int("paths", len(resp.Paths)).Msg("no usable provider paths, degrading to synthetic path")
		}
		return e.fallbackPlan(req, zone, avoidanceCount, len(blockAreas) > 0), nil
	}

	candidates := ScoreCandidates(resp.Paths, zone, e.risk, avoidanceCount)
	selection := Select(candidates, req.RequestedIndex, zone != nil)

	detourApplied := false
	if selection.NeedsDetour {
		if improved, ok := e.attemptDetours(ctx, req, zone, blockAreas, avoidanceCount, selection.Ratio); ok {
			candidates = []ScoredCandidate{improved}
			selection = Selection{Index: 0, Ratio: improved.IntersectionRatio}
			detourApplied = true
		}
	}

	winner := candidates[selection.Index]
	breakdown := e.risk.Calculate(winner.Path.Details, avoidanceCount)

	span.SetAttributes(
		attribute.Int("candidates", len(candidates)),
		attribute.Int("selected", selection.Index),
		attribute.Float64("intersection_ratio", selection.Ratio),
		attribute.Bool("detour_applied", detourApplied),
	)

	plan := &Plan{
		Status:            StatusOK,
		Provider:          resp.Provider,
		SelectedIndex:     selection.Index,
		Path:              winner.Path,
		IntersectionRatio: selection.Ratio,
		Risk:              breakdown,
		BlockAreaApplied:  len(blockAreas) > 0,
		DetourApplied:     detourApplied,
		Candidates:        candidates,
	}
	if zone != nil {
		plan.AvoidanceRing = zone.Ring
	}
	return plan, nil
}

// attemptDetours issues both detour requests concurrently and returns the
// best-scoring detour candidate when it strictly improves on bestRatio.
// A failed attempt is logged and skipped; it never blocks the other.
func (e *Engine) attemptDetours(ctx context.Context, req PlanRequest, zone *avoidance.Zone, blockAreas []string, avoidanceCount int, bestRatio float64) (ScoredCandidate, bool) {
	centroid := geometry.Centroid(zone.Polygon)
	waypoints := DetourWaypoints(req.Start, req.End, Coordinate{Lat: centroid[1], Lon: centroid[0]}, e.detourOff)

	results := make(chan ScoredCandidate, len(waypoints))
	var wg sync.WaitGroup
	for _, wp := range waypoints {
		wg.Add(1)
		go func(via Coordinate) {
			defer wg.Done()
			resp, err := e.provider.GetRoutes(ctx, RoutesRequest{
				Waypoints:  []Coordinate{req.Start, via, req.End},
				Profile:    e.profile,
				BlockAreas: blockAreas,
				Details:    []string{risk.DetailRoadClass, risk.DetailSurface, risk.DetailRoadAccess},
			})
			if err != nil || len(resp.Paths) == 0 {
				e.logger.Warn().Err(err).
					Float64("via_lat", via.Lat).
					Float64("via_lon", via.Lon).
					Msg("detour attempt failed, skipping")
				return
			}
			results <- scoreCandidate(0, resp.Paths[0], zone, e.risk, avoidanceCount)
		}(wp)
	}
	wg.Wait()
	close(results)

	var best ScoredCandidate
	found := false
	for c := range results {
		if !found || c.IntersectionRatio < best.IntersectionRatio {
			best = c
			found = true
		}
	}
	if !found || best.IntersectionRatio >= bestRatio {
		return ScoredCandidate{}, false
	}

	e.logger.Info().
		Float64("original_ratio", bestRatio).
		Float64("detour_ratio", best.IntersectionRatio).
		Msg("forced detour replaced original selection")
	return best, true
}

// fallbackPlan builds the degraded response: a synthetic straight-line
// path, deflected around the zone centroid when a zone is active, with
// placeholder distance and duration. The degradation is explicit in the
// plan status rather than silently returning nonsense.
func (e *Engine) fallbackPlan(req PlanRequest, zone *avoidance.Zone, avoidanceCount int, blocked bool) *Plan {
	points := syntheticPath(req.Start, req.End, zone, e.detourOff)

	coords := make([]polyline.Coordinate, 0, len(points))
	for _, p := range points {
		coords = append(coords, polyline.Coordinate{Lat: p.Lat, Lon: p.Lon})
	}
	meters := polyline.Length(coords)
	millis := int64(meters / (fallbackSpeedKmh / 3.6) * 1000)

	path := Path{
		Points:         points,
		DistanceMeters: meters,
		DurationMillis: millis,
	}
	breakdown := e.risk.Calculate(nil, avoidanceCount)

	candidate := ScoredCandidate{
		Path:              path,
		IntersectionRatio: IntersectionRatio(points, zone),
		DistanceKm:        meters / 1000,
		DurationMin:       float64(millis) / 60000,
		SafetyScore:       breakdown.SafetyScore,
	}

	plan := &Plan{
		Status:            StatusDegraded,
		Provider:          e.provider.Name(),
		Path:              path,
		IntersectionRatio: candidate.IntersectionRatio,
		Risk:              breakdown,
		BlockAreaApplied:  blocked,
		Candidates:        []ScoredCandidate{candidate},
	}
	if zone != nil {
		plan.AvoidanceRing = zone.Ring
	}
	return plan
}

// syntheticPath interpolates a polyline between start and end. With an
// active zone the line is bent through a centroid-deflected waypoint so the
// placeholder route at least gestures away from the hazard.
func syntheticPath(start, end Coordinate, zone *avoidance.Zone, offset float64) []Coordinate {
	const sampleIntervalMeters = 5000

	via := []Coordinate{start, end}
	if zone != nil {
		centroid := geometry.Centroid(zone.Polygon)
		detours := DetourWaypoints(start, end, Coordinate{Lat: centroid[1], Lon: centroid[0]}, offset/2)
		via = []Coordinate{start, detours[0], end}
	}

	coords := make([]polyline.Coordinate, 0, len(via))
	for _, p := range via {
		coords = append(coords, polyline.Coordinate{Lat: p.Lat, Lon: p.Lon})
	}

	sampled := polyline.Sample(coords, sampleIntervalMeters)
	points := make([]Coordinate, 0, len(sampled))
	for _, c := range sampled {
		points = append(points, Coordinate{Lat: c.Lat, Lon: c.Lon})
	}
	return points
}

// allDegenerate reports whether every path collapses to a single repeated
// point while claiming a long distance, signaling a provider data gap.
func allDegenerate(paths []Path) bool {
	for _, p := range paths {
		if !isDegenerate(p) {
			return false
		}
	}
	return true
}

func isDegenerate(p Path) bool {
	if len(p.Points) < 2 {
		return p.DistanceMeters > degenerateDistanceMeters
	}
	first := p.Points[0]
	for _, pt := range p.Points[1:] {
		if pt != first {
			return false
		}
	}
	return p.DistanceMeters > degenerateDistanceMeters
}
