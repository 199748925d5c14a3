// Package avoidance turns raw user-drawn polygon vertices into a cleaned,
// buffered avoidance zone the route engine can score candidates against.
package avoidance

import (
	"github.com/paulmach/orb"
	"github.com/rs/zerolog"

	"github.com/saferoute/saferoute/internal/geometry"
)

// Point is a geographic vertex in WGS84 degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Zone is a cleaned avoidance polygon. It is built once per request and
// never mutated afterwards.
type Zone struct {
	// Polygon is the simplified, buffered, envelope-clipped region.
	Polygon orb.Polygon

	// Ring is the exterior ring of Polygon, closed (first == last), in
	// lat/lon order for provider payloads and persistence.
	Ring []Point
}

// Config holds the zone-cleaning tuning constants. All values are in
// degrees; at mid latitudes 0.0001 degrees is roughly 10 meters.
type Config struct {
	// SimplifyTolerance is the Douglas-Peucker tolerance applied before
	// buffering, bounding later intersection-test cost. Default 0.0003
	// (~30m).
	SimplifyTolerance float64

	// BufferRadius is the outward safety margin so routes must clear the
	// zone rather than merely avoid touching its boundary. Default 0.00045
	// (~50m).
	BufferRadius float64

	// EnvelopePadding expands the start/end bounding box used to clip
	// pathological polygons. Default 0.5.
	EnvelopePadding float64
}

// DefaultConfig returns the tuning constants used in production.
func DefaultConfig() Config {
	return Config{
		SimplifyTolerance: 0.0003,
		BufferRadius:      0.00045,
		EnvelopePadding:   0.5,
	}
}

// Builder cleans raw avoidance polygons.
type Builder struct {
	cfg    Config
	logger zerolog.Logger
}

// NewBuilder creates a Builder, filling zero config fields with defaults.
func NewBuilder(cfg Config, logger zerolog.Logger) *Builder {
	def := DefaultConfig()
	if cfg.SimplifyTolerance == 0 {
		cfg.SimplifyTolerance = def.SimplifyTolerance
	}
	if cfg.BufferRadius == 0 {
		cfg.BufferRadius = def.BufferRadius
	}
	if cfg.EnvelopePadding == 0 {
		cfg.EnvelopePadding = def.EnvelopePadding
	}
	return &Builder{cfg: cfg, logger: logger}
}

// Build turns raw ordered vertices into a Zone. It returns nil when fewer
// than 3 distinct vertices were supplied; every other input, including an
// invalid self-intersecting ring, still produces a usable zone. Build
// never fails.
func (b *Builder) Build(points []Point, start, end Point) *Zone {
	distinct := dedupe(points)
	if len(distinct) < 3 {
		return nil
	}

	ring := make(orb.Ring, 0, len(distinct)+1)
	for _, p := range distinct {
		ring = append(ring, orb.Point{p.Lon, p.Lat})
	}
	if !ring.Closed() {
		ring = append(ring, ring[0])
	}

	if !geometry.IsValidRing(ring) {
		// Tolerated: real user-drawn input is frequently self-intersecting
		// and the buffered result is still a usable constraint.
		b.logger.Warn().
			Int("vertices", len(distinct)).
			Msg("avoidance ring failed validity check, proceeding anyway")
	}

	poly := geometry.Simplify(orb.Polygon{ring}, b.cfg.SimplifyTolerance)
	poly = geometry.Buffer(poly, b.cfg.BufferRadius)

	clipped, ok := geometry.ClipToEnvelope(poly, b.envelope(start, end))
	if ok {
		poly = clipped
	} else {
		b.logger.Debug().Msg("envelope clip produced non-polygon result, keeping unclipped zone")
	}

	return &Zone{
		Polygon: poly,
		Ring:    exteriorRing(poly),
	}
}

// envelope is the start/end bounding box expanded by the configured padding.
func (b *Builder) envelope(start, end Point) orb.Bound {
	minLon, maxLon := start.Lon, end.Lon
	if minLon > maxLon {
		minLon, maxLon = maxLon, minLon
	}
	minLat, maxLat := start.Lat, end.Lat
	if minLat > maxLat {
		minLat, maxLat = maxLat, minLat
	}

	pad := b.cfg.EnvelopePadding
	return orb.Bound{
		Min: orb.Point{minLon - pad, minLat - pad},
		Max: orb.Point{maxLon + pad, maxLat + pad},
	}
}

func exteriorRing(poly orb.Polygon) []Point {
	if len(poly) == 0 {
		return nil
	}
	ring := make([]Point, 0, len(poly[0]))
	for _, pt := range poly[0] {
		ring = append(ring, Point{Lat: pt[1], Lon: pt[0]})
	}
	return ring
}

func dedupe(points []Point) []Point {
	seen := make(map[Point]struct{}, len(points))
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
