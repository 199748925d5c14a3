package routing

import (
	"github.com/paulmach/orb"

	"github.com/saferoute/saferoute/internal/avoidance"
	"github.com/saferoute/saferoute/internal/geometry"
)

// minPathLength floors the ratio denominator to guard against division by
// a near-zero path length.
const minPathLength = 1e-9

// IntersectionRatio computes the fraction of the path's length lying inside
// the avoidance zone, in [0,1]. A nil zone or a path that never enters the
// zone scores exactly 0. This ratio is the single ranking key for candidate
// selection: lower is better, 0 means clean.
func IntersectionRatio(points []Coordinate, zone *avoidance.Zone) float64 {
	if zone == nil || len(points) < 2 {
		return 0
	}

	line := make(orb.LineString, 0, len(points))
	for _, p := range points {
		line = append(line, orb.Point{p.Lon, p.Lat})
	}

	pieces := geometry.LineIntersectPolygon(line, zone.Polygon)
	if len(pieces) == 0 {
		return 0
	}

	var inside float64
	for _, piece := range pieces {
		inside += geometry.Length(piece)
	}

	total := geometry.Length(line)
	if total < minPathLength {
		total = minPathLength
	}

	ratio := inside / total
	if ratio > 1 {
		ratio = 1
	}
	return ratio
}
