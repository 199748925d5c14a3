// Package geometry wraps the planar primitives the route engine depends on
// behind a narrow surface. All coordinates are WGS84 degrees in orb's
// (lon, lat) point order. None of these functions return errors: degenerate
// input yields empty or unchanged results and callers check cardinality.
package geometry

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"
)

// IsValidRing reports whether the ring is a closed, simple polygon boundary:
// at least 3 distinct vertices, first == last, and no two non-adjacent edges
// crossing each other.
func IsValidRing(ring orb.Ring) bool {
	if len(ring) < 4 {
		return false
	}
	if !ring.Closed() {
		return false
	}

	// Edges i and j cross when they intersect strictly between their
	// endpoints. Adjacent edges share a vertex and are skipped.
	n := len(ring) - 1
	for i := 0; i < n; i++ {
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue // first and last edge are adjacent on a closed ring
			}
			if segmentsCross(ring[i], ring[i+1], ring[j], ring[j+1]) {
				return false
			}
		}
	}
	return true
}

// Simplify reduces the polygon's vertex count with a topology-preserving
// Douglas-Peucker pass. Tolerance is in degrees.
func Simplify(poly orb.Polygon, tolerance float64) orb.Polygon {
	return simplify.DouglasPeucker(tolerance).Polygon(poly.Clone())
}

// Buffer expands the polygon outward by radius degrees by displacing each
// exterior-ring vertex away from the polygon centroid. This is a coarse
// Minkowski approximation used as a safety margin, not an exact offset
// curve; for convex-ish hazard zones the error is well below the margin
// itself.
func Buffer(poly orb.Polygon, radius float64) orb.Polygon {
	if len(poly) == 0 || len(poly[0]) == 0 {
		return poly
	}

	center := Centroid(poly)
	ring := make(orb.Ring, len(poly[0]))
	for i, pt := range poly[0] {
		dx := pt[0] - center[0]
		dy := pt[1] - center[1]
		dist := math.Hypot(dx, dy)
		if dist < 1e-12 {
			ring[i] = pt
			continue
		}
		scale := (dist + radius) / dist
		ring[i] = orb.Point{center[0] + dx*scale, center[1] + dy*scale}
	}
	if !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return orb.Polygon{ring}
}

// ClipToEnvelope intersects the polygon with an axis-aligned bound.
// ok is false when the clip result is empty or not a single simple polygon,
// in which case the caller should fall back to the unclipped input.
func ClipToEnvelope(poly orb.Polygon, bound orb.Bound) (orb.Polygon, bool) {
	clipped := clip.Geometry(bound, poly.Clone())
	if clipped == nil {
		return nil, false
	}
	single, ok := clipped.(orb.Polygon)
	if !ok || len(single) == 0 || len(single[0]) < 4 {
		return nil, false
	}
	return single, true
}

// LineIntersectPolygon returns the pieces of the line lying inside the
// polygon. Each segment is split at every polygon-edge crossing and a piece
// is kept when its midpoint is contained. Contiguous inside pieces are
// merged into a single sub-line; disjoint crossings yield multiple entries.
func LineIntersectPolygon(line orb.LineString, poly orb.Polygon) []orb.LineString {
	if len(line) < 2 || len(poly) == 0 || len(poly[0]) < 4 {
		return nil
	}

	var pieces []orb.LineString
	var current orb.LineString

	flush := func() {
		if len(current) >= 2 {
			pieces = append(pieces, current)
		}
		current = nil
	}

	for i := 0; i < len(line)-1; i++ {
		a, b := line[i], line[i+1]
		cuts := crossingParams(a, b, poly)

		prev := 0.0
		for _, t := range append(cuts, 1.0) {
			if t-prev < 1e-12 {
				prev = t
				continue
			}
			mid := lerp(a, b, (prev+t)/2)
			if planar.PolygonContains(poly, mid) {
				start := lerp(a, b, prev)
				end := lerp(a, b, t)
				if len(current) > 0 && samePoint(current[len(current)-1], start) {
					current = append(current, end)
				} else {
					flush()
					current = orb.LineString{start, end}
				}
			} else {
				flush()
			}
			prev = t
		}
	}
	flush()

	return pieces
}

// Length returns the planar length of the line in degrees.
func Length(line orb.LineString) float64 {
	return planar.Length(line)
}

// Centroid returns the area centroid of the polygon.
func Centroid(poly orb.Polygon) orb.Point {
	center, area := planar.CentroidArea(poly)
	if area == 0 && len(poly) > 0 && len(poly[0]) > 0 {
		// Zero-area input degrades to the vertex mean.
		var sx, sy float64
		for _, pt := range poly[0] {
			sx += pt[0]
			sy += pt[1]
		}
		n := float64(len(poly[0]))
		return orb.Point{sx / n, sy / n}
	}
	return center
}

// crossingParams returns the sorted interpolation parameters in (0,1) at
// which segment a->b crosses any edge of the polygon.
func crossingParams(a, b orb.Point, poly orb.Polygon) []float64 {
	var params []float64
	for _, ring := range poly {
		for i := 0; i < len(ring)-1; i++ {
			if t, ok := intersectParam(a, b, ring[i], ring[i+1]); ok && t > 1e-12 && t < 1-1e-12 {
				params = append(params, t)
			}
		}
	}
	sort.Float64s(params)
	return params
}

// intersectParam solves for the parameter t along a->b where it meets
// segment c->d. ok is false for parallel or non-overlapping segments.
func intersectParam(a, b, c, d orb.Point) (float64, bool) {
	rx, ry := b[0]-a[0], b[1]-a[1]
	sx, sy := d[0]-c[0], d[1]-c[1]

	denom := rx*sy - ry*sx
	if math.Abs(denom) < 1e-18 {
		return 0, false
	}

	qpx, qpy := c[0]-a[0], c[1]-a[1]
	t := (qpx*sy - qpy*sx) / denom
	u := (qpx*ry - qpy*rx) / denom

	if t < 0 || t > 1 || u < 0 || u > 1 {
		return 0, false
	}
	return t, true
}

func segmentsCross(a, b, c, d orb.Point) bool {
	t, ok := intersectParam(a, b, c, d)
	if !ok {
		return false
	}
	// Touching at an endpoint is not a crossing.
	if t < 1e-12 || t > 1-1e-12 {
		return false
	}
	_, u := solveU(a, b, c, d)
	return u > 1e-12 && u < 1-1e-12
}

func solveU(a, b, c, d orb.Point) (float64, float64) {
	rx, ry := b[0]-a[0], b[1]-a[1]
	sx, sy := d[0]-c[0], d[1]-c[1]
	denom := rx*sy - ry*sx
	qpx, qpy := c[0]-a[0], c[1]-a[1]
	return (qpx*sy - qpy*sx) / denom, (qpx*ry - qpy*rx) / denom
}

func lerp(a, b orb.Point, t float64) orb.Point {
	return orb.Point{a[0] + t*(b[0]-a[0]), a[1] + t*(b[1]-a[1])}
}

func samePoint(a, b orb.Point) bool {
	return math.Abs(a[0]-b[0]) < 1e-12 && math.Abs(a[1]-b[1]) < 1e-12
}
