package avoidance

import (
	"testing"

	"github.com/rs/zerolog"
)

var testStart = Point{Lat: 23.2599, Lon: 77.4126}
var testEnd = Point{Lat: 23.1673, Lon: 79.9499}

func newTestBuilder() *Builder {
	return NewBuilder(Config{}, zerolog.Nop())
}

func TestBuild_TooFewPoints(t *testing.T) {
	b := newTestBuilder()

	cases := map[string][]Point{
		"empty":      {},
		"single":     {{Lat: 23.3, Lon: 78.0}},
		"two":        {{Lat: 23.3, Lon: 78.0}, {Lat: 23.4, Lon: 78.1}},
		"duplicates": {{Lat: 23.3, Lon: 78.0}, {Lat: 23.3, Lon: 78.0}, {Lat: 23.4, Lon: 78.1}},
	}

	for name, pts := range cases {
		if zone := b.Build(pts, testStart, testEnd); zone != nil {
			t.Errorf("%s: expected nil zone for %d raw points", name, len(pts))
		}
	}
}

func TestBuild_ClosesRing(t *testing.T) {
	b := newTestBuilder()

	zone := b.Build([]Point{
		{Lat: 23.3, Lon: 78.0},
		{Lat: 23.3, Lon: 78.2},
		{Lat: 23.5, Lon: 78.1},
	}, testStart, testEnd)
	if zone == nil {
		t.Fatal("expected a zone for a valid triangle")
	}

	ring := zone.Ring
	if len(ring) < 4 {
		t.Fatalf("expected closed ring with >=4 vertices, got %d", len(ring))
	}
	if ring[0] != ring[len(ring)-1] {
		t.Errorf("expected first == last vertex, got %v vs %v", ring[0], ring[len(ring)-1])
	}
}

func TestBuild_BufferedZoneContainsOriginal(t *testing.T) {
	b := newTestBuilder()

	original := []Point{
		{Lat: 23.3, Lon: 78.0},
		{Lat: 23.3, Lon: 78.2},
		{Lat: 23.5, Lon: 78.1},
	}
	zone := b.Build(original, testStart, testEnd)
	if zone == nil {
		t.Fatal("expected a zone")
	}

	// The buffered zone's bounding box must cover the original vertices.
	bound := zone.Polygon.Bound()
	for _, p := range original {
		if p.Lon < bound.Min[0] || p.Lon > bound.Max[0] || p.Lat < bound.Min[1] || p.Lat > bound.Max[1] {
			t.Errorf("original vertex %v outside buffered zone bound %v", p, bound)
		}
	}
}

func TestBuild_SelfIntersectingStillProducesZone(t *testing.T) {
	b := newTestBuilder()

	// Bowtie input is invalid but must still yield a zone.
	zone := b.Build([]Point{
		{Lat: 23.3, Lon: 78.0},
		{Lat: 23.5, Lon: 78.2},
		{Lat: 23.3, Lon: 78.2},
		{Lat: 23.5, Lon: 78.0},
	}, testStart, testEnd)
	if zone == nil {
		t.Fatal("expected self-intersecting input to be tolerated")
	}
}

func TestBuild_PathologicalVertexClippedToEnvelope(t *testing.T) {
	b := newTestBuilder()

	// One vertex on the other side of the planet.
	zone := b.Build([]Point{
		{Lat: 23.3, Lon: 78.0},
		{Lat: 23.3, Lon: 78.2},
		{Lat: -40.0, Lon: -150.0},
	}, testStart, testEnd)
	if zone == nil {
		t.Fatal("expected a zone")
	}

	// The cleaned zone stays within the padded start/end envelope.
	bound := zone.Polygon.Bound()
	if bound.Min[0] < testStart.Lon-0.5-1e-9 {
		t.Errorf("zone extends past west envelope edge: %f", bound.Min[0])
	}
	if bound.Min[1] < testEnd.Lat-0.5-1e-9 {
		t.Errorf("zone extends past south envelope edge: %f", bound.Min[1])
	}
}

func TestNewBuilder_Defaults(t *testing.T) {
	b := NewBuilder(Config{}, zerolog.Nop())
	if b.cfg.SimplifyTolerance != 0.0003 {
		t.Errorf("expected default simplify tolerance, got %f", b.cfg.SimplifyTolerance)
	}
	if b.cfg.BufferRadius != 0.00045 {
		t.Errorf("expected default buffer radius, got %f", b.cfg.BufferRadius)
	}
	if b.cfg.EnvelopePadding != 0.5 {
		t.Errorf("expected default envelope padding, got %f", b.cfg.EnvelopePadding)
	}
}
