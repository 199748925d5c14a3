package routes

import (
	"bytes"
	"strings"
	"testing"

	"github.com/saferoute/saferoute/internal/avoidance"
	"github.com/saferoute/saferoute/pkg/polyline"
)

func kmlTestRoute() *Route {
	geometry := polyline.Encode([]polyline.Coordinate{
		{Lat: 23.2599, Lon: 77.4126},
		{Lat: 23.2, Lon: 78.5},
		{Lat: 23.1673, Lon: 79.9499},
	})
	return &Route{
		ID:               "f6c9a1fe-9c2b-4a8e-9a37-2f1f8f9f0001",
		StartLocation:    "Bhopal",
		EndLocation:      "Jabalpur",
		Geometry:         geometry,
		DistanceKm:       354.87,
		EstimatedMinutes: 210.4,
		SafetyScore:      93,
	}
}

func TestWriteKML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteKML(&buf, kmlTestRoute()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "<kml") {
		t.Error("expected kml root element")
	}
	if !strings.Contains(out, "Bhopal to Jabalpur") {
		t.Error("expected document name with locations")
	}
	if !strings.Contains(out, "<LineString>") {
		t.Error("expected route line string")
	}
	if strings.Contains(out, "<Polygon>") {
		t.Error("expected no polygon without an avoidance ring")
	}
}

func TestWriteKML_AvoidanceRing(t *testing.T) {
	route := kmlTestRoute()
	route.AvoidanceRing = []avoidance.Point{
		{Lat: 23.3, Lon: 78.0},
		{Lat: 23.3, Lon: 78.2},
		{Lat: 23.5, Lon: 78.1},
		{Lat: 23.3, Lon: 78.0},
	}

	var buf bytes.Buffer
	if err := WriteKML(&buf, route); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "<Polygon>") {
		t.Error("expected avoidance polygon placemark")
	}
	if !strings.Contains(out, "Avoidance zone") {
		t.Error("expected avoidance zone name")
	}
}

func TestWriteKML_EmptyGeometry(t *testing.T) {
	route := kmlTestRoute()
	route.Geometry = ""

	var buf bytes.Buffer
	if err := WriteKML(&buf, route); err == nil {
		t.Fatal("expected error for empty geometry")
	}
}
