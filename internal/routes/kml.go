package routes

import (
	"fmt"
	"image/color"
	"io"

	kml "github.com/twpayne/go-kml/v2"

	"github.com/saferoute/saferoute/pkg/polyline"
)

// WriteKML renders a stored route as a KML document with the route line
// and, when present, the avoidance polygon.
func WriteKML(w io.Writer, route *Route) error {
	coords := polyline.Decode(route.Geometry)
	if len(coords) == 0 {
		return fmt.Errorf("route %s has no geometry", route.ID)
	}

	lineCoords := make([]kml.Coordinate, 0, len(coords))
	for _, c := range coords {
		lineCoords = append(lineCoords, kml.Coordinate{Lon: c.Lon, Lat: c.Lat})
	}

	children := []kml.Element{
		kml.Name(fmt.Sprintf("%s to %s", route.StartLocation, route.EndLocation)),
		kml.Description(fmt.Sprintf("%.1f km, %.0f min, safety score %.0f",
			route.DistanceKm, route.EstimatedMinutes, route.SafetyScore)),
		kml.SharedStyle("route",
			kml.LineStyle(
				kml.Color(color.RGBA{R: 0x00, G: 0x80, B: 0xff, A: 0xff}),
				kml.Width(4),
			),
		),
		kml.Placemark(
			kml.Name("Route"),
			kml.StyleURL("#route"),
			kml.LineString(
				kml.Coordinates(lineCoords...),
				kml.Tessellate(true),
			),
		),
	}

	if len(route.AvoidanceRing) > 0 {
		ringCoords := make([]kml.Coordinate, 0, len(route.AvoidanceRing))
		for _, p := range route.AvoidanceRing {
			ringCoords = append(ringCoords, kml.Coordinate{Lon: p.Lon, Lat: p.Lat})
		}
		children = append(children, kml.Placemark(
			kml.Name("Avoidance zone"),
			kml.Polygon(
				kml.OuterBoundaryIs(
					kml.LinearRing(
						kml.Coordinates(ringCoords...),
					),
				),
			),
		))
	}

	doc := kml.KML(kml.Document(children...))
	return doc.WriteIndent(w, "", "  ")
}
