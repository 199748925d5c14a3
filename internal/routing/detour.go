package routing

import "math"

// DefaultDetourOffset is the perpendicular displacement, in degrees,
// applied to the avoidance-zone centroid when synthesizing detour
// waypoints. Roughly 60km at mid latitudes. This is a flat-earth
// approximation that distorts at high latitudes and on very long routes;
// it is deliberately not latitude-corrected because correcting it changes
// route selection observably.
const DefaultDetourOffset = 0.6

// DetourWaypoints computes the two candidate detour waypoints: the zone
// centroid displaced perpendicular to the start->end axis by offset
// degrees, once to each side. The two attempts are independent and
// order-insensitive.
func DetourWaypoints(start, end, centroid Coordinate, offset float64) [2]Coordinate {
	dx := end.Lon - start.Lon
	dy := end.Lat - start.Lat

	norm := math.Hypot(dx, dy)
	if norm < 1e-12 {
		// Coincident endpoints: fall back to axis-aligned offsets.
		return [2]Coordinate{
			{Lat: centroid.Lat + offset, Lon: centroid.Lon},
			{Lat: centroid.Lat - offset, Lon: centroid.Lon},
		}
	}

	// Unit perpendicular of the start->end vector.
	px := -dy / norm
	py := dx / norm

	return [2]Coordinate{
		{Lat: centroid.Lat + py*offset, Lon: centroid.Lon + px*offset},
		{Lat: centroid.Lat - py*offset, Lon: centroid.Lon - px*offset},
	}
}
