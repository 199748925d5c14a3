// Package zones manages the catalogue of active disaster zones that
// route planning must steer around.
package zones

import (
	"errors"
	"math"
	"time"

	"github.com/saferoute/saferoute/internal/avoidance"
)

// Repository errors.
var (
	ErrZoneNotFound = errors.New("zone not found")
)

// Type classifies a disaster zone.
type Type string

const (
	TypeFlood      Type = "flood"
	TypeFire       Type = "fire"
	TypeEarthquake Type = "earthquake"
	TypeChemical   Type = "chemical"
	TypeTsunami    Type = "tsunami"
)

// bufferMeters is the safety margin applied around each zone type's
// reported extent.
var bufferMeters = map[Type]float64{
	TypeFlood:      100,
	TypeFire:       200,
	TypeEarthquake: 150,
	TypeChemical:   300,
	TypeTsunami:    400,
}

// ValidType reports whether t names a known zone type.
func ValidType(t Type) bool {
	_, ok := bufferMeters[t]
	return ok
}

// BufferMeters returns the safety margin for a zone type. Unknown types
// get the largest margin.
func BufferMeters(t Type) float64 {
	if m, ok := bufferMeters[t]; ok {
		return m
	}
	return 400
}

// Zone is one active disaster area: a center point with a type-dependent
// radius.
type Zone struct {
	ID           string
	Type         Type
	Name         string
	CenterLat    float64
	CenterLon    float64
	RadiusMeters float64
	Active       bool
	ExpiresAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Expired reports whether the zone's expiry has passed.
func (z *Zone) Expired(now time.Time) bool {
	return z.ExpiresAt != nil && now.After(*z.ExpiresAt)
}

// ringSegments is the vertex count for the circular avoidance ring.
const ringSegments = 12

const metersPerDegree = 111320.0

// Ring approximates the zone as a closed polygon ring, its radius padded
// with the type's safety margin.
func (z *Zone) Ring() []avoidance.Point {
	radius := z.RadiusMeters + BufferMeters(z.Type)
	dLat := radius / metersPerDegree
	dLon := radius / (metersPerDegree * math.Cos(z.CenterLat*math.Pi/180))

	ring := make([]avoidance.Point, 0, ringSegments+1)
	for i := 0; i < ringSegments; i++ {
		angle := 2 * math.Pi * float64(i) / ringSegments
		ring = append(ring, avoidance.Point{
			Lat: z.CenterLat + dLat*math.Sin(angle),
			Lon: z.CenterLon + dLon*math.Cos(angle),
		})
	}
	return append(ring, ring[0])
}
