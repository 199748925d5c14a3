// Package routes provides planned-route persistence and export.
package routes

import (
	"errors"
	"time"

	"github.com/saferoute/saferoute/internal/avoidance"
	"github.com/saferoute/saferoute/internal/risk"
)

// Repository errors.
var (
	ErrRouteNotFound = errors.New("route not found")
)

// Route is a persisted planned route.
type Route struct {
	ID string

	// StartLocation and EndLocation are display names, either the
	// geocoded place names or formatted coordinates.
	StartLocation string
	EndLocation   string

	StartLat float64
	StartLon float64
	EndLat   float64
	EndLon   float64

	// Geometry is the winning path as an encoded polyline.
	Geometry string

	// AvoidanceRing is the cleaned avoidance polygon the plan used, nil
	// when none was supplied.
	AvoidanceRing []avoidance.Point

	DistanceKm       float64
	EstimatedMinutes float64
	SafetyScore      float64

	// RiskFactors is the full risk breakdown at planning time.
	RiskFactors risk.Breakdown

	// Provider is the routing provider that produced the path.
	Provider string

	// Status records whether the plan was served from the provider or a
	// degraded synthetic path.
	Status string

	CreatedAt time.Time
}
