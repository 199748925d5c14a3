// Package risk converts per-segment road attributes into a normalized
// composite risk index and an explainable 0-100 safety score.
package risk

import "strings"

// Detail names recognized in provider path details.
const (
	DetailRoadClass  = "road_class"
	DetailSurface    = "surface"
	DetailRoadAccess = "road_access"
)

// Segment is one per-segment detail entry: the half-open point-index range
// it covers and the provider's category value for it.
type Segment struct {
	From  int
	To    int
	Value string
}

// Breakdown is the full risk decomposition for one path. All factor fields
// are in [0,1]; SafetyScore is in [0,100].
type Breakdown struct {
	RoadRisk        float64 `json:"roadRisk"`
	ElevationRisk   float64 `json:"elevationRisk"`
	AvoidanceFactor float64 `json:"avoidanceFactor"`
	DynamicRisk     float64 `json:"dynamicRisk"`
	RRI             float64 `json:"rri"`
	SafetyScore     float64 `json:"safetyScore"`
}

// Config holds the scoring weights and bonuses. The bonuses are observed
// heuristics with no documented rationale; they are kept as named values
// rather than folded into the formula.
type Config struct {
	// WeightRoad, WeightElevation, WeightAvoidance and WeightDynamic are
	// the RRI blend weights. They should sum to 1.
	WeightRoad      float64
	WeightElevation float64
	WeightAvoidance float64
	WeightDynamic   float64

	// DefaultRoadRisk applies when no road_class details are present.
	DefaultRoadRisk float64

	// ElevationRiskCap bounds the gravel/unpaved surface contribution.
	ElevationRiskCap float64

	// AvoidancePerZone is the factor added per applied avoidance
	// constraint, capped at 1.
	AvoidancePerZone float64

	// BonusEmergencyAccess is added to the safety score when any
	// road_access value contains "emergency".
	BonusEmergencyAccess float64

	// BonusBase is added to every safety score unconditionally
	// (placeholder for a future low-traffic signal).
	BonusBase float64
}

// DefaultConfig returns the production weights.
func DefaultConfig() Config {
	return Config{
		WeightRoad:           0.4,
		WeightElevation:      0.3,
		WeightAvoidance:      0.2,
		WeightDynamic:        0.1,
		DefaultRoadRisk:      0.3,
		ElevationRiskCap:     0.2,
		AvoidancePerZone:     0.2,
		BonusEmergencyAccess: 10,
		BonusBase:            5,
	}
}

// Calculator derives risk breakdowns from path details. It is a pure
// function of its inputs and safe for concurrent use.
type Calculator struct {
	cfg Config
}

// NewCalculator creates a Calculator with the given config. A zero config
// is replaced with DefaultConfig.
func NewCalculator(cfg Config) *Calculator {
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	return &Calculator{cfg: cfg}
}

// Calculate derives the breakdown for one path. details maps detail name
// to its segments; missing categories fall back to defaults and never
// cause an error. avoidanceCount is the number of avoidance constraints
// applied to the request.
func (c *Calculator) Calculate(details map[string][]Segment, avoidanceCount int) Breakdown {
	road := c.roadRisk(details[DetailRoadClass])
	elevation := c.elevationRisk(details[DetailSurface])
	avoid := min(1.0, float64(avoidanceCount)*c.cfg.AvoidancePerZone)
	dynamic := 0.0 // reserved for traffic/weather risk

	rri := clamp01(c.cfg.WeightRoad*road +
		c.cfg.WeightElevation*elevation +
		c.cfg.WeightAvoidance*avoid +
		c.cfg.WeightDynamic*dynamic)

	score := clamp(100*(1-rri), 0, 100)
	if hasEmergencyAccess(details[DetailRoadAccess]) {
		score = min(100, score+c.cfg.BonusEmergencyAccess)
	}
	score = min(100, score+c.cfg.BonusBase)

	return Breakdown{
		RoadRisk:        road,
		ElevationRisk:   elevation,
		AvoidanceFactor: avoid,
		DynamicRisk:     dynamic,
		RRI:             rri,
		SafetyScore:     score,
	}
}

// roadRisk blends the motorway and residential shares of the path:
// fast roads carry the highest weight, quiet residential streets the
// lowest, everything else a middle weight.
func (c *Calculator) roadRisk(segments []Segment) float64 {
	if len(segments) == 0 {
		return c.cfg.DefaultRoadRisk
	}

	var motorway, residential int
	for _, s := range segments {
		switch s.Value {
		case "motorway", "trunk":
			motorway++
		case "residential", "living_street":
			residential++
		}
	}

	total := float64(len(segments))
	motorwayShare := float64(motorway) / total
	residentialShare := float64(residential) / total
	otherShare := 1 - motorwayShare - residentialShare

	return 0.8*motorwayShare + 0.2*residentialShare + 0.4*otherShare
}

// elevationRisk uses the unpaved-surface share as a stand-in until real
// elevation data is wired in. Zero when no surface details exist.
func (c *Calculator) elevationRisk(segments []Segment) float64 {
	if len(segments) == 0 {
		return 0
	}

	var rough int
	for _, s := range segments {
		switch s.Value {
		case "gravel", "unpaved":
			rough++
		}
	}

	return min(c.cfg.ElevationRiskCap, float64(rough)/float64(len(segments)))
}

func hasEmergencyAccess(segments []Segment) bool {
	for _, s := range segments {
		if strings.Contains(s.Value, "emergency") {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
