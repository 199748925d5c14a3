package routing

import (
	"github.com/saferoute/saferoute/internal/avoidance"
	"github.com/saferoute/saferoute/internal/risk"
)

// CleanRatioEpsilon is the intersection ratio below which a candidate is
// considered clean of the avoidance zone. A selected candidate above it
// triggers a forced detour attempt.
const CleanRatioEpsilon = 1e-6

// ScoredCandidate is one provider path with its derived scores. Immutable
// once computed.
type ScoredCandidate struct {
	// Index is the candidate's position in the provider's result set.
	Index int

	Path Path

	// IntersectionRatio is the fraction of the path inside the avoidance
	// zone, in [0,1].
	IntersectionRatio float64

	DistanceKm  float64
	DurationMin float64

	// SafetyScore is the candidate's 0-100 safety score.
	SafetyScore float64
}

// Selection is the outcome of ranking a candidate set.
type Selection struct {
	// Index of the winning candidate, always within [0, len(candidates)).
	Index int

	// Ratio is the winner's intersection ratio.
	Ratio float64

	// NeedsDetour is set when the winner still overlaps the avoidance zone
	// non-trivially and a forced detour attempt should run.
	NeedsDetour bool
}

// ScoreCandidates derives a ScoredCandidate for every provider path.
// avoidanceCount is the number of avoidance constraints applied to the
// request and feeds each candidate's safety score.
func ScoreCandidates(paths []Path, zone *avoidance.Zone, calc *risk.Calculator, avoidanceCount int) []ScoredCandidate {
	scored := make([]ScoredCandidate, 0, len(paths))
	for i, path := range paths {
		scored = append(scored, scoreCandidate(i, path, zone, calc, avoidanceCount))
	}
	return scored
}

func scoreCandidate(index int, path Path, zone *avoidance.Zone, calc *risk.Calculator, avoidanceCount int) ScoredCandidate {
	breakdown := calc.Calculate(path.Details, avoidanceCount)
	return ScoredCandidate{
		Index:             index,
		Path:              path,
		IntersectionRatio: IntersectionRatio(path.Points, zone),
		DistanceKm:        path.DistanceMeters / 1000,
		DurationMin:       float64(path.DurationMillis) / 60000,
		SafetyScore:       breakdown.SafetyScore,
	}
}

// Select picks the winning candidate: the minimum intersection ratio, ties
// resolved to the lowest index. A requested index within range overrides
// the ranking entirely, since an explicit user choice wins. hasZone gates
// the detour flag: without an avoidance zone no detour ever runs.
func Select(candidates []ScoredCandidate, requested *int, hasZone bool) Selection {
	if len(candidates) == 0 {
		return Selection{}
	}

	best := 0
	for i, c := range candidates {
		if c.IntersectionRatio < candidates[best].IntersectionRatio {
			best = i
		}
	}

	if requested != nil && *requested >= 0 && *requested < len(candidates) {
		best = *requested
	}

	ratio := candidates[best].IntersectionRatio
	return Selection{
		Index:       best,
		Ratio:       ratio,
		NeedsDetour: hasZone && ratio > CleanRatioEpsilon,
	}
}
