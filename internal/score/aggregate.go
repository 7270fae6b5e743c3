// Package score combines category sub-scores into the overall health
// score under a fixed, versioned weighting policy.
package score

import (
	"math"

	"github.com/reviewrise/healthscan/internal/types"
)

// WeightsVersion identifies the weight table below. It is persisted with
// every snapshot: changing any weight changes historical comparability,
// so weight changes require a new version string.
const WeightsVersion = "2024-09"

// weights maps each category to its share of the overall score. The
// values sum to 1.0 over the full category set.
var weights = map[types.Category]float64{
	types.CategoryTechnical:   0.30,
	types.CategoryContent:     0.25,
	types.CategoryPerformance: 0.20,
	types.CategoryAuthority:   0.15,
	types.CategoryLocal:       0.10,
}

// Weight returns the configured weight for a category; unknown categories
// weigh zero and are excluded from aggregation.
func Weight(category types.Category) float64 {
	return weights[category]
}

// Aggregate combines category sub-scores into a 0-100 overall score.
// Categories absent from the input are excluded and the remaining
// weights renormalized, so a partial run still produces an in-range
// score. Pure and deterministic: identical input always yields the
// identical result.
func Aggregate(scores []types.CategoryScore) float64 {
	var weighted, totalWeight float64

	for _, cs := range scores {
		w := weights[cs.Category]
		if w == 0 {
			continue
		}

		weighted += float64(cs.Score) * w
		totalWeight += w
	}

	if totalWeight == 0 {
		return 0
	}

	overall := weighted / totalWeight

	// round to two decimals and clamp for safety at the boundary
	overall = math.Round(overall*100) / 100

	if overall < 0 {
		return 0
	}
	if overall > 100 {
		return 100
	}

	return overall
}
