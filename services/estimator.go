package services

import (
	"math"

	"rent-estimator/models"
	"rent-estimator/utils"
)

const (
	minSizeFactor = 0.5
	maxSizeFactor = 1.5
)

// WeightedEstimator turns a set of comparables into a raw monthly rent. Each
// comparable's rent is first scaled to the target's size, then the scaled
// rents are averaged with size and location weights.
type WeightedEstimator struct {
	logger *utils.Logger
}

func NewWeightedEstimator(logger *utils.Logger) *WeightedEstimator {
	return &WeightedEstimator{logger: logger}
}

// Estimate computes the weighted rent for target. The caller is responsible
// for checking the minimum comparable count beforehand. OK is false when no
// candidate has a positive price and size.
func (e *WeightedEstimator) Estimate(target *models.ListingRecord, candidates []models.Candidate) models.RawEstimate {
	var (
		weightedSum float64
		weightSum   float64
		plainSum    float64
		perSqmSum   float64
		used        int
	)

	for _, c := range candidates {
		l := c.Listing
		if l == nil || !l.Usable() {
			continue
		}

		adjusted := l.Price * target.SizeSqm / l.SizeSqm
		weight := sizeFactor(target.SizeSqm, l.SizeSqm) * float64(c.LocationSimilarity) / 100

		weightedSum += adjusted * weight
		weightSum += weight
		plainSum += adjusted
		perSqmSum += l.PricePerSqm()
		used++
	}

	if used == 0 {
		e.logger.Debug("[estimator] %s: no comparable with positive price and size", target.URL)
		return models.RawEstimate{}
	}

	rent := plainSum / float64(used)
	if weightSum > 0 {
		rent = weightedSum / weightSum
	} else {
		e.logger.Debug("[estimator] %s: zero total weight, using simple mean of %d", target.URL, used)
	}

	return models.RawEstimate{
		MonthlyRent:    rent,
		AvgPricePerSqm: perSqmSum / float64(used),
		Used:           used,
		WeightSum:      weightSum,
		OK:             true,
	}
}

// sizeFactor decays with relative size difference and is bounded to
// [0.5, 1.5].
func sizeFactor(target, cand float64) float64 {
	f := 1 / (1 + math.Abs(target-cand)/target)
	return math.Max(minSizeFactor, math.Min(maxSizeFactor, f))
}
