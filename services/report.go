package services

import (
	"rent-estimator/models"
	"rent-estimator/utils"
)

// Outcome carries everything the pipeline learned about one target.
type Outcome struct {
	Target     *models.ListingRecord
	Candidates []models.Candidate
	Raw        models.RawEstimate
	Rent       float64
	Clamp      models.ClampResult
	Reason     string
	MatchLevel int
}

// Assembler builds the final RentEstimate for a target.
type Assembler struct {
	logger *utils.Logger
}

func NewAssembler(logger *utils.Logger) *Assembler {
	return &Assembler{logger: logger}
}

// Assemble derives annual rent, gross yield and confidence. Invalid outcomes
// carry zero rent and yield.
func (a *Assembler) Assemble(o Outcome) *models.RentEstimate {
	t := o.Target
	est := &models.RentEstimate{
		TargetURL:       t.URL,
		TargetPrice:     t.Price,
		TargetSizeSqm:   t.SizeSqm,
		Neighborhood:    t.Neighborhood,
		ComparableCount: len(o.Candidates),
		AvgPricePerSqm:  round2(o.Raw.AvgPricePerSqm),
		Reason:          o.Reason,
		MatchLevel:      o.MatchLevel,
		Confidence:      models.ConfidenceLow,
	}

	if o.Reason != models.ReasonValid {
		return est
	}

	// annual and yield derive from the rounded monthly figure so that
	// annual == monthly * 12 holds exactly on the stored record
	monthly := round2(o.Rent)
	annual := monthly * 12
	est.RawMonthlyRent = round2(o.Raw.MonthlyRent)
	est.EstimatedMonthlyRent = monthly
	est.EstimatedAnnualRent = annual
	if t.Price > 0 {
		est.GrossYieldPercent = round2(annual / t.Price * 100)
	}
	est.Clamped = o.Clamp.Clamped
	est.ClampSteps = o.Clamp.StepNames()
	est.Confidence = confidence(o.Candidates, o.MatchLevel)
	return est
}

// confidence grades a valid estimate by how many comparables backed it and
// how closely their locations matched. Results from a relaxed fallback level
// are never graded high.
func confidence(candidates []models.Candidate, matchLevel int) models.Confidence {
	n := len(candidates)
	level := 0
	switch {
	case n >= 5:
		level = 2
	case n >= 3:
		level = 1
	}

	if n > 0 {
		var sum int
		for _, c := range candidates {
			sum += c.LocationSimilarity
		}
		if float64(sum)/float64(n) < 60 && level > 0 {
			level--
		}
	}
	if matchLevel > 0 && level == 2 {
		level = 1
	}

	switch level {
	case 2:
		return models.ConfidenceHigh
	case 1:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}
