package models

import "time"

// BatchSummary holds the computed analytics over one batch of estimates.
type BatchSummary struct {
	TotalTargets   int
	ValidEstimates int
	ValidPercent   float64

	// ComparableCountDistribution maps comparable count to number of targets.
	ComparableCountDistribution map[int]int
	ReasonCounts                map[string]int
	ConfidenceCounts            map[Confidence]int
	ClampedCount                int

	AverageMonthlyRent float64
	AverageGrossYield  float64
	MinGrossYield      float64
	MaxGrossYield      float64
	TopYields          []*RentEstimate

	EstimatesByNeighborhood map[string]int
	NeighborhoodMatched     int
	NeighborhoodUnmatched   int
	NeighborhoodStats       map[string]*NeighborhoodStats
}

// NeighborhoodStats aggregates one neighborhood. Sale figures come from valid
// estimates; rental figures from the cleaned rental corpus.
type NeighborhoodStats struct {
	PropertyCount     int
	AvgPricePerSqm    float64
	MedianPricePerSqm float64
	MinPricePerSqm    float64
	MaxPricePerSqm    float64
	AvgMonthlyRent    float64
	AvgRentPerSqm     float64
	AvgGrossYield     float64

	RentalCount          int
	AvgRentalPricePerSqm float64
}

// AnalysisRun is one recorded batch execution.
type AnalysisRun struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	Source      string
	TargetCount int
	CorpusSize  int
	Levels      []MatchParameters
	Summary     *BatchSummary
}
