package models

import (
	"fmt"
	"strings"
)

// Reason strings are part of the report contract and are written verbatim
// into every export.
const (
	ReasonValid             = "Valid estimate"
	ReasonInvalidSize       = "Invalid property size"
	ReasonNoValidPrices     = "No valid rental prices found"
	reasonInsufficientFmt   = "Insufficient comparables (%d)"
	reasonInsufficientStart = "Insufficient comparables"
)

// ReasonInsufficient formats the reason for a target with n comparables.
func ReasonInsufficient(n int) string {
	return fmt.Sprintf(reasonInsufficientFmt, n)
}

// ReasonKind collapses "Insufficient comparables (N)" into one bucket so
// reasons can be counted across a batch.
func ReasonKind(reason string) string {
	if strings.HasPrefix(reason, reasonInsufficientStart) {
		return reasonInsufficientStart
	}
	return reason
}

type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Candidate is a rental that passed the comparable filter for one target.
type Candidate struct {
	Listing            *ListingRecord
	SizeDiffFraction   float64
	LocationSimilarity int
}

// RawEstimate is the unclamped output of the weighted estimator.
type RawEstimate struct {
	MonthlyRent    float64
	AvgPricePerSqm float64
	Used           int
	WeightSum      float64
	OK             bool
}

// ClampStep records one guardrail that changed the estimate.
type ClampStep struct {
	Name   string
	Before float64
	After  float64
}

// ClampResult lists the steps applied in order. Clamped is true when any
// step changed the value.
type ClampResult struct {
	Clamped bool
	Steps   []ClampStep
}

// StepNames returns the applied step names in order.
func (r ClampResult) StepNames() []string {
	names := make([]string, 0, len(r.Steps))
	for _, s := range r.Steps {
		names = append(names, s.Name)
	}
	return names
}

// RentEstimate is the per-target result. It is never modified after assembly.
type RentEstimate struct {
	TargetURL            string
	TargetPrice          float64
	TargetSizeSqm        float64
	Neighborhood         string
	ComparableCount      int
	AvgPricePerSqm       float64
	RawMonthlyRent       float64
	EstimatedMonthlyRent float64
	EstimatedAnnualRent  float64
	GrossYieldPercent    float64
	Reason               string
	Confidence           Confidence
	MatchLevel           int
	Clamped              bool
	ClampSteps           []string
}

// Valid reports whether the estimate carries a usable rent.
func (e *RentEstimate) Valid() bool {
	return e.Reason == ReasonValid
}
