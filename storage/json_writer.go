package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"rent-estimator/models"
)

type jsonEstimate struct {
	Price                float64  `json:"price"`
	ComparableCount      int      `json:"comparable_count"`
	AvgPricePerSqm       float64  `json:"avg_price_per_sqm"`
	EstimatedMonthlyRent float64  `json:"estimated_monthly_rent"`
	EstimatedAnnualRent  float64  `json:"estimated_annual_rent"`
	GrossRentalYield     float64  `json:"gross_rental_yield"`
	Reason               string   `json:"reason"`
	Confidence           string   `json:"confidence"`
	Neighborhood         string   `json:"neighborhood,omitempty"`
	MatchLevel           int      `json:"match_level"`
	ClampSteps           []string `json:"clamp_steps,omitempty"`
}

// WriteJSONReport writes estimates as one JSON object keyed by target URL.
func WriteJSONReport(path string, estimates []*models.RentEstimate) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("json: create output dir: %w", err)
	}

	report := make(map[string]jsonEstimate, len(estimates))
	for _, e := range estimates {
		report[e.TargetURL] = jsonEstimate{
			Price:                e.TargetPrice,
			ComparableCount:      e.ComparableCount,
			AvgPricePerSqm:       e.AvgPricePerSqm,
			EstimatedMonthlyRent: e.EstimatedMonthlyRent,
			EstimatedAnnualRent:  e.EstimatedAnnualRent,
			GrossRentalYield:     e.GrossYieldPercent,
			Reason:               e.Reason,
			Confidence:           string(e.Confidence),
			Neighborhood:         e.Neighborhood,
			MatchLevel:           e.MatchLevel,
			ClampSteps:           e.ClampSteps,
		}
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("json: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("json: write %q: %w", path, err)
	}
	return nil
}
