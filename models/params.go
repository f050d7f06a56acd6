package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameters is wrapped by every MatchParameters / ClampConfig
	// validation failure.
	ErrInvalidParameters = errors.New("invalid parameters")
	// ErrNilCorpus is returned when the engine is handed no rental corpus at all.
	ErrNilCorpus = errors.New("nil rental corpus")
	// ErrNilRecord is returned when a target or corpus slice holds a nil entry.
	ErrNilRecord = errors.New("nil listing record")
)

// MatchParameters tunes the comparable filter for one attempt.
type MatchParameters struct {
	SizeRangePercent            float64 `yaml:"size_range_percent"`
	LocationSimilarityThreshold int     `yaml:"location_similarity_threshold"`
	RequireRoomTypeMatch        bool    `yaml:"require_room_type_match"`
	MinComparables              int     `yaml:"min_comparables"`
}

// DefaultMatchParameters returns the baseline filter settings.
func DefaultMatchParameters() MatchParameters {
	return MatchParameters{
		SizeRangePercent:            20,
		LocationSimilarityThreshold: 40,
		RequireRoomTypeMatch:        true,
		MinComparables:              2,
	}
}

// RelaxedMatchParameters widens the size window and lowers the location
// threshold for targets the baseline leaves short of comparables.
func RelaxedMatchParameters() MatchParameters {
	return MatchParameters{
		SizeRangePercent:            30,
		LocationSimilarityThreshold: 30,
		RequireRoomTypeMatch:        true,
		MinComparables:              2,
	}
}

// DefaultMatchLevels is the built-in fallback chain, strictest first.
func DefaultMatchLevels() []MatchParameters {
	return []MatchParameters{DefaultMatchParameters(), RelaxedMatchParameters()}
}

// Validate rejects parameter sets the filter cannot interpret.
func (p MatchParameters) Validate() error {
	if p.SizeRangePercent < 0 || p.SizeRangePercent > 100 {
		return fmt.Errorf("%w: size_range_percent %.2f outside [0,100]", ErrInvalidParameters, p.SizeRangePercent)
	}
	if p.LocationSimilarityThreshold < 0 || p.LocationSimilarityThreshold > 100 {
		return fmt.Errorf("%w: location_similarity_threshold %d outside [0,100]",
			ErrInvalidParameters, p.LocationSimilarityThreshold)
	}
	if p.MinComparables < 1 {
		return fmt.Errorf("%w: min_comparables must be at least 1, got %d", ErrInvalidParameters, p.MinComparables)
	}
	return nil
}

// ClampConfig bounds raw estimates to plausible market values.
type ClampConfig struct {
	MinMonthlyRent         float64 `yaml:"min_monthly_rent"`
	AbsoluteMaxMonthlyRent float64 `yaml:"absolute_max_monthly_rent"`
	EnableRatioBand        bool    `yaml:"enable_ratio_band"`
	MinPriceToRentRatio    float64 `yaml:"min_price_to_rent_ratio"`
	MaxPriceToRentRatio    float64 `yaml:"max_price_to_rent_ratio"`
	MaxAnnualRentFraction  float64 `yaml:"max_annual_rent_fraction"`
}

// DefaultClampConfig returns the Lisbon market guardrails.
func DefaultClampConfig() ClampConfig {
	return ClampConfig{
		MinMonthlyRent:         800,
		AbsoluteMaxMonthlyRent: 5000,
		EnableRatioBand:        false,
		MinPriceToRentRatio:    12,
		MaxPriceToRentRatio:    25,
		MaxAnnualRentFraction:  0.30,
	}
}

func (c ClampConfig) Validate() error {
	if c.MinMonthlyRent < 0 {
		return fmt.Errorf("%w: min_monthly_rent must not be negative", ErrInvalidParameters)
	}
	if c.AbsoluteMaxMonthlyRent <= c.MinMonthlyRent {
		return fmt.Errorf("%w: absolute_max_monthly_rent %.2f must exceed min_monthly_rent %.2f",
			ErrInvalidParameters, c.AbsoluteMaxMonthlyRent, c.MinMonthlyRent)
	}
	if c.MinPriceToRentRatio <= 0 || c.MaxPriceToRentRatio <= c.MinPriceToRentRatio {
		return fmt.Errorf("%w: price-to-rent ratios need 0 < min (%.2f) < max (%.2f)",
			ErrInvalidParameters, c.MinPriceToRentRatio, c.MaxPriceToRentRatio)
	}
	if c.MaxAnnualRentFraction <= 0 || c.MaxAnnualRentFraction > 1 {
		return fmt.Errorf("%w: max_annual_rent_fraction %.2f outside (0,1]", ErrInvalidParameters, c.MaxAnnualRentFraction)
	}
	return nil
}
