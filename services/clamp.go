package services

import (
	"rent-estimator/models"
	"rent-estimator/utils"
)

// Names of the clamp steps as recorded on estimates.
const (
	StepFloor     = "floor"
	StepRatioBand = "price_to_rent_band"
	StepCeiling   = "ceiling"
	StepAnnualCap = "annual_cap"
)

// ClampPolicy bounds raw estimates to plausible market values. It is a
// heuristic guardrail: a clamped estimate is still reported as valid.
type ClampPolicy struct {
	cfg    models.ClampConfig
	logger *utils.Logger
}

// NewClampPolicy validates cfg and returns the policy.
func NewClampPolicy(cfg models.ClampConfig, logger *utils.Logger) (*ClampPolicy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &ClampPolicy{cfg: cfg, logger: logger}, nil
}

// Config returns the policy's bounds.
func (p *ClampPolicy) Config() models.ClampConfig {
	return p.cfg
}

// Apply runs floor, price-to-rent band, ceiling and annual cap in that order.
func (p *ClampPolicy) Apply(raw, targetPrice float64) (float64, models.ClampResult) {
	var res models.ClampResult
	v := raw

	record := func(name string, next float64, changed bool) {
		if !changed {
			return
		}
		res.Steps = append(res.Steps, models.ClampStep{Name: name, Before: v, After: next})
		res.Clamped = true
		v = next
	}

	next, changed := p.Floor(v)
	record(StepFloor, next, changed)

	next, changed = p.RatioBand(v, targetPrice)
	record(StepRatioBand, next, changed)

	next, changed = p.Ceiling(v)
	record(StepCeiling, next, changed)

	next, changed = p.AnnualCap(v, targetPrice)
	record(StepAnnualCap, next, changed)

	for _, s := range res.Steps {
		p.logger.Debug("[clamp] %s: %.2f → %.2f (price %.0f)", s.Name, s.Before, s.After, targetPrice)
	}
	return v, res
}

// Floor raises v to the minimum monthly rent.
func (p *ClampPolicy) Floor(v float64) (float64, bool) {
	if v < p.cfg.MinMonthlyRent {
		return p.cfg.MinMonthlyRent, true
	}
	return v, false
}

// RatioBand keeps annual rent between price/MaxRatio and price/MinRatio. It
// is a no-op when disabled or when the price is unknown.
func (p *ClampPolicy) RatioBand(v, price float64) (float64, bool) {
	if !p.cfg.EnableRatioBand || price <= 0 {
		return v, false
	}
	lo := price / (p.cfg.MaxPriceToRentRatio * 12)
	hi := price / (p.cfg.MinPriceToRentRatio * 12)
	if v < lo {
		return lo, true
	}
	if v > hi {
		return hi, true
	}
	return v, false
}

// Ceiling caps v at the absolute maximum monthly rent.
func (p *ClampPolicy) Ceiling(v float64) (float64, bool) {
	if v > p.cfg.AbsoluteMaxMonthlyRent {
		return p.cfg.AbsoluteMaxMonthlyRent, true
	}
	return v, false
}

// AnnualCap keeps twelve months of rent within MaxAnnualRentFraction of the
// price.
func (p *ClampPolicy) AnnualCap(v, price float64) (float64, bool) {
	if price <= 0 {
		return v, false
	}
	limit := price * p.cfg.MaxAnnualRentFraction
	if v*12 > limit {
		return limit / 12, true
	}
	return v, false
}
