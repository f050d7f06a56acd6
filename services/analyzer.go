package services

import (
	"fmt"
	"time"

	"rent-estimator/models"
	"rent-estimator/utils"
)

// Analyzer runs the per-target pipeline (filter, estimate, clamp, assemble)
// over a batch. Targets are independent; the corpus is shared read-only.
type Analyzer struct {
	filter    *ComparableFilter
	estimator *WeightedEstimator
	clamp     *ClampPolicy
	assembler *Assembler
	levels    []models.MatchParameters
	workers   int
	logger    *utils.Logger
}

// NewAnalyzer validates the fallback chain. levels are tried in order for
// every target until one yields enough comparables. workers <= 0 means one
// per CPU.
func NewAnalyzer(
	filter *ComparableFilter,
	estimator *WeightedEstimator,
	clamp *ClampPolicy,
	assembler *Assembler,
	levels []models.MatchParameters,
	workers int,
	logger *utils.Logger,
) (*Analyzer, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("%w: at least one match level is required", models.ErrInvalidParameters)
	}
	for i, p := range levels {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("match level %d: %w", i, err)
		}
	}

	chain := make([]models.MatchParameters, len(levels))
	copy(chain, levels)

	return &Analyzer{
		filter:    filter,
		estimator: estimator,
		clamp:     clamp,
		assembler: assembler,
		levels:    chain,
		workers:   workers,
		logger:    logger,
	}, nil
}

// Levels returns a copy of the fallback chain.
func (a *Analyzer) Levels() []models.MatchParameters {
	out := make([]models.MatchParameters, len(a.levels))
	copy(out, a.levels)
	return out
}

// Run estimates rent for every target. Output order follows target order;
// repeated target URLs are estimated once. Data problems are reported per
// target; only a nil corpus or nil records return an error.
func (a *Analyzer) Run(targets, corpus []*models.ListingRecord) ([]*models.RentEstimate, error) {
	if corpus == nil {
		return nil, models.ErrNilCorpus
	}
	for i, c := range corpus {
		if c == nil {
			return nil, fmt.Errorf("corpus entry %d: %w", i, models.ErrNilRecord)
		}
	}
	for i, t := range targets {
		if t == nil {
			return nil, fmt.Errorf("target %d: %w", i, models.ErrNilRecord)
		}
	}

	start := time.Now()
	idx := NewCorpusIndex(corpus)

	seen := utils.NewURLSet()
	unique := make([]*models.ListingRecord, 0, len(targets))
	for _, t := range targets {
		if t.URL != "" && !seen.Add(t.URL) {
			a.logger.Debug("[analyzer] Duplicate target skipped: %s", t.URL)
			continue
		}
		unique = append(unique, t)
	}

	results := make([]*models.RentEstimate, len(unique))
	pool := utils.NewWorkerPool(a.workers)
	for i, t := range unique {
		i, t := i, t
		pool.Submit(func() {
			results[i] = a.EstimateOne(t, idx)
		})
	}
	pool.Wait()

	valid := 0
	for _, r := range results {
		if r.Valid() {
			valid++
		}
	}
	a.logger.Info("[analyzer] Estimated %d targets against %d rentals in %v (%d valid, %d workers)",
		len(results), len(corpus), time.Since(start).Round(time.Millisecond), valid, pool.Size())
	return results, nil
}

// EstimateOne runs the pipeline for a single target.
func (a *Analyzer) EstimateOne(target *models.ListingRecord, idx *CorpusIndex) *models.RentEstimate {
	if !target.Usable() {
		a.logger.Debug("[analyzer] %s: invalid price %.2f or size %.2f", target.URL, target.Price, target.SizeSqm)
		return a.assembler.Assemble(Outcome{Target: target, Reason: models.ReasonInvalidSize})
	}

	var (
		candidates []models.Candidate
		params     models.MatchParameters
		level      int
	)
	for i, p := range a.levels {
		candidates = a.filter.FilterIndexed(target, idx, p)
		params, level = p, i
		if len(candidates) >= p.MinComparables {
			break
		}
	}

	if len(candidates) < params.MinComparables {
		return a.assembler.Assemble(Outcome{
			Target:     target,
			Candidates: candidates,
			Reason:     models.ReasonInsufficient(len(candidates)),
			MatchLevel: level,
		})
	}
	if level > 0 {
		a.logger.Debug("[analyzer] %s: %d comparables at fallback level %d", target.URL, len(candidates), level)
	}

	raw := a.estimator.Estimate(target, candidates)
	if !raw.OK {
		return a.assembler.Assemble(Outcome{
			Target:     target,
			Candidates: candidates,
			Reason:     models.ReasonNoValidPrices,
			MatchLevel: level,
		})
	}

	rent, clamp := a.clamp.Apply(raw.MonthlyRent, target.Price)
	return a.assembler.Assemble(Outcome{
		Target:     target,
		Candidates: candidates,
		Raw:        raw,
		Rent:       rent,
		Clamp:      clamp,
		Reason:     models.ReasonValid,
		MatchLevel: level,
	})
}
