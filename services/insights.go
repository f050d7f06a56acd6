package services

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"rent-estimator/models"
	"rent-estimator/utils"
)

type InsightService struct {
	logger *utils.Logger
	out    io.Writer
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger, out: os.Stdout}
}

// WithOutput redirects Print, mainly for tests.
func (s *InsightService) WithOutput(w io.Writer) *InsightService {
	return &InsightService{logger: s.logger, out: w}
}

// Generate summarises a batch. rentals is the cleaned corpus the batch was
// estimated against and only feeds the per-neighborhood rental figures.
func (s *InsightService) Generate(estimates []*models.RentEstimate, rentals []*models.ListingRecord) *models.BatchSummary {
	summary := &models.BatchSummary{
		ComparableCountDistribution: make(map[int]int),
		ReasonCounts:                make(map[string]int),
		ConfidenceCounts:            make(map[models.Confidence]int),
		EstimatesByNeighborhood:     make(map[string]int),
		NeighborhoodStats:           make(map[string]*models.NeighborhoodStats),
	}

	if len(estimates) == 0 {
		summary.NeighborhoodStats = neighborhoodStats(nil, rentals)
		return summary
	}

	summary.TotalTargets = len(estimates)

	var valid []*models.RentEstimate
	for _, e := range estimates {
		summary.ComparableCountDistribution[e.ComparableCount]++
		summary.ReasonCounts[models.ReasonKind(e.Reason)]++
		summary.ConfidenceCounts[e.Confidence]++
		if e.Clamped {
			summary.ClampedCount++
		}
		if e.Neighborhood != "" {
			summary.EstimatesByNeighborhood[e.Neighborhood]++
			summary.NeighborhoodMatched++
		} else {
			summary.NeighborhoodUnmatched++
		}
		if e.Valid() {
			valid = append(valid, e)
		}
	}

	summary.ValidEstimates = len(valid)
	summary.ValidPercent = round2(float64(len(valid)) / float64(len(estimates)) * 100)

	// Rent and yield stats (valid estimates only)
	if len(valid) > 0 {
		summary.MinGrossYield = valid[0].GrossYieldPercent
		summary.MaxGrossYield = valid[0].GrossYieldPercent
		var rentTotal, yieldTotal float64
		for _, e := range valid {
			rentTotal += e.EstimatedMonthlyRent
			yieldTotal += e.GrossYieldPercent
			if e.GrossYieldPercent < summary.MinGrossYield {
				summary.MinGrossYield = e.GrossYieldPercent
			}
			if e.GrossYieldPercent > summary.MaxGrossYield {
				summary.MaxGrossYield = e.GrossYieldPercent
			}
		}
		summary.AverageMonthlyRent = round2(rentTotal / float64(len(valid)))
		summary.AverageGrossYield = round2(yieldTotal / float64(len(valid)))
	}

	// Top 5 by gross yield, URL as tie-breaker for stable output
	top := make([]*models.RentEstimate, len(valid))
	copy(top, valid)
	sort.SliceStable(top, func(i, j int) bool {
		if top[i].GrossYieldPercent != top[j].GrossYieldPercent {
			return top[i].GrossYieldPercent > top[j].GrossYieldPercent
		}
		return top[i].TargetURL < top[j].TargetURL
	})
	if len(top) > 5 {
		top = top[:5]
	}
	summary.TopYields = top
	summary.NeighborhoodStats = neighborhoodStats(valid, rentals)

	s.logger.Info("[insights] %d/%d valid estimates (%.1f%%), %d clamped, %d without neighborhood",
		summary.ValidEstimates, summary.TotalTargets, summary.ValidPercent,
		summary.ClampedCount, summary.NeighborhoodUnmatched)
	return summary
}

func (s *InsightService) Print(r *models.BatchSummary) {
	w := s.out
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📊 RENT ESTIMATION SUMMARY\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Properties analysed : \033[1m%d\033[0m\n", r.TotalTargets)
	fmt.Fprintf(w, "  Valid estimates     : \033[1m%d\033[0m (%.1f%%)\n", r.ValidEstimates, r.ValidPercent)
	fmt.Fprintf(w, "  Clamped estimates   : \033[1m%d\033[0m\n", r.ClampedCount)
	fmt.Fprintln(w)

	// Rent and yield
	fmt.Fprintf(w, "\033[1;33m  Rent & Yield\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.ValidEstimates > 0 {
		fmt.Fprintf(w, "  Average monthly rent : \033[1;32m€%.2f\033[0m\n", r.AverageMonthlyRent)
		fmt.Fprintf(w, "  Average gross yield  : \033[1;32m%.2f%%\033[0m\n", r.AverageGrossYield)
		fmt.Fprintf(w, "  Yield range          : \033[1;32m%.2f%% – %.2f%%\033[0m\n", r.MinGrossYield, r.MaxGrossYield)
	} else {
		fmt.Fprintf(w, "  No valid estimates\n")
	}
	fmt.Fprintln(w)

	// Reasons
	fmt.Fprintf(w, "\033[1;33m  Outcomes\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	for _, reason := range sortedKeys(r.ReasonCounts) {
		fmt.Fprintf(w, "  %-32s %d\n", reason, r.ReasonCounts[reason])
	}
	for _, c := range []models.Confidence{models.ConfidenceHigh, models.ConfidenceMedium, models.ConfidenceLow} {
		fmt.Fprintf(w, "  confidence %-21s %d\n", c, r.ConfidenceCounts[c])
	}
	fmt.Fprintln(w)

	// Comparable distribution
	fmt.Fprintf(w, "\033[1;33m  Comparables per Property\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	counts := make([]int, 0, len(r.ComparableCountDistribution))
	for n := range r.ComparableCountDistribution {
		counts = append(counts, n)
	}
	sort.Ints(counts)
	for _, n := range counts {
		bar := strings.Repeat("█", min(r.ComparableCountDistribution[n], 40))
		fmt.Fprintf(w, "  %4d comparables  %s (%d)\n", n, bar, r.ComparableCountDistribution[n])
	}
	fmt.Fprintln(w)

	// ── TOP 5 YIELDS ──────────────────────────────────────────────────────
	fmt.Fprintf(w, "\033[1;33m  Top 5 Gross Yields\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.TopYields) == 0 {
		fmt.Fprintf(w, "  No valid estimates\n")
	} else {
		for i, e := range r.TopYields {
			fmt.Fprintf(w, "  \033[1m%d.\033[0m %-38s \033[1;32m%.2f%%\033[0m €%.0f/mo\n",
				i+1, truncate(e.TargetURL, 38), e.GrossYieldPercent, e.EstimatedMonthlyRent)
		}
	}
	fmt.Fprintln(w)

	// Estimates by neighborhood
	fmt.Fprintf(w, "\033[1;33m  Properties by Neighborhood\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.EstimatesByNeighborhood) == 0 {
		fmt.Fprintf(w, "  No neighborhood data\n")
	} else {
		type locCount struct {
			loc   string
			count int
		}
		var locs []locCount
		for loc, cnt := range r.EstimatesByNeighborhood {
			locs = append(locs, locCount{loc, cnt})
		}
		sort.Slice(locs, func(i, j int) bool {
			if locs[i].count != locs[j].count {
				return locs[i].count > locs[j].count
			}
			return locs[i].loc < locs[j].loc
		})
		for _, lc := range locs {
			bar := strings.Repeat("█", min(lc.count, 40))
			fmt.Fprintf(w, "  %-30s %s (%d)\n", truncate(lc.loc, 28), bar, lc.count)
		}
		fmt.Fprintf(w, "  %-30s %d\n", "(unmatched)", r.NeighborhoodUnmatched)
	}
	fmt.Fprintln(w)

	// Neighborhood statistics
	fmt.Fprintf(w, "\033[1;33m  Neighborhood Statistics\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.NeighborhoodStats) == 0 {
		fmt.Fprintf(w, "  No neighborhood data\n")
	} else {
		fmt.Fprintf(w, "  %-22s %5s %9s %9s %8s %7s %7s\n", "", "sales", "€/m² avg", "€/m² med", "rent", "yield", "rentals")
		names := make([]string, 0, len(r.NeighborhoodStats))
		for name := range r.NeighborhoodStats {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			st := r.NeighborhoodStats[name]
			fmt.Fprintf(w, "  %-22s %5d %9.0f %9.0f %8.0f %6.2f%% %7d\n",
				truncate(name, 22), st.PropertyCount, st.AvgPricePerSqm, st.MedianPricePerSqm,
				st.AvgMonthlyRent, st.AvgGrossYield, st.RentalCount)
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

// neighborhoodStats groups valid estimates and rentals by neighborhood.
// Records without a neighborhood are left out.
func neighborhoodStats(valid []*models.RentEstimate, rentals []*models.ListingRecord) map[string]*models.NeighborhoodStats {
	out := make(map[string]*models.NeighborhoodStats)
	get := func(name string) *models.NeighborhoodStats {
		st, ok := out[name]
		if !ok {
			st = &models.NeighborhoodStats{}
			out[name] = st
		}
		return st
	}

	perSqm := make(map[string][]float64)
	rentSums := make(map[string]float64)
	rentSqmSums := make(map[string]float64)
	yieldSums := make(map[string]float64)
	for _, e := range valid {
		if e.Neighborhood == "" || e.TargetSizeSqm <= 0 || e.TargetPrice <= 0 {
			continue
		}
		get(e.Neighborhood).PropertyCount++
		perSqm[e.Neighborhood] = append(perSqm[e.Neighborhood], e.TargetPrice/e.TargetSizeSqm)
		rentSums[e.Neighborhood] += e.EstimatedMonthlyRent
		rentSqmSums[e.Neighborhood] += e.EstimatedMonthlyRent / e.TargetSizeSqm
		yieldSums[e.Neighborhood] += e.GrossYieldPercent
	}

	rentalSums := make(map[string]float64)
	for _, r := range rentals {
		if r == nil || r.Neighborhood == "" || !r.Usable() {
			continue
		}
		get(r.Neighborhood).RentalCount++
		rentalSums[r.Neighborhood] += r.PricePerSqm()
	}

	for name, st := range out {
		if n := float64(st.PropertyCount); n > 0 {
			values := perSqm[name]
			sort.Float64s(values)
			var total float64
			for _, v := range values {
				total += v
			}
			st.AvgPricePerSqm = round2(total / n)
			st.MedianPricePerSqm = round2(median(values))
			st.MinPricePerSqm = round2(values[0])
			st.MaxPricePerSqm = round2(values[len(values)-1])
			st.AvgMonthlyRent = round2(rentSums[name] / n)
			st.AvgRentPerSqm = round2(rentSqmSums[name] / n)
			st.AvgGrossYield = round2(yieldSums[name] / n)
		}
		if st.RentalCount > 0 {
			st.AvgRentalPricePerSqm = round2(rentalSums[name] / float64(st.RentalCount))
		}
	}
	return out
}

// median expects sorted input.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
