package services

import (
	"bytes"
	"strings"
	"testing"

	"rent-estimator/models"
)

func sampleEstimates() []*models.RentEstimate {
	return []*models.RentEstimate{
		{TargetURL: "s/1", Neighborhood: "Alfama", ComparableCount: 5, EstimatedMonthlyRent: 1200, GrossYieldPercent: 4.8, Reason: models.ReasonValid, Confidence: models.ConfidenceHigh},
		{TargetURL: "s/2", Neighborhood: "Alfama", ComparableCount: 3, EstimatedMonthlyRent: 1000, GrossYieldPercent: 6.0, Reason: models.ReasonValid, Confidence: models.ConfidenceMedium, Clamped: true},
		{TargetURL: "s/3", Neighborhood: "Belém", ComparableCount: 3, EstimatedMonthlyRent: 2000, GrossYieldPercent: 3.6, Reason: models.ReasonValid, Confidence: models.ConfidenceMedium},
		{TargetURL: "s/4", Neighborhood: "Graça", ComparableCount: 1, Reason: models.ReasonInsufficient(1), Confidence: models.ConfidenceLow},
		{TargetURL: "s/5", ComparableCount: 0, Reason: models.ReasonInvalidSize, Confidence: models.ConfidenceLow},
	}
}

func TestInsightCounts(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleEstimates(), nil)
	if r.TotalTargets != 5 {
		t.Errorf("TotalTargets: got %d, want 5", r.TotalTargets)
	}
	if r.ValidEstimates != 3 {
		t.Errorf("ValidEstimates: got %d, want 3", r.ValidEstimates)
	}
	if r.ValidPercent != 60 {
		t.Errorf("ValidPercent: got %.2f, want 60", r.ValidPercent)
	}
	if r.ClampedCount != 1 {
		t.Errorf("ClampedCount: got %d, want 1", r.ClampedCount)
	}
}

func TestInsightDistribution(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleEstimates(), nil)
	want := map[int]int{5: 1, 3: 2, 1: 1, 0: 1}
	for n, cnt := range want {
		if r.ComparableCountDistribution[n] != cnt {
			t.Errorf("distribution[%d]: got %d, want %d", n, r.ComparableCountDistribution[n], cnt)
		}
	}
	if r.ReasonCounts["Insufficient comparables"] != 1 {
		t.Errorf("insufficient count: got %d, want 1", r.ReasonCounts["Insufficient comparables"])
	}
	if r.ConfidenceCounts[models.ConfidenceMedium] != 2 {
		t.Errorf("medium confidence: got %d, want 2", r.ConfidenceCounts[models.ConfidenceMedium])
	}
}

func TestInsightRentAndYield(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleEstimates(), nil)
	if r.AverageMonthlyRent != 1400 {
		t.Errorf("AverageMonthlyRent: got %.2f, want 1400", r.AverageMonthlyRent)
	}
	if r.AverageGrossYield != 4.8 {
		t.Errorf("AverageGrossYield: got %.2f, want 4.8", r.AverageGrossYield)
	}
	if r.MinGrossYield != 3.6 || r.MaxGrossYield != 6.0 {
		t.Errorf("yield range: got %.2f-%.2f", r.MinGrossYield, r.MaxGrossYield)
	}
}

func TestInsightTopYields(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleEstimates(), nil)
	if len(r.TopYields) != 3 {
		t.Fatalf("TopYields len: got %d, want 3", len(r.TopYields))
	}
	if r.TopYields[0].TargetURL != "s/2" {
		t.Errorf("TopYields[0]: got %s, want s/2", r.TopYields[0].TargetURL)
	}
}

func TestInsightNeighborhoodGrouping(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleEstimates(), nil)
	if r.EstimatesByNeighborhood["Alfama"] != 2 {
		t.Errorf("Alfama count: got %d, want 2", r.EstimatesByNeighborhood["Alfama"])
	}
	if r.NeighborhoodMatched != 4 || r.NeighborhoodUnmatched != 1 {
		t.Errorf("matched/unmatched: got %d/%d, want 4/1", r.NeighborhoodMatched, r.NeighborhoodUnmatched)
	}
}

func TestInsightEmptyInput(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(nil, nil)
	if r.TotalTargets != 0 || r.ValidPercent != 0 {
		t.Errorf("expected empty summary, got %+v", r)
	}
}

func TestInsightPrint(t *testing.T) {
	var buf bytes.Buffer
	svc := NewInsightService(newTestLogger()).WithOutput(&buf)
	svc.Print(svc.Generate(sampleEstimates(), nil))

	out := buf.String()
	for _, want := range []string{"RENT ESTIMATION SUMMARY", "Alfama", "s/2", "Insufficient comparables", "Neighborhood Statistics"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestInsightNeighborhoodStats(t *testing.T) {
	estimates := []*models.RentEstimate{
		{TargetURL: "s/1", Neighborhood: "Alfama", TargetPrice: 300000, TargetSizeSqm: 60, EstimatedMonthlyRent: 1200, GrossYieldPercent: 4.8, Reason: models.ReasonValid},
		{TargetURL: "s/2", Neighborhood: "Alfama", TargetPrice: 400000, TargetSizeSqm: 100, EstimatedMonthlyRent: 1500, GrossYieldPercent: 4.5, Reason: models.ReasonValid},
		{TargetURL: "s/3", Neighborhood: "Alfama", TargetPrice: 200000, TargetSizeSqm: 50, EstimatedMonthlyRent: 1000, GrossYieldPercent: 6.0, Reason: models.ReasonValid},
		// invalid estimates are left out of the sale figures
		{TargetURL: "s/4", Neighborhood: "Alfama", TargetPrice: 900000, TargetSizeSqm: 30, Reason: models.ReasonInsufficient(1)},
		{TargetURL: "s/5", TargetPrice: 250000, TargetSizeSqm: 50, EstimatedMonthlyRent: 900, GrossYieldPercent: 4.32, Reason: models.ReasonValid},
	}
	r1 := rental("r1", 1000, 50, "T1", "Alfama")
	r1.Neighborhood = "Alfama"
	r2 := rental("r2", 1800, 60, "T2", "Belém")
	r2.Neighborhood = "Belém"
	r3 := rental("r3", 1200, 60, "T2", "Somewhere")

	r := NewInsightService(newTestLogger()).Generate(estimates, []*models.ListingRecord{r1, r2, r3})

	if len(r.NeighborhoodStats) != 2 {
		t.Fatalf("NeighborhoodStats: got %d entries, want 2", len(r.NeighborhoodStats))
	}

	alfama := r.NeighborhoodStats["Alfama"]
	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"PropertyCount", float64(alfama.PropertyCount), 3},
		{"AvgPricePerSqm", alfama.AvgPricePerSqm, 4333.33},
		{"MedianPricePerSqm", alfama.MedianPricePerSqm, 4000},
		{"MinPricePerSqm", alfama.MinPricePerSqm, 4000},
		{"MaxPricePerSqm", alfama.MaxPricePerSqm, 5000},
		{"AvgMonthlyRent", alfama.AvgMonthlyRent, 1233.33},
		{"AvgRentPerSqm", alfama.AvgRentPerSqm, 18.33},
		{"AvgGrossYield", alfama.AvgGrossYield, 5.1},
		{"RentalCount", float64(alfama.RentalCount), 1},
		{"AvgRentalPricePerSqm", alfama.AvgRentalPricePerSqm, 20},
	}
	for _, tt := range tests {
		if !approx(tt.got, tt.want, 0.005) {
			t.Errorf("Alfama %s: got %.2f, want %.2f", tt.name, tt.got, tt.want)
		}
	}

	belem := r.NeighborhoodStats["Belém"]
	if belem.PropertyCount != 0 || belem.RentalCount != 1 || belem.AvgRentalPricePerSqm != 30 {
		t.Errorf("Belém: got %+v, want rentals only", belem)
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		in   []float64
		want float64
	}{
		{nil, 0},
		{[]float64{3}, 3},
		{[]float64{1, 5, 9}, 5},
		{[]float64{1, 3, 5, 9}, 4},
	}
	for _, tt := range tests {
		if got := median(tt.in); got != tt.want {
			t.Errorf("median(%v): got %v, want %v", tt.in, got, tt.want)
		}
	}
}
