package services

import (
	"testing"

	"rent-estimator/models"
)

func simCandidates(sims ...int) []models.Candidate {
	out := make([]models.Candidate, 0, len(sims))
	for _, s := range sims {
		out = append(out, cand(1000, 70, s))
	}
	return out
}

func TestAssembleValid(t *testing.T) {
	asm := NewAssembler(newTestLogger())
	target := sale("s", 300000, 70, "T2", "Alfama")
	target.Neighborhood = "Alfama"

	est := asm.Assemble(Outcome{
		Target:     target,
		Candidates: simCandidates(100, 100, 100, 100, 100),
		Raw:        models.RawEstimate{MonthlyRent: 1250, AvgPricePerSqm: 17.857, Used: 5, OK: true},
		Rent:       1250,
		Reason:     models.ReasonValid,
	})

	if est.EstimatedMonthlyRent != 1250 || est.EstimatedAnnualRent != 15000 {
		t.Errorf("rent: got %.2f / %.2f", est.EstimatedMonthlyRent, est.EstimatedAnnualRent)
	}
	if est.GrossYieldPercent != 5 {
		t.Errorf("GrossYieldPercent: got %.2f, want 5", est.GrossYieldPercent)
	}
	if est.AvgPricePerSqm != 17.86 {
		t.Errorf("AvgPricePerSqm: got %.2f, want 17.86", est.AvgPricePerSqm)
	}
	if est.Confidence != models.ConfidenceHigh {
		t.Errorf("Confidence: got %q, want high", est.Confidence)
	}
	if est.Neighborhood != "Alfama" || est.ComparableCount != 5 {
		t.Errorf("metadata: got %q / %d", est.Neighborhood, est.ComparableCount)
	}
}

func TestAssembleAnnualIsTwelveMonths(t *testing.T) {
	asm := NewAssembler(newTestLogger())
	target := sale("s", 300000, 70, "T2", "Alfama")

	est := asm.Assemble(Outcome{
		Target:     target,
		Candidates: simCandidates(100, 100),
		Raw:        models.RawEstimate{MonthlyRent: 1083.333333, Used: 2, OK: true},
		Rent:       1083.333333,
		Reason:     models.ReasonValid,
	})

	if est.EstimatedMonthlyRent != 1083.33 {
		t.Fatalf("EstimatedMonthlyRent: got %v, want 1083.33", est.EstimatedMonthlyRent)
	}
	if est.EstimatedAnnualRent != est.EstimatedMonthlyRent*12 {
		t.Errorf("EstimatedAnnualRent: got %v, want %v", est.EstimatedAnnualRent, est.EstimatedMonthlyRent*12)
	}
	if want := round2(est.EstimatedAnnualRent / target.Price * 100); est.GrossYieldPercent != want {
		t.Errorf("GrossYieldPercent: got %v, want %v", est.GrossYieldPercent, want)
	}
}

func TestAssembleInvalidHasZeroRent(t *testing.T) {
	asm := NewAssembler(newTestLogger())
	est := asm.Assemble(Outcome{
		Target:     sale("s", 300000, 70, "T2", "Alfama"),
		Candidates: simCandidates(100),
		Rent:       999,
		Reason:     models.ReasonInsufficient(1),
	})
	if est.EstimatedMonthlyRent != 0 || est.EstimatedAnnualRent != 0 || est.GrossYieldPercent != 0 {
		t.Errorf("expected zero rent and yield, got %+v", est)
	}
	if est.Valid() {
		t.Error("insufficient estimate must not be valid")
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		name  string
		sims  []int
		level int
		want  models.Confidence
	}{
		{"five exact matches", []int{100, 100, 100, 100, 100}, 0, models.ConfidenceHigh},
		{"five exact matches after fallback", []int{100, 100, 100, 100, 100}, 1, models.ConfidenceMedium},
		{"five fuzzy matches", []int{45, 50, 55, 45, 50}, 0, models.ConfidenceMedium},
		{"three matches", []int{100, 90, 80}, 0, models.ConfidenceMedium},
		{"three fuzzy matches", []int{40, 50, 45}, 0, models.ConfidenceLow},
		{"two matches", []int{100, 100}, 0, models.ConfidenceLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := confidence(simCandidates(tt.sims...), tt.level); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
