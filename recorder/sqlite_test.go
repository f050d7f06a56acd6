package recorder

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"rent-estimator/models"
	"rent-estimator/utils"
)

func newTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "history", "runs.db"), utils.NewLoggerTo(io.Discard, utils.LevelError))
	if err != nil {
		t.Fatalf("NewSQLiteRecorder: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func sampleRun(started time.Time) *models.AnalysisRun {
	return &models.AnalysisRun{
		ID:          uuid.NewString(),
		StartedAt:   started,
		FinishedAt:  started.Add(3 * time.Second),
		Source:      "csv",
		TargetCount: 10,
		CorpusSize:  200,
		Levels:      []models.MatchParameters{models.DefaultMatchParameters()},
		Summary: &models.BatchSummary{
			TotalTargets:                10,
			ValidEstimates:              7,
			ValidPercent:                70,
			AverageMonthlyRent:          1350,
			AverageGrossYield:           4.9,
			ClampedCount:                2,
			ComparableCountDistribution: map[int]int{0: 1, 1: 2, 4: 7},
			ReasonCounts:                map[string]int{models.ReasonValid: 7, "Insufficient comparables": 3},
		},
	}
}

func TestSQLiteRecorderRoundTrip(t *testing.T) {
	r := newTestRecorder(t)
	base := time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC)

	older, newer := sampleRun(base), sampleRun(base.Add(24*time.Hour))
	for _, run := range []*models.AnalysisRun{older, newer} {
		if err := r.RecordRun(run); err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
	}

	runs, err := r.RecentRuns(10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs: got %d, want 2", len(runs))
	}
	if runs[0].ID != newer.ID {
		t.Errorf("newest first: got %s, want %s", runs[0].ID, newer.ID)
	}
	got := runs[0]
	if got.ValidEstimates != 7 || got.ValidPercent != 70 || got.ClampedCount != 2 {
		t.Errorf("summary fields: got %+v", got)
	}
	if got.Distribution[4] != 7 || got.Distribution[1] != 2 {
		t.Errorf("distribution: got %v", got.Distribution)
	}
	if !got.StartedAt.Equal(newer.StartedAt) {
		t.Errorf("StartedAt: got %v, want %v", got.StartedAt, newer.StartedAt)
	}
}

func TestSQLiteRecorderLimit(t *testing.T) {
	r := newTestRecorder(t)
	base := time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if err := r.RecordRun(sampleRun(base.Add(time.Duration(i) * time.Hour))); err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
	}
	runs, err := r.RecentRuns(2)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("runs: got %d, want 2", len(runs))
	}
}

func TestSQLiteRecorderRejectsDuplicateID(t *testing.T) {
	r := newTestRecorder(t)
	run := sampleRun(time.Now())
	if err := r.RecordRun(run); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if err := r.RecordRun(run); err == nil {
		t.Error("expected error when recording the same run twice")
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	if err := r.RecordRun(sampleRun(time.Now())); err != nil {
		t.Errorf("RecordRun: %v", err)
	}
	if runs, err := r.RecentRuns(5); err != nil || len(runs) != 0 {
		t.Errorf("RecentRuns: got %v, %v", runs, err)
	}
}
