package recorder

import (
	"time"

	"rent-estimator/models"
)

// RunRecord is a stored batch run as read back for the history view.
type RunRecord struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     time.Time
	Source         string
	TargetCount    int
	CorpusSize     int
	ValidEstimates int
	ValidPercent   float64
	AverageRent    float64
	AverageYield   float64
	ClampedCount   int
	Distribution   map[int]int
}

// Recorder persists batch runs so thresholds can be calibrated over time.
type Recorder interface {
	RecordRun(run *models.AnalysisRun) error
	RecentRuns(limit int) ([]*RunRecord, error)
	Close() error
}
