package recorder

import "rent-estimator/models"

// NoopRecorder is a no-op implementation used when no history database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ *models.AnalysisRun) error { return nil }
func (n *NoopRecorder) RecentRuns(_ int) ([]*RunRecord, error) { return nil, nil }
func (n *NoopRecorder) Close() error                           { return nil }
