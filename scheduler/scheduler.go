package scheduler

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"rent-estimator/utils"
)

// DefaultAnalysisCron re-runs the analysis at 06:00 on the first of each month.
const DefaultAnalysisCron = "0 6 1 * *"

// Job is one periodic analysis run.
type Job func() error

// Scheduler runs the analysis job on a cron schedule. Overlapping runs are
// skipped rather than queued.
type Scheduler struct {
	cron    *cron.Cron
	job     Job
	logger  *utils.Logger
	running sync.Mutex
}

// New registers job under the standard five-field cron expression spec.
func New(spec string, job Job, logger *utils.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(),
		job:    job,
		logger: logger,
	}
	if _, err := s.cron.AddFunc(spec, s.RunNow); err != nil {
		return nil, fmt.Errorf("scheduler: register %q: %w", spec, err)
	}
	return s, nil
}

// RunNow executes the job immediately unless a run is already in progress.
func (s *Scheduler) RunNow() {
	if !s.running.TryLock() {
		s.logger.Warn("[scheduler] Previous analysis still running, skipping this tick")
		return
	}
	defer s.running.Unlock()

	s.logger.Info("[scheduler] Analysis run starting")
	if err := s.job(); err != nil {
		s.logger.Error("[scheduler] Analysis run failed: %v", err)
		return
	}
	s.logger.Info("[scheduler] Analysis run finished")
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("[scheduler] Started, next run at %s", s.cron.Entries()[0].Next.Format("2006-01-02 15:04"))
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("[scheduler] Stopped")
}
