// Package scheduler drives recurring mine_parallel invocations on a cron
// schedule, backed by github.com/robfig/cron/v3.
package scheduler

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/r3e-network/factor-arena/domain/mining"
	"github.com/r3e-network/factor-arena/infrastructure/logging"
)

// MiningFunc is the orchestrator operation the scheduler invokes on every
// tick: orchestrator.Orchestrator.MineParallel, bound to a concrete data
// source by the caller.
type MiningFunc func(ctx context.Context) ([]mining.MiningResult, error)

// Scheduler wraps a cron.Cron configured with second-level precision and
// records the last run's outcome for observability.
type Scheduler struct {
	log *logging.Logger
	c   *cron.Cron

	mu        sync.Mutex
	lastRun   []mining.MiningResult
	lastError error
	runCount  int
}

// New builds a Scheduler. Call Start to begin dispatching ticks and Stop
// to drain gracefully.
func New(log *logging.Logger) *Scheduler {
	return &Scheduler{
		log: log,
		c:   cron.New(cron.WithSeconds()),
	}
}

// AddMiningJob schedules fn to run on spec (a 6-field cron expression whose
// first field is seconds; the parser is built with cron.WithSeconds, so a
// 5-field expression is rejected). Returns the cron.EntryID for later
// removal.
func (s *Scheduler) AddMiningJob(spec string, fn MiningFunc) (cron.EntryID, error) {
	return s.c.AddFunc(spec, func() {
		ctx := context.Background()
		results, err := fn(ctx)

		s.mu.Lock()
		s.lastRun = results
		s.lastError = err
		s.runCount++
		s.mu.Unlock()

		if s.log != nil {
			if err != nil {
				s.log.WithError(err).Warn("scheduled mining run failed")
			} else {
				s.log.WithFields(map[string]interface{}{"results": len(results)}).Info("scheduled mining run completed")
			}
		}
	})
}

// Remove cancels a previously scheduled job.
func (s *Scheduler) Remove(id cron.EntryID) {
	s.c.Remove(id)
}

// Start begins dispatching scheduled ticks in the background.
func (s *Scheduler) Start() {
	s.c.Start()
}

// Stop cancels the scheduler and waits for any in-flight job to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopCtx := s.c.Stop()
	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LastRun returns the most recent scheduled run's results and error, and
// how many runs have completed so far.
func (s *Scheduler) LastRun() ([]mining.MiningResult, error, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastError, s.runCount
}
