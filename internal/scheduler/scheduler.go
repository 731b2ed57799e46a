// Package scheduler runs the periodic ledger jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"
	_ "time/tzdata" // Containers without a zoneinfo database

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// jobTimeout bounds a single run of a job
const jobTimeout = time.Minute

// CounterResetter zeroes the per-user daily counters
type CounterResetter interface {
	ResetDailyCounters(ctx context.Context) (int64, error)
}

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron     *cron.Cron
	counters CounterResetter
	loc      *time.Location // Location the cron specs are read in
}

// NewScheduler registers the daily reset at spec (with seconds) in the given timezone
func NewScheduler(counters CounterResetter, spec, timezone string) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
		),
		counters: counters,
		loc:      loc,
	}
	if _, err := s.cron.AddFunc(spec, s.ResetDailyCounters); err != nil {
		return nil, fmt.Errorf("register daily reset %q: %w", spec, err)
	}
	return s, nil
}

// ResetDailyCounters is the daily job body
func (s *Scheduler) ResetDailyCounters() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	n, err := s.counters.ResetDailyCounters(ctx)
	if err != nil {
		logrus.WithField("error", err.Error()).Error("Daily counter reset failed")
		return
	}
	logrus.WithField("users", n).Info("Daily counters reset")
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	logrus.WithFields(logrus.Fields{
		"jobs":     len(s.cron.Entries()),
		"next_run": s.NextRun().Format(time.RFC3339),
	}).Info("Cron scheduler started")
}

// Stop waits for running jobs to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	logrus.Info("Cron scheduler stopped")
}

// NextRun reports when the daily reset fires next, in the scheduler's location
func (s *Scheduler) NextRun() time.Time {
	return s.nextRunAfter(time.Now())
}

func (s *Scheduler) nextRunAfter(now time.Time) time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	// Schedules compute in the location of the time they are given
	return entries[0].Schedule.Next(now.In(s.loc))
}
