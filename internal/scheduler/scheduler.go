package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hirelab/crucible/internal/model"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/semaphore"
)

// Sweeper evicts terminal jobs older than the retention window from the
// in-memory registry, on a cron cadence. Queued and running jobs are
// never touched. A zero max age disables the sweeper entirely.
type Sweeper struct {
	store    *model.JobStore
	maxAge   time.Duration
	schedule cron.Schedule
	nextRun  time.Time
	ticker   *time.Ticker
	stopChan chan struct{}
	wg       sync.WaitGroup
	inFlight *semaphore.Weighted
}

// NewSweeper creates a retention sweeper. The schedule is a standard
// 5-field cron expression.
func NewSweeper(store *model.JobStore, maxAge time.Duration, scheduleExpr string) (*Sweeper, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(scheduleExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", scheduleExpr, err)
	}

	return &Sweeper{
		store:    store,
		maxAge:   maxAge,
		schedule: schedule,
		stopChan: make(chan struct{}),
		inFlight: semaphore.NewWeighted(1),
	}, nil
}

// Start begins the sweep loop.
func (s *Sweeper) Start(ctx context.Context) {
	if s.maxAge <= 0 {
		slog.Info("Retention sweeper is disabled by configuration")
		return
	}

	s.nextRun = s.schedule.Next(time.Now().UTC())
	slog.Info("Starting retention sweeper",
		"max_age", s.maxAge,
		"next_run", s.nextRun.Format(time.RFC3339),
	)

	s.ticker = time.NewTicker(30 * time.Second)
	s.wg.Add(1)

	go s.run(ctx)
}

// Stop gracefully stops the sweeper.
func (s *Sweeper) Stop() {
	if s.maxAge <= 0 {
		return
	}

	slog.Info("Stopping retention sweeper")

	close(s.stopChan)
	if s.ticker != nil {
		s.ticker.Stop()
	}
	s.wg.Wait()

	slog.Info("Retention sweeper stopped")
}

// run is the main sweep loop.
func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-s.ticker.C:
			now := time.Now().UTC()
			if now.Before(s.nextRun) {
				continue
			}
			s.nextRun = s.schedule.Next(now)
			s.sweep(now)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			slog.Info("Retention sweeper context done")
			return
		}
	}
}

// sweep evicts expired terminal jobs. Overlapping sweeps are skipped.
func (s *Sweeper) sweep(now time.Time) {
	if !s.inFlight.TryAcquire(1) {
		slog.Debug("Sweep already in progress, skipping")
		return
	}
	defer s.inFlight.Release(1)

	cutoff := now.Add(-s.maxAge)
	removed := s.store.DeleteTerminalBefore(cutoff)

	if removed > 0 {
		slog.Info("Retention sweep evicted jobs",
			"removed", removed,
			"cutoff", cutoff.Format(time.RFC3339),
		)
	} else {
		slog.Debug("Retention sweep found nothing to evict")
	}
}
