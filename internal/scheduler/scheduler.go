// Package scheduler runs a job on a cron schedule using a one-shot timer that
// is re-armed after every run, so runs never overlap.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/raoulx24/wal-archiver/internal/logging"
)

// Job is the scheduled unit of work. Its error is logged, never propagated.
type Job func(ctx context.Context) error

type Scheduler struct {
	mu       sync.Mutex
	schedule cron.Schedule
	job      Job
	log      logging.Logger

	timer   *time.Timer
	next    time.Time
	running bool
	busy    bool
	gen     uint64

	ctx    context.Context
	cancel context.CancelFunc
	now    func() time.Time
}

func New(schedule cron.Schedule, job Job, log logging.Logger) *Scheduler {
	return &Scheduler{
		schedule: schedule,
		job:      job,
		log:      log,
		now:      time.Now,
	}
}

// Parse builds a schedule from config: a cron expression (standard 5 fields
// or an @descriptor) wins over the hourly interval.
func Parse(spec string, intervalHours int) (cron.Schedule, error) {
	if spec != "" {
		s, err := cron.ParseStandard(spec)
		if err != nil {
			return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
		}
		if s.Next(time.Now()).IsZero() {
			return nil, fmt.Errorf("schedule %q never fires", spec)
		}
		return s, nil
	}
	if intervalHours <= 0 {
		return nil, fmt.Errorf("schedule interval must be positive, got %d hours", intervalHours)
	}
	return cron.Every(time.Duration(intervalHours) * time.Hour), nil
}

// Start arms the first firing. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.armLocked()
	s.log.Info("scheduler: started", "next", s.next)
}

// Stop cancels the pending firing and the context of a running job.
// It is idempotent and safe to call before Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.cancel()
	s.next = time.Time{}
	s.log.Info("scheduler: stopped")
}

// Reschedule swaps the schedule and re-arms the pending firing. While a job
// is running the new schedule takes effect when it finishes.
func (s *Scheduler) Reschedule(schedule cron.Schedule) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.schedule = schedule
	if !s.running || s.busy {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.armLocked()
	s.log.Info("scheduler: rescheduled", "next", s.next)
}

// Next reports the pending firing time, zero when stopped or when the
// schedule never fires.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// armLocked must be called with mu held. Bumping gen invalidates any timer
// callback already in flight.
func (s *Scheduler) armLocked() {
	s.gen++
	gen := s.gen

	now := s.now()
	s.next = s.schedule.Next(now)
	if s.next.IsZero() {
		s.timer = nil
		s.log.Error("scheduler: schedule never fires, no run armed")
		return
	}
	delay := s.next.Sub(now)
	if delay < 0 {
		delay = 0
	}
	s.timer = time.AfterFunc(delay, func() { s.fire(gen) })
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if !s.running || s.gen != gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.busy = true
	ctx := s.ctx
	s.mu.Unlock()

	s.run(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	// a Stop/Start cycle during the run armed its own timer
	if !s.running || s.gen != gen {
		return
	}
	s.armLocked()
	s.log.Debug("scheduler: next run armed", "next", s.next)
}

func (s *Scheduler) run(ctx context.Context) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("scheduler: job panicked", "panic", fmt.Sprint(r))
		}
	}()

	if err := s.job(ctx); err != nil {
		s.log.Error("scheduler: job failed", "error", err, "duration", time.Since(start))
		return
	}
	s.log.Debug("scheduler: job finished", "duration", time.Since(start))
}
