// Package cron runs the engine's background jobs on fixed intervals. The
// auto-checkout sweep is the only job registered today; the scheduler stays
// generic so later jobs slot in without new plumbing.
package cron

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is a named function executed repeatedly at a fixed interval. Jobs
// receive the scheduler's context and are expected to return once it is
// cancelled.
type Job struct {
	Name     string
	Interval time.Duration
	Fn       func(ctx context.Context) error
}

// Scheduler runs each registered job in its own goroutine and shuts them all
// down together.
type Scheduler struct {
	jobs   []Job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		jobs:   make([]Job, 0),
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddJob registers a job. Register before Start; jobs added afterwards do not
// run until the next Start.
func (s *Scheduler) AddJob(name string, interval time.Duration, fn func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs = append(s.jobs, Job{
		Name:     name,
		Interval: interval,
		Fn:       fn,
	})
	slog.Info("Background job registered", "name", name, "interval", interval)
}

// Start launches every registered job.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.runJob(job)
	}

	slog.Info("Job scheduler started", "job_count", len(s.jobs))
}

// Stop cancels all jobs and blocks until in-flight runs have finished.
func (s *Scheduler) Stop() {
	slog.Info("Stopping job scheduler...")
	s.cancel()
	s.wg.Wait()
	slog.Info("Job scheduler stopped")
}

func (s *Scheduler) runJob(job Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	// First run happens immediately so sessions left open across a restart
	// get swept without waiting a full interval.
	s.executeJob(job)

	for {
		select {
		case <-s.ctx.Done():
			slog.Info("Background job stopping", "name", job.Name)
			return
		case <-ticker.C:
			s.executeJob(job)
		}
	}
}

func (s *Scheduler) executeJob(job Job) {
	start := time.Now()
	slog.Debug("Background job starting", "name", job.Name)

	if err := job.Fn(s.ctx); err != nil {
		slog.Error("Background job failed", "name", job.Name, "error", err, "duration", time.Since(start))
	} else {
		slog.Debug("Background job completed", "name", job.Name, "duration", time.Since(start))
	}
}

// RunOnce executes every registered job a single time on the caller's
// context, independent of the tickers. A failing job is logged and does not
// stop the rest.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs {
		if err := job.Fn(ctx); err != nil {
			slog.Error("Background job failed", "name", job.Name, "error", err)
		}
	}
}
