package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	xlogger "OpsRecon/pkg/logger"
)

// Job is one periodic refresh task.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context)
}

// Scheduler re-runs registered jobs at fixed intervals. Each job runs once
// immediately on start. Cancellation is cooperative: in-flight runs are not
// interrupted, but Alive lets late completions detect teardown before they
// touch shared state.
type Scheduler struct {
	log   *xlogger.Logger
	jobs  []Job
	alive atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an empty scheduler.
func New(log *xlogger.Logger) *Scheduler {
	return &Scheduler{log: log}
}

// Add registers a job. Must be called before Start.
func (s *Scheduler) Add(name string, interval time.Duration, run func(ctx context.Context)) {
	s.jobs = append(s.jobs, Job{Name: name, Interval: interval, Run: run})
}

// Alive reports whether the scheduler has not been torn down. Callbacks
// completing after Stop must check this before applying results.
func (s *Scheduler) Alive() bool { return s.alive.Load() }

// Start launches one loop per job.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.alive.Store(true)
	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.loop(job)
	}
	s.log.Info("scheduler started", xlogger.Int("jobs", len(s.jobs)))
}

// Stop cancels all loops and waits for them to drain.
func (s *Scheduler) Stop() {
	s.alive.Store(false)
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) loop(job Job) {
	defer s.wg.Done()
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	job.Run(s.ctx)
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			job.Run(s.ctx)
		}
	}
}
