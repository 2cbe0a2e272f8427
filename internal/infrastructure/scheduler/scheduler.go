// Package scheduler runs periodic background jobs: baseline refresh and
// other maintenance work that must not sit on a request path.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/quizhub/progress-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// JOB INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Job defines the interface that all scheduled jobs must implement.
type Job interface {
	// Name returns the unique name of the job.
	Name() string

	// Run executes the job. The context is cancelled when the scheduler
	// is stopping.
	Run(ctx context.Context) error
}

// Schedule defines when a job should run.
type Schedule interface {
	// Next returns the next time the job should run after the given time.
	Next(t time.Time) time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULER
// ══════════════════════════════════════════════════════════════════════════════

// Scheduler manages and executes scheduled jobs. Each job runs in its own
// goroutine; a slow job delays only itself.
type Scheduler struct {
	mu      sync.Mutex
	jobs    []scheduledJob
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	log     *logger.Logger
}

type scheduledJob struct {
	job      Job
	schedule Schedule
	// runOnStart выполняет задачу сразу при старте, не дожидаясь интервала.
	runOnStart bool
}

// New creates a new Scheduler.
func New(log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Default()
	}
	return &Scheduler{
		log: log.With(logger.Component("scheduler")),
	}
}

// Register adds a job to the scheduler. Must be called before Start.
func (s *Scheduler) Register(job Job, schedule Schedule, runOnStart bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, scheduledJob{job: job, schedule: schedule, runOnStart: runOnStart})
}

// Start launches all registered jobs. Returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true

	ctx, s.cancel = context.WithCancel(ctx)
	for _, sj := range s.jobs {
		s.wg.Add(1)
		go s.runLoop(ctx, sj)
	}

	s.log.Info("scheduler started", logger.Int("jobs", len(s.jobs)))
}

// Stop cancels all jobs and waits for them to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

// runLoop drives one job until the context is cancelled.
func (s *Scheduler) runLoop(ctx context.Context, sj scheduledJob) {
	defer s.wg.Done()

	if sj.runOnStart {
		s.execute(ctx, sj.job)
	}

	next := sj.schedule.Next(time.Now())
	timer := time.NewTimer(time.Until(next))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.execute(ctx, sj.job)
			next = sj.schedule.Next(time.Now())
			timer.Reset(time.Until(next))
		}
	}
}

// execute runs one job and logs the outcome. A panicking job is contained:
// it kills its own run, not the scheduler.
func (s *Scheduler) execute(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("job panicked", logger.Operation(job.Name()), logger.F("panic", r))
		}
	}()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.log.Error("job failed",
			logger.Operation(job.Name()),
			logger.Latency(time.Since(start)),
			logger.Err(err),
		)
		return
	}

	s.log.Debug("job completed",
		logger.Operation(job.Name()),
		logger.Latency(time.Since(start)),
	)
}
