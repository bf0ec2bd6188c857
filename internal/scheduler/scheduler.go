// Package scheduler provides cron-based scheduling for collection runs.
package scheduler

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultRunTimeout is the default timeout for a pipeline run.
const DefaultRunTimeout = 5 * time.Minute

// Pipeline is one collect-store-alert cycle.
type Pipeline interface {
	Run(ctx context.Context) error
}

// PipelineFunc adapts a function to the Pipeline interface.
type PipelineFunc func(ctx context.Context) error

// Run implements Pipeline.
func (f PipelineFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Scheduler manages scheduled collection runs.
type Scheduler struct {
	cron       *cron.Cron
	pipeline   Pipeline
	runTimeout time.Duration

	mu      sync.Mutex
	running bool
	busy    int32 // atomic flag to prevent concurrent runs
}

// New creates a new Scheduler. Cron expressions are interpreted in loc;
// if loc is nil, UTC is used.
func New(pipeline Pipeline, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:       cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		pipeline:   pipeline,
		runTimeout: DefaultRunTimeout,
	}
}

// SetRunTimeout sets the timeout for pipeline runs.
func (s *Scheduler) SetRunTimeout(timeout time.Duration) {
	s.runTimeout = timeout
}

// Schedule adds a job with the given cron expression.
func (s *Scheduler) Schedule(cronExpr string) error {
	_, err := s.cron.AddFunc(cronExpr, func() {
		s.runPipeline()
	})
	return err
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	s.cron.Start()
	s.running = true
	log.Println("Scheduler started")
}

// Stop halts all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return context.Background()
	}

	ctx := s.cron.Stop()
	s.running = false
	log.Println("Scheduler stopped")
	return ctx
}

// RunNow triggers an immediate pipeline run (bypassing schedule).
func (s *Scheduler) RunNow() {
	s.runPipeline()
}

// runPipeline executes one collection cycle.
// Uses atomic flag so overlapping runs are skipped, not queued.
func (s *Scheduler) runPipeline() {
	if !atomic.CompareAndSwapInt32(&s.busy, 0, 1) {
		log.Println("Collection already in progress, skipping this run")
		return
	}
	defer atomic.StoreInt32(&s.busy, 0)

	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	log.Println("Starting scheduled collection...")

	if err := s.pipeline.Run(ctx); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			log.Printf("Collection timed out after %v", s.runTimeout)
		} else {
			log.Printf("Collection failed: %v", err)
		}
		return
	}

	log.Println("Scheduled collection complete")
}

// IsRunning returns whether the scheduler is currently active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// IsBusy returns whether a pipeline run is currently in progress.
func (s *Scheduler) IsBusy() bool {
	return atomic.LoadInt32(&s.busy) == 1
}
