// Package worker runs the periodic housekeeping jobs of the server: expiring
// idle configuration sessions, carts and rate-limit entries.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/cardapio/internal/telemetry"
)

// Config holds worker configuration
type Config struct {
	// WorkerID uniquely identifies this worker instance
	WorkerID string

	// PollInterval is how often every job runs
	PollInterval time.Duration

	// MaxConcurrency is the maximum number of jobs running at once
	MaxConcurrency int

	// JobTimeout bounds a single job run
	JobTimeout time.Duration
}

// Job is one periodic task. Run returns how many items it processed.
type Job struct {
	Name string
	Run  func(ctx context.Context) (int, error)
}

// SweepJob adapts a Sweep method (composer.Registry, cart.Registry) to a Job.
func SweepJob(name string, sweep func(ctx context.Context) int) Job {
	return Job{
		Name: name,
		Run: func(ctx context.Context) (int, error) {
			return sweep(ctx), nil
		},
	}
}

// Worker runs jobs on a fixed interval
type Worker struct {
	config   Config
	jobs     []Job
	logger   *slog.Logger
	reporter telemetry.Reporter

	// running guards against a job overlapping its own previous run
	mu      sync.Mutex
	running map[string]bool
}

// NewWorker creates a new background worker
func NewWorker(config Config, logger *slog.Logger, reporter telemetry.Reporter, jobs ...Job) *Worker {
	// Set defaults
	if config.WorkerID == "" {
		config.WorkerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	if config.PollInterval <= 0 {
		config.PollInterval = time.Minute
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 2
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	if reporter == nil {
		reporter = telemetry.NopReporter{}
	}

	return &Worker{
		config:   config,
		jobs:     jobs,
		logger:   logger,
		reporter: reporter,
		running:  make(map[string]bool),
	}
}

// Start runs the jobs every PollInterval until the context is cancelled,
// then waits for in-flight runs to finish.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("worker starting",
		"worker_id", w.config.WorkerID,
		"poll_interval", w.config.PollInterval,
		"max_concurrency", w.config.MaxConcurrency,
		"jobs", len(w.jobs),
	)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	var inflight sync.WaitGroup
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker shutting down", "worker_id", w.config.WorkerID)
			inflight.Wait()
			return ctx.Err()

		case <-ticker.C:
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				w.RunOnce(ctx)
			}()
		}
	}
}

// RunOnce runs every job once, at most MaxConcurrency at a time. A job whose
// previous run is still going is skipped.
func (w *Worker) RunOnce(ctx context.Context) {
	g := new(errgroup.Group)
	g.SetLimit(w.config.MaxConcurrency)

	for _, job := range w.jobs {
		if !w.claim(job.Name) {
			w.logger.Debug("job still running, skipping", "job", job.Name)
			continue
		}
		g.Go(func() error {
			defer w.release(job.Name)
			w.runJob(ctx, job)
			return nil
		})
	}
	_ = g.Wait()
}

func (w *Worker) runJob(ctx context.Context, job Job) {
	jobCtx, cancel := context.WithTimeout(ctx, w.config.JobTimeout)
	defer cancel()

	start := time.Now()
	n, err := job.Run(jobCtx)
	if err != nil {
		w.logger.Error("job failed",
			"job", job.Name,
			"error", err,
		)
		w.reporter.Report(ctx, err, slog.String("job", job.Name))
		return
	}

	if n > 0 {
		w.logger.Info("job completed",
			"job", job.Name,
			"processed", n,
			"duration", time.Since(start),
		)
	}
}

func (w *Worker) claim(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running[name] {
		return false
	}
	w.running[name] = true
	return true
}

func (w *Worker) release(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.running, name)
}
