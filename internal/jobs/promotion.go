// Package jobs runs the periodic waiting-list promotion sweep.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/example/campground/internal/application"
	"github.com/example/campground/internal/logging"
)

// Promoter runs one promotion sweep.
type Promoter interface {
	PromoteAll(ctx context.Context) (application.PromotionReport, error)
}

// PromotionJob adapts a Promoter to cron.Job. Each run is bounded by timeout
// and canceled when the scheduler's context ends.
type PromotionJob struct {
	promoter Promoter
	timeout  time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	parent context.Context
}

var _ cron.Job = (*PromotionJob)(nil)

// NewPromotionJob returns a job that sweeps the waiting list through promoter.
func NewPromotionJob(promoter Promoter, timeout time.Duration, logger *slog.Logger) *PromotionJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &PromotionJob{
		promoter: promoter,
		timeout:  timeout,
		logger:   logger.With("job", "waitlist_promotion"),
		parent:   context.Background(),
	}
}

// Run implements cron.Job.
func (j *PromotionJob) Run() {
	j.mu.Lock()
	parent := j.parent
	j.mu.Unlock()

	_, _ = j.RunOnce(parent)
}

// RunOnce performs a single sweep and logs its report.
func (j *PromotionJob) RunOnce(ctx context.Context) (application.PromotionReport, error) {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	// services log with the job's attributes for the length of the sweep
	ctx = logging.ContextWithLogger(ctx, j.logger)

	start := time.Now()
	report, err := j.promoter.PromoteAll(ctx)
	attrs := []any{
		"promoted", len(report.Promoted),
		"unsatisfiable", len(report.Unsatisfiable),
		"conflicted", len(report.Conflicted),
		"duration", time.Since(start),
	}
	if err != nil {
		j.logger.ErrorContext(ctx, "promotion sweep failed", append(attrs, "error", err, "error_kind", application.ErrorKind(err))...)
		return report, err
	}
	j.logger.InfoContext(ctx, "promotion sweep finished", attrs...)
	return report, nil
}

func (j *PromotionJob) bind(ctx context.Context) {
	j.mu.Lock()
	j.parent = ctx
	j.mu.Unlock()
}

// Scheduler runs a PromotionJob on a cron schedule. Overlapping runs are
// skipped rather than queued.
type Scheduler struct {
	cron   *cron.Cron
	job    *PromotionJob
	logger *slog.Logger
}

// NewScheduler parses spec (standard five-field or @every/@hourly
// descriptors) and registers job under it.
func NewScheduler(spec string, loc *time.Location, job *PromotionJob, logger *slog.Logger) (*Scheduler, error) {
	if job == nil {
		return nil, errors.New("jobs: promotion job is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}

	adapter := cronLogger{logger: logger.With("component", "cron")}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(adapter),
		cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
	)
	if _, err := c.AddJob(spec, job); err != nil {
		return nil, fmt.Errorf("jobs: invalid schedule %q: %w", spec, err)
	}
	return &Scheduler{cron: c, job: job, logger: logger}, nil
}

// Run starts the schedule and blocks until ctx ends, then waits for a
// running sweep to observe the cancellation and return.
func (s *Scheduler) Run(ctx context.Context) error {
	s.job.bind(ctx)
	s.cron.Start()
	s.logger.InfoContext(ctx, "promotion schedule started")

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("promotion schedule stopped")
	return nil
}

// cronLogger adapts slog to cron.Logger. cron's info messages are per-tick
// noise and go to debug.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
