package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// ScheduledJob is a periodic task run by the Scheduler.
type ScheduledJob struct {
	Name    string
	Spec    string // standard five-field cron expression or descriptor such as "@every 15m"
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// Scheduler runs jobs on cron schedules. A job still running when its next
// tick fires is skipped for that tick.
type Scheduler struct {
	cron *cron.Cron
	base context.Context
}

// NewScheduler creates a scheduler evaluating specs in loc.
// PRE: none
// POST: Returns a stopped scheduler; call Start to begin running jobs
func NewScheduler(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	logger := cronLogger{}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		base: context.Background(),
	}
}

// Add registers job.
// PRE: job.Spec parses; job.Run is non-nil; Start has not been called
// POST: Returns the cron entry id
func (s *Scheduler) Add(job ScheduledJob) (cron.EntryID, error) {
	if job.Run == nil {
		return 0, fmt.Errorf("schedule %s: no run function", job.Name)
	}
	id, err := s.cron.AddFunc(job.Spec, func() { s.run(job) })
	if err != nil {
		return 0, fmt.Errorf("schedule %s: %w", job.Name, err)
	}
	slog.Info("job_scheduled", "job", job.Name, "spec", job.Spec)
	return id, nil
}

func (s *Scheduler) run(job ScheduledJob) {
	ctx := s.base
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}
	start := time.Now()
	if err := job.Run(ctx); err != nil {
		slog.Error("job_failed", "job", job.Name, "error", err, "duration_ms", time.Since(start).Milliseconds())
		return
	}
	slog.Info("job_completed", "job", job.Name, "duration_ms", time.Since(start).Milliseconds())
}

// Start begins running jobs; their contexts derive from ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.base = ctx
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs, or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		slog.Info("scheduler_stopped")
	case <-ctx.Done():
		slog.Warn("scheduler_stop_timeout", "error", ctx.Err())
	}
}

// cronLogger routes cron's internal logging to slog.
type cronLogger struct{}

// Info logs routine cron activity at debug level.
func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron_"+msg, keysAndValues...)
}

// Error logs cron failures, including recovered job panics.
func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron_"+msg, append([]any{"error", err}, keysAndValues...)...)
}
