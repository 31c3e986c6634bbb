package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler fires registry jobs on their cron schedules. A job still running
// when its next tick arrives is skipped for that tick.
type Scheduler struct {
	cron     *cron.Cron
	registry *Registry
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewScheduler(loc *time.Location, registry *Registry) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	l := cronLogger{}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)

	s := &Scheduler{cron: c, registry: registry}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	for _, job := range registry.Jobs() {
		if _, err := c.AddFunc(job.Schedule, s.fire(job.Name)); err != nil {
			return nil, fmt.Errorf("scheduling %s (%q): %w", job.Name, job.Schedule, err)
		}
	}
	return s, nil
}

func (s *Scheduler) fire(name string) func() {
	return func() {
		// Failures are logged by execute; the next tick runs regardless.
		_ = s.registry.Run(s.ctx, name)
	}
}

// Start launches the cron loop. Jobs inherit ctx values but are cancelled
// only through Stop.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.cron.Start()
	slog.InfoContext(ctx, "scheduler started",
		"jobs", s.registry.Names(),
		"location", s.cron.Location().String())
}

// Stop halts scheduling and waits for running jobs up to ctx's deadline.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		slog.WarnContext(ctx, "scheduler stop timed out, cancelling running jobs")
	}
	s.cancel()
}

// Entries reports the next run time of each scheduled job.
func (s *Scheduler) Entries() []time.Time {
	entries := s.cron.Entries()
	out := make([]time.Time, len(entries))
	for i, e := range entries {
		out[i] = e.Next
	}
	return out
}

type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
