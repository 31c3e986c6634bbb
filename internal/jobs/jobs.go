package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/vicharanashala/ajrasakha-sub003/common/logger"
	"github.com/vicharanashala/ajrasakha-sub003/core/config"
	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
)

const (
	JobExpireQuestions        = "expire-questions"
	JobDeleteOldNotifications = "delete-old-notifications"
	JobUnblockExperts         = "unblock-experts"
	JobBackupDatabase         = "backup-database"
	JobBalanceWorkload        = "balance-workload"
)

var ErrUnknownJob = errors.New("unknown job")

// Job is one named background task. Schedule is a five-field cron expression.
type Job struct {
	Name     string
	Schedule string
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

type QuestionExpirer interface {
	ExpireStale(ctx context.Context, now time.Time) (int, error)
}

type NotificationPurger interface {
	AutoDelete(ctx context.Context, now time.Time) (int, error)
}

type UserUnblocker interface {
	UnblockExpired(ctx context.Context, now time.Time) (int, error)
}

type WorkloadBalancer interface {
	Balance(ctx context.Context, createdBy *int64) (*model.BalanceRun, error)
}

type Deps struct {
	Questions     QuestionExpirer
	Notifications NotificationPurger
	Users         UserUnblocker
	// Workload and Backup are optional; their jobs are skipped when nil.
	Workload WorkloadBalancer
	Backup   *Backup
	Now      func() time.Time
}

// Standard returns the service's background jobs on the configured schedules.
func Standard(cfg config.SchedulerConfig, d Deps) []Job {
	now := d.Now
	if now == nil {
		now = time.Now
	}

	jobs := []Job{
		{
			Name:     JobExpireQuestions,
			Schedule: cfg.ExpirySchedule,
			Timeout:  time.Minute,
			Run: func(ctx context.Context) error {
				_, err := d.Questions.ExpireStale(ctx, now())
				return err
			},
		},
		{
			Name:     JobDeleteOldNotifications,
			Schedule: cfg.NotificationSchedule,
			Timeout:  10 * time.Minute,
			Run: func(ctx context.Context) error {
				_, err := d.Notifications.AutoDelete(ctx, now())
				return err
			},
		},
		{
			Name:     JobUnblockExperts,
			Schedule: cfg.UnblockSchedule,
			Timeout:  time.Minute,
			Run: func(ctx context.Context) error {
				_, err := d.Users.UnblockExpired(ctx, now())
				return err
			},
		},
	}

	if d.Backup != nil {
		jobs = append(jobs, Job{
			Name:     JobBackupDatabase,
			Schedule: cfg.BackupSchedule,
			Timeout:  30 * time.Minute,
			Run: func(ctx context.Context) error {
				_, err := d.Backup.Run(ctx, now())
				return err
			},
		})
	}

	if d.Workload != nil {
		jobs = append(jobs, Job{
			Name:     JobBalanceWorkload,
			Schedule: cfg.BalanceSchedule,
			Timeout:  5 * time.Minute,
			Run: func(ctx context.Context) error {
				_, err := d.Workload.Balance(ctx, nil)
				return err
			},
		})
	}

	return jobs
}

// Registry runs jobs by name. The scheduler and the manual trigger endpoint
// share it.
type Registry struct {
	jobs map[string]Job
}

func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{jobs: make(map[string]Job, len(jobs))}
	for _, j := range jobs {
		r.jobs[j.Name] = j
	}
	return r
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.jobs))
	for name := range r.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Jobs() []Job {
	out := make([]Job, 0, len(r.jobs))
	for _, name := range r.Names() {
		out = append(out, r.jobs[name])
	}
	return out
}

// Run executes the named job once and returns its error.
func (r *Registry) Run(ctx context.Context, name string) error {
	job, ok := r.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return execute(ctx, job)
}

func execute(ctx context.Context, job Job) error {
	name := job.Name
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Job:       &name,
		Component: "ajrasakha.jobs",
	})

	sc := logger.StartSpan(ctx, "jobs."+name)
	defer sc.End()
	ctx = sc.Context()

	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		sc.RecordError(err)
		slog.ErrorContext(ctx, "job failed",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		return err
	}

	slog.DebugContext(ctx, "job finished", "duration_ms", time.Since(start).Milliseconds())
	return nil
}
