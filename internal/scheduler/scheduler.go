// Package scheduler drives the pipelines on fixed intervals.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/poamaps/incident-etl/internal/observability"
)

// Job is one recurring unit of pipeline work. Each job runs on its own
// goroutine, strictly sequentially, so a slow run delays the next tick
// instead of overlapping it.
type Job struct {
	Name     string
	Interval time.Duration

	// BusinessHours restricts the job to the source account's active
	// posting window, Monday through Friday 07:00-21:59 local time.
	// Outside it there is nothing new to ingest.
	BusinessHours bool

	Run func(ctx context.Context) error
}

// Scheduler runs registered jobs until its context is cancelled.
type Scheduler struct {
	jobs          []Job
	clock         clockwork.Clock
	businessHours bool
	obs           *observability.Metrics
	logger        *slog.Logger
}

// New creates a scheduler. When gateBusinessHours is false, per-job
// BusinessHours flags are ignored and every job runs around the clock.
func New(clock clockwork.Clock, gateBusinessHours bool, obs *observability.Metrics, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		clock:         clock,
		businessHours: gateBusinessHours,
		obs:           obs,
		logger:        logger,
	}
}

// Add registers a job. Not safe to call after Run.
func (s *Scheduler) Add(job Job) {
	s.jobs = append(s.jobs, job)
}

// Run executes every job once immediately, then on its interval, until ctx
// is cancelled. Always returns the cancellation cause.
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, job := range s.jobs {
		g.Go(func() error {
			return s.runJob(ctx, job)
		})
	}
	return g.Wait()
}

func (s *Scheduler) runJob(ctx context.Context, job Job) error {
	s.execute(ctx, job)

	ticker := s.clock.NewTicker(job.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			s.execute(ctx, job)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, job Job) {
	if s.businessHours && job.BusinessHours && !withinBusinessHours(s.clock.Now()) {
		s.logger.Debug("outside business hours", "job", job.Name)
		return
	}

	start := s.clock.Now()
	err := job.Run(ctx)
	s.obs.RunDuration.WithLabelValues(job.Name).Observe(s.clock.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.obs.RunsTotal.WithLabelValues(job.Name, "error").Inc()
		s.logger.Error("job run failed", "job", job.Name, "error", err)
		return
	}
	s.obs.RunsTotal.WithLabelValues(job.Name, "success").Inc()
}

func withinBusinessHours(t time.Time) bool {
	wd := t.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return t.Hour() >= 7 && t.Hour() <= 21
}
