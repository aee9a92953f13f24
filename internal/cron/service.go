package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/workoutbrothers/storefront-backend/pkg/logger"
	"github.com/workoutbrothers/storefront-backend/pkg/metrics"
)

const (
	defaultInterval = time.Minute
	defaultSlotTTL  = 8 * 24 * time.Hour
)

// SlotClaimer records that a (job, slot) pair has run.
type SlotClaimer interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	SlotKey(job, slot string) string
}

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Slots    SlotClaimer
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
	Location *time.Location
}

// Service checks registered schedules on a fixed cadence and runs the jobs
// that are due. Each (job, slot) pair runs once across all instances.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	slots    SlotClaimer
	metrics  *metrics.CronJobMetrics
	interval time.Duration
	loc      *time.Location
	now      func() time.Time
}

// NewService builds a cron service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	if params.Slots == nil {
		return nil, fmt.Errorf("slot claimer required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		lock:     params.Lock,
		slots:    params.Slots,
		metrics:  params.Metrics,
		interval: interval,
		loc:      loc,
		now:      time.Now,
	}, nil
}

// Run starts the cron loop until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	for _, entry := range s.registry.Entries() {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"job":      entry.Job.Name(),
			"schedule": entry.Schedule.String(),
			"timezone": s.loc.String(),
		}), "cron job registered")
	}

	if err := s.runCycle(ctx); err != nil {
		s.logg.Error(ctx, "scheduled run failed", err)
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service context canceled")
			return ctx.Err()
		case <-ticker.C:
			if err := s.runCycle(ctx); err != nil {
				s.logg.Error(ctx, "scheduled run failed", err)
			}
		}
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logg.Debug(ctx, "another cron instance is running; skipping this cycle")
		return nil
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logg.Error(ctx, "failed to release cron lock", relErr)
		}
	}()

	now := s.now().In(s.loc)
	var errs error
	for _, entry := range s.registry.Entries() {
		slot, due := entry.Schedule.Slot(now)
		if !due {
			continue
		}
		claimed, err := s.slots.SetNX(ctx, s.slots.SlotKey(entry.Job.Name(), slot), now.UTC().Format(time.RFC3339), defaultSlotTTL)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("claim slot %s/%s: %w", entry.Job.Name(), slot, err))
			continue
		}
		if !claimed {
			continue
		}
		errs = multierr.Append(errs, s.runJob(s.logg.WithField(ctx, "slot", slot), entry.Job))
	}
	return errs
}

// RunNow executes a registered job immediately, outside its schedule.
func (s *Service) RunNow(ctx context.Context, name string) error {
	job, ok := s.registry.Find(name)
	if !ok {
		return fmt.Errorf("cron job %q not registered", name)
	}
	return s.runJob(ctx, job)
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	jobCtx := s.logg.WithJob(ctx, job.Name())
	jobCtx = s.logg.WithField(jobCtx, "event", "cron.job")
	s.logg.Info(jobCtx, "job start")
	start := time.Now()
	err := job.Run(jobCtx)
	duration := time.Since(start)
	s.metrics.ObserveRun(job.Name(), duration, err)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		return fmt.Errorf("%s: %w", job.Name(), err)
	}
	s.logg.Info(jobCtx, "job completed")
	return nil
}
