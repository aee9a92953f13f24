package cron

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/workoutbrothers/storefront-backend/pkg/logger"
	"github.com/workoutbrothers/storefront-backend/pkg/redis/redistest"
)

type fakeLock struct {
	acquired bool
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error { f.acquired = false; return nil }

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func newTestService(t *testing.T, registry *Registry, now time.Time) *Service {
	t.Helper()
	client, _ := redistest.NewClient()
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test", Output: &bytes.Buffer{}}),
		Registry: registry,
		Lock:     &fakeLock{},
		Slots:    client,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	service.now = func() time.Time { return now }
	return service
}

func TestServiceRunCycleRunsDueJobsEvenOnFailure(t *testing.T) {
	success := &testJob{name: "success"}
	failure := &testJob{name: "fail", err: errors.New("boom")}
	notDue := &testJob{name: "later"}
	registry := NewRegistry(
		Entry{Job: success, Schedule: Daily{Hour: 8}},
		Entry{Job: failure, Schedule: Daily{Hour: 8}},
		Entry{Job: notDue, Schedule: Daily{Hour: 20}},
	)
	service := newTestService(t, registry, time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC))

	err := service.runCycle(context.Background())
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected aggregated job error, got %v", err)
	}
	if success.runs != 1 || failure.runs != 1 {
		t.Fatalf("expected due jobs to run once, got success=%d fail=%d", success.runs, failure.runs)
	}
	if notDue.runs != 0 {
		t.Fatalf("expected job outside its hour to be skipped")
	}
}

func TestServiceRunsEachSlotOnce(t *testing.T) {
	job := &testJob{name: "weekly"}
	registry := NewRegistry(Entry{Job: job, Schedule: Weekly{Weekday: time.Monday, Hour: 9}})
	service := newTestService(t, registry, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))

	for i := 0; i < 3; i++ {
		if err := service.runCycle(context.Background()); err != nil {
			t.Fatalf("run cycle: %v", err)
		}
	}
	if job.runs != 1 {
		t.Fatalf("expected a single run per slot, got %d", job.runs)
	}

	service.now = func() time.Time { return time.Date(2026, 3, 9, 9, 5, 0, 0, time.UTC) }
	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 2 {
		t.Fatalf("expected next week's slot to run, got %d runs", job.runs)
	}
}

func TestServiceSkipsWhenLocked(t *testing.T) {
	job := &testJob{name: "daily"}
	service := newTestService(t, NewRegistry(Entry{Job: job, Schedule: Daily{Hour: 8}}), time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	service.lock = &fakeLock{acquired: true}

	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected locked cycle to skip jobs")
	}
}

func TestServiceRunNow(t *testing.T) {
	job := &testJob{name: "manual"}
	service := newTestService(t, NewRegistry(Entry{Job: job, Schedule: Monthly{Day: 1, Hour: 9}}), time.Now())

	if err := service.RunNow(context.Background(), "manual"); err != nil {
		t.Fatalf("run now: %v", err)
	}
	if job.runs != 1 {
		t.Fatalf("expected manual run")
	}
	if err := service.RunNow(context.Background(), "unknown"); err == nil {
		t.Fatalf("expected error for unknown job")
	}
}
