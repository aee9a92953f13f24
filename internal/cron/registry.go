package cron

import "context"

// Job represents a scheduled task that runs inside the cron worker.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Entry pairs a job with its schedule.
type Entry struct {
	Job      Job
	Schedule Schedule
}

// Registry tracks registered cron jobs.
type Registry struct {
	entries []Entry
}

// NewRegistry builds a registry preloaded with the provided entries.
func NewRegistry(entries ...Entry) *Registry {
	registry := &Registry{}
	for _, entry := range entries {
		registry.Register(entry.Job, entry.Schedule)
	}
	return registry
}

// Register adds a job to the registry. Entries without a job or schedule are ignored.
func (r *Registry) Register(job Job, schedule Schedule) {
	if job == nil || schedule == nil {
		return
	}
	r.entries = append(r.entries, Entry{Job: job, Schedule: schedule})
}

// Entries returns the registered entries in the order they were added.
func (r *Registry) Entries() []Entry {
	entries := make([]Entry, len(r.entries))
	copy(entries, r.entries)
	return entries
}

// Find returns the job registered under name.
func (r *Registry) Find(name string) (Job, bool) {
	for _, entry := range r.entries {
		if entry.Job.Name() == name {
			return entry.Job, true
		}
	}
	return nil, false
}
