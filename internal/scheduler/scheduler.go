// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the site's periodic maintenance jobs.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// jobTimeout bounds a single job run.
const jobTimeout = 5 * time.Minute

// JobFunc is the body of a scheduled job.
type JobFunc func(ctx context.Context) error

// registeredJob holds metadata about a registered cron job.
type registeredJob struct {
	name        string
	description string
	schedule    string
	entryID     cron.EntryID
	run         JobFunc

	mu      sync.Mutex
	lastRun time.Time
	lastErr error
	running bool
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Schedule    string    `json:"schedule"`
	LastRun     time.Time `json:"last_run,omitzero"`
	LastError   string    `json:"last_error,omitempty"`
	NextRun     time.Time `json:"next_run,omitzero"`
}

// Scheduler runs registered jobs on cron schedules.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger

	mu   sync.RWMutex
	jobs map[string]*registeredJob
}

// New creates a new scheduler instance.
func New(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: logger,
		jobs:   make(map[string]*registeredJob),
	}
}

// ValidateSchedule reports whether spec is a valid five-field cron
// expression or descriptor such as "@every 15m".
func ValidateSchedule(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Add registers a job. Names must be unique.
func (s *Scheduler) Add(name, description, schedule string, run JobFunc) error {
	if err := ValidateSchedule(schedule); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}

	job := &registeredJob{name: name, description: description, schedule: schedule, run: run}
	entryID, err := s.cron.AddFunc(schedule, func() {
		_ = s.execute(context.Background(), job)
	})
	if err != nil {
		return fmt.Errorf("adding job %q: %w", name, err)
	}
	job.entryID = entryID
	s.jobs[name] = job
	return nil
}

// Start begins running jobs on their schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// ErrJobNotFound is returned by Trigger for unknown job names.
var ErrJobNotFound = errors.New("job not found")

// Trigger runs a job immediately.
func (s *Scheduler) Trigger(ctx context.Context, name string) error {
	s.mu.RLock()
	job, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrJobNotFound, name)
	}
	return s.execute(ctx, job)
}

// Jobs returns all registered jobs sorted by name.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for _, job := range s.jobs {
		job.mu.Lock()
		info := JobInfo{
			Name:        job.name,
			Description: job.description,
			Schedule:    job.schedule,
			LastRun:     job.lastRun,
		}
		if job.lastErr != nil {
			info.LastError = job.lastErr.Error()
		}
		job.mu.Unlock()
		info.NextRun = s.cron.Entry(job.entryID).Next
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// execute runs job unless a previous run is still in progress.
func (s *Scheduler) execute(parent context.Context, job *registeredJob) (err error) {
	job.mu.Lock()
	if job.running {
		job.mu.Unlock()
		s.logger.Warn("scheduled job still running, skipping", "job", job.name)
		return fmt.Errorf("job %q is already running", job.name)
	}
	job.running = true
	job.mu.Unlock()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %q panicked: %v", job.name, r)
		}
		job.mu.Lock()
		job.running = false
		job.lastRun = start
		job.lastErr = err
		job.mu.Unlock()

		if err != nil {
			s.logger.Error("scheduled job failed", "job", job.name, "error", err)
			return
		}
		s.logger.Info("scheduled job completed", "job", job.name, "duration", time.Since(start).Round(time.Millisecond))
	}()

	ctx, cancel := context.WithTimeout(parent, jobTimeout)
	defer cancel()
	return job.run(ctx)
}
