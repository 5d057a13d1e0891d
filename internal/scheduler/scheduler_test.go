// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/olegiv/concierge/internal/store"
	"github.com/olegiv/concierge/internal/testutil"
)

type countingWarmer struct{ calls int }

func (w *countingWarmer) Warm(context.Context) error {
	w.calls++
	return nil
}

type failingReloader struct{}

func (failingReloader) Reload() error { return errors.New("file missing") }

func TestValidateSchedule(t *testing.T) {
	tests := []struct {
		spec    string
		wantErr bool
	}{
		{"15 3 * * *", false},
		{"*/15 * * * *", false},
		{"@every 10m", false},
		{"", true},
		{"61 * * * *", true},
		{"not a schedule", true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			err := ValidateSchedule(tt.spec)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSchedule(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
			}
		})
	}
}

func TestAddRejectsDuplicates(t *testing.T) {
	s := New(testutil.TestLoggerSilent())
	noop := func(context.Context) error { return nil }

	if err := s.Add("job", "", "@hourly", noop); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := s.Add("job", "", "@hourly", noop); err == nil {
		t.Error("expected duplicate job error")
	}
}

func TestRegisterDefaultsAndTrigger(t *testing.T) {
	s := New(testutil.TestLoggerSilent())
	warmer := &countingWarmer{}
	q := store.New(testutil.TestDB(t))

	err := s.RegisterDefaults(Deps{Queries: q, RetentionDays: 30, Catalog: warmer, GeoIP: failingReloader{}})
	if err != nil {
		t.Fatalf("RegisterDefaults() error = %v", err)
	}

	jobs := s.Jobs()
	if len(jobs) != 3 {
		t.Fatalf("got %d jobs, want 3", len(jobs))
	}
	if jobs[0].Name != JobAuditRetention || jobs[0].Schedule != AuditRetentionSchedule {
		t.Errorf("first job = %+v", jobs[0])
	}

	if err := s.Trigger(context.Background(), JobCacheWarmup); err != nil {
		t.Fatalf("Trigger warmup: %v", err)
	}
	if warmer.calls != 1 {
		t.Errorf("warmer called %d times, want 1", warmer.calls)
	}
	if err := s.Trigger(context.Background(), JobAuditRetention); err != nil {
		t.Fatalf("Trigger retention: %v", err)
	}

	if err := s.Trigger(context.Background(), JobGeoIPReload); err == nil {
		t.Error("expected reload error")
	}
	for _, j := range s.Jobs() {
		if j.Name == JobGeoIPReload && j.LastError == "" {
			t.Error("failed job should report its last error")
		}
	}

	if err := s.Trigger(context.Background(), "missing"); err == nil {
		t.Error("expected error for unknown job")
	}
}

func TestTriggerRecoversPanics(t *testing.T) {
	s := New(testutil.TestLoggerSilent())
	_ = s.Add("boom", "", "@daily", func(context.Context) error { panic("bad") })

	if err := s.Trigger(context.Background(), "boom"); err == nil {
		t.Error("expected panic to be reported as error")
	}
}

func TestStartStop(t *testing.T) {
	s := New(testutil.TestLoggerSilent())
	_ = s.Add("noop", "", "@every 1h", func(context.Context) error { return nil })

	s.Start()
	time.Sleep(10 * time.Millisecond)
	for _, j := range s.Jobs() {
		if j.NextRun.IsZero() {
			t.Error("started job should have a next run")
		}
	}
	s.Stop()
}
