package retention

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"alert-relay-go/internal/clock"
	"alert-relay-go/internal/metrics"
	"alert-relay-go/internal/store"
)

// Defaults per deployment policy; both are configurable.
const (
	DefaultSchedule  = "@every 1h"
	DefaultRetention = 30 * 24 * time.Hour
)

// Sweeper deletes aged alert and decision rows and flips expired
// silences to inactive. It runs out-of-band and never blocks
// ingestion; failures are logged, not fatal.
type Sweeper struct {
	store     store.Store
	clock     clock.Clock
	metrics   *metrics.Metrics
	retention time.Duration
	schedule  string
	cron      *cron.Cron
}

func NewSweeper(st store.Store, c clock.Clock, m *metrics.Metrics, retention time.Duration, schedule string) *Sweeper {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Sweeper{
		store:     st,
		clock:     c,
		metrics:   m,
		retention: retention,
		schedule:  schedule,
	}
}

// Start runs one eager sweep in the background and schedules the
// periodic ones.
func (s *Sweeper) Start() error {
	go s.Sweep(context.Background())

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.Sweep(context.Background())
	}); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Sweep performs one retention pass.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := s.clock.Now()
	cutoff := now.Add(-s.retention).UnixMilli()

	alerts, err := s.store.DeleteAlertsBefore(ctx, cutoff)
	if err != nil {
		log.Printf("retention sweep: failed to delete alerts: %v", err)
	}

	decisions, err := s.store.DeleteDecisionsBefore(ctx, cutoff)
	if err != nil {
		log.Printf("retention sweep: failed to delete decisions: %v", err)
	}

	expired, err := s.store.DeactivateExpiredSilences(ctx, now.UnixMilli())
	if err != nil {
		log.Printf("retention sweep: failed to deactivate silences: %v", err)
	}

	s.metrics.SweepDeletions.Add(float64(alerts + decisions))
	if alerts > 0 || decisions > 0 || expired > 0 {
		log.Printf("retention sweep: removed %d alerts, %d decisions, deactivated %d silences",
			alerts, decisions, expired)
	}
}
