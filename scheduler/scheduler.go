// Package scheduler runs the gateway's background jobs: keeping the cached
// location label fresh, sweeping finished upload sessions, and updating the
// session gauge.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/medlinkr/medlinkr-api/geolocation"
	"github.com/medlinkr/medlinkr-api/interfaces"
	"github.com/medlinkr/medlinkr-api/logging"
	"github.com/medlinkr/medlinkr-api/metrics"
	"github.com/medlinkr/medlinkr-api/session"
)

// Compile-time check to ensure GatewayScheduler implements Scheduler
var _ interfaces.Scheduler = (*GatewayScheduler)(nil)

// Terminal sessions older than this are dropped by the sweep.
const sessionMaxAge = time.Hour

// GatewayScheduler owns the periodic jobs of the gateway.
type GatewayScheduler struct {
	sessions  *session.Registry
	resolver  *geolocation.Resolver
	scheduler *gocron.Scheduler
}

// NewGatewayScheduler creates a scheduler with injected dependencies.
func NewGatewayScheduler(sessions *session.Registry, resolver *geolocation.Resolver) *GatewayScheduler {
	return &GatewayScheduler{
		sessions:  sessions,
		resolver:  resolver,
		scheduler: gocron.NewScheduler(time.Local),
	}
}

// Start schedules the jobs and runs them asynchronously.
func (s *GatewayScheduler) Start() error {
	// Refresh the location label hourly so the stored cache never serves a
	// stale label to the search and review flows
	if _, err := s.scheduler.Every(1).Hour().Do(s.refreshLocation); err != nil {
		logging.Error("Failed to schedule location refresh", "error", err)
		return fmt.Errorf("failed to schedule location refresh: %w", err)
	}

	// Sweep completed and failed sessions twice an hour
	if _, err := s.scheduler.Every(30).Minutes().Do(s.sweepSessions); err != nil {
		logging.Error("Failed to schedule session sweep", "error", err)
		return fmt.Errorf("failed to schedule session sweep: %w", err)
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler
func (s *GatewayScheduler) Stop() {
	s.scheduler.Stop()
}

func (s *GatewayScheduler) refreshLocation() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.resolver.Refresh(ctx); err != nil {
		logging.Warn("Location refresh failed", "error", err)
	}
}

func (s *GatewayScheduler) sweepSessions() {
	removed := s.sessions.Sweep(sessionMaxAge)
	if removed > 0 {
		logging.Info("Swept finished upload sessions", "removed", removed)
	}
	metrics.UploadSessionsActive.Set(float64(s.sessions.Count()))
}
