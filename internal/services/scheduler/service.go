// Package scheduler triggers background portfolio refreshes on a cron
// schedule, independent of read traffic.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/folio/internal/services/cache"
)

// Service runs the recurring refresh job.
type Service struct {
	cache    *cache.Service
	cron     *cron.Cron
	schedule string
	entryID  cron.EntryID
	running  bool
	logger   arbor.ILogger
}

// NewService creates a new scheduler service.
func NewService(cacheService *cache.Service, schedule string, logger arbor.ILogger) *Service {
	return &Service{
		cache:    cacheService,
		cron:     cron.New(),
		schedule: schedule,
		logger:   logger,
	}
}

// Start registers the refresh job and begins the scheduler.
func (s *Service) Start() error {
	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	schedule := s.schedule
	if schedule == "" {
		schedule = "@every 10m"
	}

	entryID, err := s.cron.AddFunc(schedule, s.runScheduledRefresh)
	if err != nil {
		return fmt.Errorf("failed to add refresh job: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", schedule).
		Msg("Scheduler started")

	return nil
}

// Stop halts the scheduler. A refresh already in flight finishes on its own.
func (s *Service) Stop() error {
	if !s.running {
		return nil
	}

	s.cron.Stop()
	s.running = false

	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// IsRunning returns true if the scheduler is active.
func (s *Service) IsRunning() bool {
	return s.running
}

// runScheduledRefresh fires an asynchronous refresh. A tick that lands
// while a run is already in flight joins that run inside the cache, so
// scheduled and manual triggers never stack.
func (s *Service) runScheduledRefresh() {
	s.logger.Info().Msg("Scheduled portfolio refresh triggered")

	if _, err := s.cache.Refresh(context.Background(), false); err != nil {
		s.logger.Error().Err(err).Msg("Scheduled refresh failed to start")
	}
}
