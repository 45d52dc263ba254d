package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/appforge/internal/common"
	"github.com/ternarybob/appforge/internal/interfaces"
	"github.com/ternarybob/arbor"
)

// Service runs periodic maintenance: it sweeps sessions whose pipeline
// never reached a terminal state (hung stage, lost client) so they don't
// pin the session cap forever, and reclaims storage space.
type Service struct {
	creator interfaces.ProjectCreator
	storage interfaces.StorageManager
	config  *common.PipelineConfig
	cron    *cron.Cron
	logger  arbor.ILogger

	mu      sync.Mutex
	running bool
}

// NewService creates a new scheduler service. storage may be nil; the GC
// job is skipped in that case.
func NewService(creator interfaces.ProjectCreator, storage interfaces.StorageManager, config *common.PipelineConfig, logger arbor.ILogger) *Service {
	return &Service{
		creator: creator,
		storage: storage,
		config:  config,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger,
	}
}

// Start registers the stale-session sweep and begins the cron loop
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	schedule := s.config.SweepSchedule
	if schedule == "" {
		schedule = "0 */5 * * * *"
	}

	if _, err := s.cron.AddFunc(schedule, s.sweepStaleSessions); err != nil {
		return fmt.Errorf("failed to add sweep job: %w", err)
	}

	if s.storage != nil {
		// Hourly value log GC
		if _, err := s.cron.AddFunc("0 0 * * * *", s.runStorageGC); err != nil {
			return fmt.Errorf("failed to add gc job: %w", err)
		}
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", schedule).
		Str("session_ttl", s.config.SessionTTLDuration().String()).
		Msg("Session sweep scheduler started")

	return nil
}

// Stop halts the cron loop, waiting for a running sweep to finish
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info().Msg("Session sweep scheduler stopped")
}

func (s *Service) runStorageGC() {
	if err := s.storage.RunGC(); err != nil {
		s.logger.Warn().Err(err).Msg("Storage GC pass failed")
	}
}

func (s *Service) sweepStaleSessions() {
	ttl := s.config.SessionTTLDuration()
	expired := s.creator.ExpireStale(context.Background(), ttl)
	if expired > 0 {
		s.logger.Warn().Int("expired", expired).Msg("Swept stale creation sessions")
	}
}
