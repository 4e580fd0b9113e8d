package download

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/cinephage/cinephage/internal/worker"
)

// OrphanSweepConfig tunes the orphan-cleanup BackgroundService (spec §4.6a).
type OrphanSweepConfig struct {
	Interval         time.Duration // default 30m
	PendingRetention time.Duration // default 7 * 24h, well past the 72h pending-release max age
	DryRun           bool          // when true, log matches without deleting
}

// DefaultOrphanSweepConfig returns the spec's defaults.
func DefaultOrphanSweepConfig() OrphanSweepConfig {
	return OrphanSweepConfig{Interval: 30 * time.Minute, PendingRetention: 7 * 24 * time.Hour}
}

// OrphanSweeper is its own BackgroundService (spec §4.6a) that periodically
// removes queue rows whose download client has been unconfigured, pending
// releases that have sat unprocessed well past their retention window, and
// expired blocklist entries — bounding the size of tables that would
// otherwise only ever grow.
type OrphanSweeper struct {
	controller *Controller
	cfg        OrphanSweepConfig
	log        zerolog.Logger

	periodic *worker.PeriodicService
}

// NewOrphanSweeper creates an OrphanSweeper over controller.
func NewOrphanSweeper(controller *Controller, cfg OrphanSweepConfig, log zerolog.Logger) *OrphanSweeper {
	return &OrphanSweeper{
		controller: controller,
		cfg:        cfg,
		log:        log.With().Str("component", "orphan_sweeper").Logger(),
	}
}

// Name implements worker.BackgroundService.
func (s *OrphanSweeper) Name() string { return "orphan_sweeper" }

// Start implements worker.BackgroundService: runs an immediate sweep, then
// one every cfg.Interval until stopped.
func (s *OrphanSweeper) Start(ctx context.Context) error {
	s.periodic = worker.NewPeriodicService(s.Name(), s.cfg.Interval, func(ctx context.Context) {
		removed, err := s.controller.SweepOrphans(ctx, s.cfg.PendingRetention, s.cfg.DryRun)
		if err != nil {
			s.log.Error().Err(err).Msg("orphan sweep failed")
			return
		}
		if removed > 0 {
			s.log.Info().Int("removed", removed).Msg("orphan sweep completed")
		}
	})
	return s.periodic.Start(ctx)
}

// Stop implements worker.BackgroundService.
func (s *OrphanSweeper) Stop(ctx context.Context) error {
	if s.periodic == nil {
		return nil
	}
	return s.periodic.Stop(ctx)
}
