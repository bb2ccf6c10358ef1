package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/carlitos-finanzas/carlitos/pkg/constants"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const pushTimeout = 30 * time.Second

// SyncFunc pushes the current state. It is usually ledger.Service.Sync.
type SyncFunc func(ctx context.Context) error

// Scheduler runs a SyncFunc on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// NewScheduler validates spec and registers fn. An empty spec uses the
// default schedule. Call Start to begin running.
func NewScheduler(logger *zap.Logger, spec string, fn SyncFunc) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if spec == "" {
		spec = constants.DefaultSyncSchedule
	}

	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()

		logger.Debug("running scheduled sync", zap.String("op", "remote.Scheduler"))
		if err := fn(ctx); err != nil {
			logger.Warn("scheduled sync failed",
				zap.String("op", "remote.Scheduler"),
				zap.Error(err),
			)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid sync schedule %q: %w", spec, err)
	}

	return &Scheduler{cron: c, logger: logger}, nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.logger.Info("sync scheduler started", zap.String("op", "remote.Scheduler.Start"))
	s.cron.Start()
}

// Stop stops the scheduler and waits for a running sync to finish or ctx
// to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("sync scheduler stopped", zap.String("op", "remote.Scheduler.Stop"))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
