// Package cleanup reclaims rooms whose host never ended the session.
package cleanup

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/classpulse/backend/internal/rooms"
)

// Service periodically deactivates active rooms with no recent activity.
// A host closing their browser leaves the room active; this sweep is what
// eventually retires it.
type Service struct {
	rooms      *rooms.Repository
	cron       *cron.Cron
	sweepSpec  string
	staleAfter time.Duration
	logger     *zap.Logger
}

// NewService creates the cleanup sweeper. sweepSpec is a cron expression
// (e.g. "@every 15m").
func NewService(roomRepo *rooms.Repository, sweepSpec string, staleAfter time.Duration, logger *zap.Logger) *Service {
	return &Service{
		rooms:      roomRepo,
		cron:       cron.New(),
		sweepSpec:  sweepSpec,
		staleAfter: staleAfter,
		logger:     logger,
	}
}

// Start schedules the sweep and runs the scheduler in its own goroutine.
func (s *Service) Start() error {
	if _, err := s.cron.AddFunc(s.sweepSpec, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("cleanup sweep scheduled",
		zap.String("spec", s.sweepSpec),
		zap.Duration("stale_after", s.staleAfter))
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *Service) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Service) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.rooms.DeactivateStale(ctx, s.staleAfter)
	if err != nil {
		s.logger.Error("stale room sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("deactivated stale rooms", zap.Int64("count", n))
	}
}
