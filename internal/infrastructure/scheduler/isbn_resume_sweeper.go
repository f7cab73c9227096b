package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/inkwell/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// BlockResumer resumes interrupted ISBN block generation
type BlockResumer interface {
	ResumePending(ctx context.Context, limit int) error
}

// ISBNResumeSweeper periodically picks up ISBN blocks whose generation was
// interrupted by a crash or deploy and finishes them. Generation is
// idempotent per (block, sequence), so sweeping a block another instance is
// already working on produces no duplicates.
type ISBNResumeSweeper struct {
	resumer  BlockResumer
	interval time.Duration
	limit    int
	logger   *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewISBNResumeSweeper creates a new resume sweeper
func NewISBNResumeSweeper(resumer BlockResumer, cfg config.ISBNConfig, logger *zap.Logger) *ISBNResumeSweeper {
	return &ISBNResumeSweeper{
		resumer:  resumer,
		interval: cfg.ResumeInterval,
		limit:    cfg.ResumeLimit,
		logger:   logger,
	}
}

// Start starts the sweep loop
func (s *ISBNResumeSweeper) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("ISBN resume sweeper started",
		zap.Duration("interval", s.interval),
		zap.Int("limit", s.limit),
	)

	return nil
}

// Stop stops the sweep loop
func (s *ISBNResumeSweeper) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("ISBN resume sweeper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ISBNResumeSweeper) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.resumer.ResumePending(ctx, s.limit); err != nil {
				s.logger.Error("ISBN resume sweep failed", zap.Error(err))
			}
		}
	}
}
