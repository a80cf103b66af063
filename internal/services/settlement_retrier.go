package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type pendingRetrier interface {
	RetryPendingSettlements(ctx context.Context) int
	PendingSettlements() int
}

// SettlementRetrier periodically reissues credits that failed at
// settlement time.
type SettlementRetrier struct {
	engine   pendingRetrier
	interval time.Duration
	logger   *zap.Logger
	stopCh   chan struct{}
}

func NewSettlementRetrier(engine pendingRetrier, interval time.Duration, logger *zap.Logger) *SettlementRetrier {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &SettlementRetrier{
		engine:   engine,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

func (s *SettlementRetrier) Start(ctx context.Context) {
	s.logger.Info("settlement retrier started", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("settlement retrier stopped")
			return
		case <-s.stopCh:
			s.logger.Info("settlement retrier stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *SettlementRetrier) Stop() {
	close(s.stopCh)
}

func (s *SettlementRetrier) runOnce(ctx context.Context) {
	if s.engine.PendingSettlements() == 0 {
		return
	}

	resolved := s.engine.RetryPendingSettlements(ctx)
	if resolved > 0 {
		s.logger.Info("pending settlements resolved",
			zap.Int("resolved", resolved),
			zap.Int("remaining", s.engine.PendingSettlements()))
	}
}
