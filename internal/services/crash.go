package services

import (
	"context"
	"time"

	"casino-miniapp-backend/internal/models"
	"casino-miniapp-backend/internal/payout"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type crashGame struct{ e *GameEngine }

func (g crashGame) validate(req *models.BetRequest) error {
	if req.AutoCashout == nil {
		return nil
	}
	return payout.ValidateAutoCashout(*req.AutoCashout)
}

func (g crashGame) begin(r *Round, req *models.BetRequest) *result {
	c := &crashState{
		point:      payout.CrashPoint(g.e.rng),
		multiplier: payout.CrashMultiplierAt(0),
		stop:       make(chan struct{}),
	}
	if req.AutoCashout != nil {
		target := *req.AutoCashout
		c.autoCashout = &target
	}
	r.crash = c

	// A point at the starting multiplier busts before anyone can cash out.
	if c.multiplier.GreaterThanOrEqual(c.point) {
		c.multiplier = c.point
		return &result{multiplier: decimal.Zero, outcome: models.OutcomeCrashed}
	}
	return nil
}

func (e *GameEngine) startCrash(r *Round) {
	stop := r.crash.stop

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		ticker := time.NewTicker(e.crashTick)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if e.tickCrash(r) {
					return
				}
			case <-stop:
				return
			case <-e.stopCh:
				return
			}
		}
	}()
}

// tickCrash advances the curve one step and reports whether the round
// is over.
func (e *GameEngine) tickCrash(r *Round) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.crash
	if r.Status != models.RoundActive || c.cashedOut {
		return true
	}

	c.tick++
	c.multiplier = payout.CrashMultiplierAt(c.tick)
	r.Multiplier = c.multiplier
	r.LastUpdate = e.now()

	ctx, cancel := context.WithTimeout(context.Background(), settleTimeout)
	defer cancel()

	if t := c.autoCashout; t != nil && t.LessThan(c.point) && c.multiplier.GreaterThanOrEqual(*t) {
		c.cashedOut = true
		c.multiplier = *t
		if err := e.settleLocked(ctx, r, *t, models.OutcomeCashedOut); err != nil {
			e.logger.Warn("auto cashout settlement", zap.String("round_id", r.ID), zap.Error(err))
		}
		return true
	}

	if c.multiplier.GreaterThanOrEqual(c.point) {
		c.multiplier = c.point
		e.broadcaster.BroadcastGameCrash(r.AccountID, r.ID, c.point)
		if err := e.settleLocked(ctx, r, decimal.Zero, models.OutcomeCrashed); err != nil {
			e.logger.Warn("crash settlement", zap.String("round_id", r.ID), zap.Error(err))
		}
		return true
	}

	e.broadcaster.BroadcastGameUpdate(r.AccountID, r.ID, c.multiplier)
	return false
}

func (e *GameEngine) cashoutCrash(ctx context.Context, r *Round) error {
	c := r.crash
	if c.cashedOut {
		return ErrRoundSettled
	}
	c.cashedOut = true
	return e.settleLocked(ctx, r, c.multiplier, models.OutcomeCashedOut)
}
