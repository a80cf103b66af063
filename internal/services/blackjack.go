package services

import (
	"context"
	"errors"
	"fmt"

	"casino-miniapp-backend/internal/models"
	"casino-miniapp-backend/internal/payout"

	"github.com/shopspring/decimal"
)

const blackjackTarget = 21

type blackjackGame struct{ e *GameEngine }

func (g blackjackGame) validate(*models.BetRequest) error { return nil }

func (g blackjackGame) begin(r *Round, _ *models.BetRequest) *result {
	hand := payout.DealBlackjack(g.e.rng)
	r.blackjack = hand

	if res, done := hand.CheckNaturals(); done {
		return blackjackResult(res)
	}
	return nil
}

func blackjackResult(res payout.BlackjackResult) *result {
	var outcome models.RoundOutcome
	switch res.Outcome {
	case payout.OutcomeBlackjack:
		outcome = models.OutcomeBlackjack
	case payout.OutcomeWin:
		outcome = models.OutcomeWin
	case payout.OutcomePush:
		outcome = models.OutcomePush
	default:
		outcome = models.OutcomeLoss
	}
	return &result{multiplier: res.Multiplier, outcome: outcome}
}

// Hit draws a card. Busting loses; reaching 21 stands automatically.
func (e *GameEngine) Hit(ctx context.Context, accountID, roundID string) (*models.RoundView, error) {
	r, err := e.blackjackRound(accountID, roundID)
	if err != nil {
		return nil, err
	}
	defer r.mu.Unlock()

	_, bust, err := r.blackjack.Hit()
	if err != nil {
		return nil, blackjackError(err)
	}
	r.LastUpdate = e.now()

	switch {
	case bust:
		err = e.settleLocked(ctx, r, decimal.Zero, models.OutcomeLoss)
	case payout.HandValue(r.blackjack.Player) == blackjackTarget:
		err = e.standLocked(ctx, r)
	}
	return r.view(), err
}

// Stand plays the dealer out and settles the hand.
func (e *GameEngine) Stand(ctx context.Context, accountID, roundID string) (*models.RoundView, error) {
	r, err := e.blackjackRound(accountID, roundID)
	if err != nil {
		return nil, err
	}
	defer r.mu.Unlock()

	err = e.standLocked(ctx, r)
	if err != nil && r.Status != models.RoundSettled {
		return nil, err
	}
	return r.view(), err
}

func (e *GameEngine) standLocked(ctx context.Context, r *Round) error {
	res, err := r.blackjack.Stand()
	if err != nil {
		return blackjackError(err)
	}
	r.LastUpdate = e.now()

	out := blackjackResult(res)
	return e.settleLocked(ctx, r, out.multiplier, out.outcome)
}

// blackjackRound returns the round locked and Active.
func (e *GameEngine) blackjackRound(accountID, roundID string) (*Round, error) {
	r, err := e.lookup(accountID, roundID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if err := r.checkActive(); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	if r.blackjack == nil {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: not a blackjack round", ErrInvalidMove)
	}
	return r, nil
}

func blackjackError(err error) error {
	if errors.Is(err, payout.ErrHandFinished) {
		return ErrRoundSettled
	}
	return err
}
