package services

import (
	"context"
	"errors"
	"fmt"

	"casino-miniapp-backend/internal/models"
	"casino-miniapp-backend/internal/payout"

	"github.com/shopspring/decimal"
)

type minesGame struct{ e *GameEngine }

func (g minesGame) validate(req *models.BetRequest) error {
	return payout.ValidateMinesConfig(req.MineCount, req.GemCount)
}

// begin places the board. Boards with few mines reveal every gem and
// settle immediately.
func (g minesGame) begin(r *Round, req *models.BetRequest) *result {
	board, err := payout.NewMinesBoard(g.e.rng, req.MineCount, req.GemCount)
	if err != nil {
		return &result{multiplier: decimal.Zero, outcome: models.OutcomeLoss}
	}
	r.mines = board

	if board.MineCount <= payout.AutoRevealMaxMines {
		board.RevealAllGems()
		return &result{multiplier: board.Multiplier(), outcome: models.OutcomeWin}
	}
	return nil
}

// RevealMine uncovers one cell. A mine loses the round; the last gem
// settles it at the full multiplier.
func (e *GameEngine) RevealMine(ctx context.Context, accountID, roundID string, cell int) (*models.RoundView, error) {
	r, err := e.lookup(accountID, roundID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkActive(); err != nil {
		return nil, err
	}
	if r.mines == nil {
		return nil, fmt.Errorf("%w: not a mines round", ErrInvalidMove)
	}

	res, err := r.mines.Reveal(cell)
	if err != nil {
		if errors.Is(err, payout.ErrBoardFinished) {
			return nil, ErrRoundSettled
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidMove, err)
	}
	r.Multiplier = res.Multiplier
	r.LastUpdate = e.now()

	switch {
	case res.Kind == payout.CellMine:
		err = e.settleLocked(ctx, r, decimal.Zero, models.OutcomeLoss)
	case res.Finished:
		err = e.settleLocked(ctx, r, res.Multiplier, models.OutcomeWin)
	}
	return r.view(), err
}

func (e *GameEngine) cashoutMines(ctx context.Context, r *Round) error {
	if r.mines.GemsFound() < 1 {
		return fmt.Errorf("%w: reveal a gem before cashing out", ErrInvalidMove)
	}
	return e.settleLocked(ctx, r, r.mines.Multiplier(), models.OutcomeCashedOut)
}
