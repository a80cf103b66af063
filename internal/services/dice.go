package services

import (
	"casino-miniapp-backend/internal/models"
	"casino-miniapp-backend/internal/payout"
)

type diceGame struct{ e *GameEngine }

func (g diceGame) validate(req *models.BetRequest) error {
	return payout.ValidateDiceTarget(req.Target)
}

func (g diceGame) begin(r *Round, req *models.BetRequest) *result {
	out, _ := payout.RollDice(g.e.rng, req.Target)
	r.dice = &out

	if out.Win {
		return &result{multiplier: out.SettledMultiplier(), outcome: models.OutcomeWin}
	}
	return &result{multiplier: out.SettledMultiplier(), outcome: models.OutcomeLoss}
}
