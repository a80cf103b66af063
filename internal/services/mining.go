package services

import (
	"strings"

	"casino-miniapp-backend/internal/models"
	"casino-miniapp-backend/internal/payout"
)

type miningGame struct{ e *GameEngine }

func miningDifficulty(req *models.BetRequest) payout.Difficulty {
	if req.Difficulty == "" {
		return payout.DifficultyEasy
	}
	return payout.Difficulty(strings.ToLower(req.Difficulty))
}

func (g miningGame) validate(req *models.BetRequest) error {
	_, err := g.e.tables.MiningTier(miningDifficulty(req))
	return err
}

func (g miningGame) begin(r *Round, req *models.BetRequest) *result {
	d := miningDifficulty(req)
	tier, _ := g.e.tables.MiningTier(d)

	out := payout.Mine(g.e.rng, d, tier)
	r.mining = &out

	if out.Success {
		return &result{multiplier: out.Multiplier, outcome: models.OutcomeWin}
	}
	return &result{multiplier: out.Multiplier, outcome: models.OutcomeLoss}
}
