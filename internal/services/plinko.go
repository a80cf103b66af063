package services

import (
	"strings"

	"casino-miniapp-backend/internal/models"
	"casino-miniapp-backend/internal/payout"
)

type plinkoGame struct{ e *GameEngine }

func plinkoRisk(req *models.BetRequest) payout.Risk {
	if req.Risk == "" {
		return payout.RiskMedium
	}
	return payout.Risk(strings.ToLower(req.Risk))
}

func (g plinkoGame) validate(req *models.BetRequest) error {
	_, err := g.e.tables.PlinkoTable(plinkoRisk(req))
	return err
}

func (g plinkoGame) begin(r *Round, req *models.BetRequest) *result {
	risk := plinkoRisk(req)
	table, _ := g.e.tables.PlinkoTable(risk)

	out := payout.DropPlinko(g.e.rng, risk, table)
	r.plinko = &out

	outcome := models.OutcomeWin
	if !out.Multiplier.IsPositive() {
		outcome = models.OutcomeLoss
	}
	return &result{multiplier: out.Multiplier, outcome: outcome}
}
