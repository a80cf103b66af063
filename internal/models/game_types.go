package models

import "github.com/shopspring/decimal"

// BetRequest opens a round. Amount zero plays in practice mode.
type BetRequest struct {
	GameType    GameType         `json:"game_type" binding:"required"`
	Amount      decimal.Decimal  `json:"amount"`
	AutoCashout *decimal.Decimal `json:"auto_cashout,omitempty"`
	Target      decimal.Decimal  `json:"target,omitempty"`
	MineCount   int              `json:"mine_count,omitempty"`
	GemCount    int              `json:"gem_count,omitempty"`
	Risk        string           `json:"risk,omitempty"`
	Difficulty  string           `json:"difficulty,omitempty"`
}

type CashoutRequest struct {
	RoundID string `json:"round_id" binding:"required"`
}

type MinesRevealRequest struct {
	RoundID string `json:"round_id" binding:"required"`
	Cell    *int   `json:"cell" binding:"required,min=0,max=24"`
}

type BlackjackActionRequest struct {
	RoundID string `json:"round_id" binding:"required"`
}

type DepositRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference" binding:"required"`
}
