package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type GameType string

const (
	GameTypeCrash     GameType = "crash"
	GameTypeDice      GameType = "dice"
	GameTypeMines     GameType = "mines"
	GameTypePlinko    GameType = "plinko"
	GameTypeBlackjack GameType = "blackjack"
	GameTypeMining    GameType = "mining"
)

func (g GameType) Valid() bool {
	switch g {
	case GameTypeCrash, GameTypeDice, GameTypeMines, GameTypePlinko, GameTypeBlackjack, GameTypeMining:
		return true
	}
	return false
}

type RoundStatus string

const (
	RoundIdle    RoundStatus = "idle"
	RoundActive  RoundStatus = "active"
	RoundSettled RoundStatus = "settled"
)

type RoundOutcome string

const (
	OutcomeWin       RoundOutcome = "win"
	OutcomeLoss      RoundOutcome = "loss"
	OutcomePush      RoundOutcome = "push"
	OutcomeBlackjack RoundOutcome = "blackjack"
	OutcomeCashedOut RoundOutcome = "cashed_out"
	OutcomeCrashed   RoundOutcome = "crashed"
)

// RoundView is what a client may see of a round. Hidden state such as
// mine positions or the crash point only appears once the round settles.
type RoundView struct {
	ID            string           `json:"id"`
	AccountID     string           `json:"account_id"`
	GameType      GameType         `json:"game_type"`
	Status        RoundStatus      `json:"status"`
	Bet           decimal.Decimal  `json:"bet"`
	Practice      bool             `json:"practice"`
	Multiplier    decimal.Decimal  `json:"multiplier"`
	Payout        decimal.Decimal  `json:"payout"`
	Outcome       RoundOutcome     `json:"outcome,omitempty"`
	Balance       *decimal.Decimal `json:"balance,omitempty"`
	CreditPending bool             `json:"credit_pending,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	SettledAt     *time.Time       `json:"settled_at,omitempty"`

	Crash     *CrashView     `json:"crash,omitempty"`
	Dice      *DiceView      `json:"dice,omitempty"`
	Mines     *MinesView     `json:"mines,omitempty"`
	Plinko    *PlinkoView    `json:"plinko,omitempty"`
	Blackjack *BlackjackView `json:"blackjack,omitempty"`
	Mining    *MiningView    `json:"mining,omitempty"`
}

type CrashView struct {
	Multiplier  decimal.Decimal  `json:"multiplier"`
	AutoCashout *decimal.Decimal `json:"auto_cashout,omitempty"`
	CrashPoint  *decimal.Decimal `json:"crash_point,omitempty"`
}

type DiceView struct {
	Target     decimal.Decimal `json:"target"`
	Roll       decimal.Decimal `json:"roll"`
	Win        bool            `json:"win"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

type MinesView struct {
	MineCount  int             `json:"mine_count"`
	GemCount   int             `json:"gem_count"`
	Revealed   []RevealedCell  `json:"revealed"`
	GemsFound  int             `json:"gems_found"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Mines      []int           `json:"mines,omitempty"`
	Gems       []int           `json:"gems,omitempty"`
}

type RevealedCell struct {
	Cell int    `json:"cell"`
	Kind string `json:"kind"`
}

type PlinkoView struct {
	Risk       string          `json:"risk"`
	Bucket     int             `json:"bucket"`
	Path       string          `json:"path"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

type BlackjackView struct {
	Player      []string `json:"player"`
	Dealer      []string `json:"dealer"`
	PlayerValue int      `json:"player_value"`
	DealerValue int      `json:"dealer_value,omitempty"`
}

type MiningView struct {
	Difficulty string          `json:"difficulty"`
	Success    bool            `json:"success"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

// RoundSettledEvent is published once per settled round.
type RoundSettledEvent struct {
	RoundID    string          `json:"round_id"`
	AccountID  string          `json:"account_id"`
	GameType   GameType        `json:"game_type"`
	Bet        decimal.Decimal `json:"bet"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Payout     decimal.Decimal `json:"payout"`
	Outcome    RoundOutcome    `json:"outcome"`
	Practice   bool            `json:"practice"`
	SettledAt  time.Time       `json:"settled_at"`
}
