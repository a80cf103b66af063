package services

import (
	"sync"
	"time"

	"casino-miniapp-backend/internal/models"
	"casino-miniapp-backend/internal/payout"

	"github.com/shopspring/decimal"
)

// Round is one bet moving Idle -> Active -> Settled. Every field is
// guarded by mu.
type Round struct {
	mu sync.Mutex

	ID        string
	AccountID string
	GameType  models.GameType
	Status    models.RoundStatus
	Bet       decimal.Decimal
	Practice  bool

	Multiplier    decimal.Decimal
	Payout        decimal.Decimal
	Outcome       models.RoundOutcome
	Balance       *decimal.Decimal
	CreditPending bool

	CreatedAt  time.Time
	LastUpdate time.Time
	SettledAt  *time.Time

	crash     *crashState
	dice      *payout.DiceOutcome
	mines     *payout.MinesBoard
	plinko    *payout.PlinkoOutcome
	blackjack *payout.BlackjackHand
	mining    *payout.MiningOutcome
}

type crashState struct {
	point       decimal.Decimal
	tick        int
	multiplier  decimal.Decimal
	autoCashout *decimal.Decimal
	cashedOut   bool
	stop        chan struct{}
}

func newRound(accountID string, gameType models.GameType, bet decimal.Decimal, now time.Time) *Round {
	return &Round{
		ID:         models.NewRoundID(),
		AccountID:  accountID,
		GameType:   gameType,
		Status:     models.RoundIdle,
		Bet:        bet,
		Practice:   bet.IsZero(),
		Multiplier: decimal.NewFromInt(1),
		Payout:     decimal.Zero,
		CreatedAt:  now,
		LastUpdate: now,
	}
}

func (r *Round) spendKey() string { return "round:" + r.ID + ":spend" }
func (r *Round) winKey() string   { return "round:" + r.ID + ":win" }

func (r *Round) settledEvent() models.RoundSettledEvent {
	ev := models.RoundSettledEvent{
		RoundID:    r.ID,
		AccountID:  r.AccountID,
		GameType:   r.GameType,
		Bet:        r.Bet,
		Multiplier: r.Multiplier,
		Payout:     r.Payout,
		Outcome:    r.Outcome,
		Practice:   r.Practice,
	}
	if r.SettledAt != nil {
		ev.SettledAt = *r.SettledAt
	}
	return ev
}

// view must be called with mu held.
func (r *Round) view() *models.RoundView {
	v := &models.RoundView{
		ID:            r.ID,
		AccountID:     r.AccountID,
		GameType:      r.GameType,
		Status:        r.Status,
		Bet:           r.Bet,
		Practice:      r.Practice,
		Multiplier:    r.Multiplier,
		Payout:        r.Payout,
		Outcome:       r.Outcome,
		CreditPending: r.CreditPending,
		CreatedAt:     r.CreatedAt,
	}
	if r.Balance != nil {
		b := *r.Balance
		v.Balance = &b
	}
	if r.SettledAt != nil {
		t := *r.SettledAt
		v.SettledAt = &t
	}

	settled := r.Status == models.RoundSettled

	if c := r.crash; c != nil {
		cv := &models.CrashView{Multiplier: c.multiplier, AutoCashout: c.autoCashout}
		if settled {
			point := c.point
			cv.CrashPoint = &point
		}
		v.Crash = cv
	}

	if d := r.dice; d != nil {
		v.Dice = &models.DiceView{
			Target:     d.Target,
			Roll:       d.Roll,
			Win:        d.Win,
			Multiplier: d.Multiplier,
		}
	}

	if b := r.mines; b != nil {
		mv := &models.MinesView{
			MineCount:  b.MineCount,
			GemCount:   b.GemCount,
			Revealed:   make([]models.RevealedCell, 0, len(b.Revealed())),
			GemsFound:  b.GemsFound(),
			Multiplier: b.Multiplier(),
		}
		for _, cell := range b.Revealed() {
			mv.Revealed = append(mv.Revealed, models.RevealedCell{Cell: cell, Kind: b.Kind(cell).String()})
		}
		if settled {
			mv.Mines = b.Cells(payout.CellMine)
			mv.Gems = b.Cells(payout.CellGem)
		}
		v.Mines = mv
	}

	if p := r.plinko; p != nil {
		v.Plinko = &models.PlinkoView{
			Risk:       string(p.Risk),
			Bucket:     p.Bucket,
			Path:       p.Path,
			Multiplier: p.Multiplier,
		}
	}

	if h := r.blackjack; h != nil {
		bv := &models.BlackjackView{
			Player:      cardStrings(h.Player),
			PlayerValue: payout.HandValue(h.Player),
		}
		if settled {
			bv.Dealer = cardStrings(h.Dealer)
			bv.DealerValue = payout.HandValue(h.Dealer)
		} else {
			bv.Dealer = []string{h.Dealer[0].String(), "??"}
		}
		v.Blackjack = bv
	}

	if m := r.mining; m != nil {
		v.Mining = &models.MiningView{
			Difficulty: string(m.Difficulty),
			Success:    m.Success,
			Multiplier: m.Multiplier,
		}
	}

	return v
}

func cardStrings(cards []payout.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}
