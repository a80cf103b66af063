package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypePurchase  TransactionType = "purchase"
	TransactionTypeGameSpend TransactionType = "game_spend"
	TransactionTypeGameWin   TransactionType = "game_win"
)

// TransactionRecord is immutable once appended. Amount is always
// positive; Type carries the direction.
type TransactionRecord struct {
	ID             string          `json:"id"`
	AccountID      string          `json:"account_id"`
	Type           TransactionType `json:"type"`
	GameType       GameType        `json:"game_type,omitempty"`
	RoundID        string          `json:"round_id,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	BalanceBefore  decimal.Decimal `json:"balance_before"`
	BalanceAfter   decimal.Decimal `json:"balance_after"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	Description    string          `json:"description,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Delta is the signed balance change the record stands for.
func (r *TransactionRecord) Delta() decimal.Decimal {
	if r.Type == TransactionTypeGameSpend {
		return r.Amount.Neg()
	}
	return r.Amount
}
