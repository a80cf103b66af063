package models

import "github.com/shopspring/decimal"

// Account is the signed-in player as returned by /api/me.
type Account struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id,omitempty"`
	Balance   decimal.Decimal `json:"balance"`
}
