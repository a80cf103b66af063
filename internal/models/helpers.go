package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrInvalidRequest = errors.New("invalid request")

func NewRoundID() string {
	return "round_" + uuid.NewString()
}

func NewTransactionID() string {
	return "tx_" + uuid.NewString()
}

// Validate checks the fields shared by every game. maxBet zero disables
// the upper bound.
func (br *BetRequest) Validate(maxBet decimal.Decimal) error {
	if !br.GameType.Valid() {
		return fmt.Errorf("%w: unknown game type %q", ErrInvalidRequest, br.GameType)
	}
	if br.Amount.IsNegative() {
		return fmt.Errorf("%w: bet amount must not be negative", ErrInvalidRequest)
	}
	if !br.Amount.Equal(br.Amount.Round(2)) {
		return fmt.Errorf("%w: bet amount has more than two decimals", ErrInvalidRequest)
	}
	if maxBet.IsPositive() && br.Amount.GreaterThan(maxBet) {
		return fmt.Errorf("%w: maximum bet is %s", ErrInvalidRequest, maxBet.StringFixed(2))
	}
	return nil
}

// Practice reports whether the bet skips the ledger.
func (br *BetRequest) Practice() bool {
	return br.Amount.IsZero()
}

func (dr *DepositRequest) Validate() error {
	if !dr.Amount.IsPositive() {
		return fmt.Errorf("%w: deposit amount must be positive", ErrInvalidRequest)
	}
	if dr.Reference == "" {
		return fmt.Errorf("%w: deposit reference is required", ErrInvalidRequest)
	}
	return nil
}
