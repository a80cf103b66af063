package payout

import (
	"errors"

	"github.com/shopspring/decimal"
)

const MoneyPlaces = 2

var (
	ErrInvalidParams = errors.New("invalid game parameters")

	zero    = decimal.Zero
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// RoundMoney rounds half away from zero to two places.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// Payout is the amount credited for a bet settled at multiplier.
func Payout(bet, multiplier decimal.Decimal) decimal.Decimal {
	if multiplier.IsNegative() {
		return zero
	}
	return RoundMoney(bet.Mul(multiplier))
}
