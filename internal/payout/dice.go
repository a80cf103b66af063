package payout

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	MinDiceTarget = decimal.NewFromInt(1)
	MaxDiceTarget = decimal.NewFromInt(98)

	diceNumerator = decimal.NewFromInt(99)
)

type DiceOutcome struct {
	Target     decimal.Decimal
	Roll       decimal.Decimal
	Win        bool
	Multiplier decimal.Decimal
}

func ValidateDiceTarget(target decimal.Decimal) error {
	if target.LessThan(MinDiceTarget) || target.GreaterThan(MaxDiceTarget) {
		return fmt.Errorf("%w: dice target must be between 1 and 98", ErrInvalidParams)
	}
	return nil
}

// DiceMultiplier pays 99/target, leaving a 1% edge at every threshold.
func DiceMultiplier(target decimal.Decimal) decimal.Decimal {
	return diceNumerator.DivRound(target, 4)
}

// RollDice wins when the roll lands at or under target.
func RollDice(rng RandomSource, target decimal.Decimal) (DiceOutcome, error) {
	if err := ValidateDiceTarget(target); err != nil {
		return DiceOutcome{}, err
	}

	roll := decimal.NewFromFloat(rng.Next() * 100)
	return DiceOutcome{
		Target:     target,
		Roll:       roll.Truncate(MoneyPlaces),
		Win:        roll.LessThanOrEqual(target),
		Multiplier: DiceMultiplier(target),
	}, nil
}

// SettledMultiplier is the multiplier the round is paid at.
func (o DiceOutcome) SettledMultiplier() decimal.Decimal {
	if !o.Win {
		return zero
	}
	return o.Multiplier
}
