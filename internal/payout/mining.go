package payout

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type MiningTier struct {
	SuccessRate float64
	MinReward   decimal.Decimal
	MaxReward   decimal.Decimal
}

func (t MiningTier) Validate() error {
	if t.SuccessRate <= 0 || t.SuccessRate > 1 {
		return fmt.Errorf("%w: success rate %.2f out of (0,1]", ErrInvalidParams, t.SuccessRate)
	}
	if t.MinReward.IsNegative() || t.MaxReward.LessThan(t.MinReward) {
		return fmt.Errorf("%w: reward range [%s,%s]", ErrInvalidParams, t.MinReward, t.MaxReward)
	}
	return nil
}

type MiningOutcome struct {
	Difficulty Difficulty
	Success    bool
	Multiplier decimal.Decimal
}

// Mine makes one Bernoulli draw and, on success, a uniform reward draw.
func Mine(rng RandomSource, difficulty Difficulty, tier MiningTier) MiningOutcome {
	out := MiningOutcome{Difficulty: difficulty, Multiplier: zero}
	if rng.Next() >= tier.SuccessRate {
		return out
	}

	span := tier.MaxReward.Sub(tier.MinReward)
	out.Success = true
	out.Multiplier = RoundMoney(tier.MinReward.Add(span.Mul(decimal.NewFromFloat(rng.Next()))))
	return out
}
