package payout

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Tables holds the configurable payout tables of plinko and mining.
type Tables struct {
	Plinko map[Risk]PlinkoTable
	Mining map[Difficulty]MiningTier
}

func DefaultTables() Tables {
	mustTable := func(m []decimal.Decimal) PlinkoTable {
		t, err := NewPlinkoTable(m, nil)
		if err != nil {
			panic(err)
		}
		return t
	}

	return Tables{
		Plinko: map[Risk]PlinkoTable{
			RiskLow:    mustTable(mirror("16", "9", "2", "1.4", "1.4", "1.2", "1.1", "1", "0.5")),
			RiskMedium: mustTable(mirror("110", "41", "10", "5", "3", "1.5", "1", "0.5", "0.3")),
			RiskHigh:   mustTable(mirror("1000", "130", "26", "9", "4", "2", "0.2", "0.2", "0.2")),
		},
		Mining: map[Difficulty]MiningTier{
			DifficultyEasy: {
				SuccessRate: 0.70,
				MinReward:   decimal.RequireFromString("1.10"),
				MaxReward:   decimal.RequireFromString("1.50"),
			},
			DifficultyMedium: {
				SuccessRate: 0.45,
				MinReward:   decimal.RequireFromString("1.50"),
				MaxReward:   decimal.RequireFromString("2.50"),
			},
			DifficultyHard: {
				SuccessRate: 0.20,
				MinReward:   decimal.RequireFromString("3.00"),
				MaxReward:   decimal.RequireFromString("6.00"),
			},
		},
	}
}

func (t Tables) Validate() error {
	for risk, table := range t.Plinko {
		if len(table.Multipliers) != PlinkoBuckets || len(table.Cumulative) != PlinkoBuckets {
			return fmt.Errorf("%w: plinko %s table is incomplete", ErrInvalidParams, risk)
		}
		for i := 0; i < PlinkoBuckets/2; i++ {
			if !table.Multipliers[i].Equal(table.Multipliers[PlinkoBuckets-1-i]) {
				return fmt.Errorf("%w: plinko %s table is not symmetric", ErrInvalidParams, risk)
			}
		}
	}
	for difficulty, tier := range t.Mining {
		if err := tier.Validate(); err != nil {
			return fmt.Errorf("mining %s: %w", difficulty, err)
		}
	}
	return nil
}

func (t Tables) PlinkoTable(risk Risk) (PlinkoTable, error) {
	table, ok := t.Plinko[risk]
	if !ok {
		return PlinkoTable{}, fmt.Errorf("%w: unknown plinko risk %q", ErrInvalidParams, risk)
	}
	return table, nil
}

func (t Tables) MiningTier(d Difficulty) (MiningTier, error) {
	tier, ok := t.Mining[d]
	if !ok {
		return MiningTier{}, fmt.Errorf("%w: unknown mining difficulty %q", ErrInvalidParams, d)
	}
	return tier, nil
}

// Merge returns t with every table present in override replaced.
func (t Tables) Merge(override Tables) Tables {
	out := Tables{
		Plinko: make(map[Risk]PlinkoTable, len(t.Plinko)),
		Mining: make(map[Difficulty]MiningTier, len(t.Mining)),
	}
	for k, v := range t.Plinko {
		out.Plinko[k] = v
	}
	for k, v := range t.Mining {
		out.Mining[k] = v
	}
	for k, v := range override.Plinko {
		out.Plinko[k] = v
	}
	for k, v := range override.Mining {
		out.Mining[k] = v
	}
	return out
}
