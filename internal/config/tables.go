package config

import (
	"fmt"
	"os"

	"casino-miniapp-backend/internal/payout"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// tablesFile mirrors the YAML layout of a game tables override:
//
//	plinko:
//	  low:
//	    multipliers: ["16", "9", ...]
//	    weights: [1, 16, ...]      # optional, binomial when omitted
//	mining:
//	  easy: {success_rate: 0.7, min_reward: "1.10", max_reward: "1.50"}
type tablesFile struct {
	Plinko map[string]plinkoEntry `yaml:"plinko"`
	Mining map[string]miningEntry `yaml:"mining"`
}

type plinkoEntry struct {
	Multipliers []string  `yaml:"multipliers"`
	Weights     []float64 `yaml:"weights"`
}

type miningEntry struct {
	SuccessRate float64 `yaml:"success_rate"`
	MinReward   string  `yaml:"min_reward"`
	MaxReward   string  `yaml:"max_reward"`
}

// LoadGameTables returns the default tables with the tables in path
// merged over them. An empty path returns the defaults.
func LoadGameTables(path string) (payout.Tables, error) {
	defaults := payout.DefaultTables()
	if path == "" {
		return defaults, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return payout.Tables{}, fmt.Errorf("failed to read tables file: %w", err)
	}
	override, err := ParseGameTables(data)
	if err != nil {
		return payout.Tables{}, err
	}

	tables := defaults.Merge(override)
	if err := tables.Validate(); err != nil {
		return payout.Tables{}, err
	}
	return tables, nil
}

func ParseGameTables(data []byte) (payout.Tables, error) {
	var raw tablesFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return payout.Tables{}, fmt.Errorf("failed to parse tables file: %w", err)
	}

	out := payout.Tables{
		Plinko: make(map[payout.Risk]payout.PlinkoTable, len(raw.Plinko)),
		Mining: make(map[payout.Difficulty]payout.MiningTier, len(raw.Mining)),
	}

	for risk, entry := range raw.Plinko {
		multipliers := make([]decimal.Decimal, len(entry.Multipliers))
		for i, m := range entry.Multipliers {
			d, err := decimal.NewFromString(m)
			if err != nil {
				return payout.Tables{}, fmt.Errorf("plinko %s bucket %d: %w", risk, i, err)
			}
			multipliers[i] = d
		}
		table, err := payout.NewPlinkoTable(multipliers, entry.Weights)
		if err != nil {
			return payout.Tables{}, fmt.Errorf("plinko %s: %w", risk, err)
		}
		out.Plinko[payout.Risk(risk)] = table
	}

	for difficulty, entry := range raw.Mining {
		minReward, err := decimal.NewFromString(entry.MinReward)
		if err != nil {
			return payout.Tables{}, fmt.Errorf("mining %s min_reward: %w", difficulty, err)
		}
		maxReward, err := decimal.NewFromString(entry.MaxReward)
		if err != nil {
			return payout.Tables{}, fmt.Errorf("mining %s max_reward: %w", difficulty, err)
		}
		out.Mining[payout.Difficulty(difficulty)] = payout.MiningTier{
			SuccessRate: entry.SuccessRate,
			MinReward:   minReward,
			MaxReward:   maxReward,
		}
	}

	return out, nil
}
