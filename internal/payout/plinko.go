package payout

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	PlinkoRows    = 16
	PlinkoBuckets = PlinkoRows + 1
)

type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

type PlinkoTable struct {
	Multipliers []decimal.Decimal
	Cumulative  []float64
}

type PlinkoOutcome struct {
	Risk       Risk
	Bucket     int
	Multiplier decimal.Decimal
	// Path is one 'L' or 'R' per row and always ends in Bucket.
	Path string
}

// NewPlinkoTable builds a table from its multipliers and bucket weights.
// Nil weights select the binomial distribution of a fair 16-row board.
func NewPlinkoTable(multipliers []decimal.Decimal, weights []float64) (PlinkoTable, error) {
	if len(multipliers) != PlinkoBuckets {
		return PlinkoTable{}, fmt.Errorf("%w: plinko needs %d multipliers, got %d",
			ErrInvalidParams, PlinkoBuckets, len(multipliers))
	}
	if weights == nil {
		weights = binomialWeights(PlinkoRows)
	}
	if len(weights) != PlinkoBuckets {
		return PlinkoTable{}, fmt.Errorf("%w: plinko needs %d weights, got %d",
			ErrInvalidParams, PlinkoBuckets, len(weights))
	}

	var total float64
	for i, w := range weights {
		if w < 0 {
			return PlinkoTable{}, fmt.Errorf("%w: negative weight at bucket %d", ErrInvalidParams, i)
		}
		total += w
	}
	if total <= 0 {
		return PlinkoTable{}, fmt.Errorf("%w: plinko weights sum to zero", ErrInvalidParams)
	}

	cumulative := make([]float64, PlinkoBuckets)
	var acc float64
	for i, w := range weights {
		acc += w / total
		cumulative[i] = acc
	}
	cumulative[PlinkoBuckets-1] = 1

	return PlinkoTable{Multipliers: multipliers, Cumulative: cumulative}, nil
}

func binomialWeights(rows int) []float64 {
	weights := make([]float64, rows+1)
	c := 1.0
	for k := 0; k <= rows; k++ {
		weights[k] = c / math.Pow(2, float64(rows))
		c = c * float64(rows-k) / float64(k+1)
	}
	return weights
}

// mirror expands the left half plus center into a symmetric row.
func mirror(half ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, 2*len(half)-1)
	for _, v := range half {
		out = append(out, decimal.RequireFromString(v))
	}
	for i := len(half) - 2; i >= 0; i-- {
		out = append(out, out[i])
	}
	return out
}

// Bucket maps one draw through the cumulative distribution.
func (t PlinkoTable) Bucket(draw float64) int {
	for i, c := range t.Cumulative {
		if draw < c {
			return i
		}
	}
	return len(t.Cumulative) - 1
}

// DropPlinko samples the landing bucket first and back-solves a path to it.
func DropPlinko(rng RandomSource, risk Risk, table PlinkoTable) PlinkoOutcome {
	bucket := table.Bucket(rng.Next())

	moves := make([]byte, PlinkoRows)
	for i := range moves {
		if i < bucket {
			moves[i] = 'R'
		} else {
			moves[i] = 'L'
		}
	}
	for i := len(moves) - 1; i > 0; i-- {
		j := intn(rng, i+1)
		moves[i], moves[j] = moves[j], moves[i]
	}

	return PlinkoOutcome{
		Risk:       risk,
		Bucket:     bucket,
		Multiplier: table.Multipliers[bucket],
		Path:       string(moves),
	}
}

// PathBucket replays a path and returns the bucket it ends in.
func PathBucket(path string) int {
	return strings.Count(path, "R")
}
