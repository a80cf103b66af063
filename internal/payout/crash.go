package payout

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const (
	crashSpace     = float64(1 << 32)
	baseMultiplier = 1.0024

	// CrashTick is the interval between two multiplier steps.
	CrashTick = 50 * time.Millisecond
)

var (
	HouseEdge      = decimal.RequireFromString("0.99")
	MaxCrashPoint  = decimal.NewFromInt(1000)
	MinAutoCashout = decimal.RequireFromString("1.01")
)

// CrashPoint draws the multiplier at which a round ends.
// A zero hash always busts at 1.00.
func CrashPoint(rng RandomSource) decimal.Decimal {
	h := math.Floor(rng.Next() * crashSpace)
	if h == 0 {
		return one
	}

	raw := decimal.NewFromFloat(math.Floor((100*crashSpace-h)/(crashSpace-h))).Div(hundred)
	if raw.LessThan(one) {
		raw = one
	}

	point := raw.Mul(HouseEdge).Truncate(MoneyPlaces)
	if point.LessThan(one) {
		return one
	}
	if point.GreaterThan(MaxCrashPoint) {
		return MaxCrashPoint
	}
	return point
}

// CrashMultiplierAt is the running multiplier after tick steps,
// truncated to two places so it never overstates the curve.
func CrashMultiplierAt(tick int) decimal.Decimal {
	if tick <= 0 {
		return one
	}
	return decimal.NewFromFloat(math.Pow(baseMultiplier, float64(tick))).Truncate(MoneyPlaces)
}

func ValidateAutoCashout(target decimal.Decimal) error {
	if target.LessThan(MinAutoCashout) || target.GreaterThan(MaxCrashPoint) {
		return fmt.Errorf("%w: auto cashout must be between %s and %s",
			ErrInvalidParams, MinAutoCashout.StringFixed(2), MaxCrashPoint.StringFixed(2))
	}
	return nil
}
