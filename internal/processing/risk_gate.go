package processing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dyike/NexusGo/internal/models"
)

// Position-size ceilings (% of portfolio) by risk rating.
const (
	ceilingHigh     = 8
	ceilingModerate = 15
	ceilingLow      = 25
)

// PositionCeiling returns the position-size ceiling for a risk rating.
// Ratings are matched case-insensitively; anything unrecognized is treated
// as MODERATE.
func PositionCeiling(riskRating string) float64 {
	switch strings.ToUpper(strings.TrimSpace(riskRating)) {
	case "HIGH":
		return ceilingHigh
	case "LOW":
		return ceilingLow
	default:
		return ceilingModerate
	}
}

// ApplyRiskGate clamps and repairs a decision against the risk rating. It is
// deterministic, makes no external calls, and is idempotent: gating an
// already-gated decision with the same rating changes nothing. The input is
// not mutated.
func ApplyRiskGate(d *models.Decision, riskRating string) *models.Decision {
	out := d.Clone()

	if out.Action == models.ActionHold {
		out.EntryPrice = nil
		out.TakeProfit = nil
		out.StopLoss = nil
		out.PositionSizePct = 0
		return out
	}

	ceiling := PositionCeiling(riskRating)
	if out.PositionSizePct > 0 {
		if out.PositionSizePct > ceiling {
			out.PositionSizePct = ceiling
		}
	} else {
		out.PositionSizePct = ceiling
	}

	if out.EntryPrice == nil {
		return out
	}
	entry := *out.EntryPrice

	switch out.Action {
	case models.ActionBuy:
		if out.StopLoss == nil || *out.StopLoss >= entry {
			out.StopLoss = models.FloatPtr(scalePrice(entry, 0.92))
		}
		if out.TakeProfit == nil || *out.TakeProfit <= entry {
			out.TakeProfit = models.FloatPtr(scalePrice(entry, 1.12))
		}
	case models.ActionSell:
		if out.StopLoss == nil || *out.StopLoss <= entry {
			out.StopLoss = models.FloatPtr(scalePrice(entry, 1.08))
		}
		if out.TakeProfit == nil || *out.TakeProfit >= entry {
			out.TakeProfit = models.FloatPtr(scalePrice(entry, 0.88))
		}
	}
	return out
}

// scalePrice multiplies a price by a factor and rounds to 2 decimal places,
// going through decimal to avoid float drift on the cents.
func scalePrice(price, factor float64) float64 {
	result, _ := decimal.NewFromFloat(price).
		Mul(decimal.NewFromFloat(factor)).
		Round(2).
		Float64()
	return result
}
