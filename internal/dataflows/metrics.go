package dataflows

import (
	"fmt"
	"math"
	"strings"
)

// Rating thresholds on annualized volatility and max drawdown. A ticker is
// rated by whichever of the two looks worse.
const (
	highVolPct     = 45
	moderateVolPct = 25
	highDDPct      = 35
	moderateDDPct  = 20
)

// ComputeRiskMetrics derives volatility, max drawdown and a rating from a
// daily bar series. Needs at least two bars of history.
func ComputeRiskMetrics(bars []Bar) (*RiskMetrics, error) {
	if len(bars) < 2 {
		return nil, fmt.Errorf("need at least 2 bars to compute risk metrics, got %d", len(bars))
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		c, _ := b.Close.Float64()
		closes[i] = c
	}

	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, closes[i]/closes[i-1]-1)
	}

	volatility := annualizedVolatility(returns) * 100
	drawdown := maxDrawdown(closes) * 100

	rating := "LOW"
	switch {
	case volatility >= highVolPct || drawdown >= highDDPct:
		rating = "HIGH"
	case volatility >= moderateVolPct || drawdown >= moderateDDPct:
		rating = "MODERATE"
	}

	return &RiskMetrics{
		CurrentPrice:   closes[len(closes)-1],
		VolatilityPct:  round2(volatility),
		MaxDrawdownPct: round2(drawdown),
		RiskRating:     rating,
	}, nil
}

func annualizedVolatility(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)

	return math.Sqrt(variance) * math.Sqrt(252)
}

func maxDrawdown(closes []float64) float64 {
	peak := closes[0]
	worst := 0.0
	for _, c := range closes {
		if c > peak {
			peak = c
		}
		if peak > 0 {
			dd := (peak - c) / peak
			if dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// IsHKSymbol reports whether a symbol trades on the Hong Kong exchange.
func IsHKSymbol(symbol string) bool {
	return strings.HasSuffix(strings.ToUpper(symbol), ".HK")
}
