package meter

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/miradorstack/meterd/internal/models"
)

const (
	trendWindow = 5
	// A mean delta under this magnitude reads as stable.
	stableEpsilon = 0.1
)

// ComputeAnalytics derives summary statistics from history and the committed value.
// It is pure and never fails; degenerate inputs produce defaults.
func ComputeAnalytics(history []models.HistoryEvent, current float64) models.Analytics {
	if len(history) == 0 {
		return models.Analytics{
			Average:    current,
			Min:        current,
			Max:        current,
			Trend:      models.TrendStable,
			ChangeRate: 0,
		}
	}

	sum := 0.0
	min, max := history[0].Value, history[0].Value
	for _, event := range history {
		sum += event.Value
		if event.Value < min {
			min = event.Value
		}
		if event.Value > max {
			max = event.Value
		}
	}

	return models.Analytics{
		Average:    round2(sum / float64(len(history))),
		Min:        min,
		Max:        max,
		Trend:      trend(history),
		ChangeRate: round2(changeRate(history)),
	}
}

func trend(history []models.HistoryEvent) models.Trend {
	recent := history
	if len(recent) > trendWindow {
		recent = recent[len(recent)-trendWindow:]
	}
	total := 0.0
	for _, event := range recent {
		total += event.Delta
	}
	mean := total / float64(len(recent))

	switch {
	case math.Abs(mean) < stableEpsilon:
		return models.TrendStable
	case mean > 0:
		return models.TrendUp
	default:
		return models.TrendDown
	}
}

// changeRate is net value change per minute across the whole retained history.
func changeRate(history []models.HistoryEvent) float64 {
	first, last := history[0], history[len(history)-1]
	minutes := last.Timestamp.Sub(first.Timestamp).Minutes()
	if minutes <= 0 {
		return 0
	}
	return math.Abs(last.Value-first.Value) / minutes
}

// round2 rounds the exact binary value of v to two places, ties away from zero.
// 1.005 is stored as 1.00499999... and therefore rounds to 1.
func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return exactDecimal(v).Round(2).InexactFloat64()
}

// exactDecimal expands v = mant * 2^exp without loss.
func exactDecimal(v float64) decimal.Decimal {
	frac, exp := math.Frexp(v)
	mant := big.NewInt(int64(frac * (1 << 53)))
	exp -= 53
	if exp >= 0 {
		return decimal.NewFromBigInt(mant.Lsh(mant, uint(exp)), 0)
	}
	// 2^-k == 5^k * 10^-k
	pow5 := new(big.Int).Exp(big.NewInt(5), big.NewInt(int64(-exp)), nil)
	return decimal.NewFromBigInt(mant.Mul(mant, pow5), int32(exp))
}
