package stats

import (
	"math"

	"github.com/shopspring/decimal"
)

// Derived holds the net columns computed from one MonthlyAggregate.
type Derived struct {
	NetZIH    decimal.Decimal
	CashFlow  decimal.Decimal
	NetECS    decimal.Decimal
	NetECSPvt decimal.Decimal
	NetDBT    decimal.Decimal
	NetFlow   decimal.Decimal
}

// Derive computes the net columns of a.
func Derive(a MonthlyAggregate) Derived {
	d := Derived{
		NetZIH:    a.Get(KeyZIHCredit).Sub(a.Get(KeyZIHDebit)),
		CashFlow:  a.Get(KeyBTCredit).Sub(a.Get(KeyBTDebit)).Sub(a.Get(KeyExpense)),
		NetECS:    a.Get(KeyECSCredit).Sub(a.Get(KeyECSDebit)),
		NetECSPvt: a.Get(KeyECSPvtCredit).Sub(a.Get(KeyECSPvtDebit)),
		NetDBT:    a.Get(KeyDBTCredit).Sub(a.Get(KeyDBTDebit)),
	}
	d.NetFlow = d.CashFlow.Add(d.NetZIH).Add(d.NetECS).Add(d.NetECSPvt)
	return d
}

// Series extracts key from each aggregate, in order.
func Series(aggs []MonthlyAggregate, key MetricKey) []float64 {
	out := make([]float64, len(aggs))
	for i, a := range aggs {
		out[i] = a.Float(key)
	}
	return out
}

// Mean returns the arithmetic mean of values, or zero for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Volatility is the coefficient of variation (sample standard deviation over mean)
// of the strictly positive values. Fewer than two positive values yield zero.
func Volatility(values []float64) float64 {
	positive := positives(values)
	if len(positive) < 2 {
		return 0
	}
	mean := Mean(positive)
	if mean == 0 {
		return 0
	}

	var ss float64
	for _, v := range positive {
		ss += (v - mean) * (v - mean)
	}
	std := math.Sqrt(ss / float64(len(positive)-1))
	return std / mean
}

// TrendRatio compares the average of the recent half of values with the older half.
// The split is at len/2, so the recent half takes the extra element of an odd series.
// Only positive values are averaged; a half without any averages to zero.
func TrendRatio(values []float64) float64 {
	if len(values) < 3 {
		return 1
	}
	mid := len(values) / 2
	older := Mean(positives(values[:mid]))
	recent := Mean(positives(values[mid:]))

	if older == 0 {
		if recent == 0 {
			return 1
		}
		return math.Inf(1)
	}
	return recent / older
}

func positives(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v > 0 {
			out = append(out, v)
		}
	}
	return out
}
