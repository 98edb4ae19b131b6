// Package formulas provides the shared statistical building blocks used by
// the analytics modules.
package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation of a slice of float64 values.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Variance calculates the sample variance of a slice of float64 values.
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.Variance(data, nil)
}

// Covariance calculates the sample covariance between two equal-length series.
func Covariance(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	return stat.Covariance(x, y, nil)
}

// Correlation calculates the Pearson correlation coefficient.
func Correlation(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	return stat.Correlation(x, y, nil)
}

// DownsideDeviation calculates the sample standard deviation of the negative
// observations only. Returns 0 when fewer than two observations are negative.
func DownsideDeviation(returns []float64) float64 {
	var negative []float64
	for _, r := range returns {
		if r < 0 {
			negative = append(negative, r)
		}
	}
	if len(negative) < 2 {
		return 0
	}
	return stat.StdDev(negative, nil)
}

// Percentile returns the p-th percentile (0-100) of data using linear
// interpolation between closest ranks.
func Percentile(data []float64, p float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	frac := rank - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

// CalculateReturns converts a price series to fractional period returns.
// Returns[i] = (Price[i+1] - Price[i]) / Price[i].
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}
	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}
	return returns
}

// AnnualizedVolatility scales the standard deviation of periodic returns by
// the square root of the number of periods per year.
func AnnualizedVolatility(returns []float64, periodsPerYear int) float64 {
	if len(returns) == 0 || periodsPerYear <= 0 {
		return 0
	}
	return StdDev(returns) * math.Sqrt(float64(periodsPerYear))
}
