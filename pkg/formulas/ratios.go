package formulas

import "math"

// PeriodicRiskFree converts an annual risk-free rate to the observation
// frequency using compound de-annualization:
//
//	period_rf = (1 + annual_rf)^(1/periods_per_year) - 1
func PeriodicRiskFree(annualRate float64, periodsPerYear int) float64 {
	if periodsPerYear <= 0 {
		return annualRate
	}
	return math.Pow(1+annualRate, 1/float64(periodsPerYear)) - 1
}

// SharpeRatio calculates excess return per unit of total volatility at the
// observation frequency. Returns 0 when the standard deviation is 0.
//
//	Sharpe = (mean return - periodic risk-free rate) / std deviation
func SharpeRatio(returns []float64, periodicRiskFree float64) float64 {
	stdDev := StdDev(returns)
	if stdDev == 0 {
		return 0
	}
	return (Mean(returns) - periodicRiskFree) / stdDev
}

// SortinoRatio calculates excess return per unit of downside-only volatility.
// Returns 0 when no downside deviation exists, never NaN or Inf.
func SortinoRatio(returns []float64, periodicRiskFree float64) float64 {
	downside := DownsideDeviation(returns)
	if downside == 0 {
		return 0
	}
	return (Mean(returns) - periodicRiskFree) / downside
}
