package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPeriodicRiskFree(t *testing.T) {
	t.Run("compound de-annualization", func(t *testing.T) {
		rf := PeriodicRiskFree(0.03, 252)
		assert.InDelta(t, math.Pow(1.03, 1.0/252.0)-1, rf, 1e-12)
		assert.Less(t, rf, 0.03/252, "compound rate is below the simple division")
		assert.Greater(t, rf, 0.0)
	})

	t.Run("monthly", func(t *testing.T) {
		rf := PeriodicRiskFree(0.12, 12)
		// (1.12)^(1/12) - 1 ≈ 0.9489% per month.
		assert.InDelta(t, 0.009489, rf, 1e-5)
	})

	t.Run("invalid frequency passes the annual rate through", func(t *testing.T) {
		assert.Equal(t, 0.05, PeriodicRiskFree(0.05, 0))
	})
}

func TestSharpeRatio(t *testing.T) {
	t.Run("positive excess return", func(t *testing.T) {
		returns := []float64{0.02, 0.01, 0.03, 0.015}
		sharpe := SharpeRatio(returns, 0.001)
		expected := (Mean(returns) - 0.001) / StdDev(returns)
		assert.InDelta(t, expected, sharpe, 1e-9)
		assert.Greater(t, sharpe, 0.0)
	})

	t.Run("negative excess return gives negative sharpe", func(t *testing.T) {
		returns := []float64{-0.02, -0.01, -0.03, -0.015}
		assert.Less(t, SharpeRatio(returns, 0.001), 0.0)
	})

	t.Run("zero volatility returns zero, never NaN", func(t *testing.T) {
		sharpe := SharpeRatio([]float64{0.01, 0.01, 0.01}, 0.001)
		assert.Equal(t, 0.0, sharpe)
		assert.False(t, math.IsNaN(sharpe))
	})
}

func TestSortinoRatio(t *testing.T) {
	t.Run("penalizes only downside", func(t *testing.T) {
		returns := []float64{0.05, -0.01, 0.04, -0.02, 0.03}
		sortino := SortinoRatio(returns, 0.001)
		expected := (Mean(returns) - 0.001) / DownsideDeviation(returns)
		assert.InDelta(t, expected, sortino, 1e-9)
	})

	t.Run("no downside returns zero", func(t *testing.T) {
		sortino := SortinoRatio([]float64{0.01, 0.02, 0.03}, 0.001)
		assert.Equal(t, 0.0, sortino)
		assert.False(t, math.IsNaN(sortino))
		assert.False(t, math.IsInf(sortino, 0))
	})

	t.Run("exceeds sharpe when upside volatility dominates", func(t *testing.T) {
		returns := []float64{0.10, 0.08, -0.01, 0.12, -0.02}
		assert.Greater(t, SortinoRatio(returns, 0), SharpeRatio(returns, 0))
	})
}
