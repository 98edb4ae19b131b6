package factors

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func rampPrices(n int, start, step float64) []float64 {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = start + float64(i)*step
	}
	return prices
}

func TestMomentumLoading(t *testing.T) {
	t.Run("flat prices have no momentum", func(t *testing.T) {
		flat := rampPrices(260, 100, 0)
		assert.InDelta(t, 0.0, momentumLoading(flat), 1e-9)
	})

	t.Run("rising prices load positive", func(t *testing.T) {
		rising := rampPrices(260, 100, 0.1)
		assert.Greater(t, momentumLoading(rising), 0.0)
	})

	t.Run("falling prices load negative", func(t *testing.T) {
		falling := rampPrices(260, 200, -0.1)
		assert.Less(t, momentumLoading(falling), 0.0)
	})

	t.Run("extreme moves clamp to the loading range", func(t *testing.T) {
		surging := rampPrices(260, 100, 5)
		loading := momentumLoading(surging)
		assert.LessOrEqual(t, loading, loadingMax)
		assert.GreaterOrEqual(t, loading, loadingMin)
	})
}

func TestVolatilityLoading(t *testing.T) {
	t.Run("constant prices sit below the baseline", func(t *testing.T) {
		flat := rampPrices(260, 100, 0)
		// Zero volatility against a 20% baseline maps to -1.
		assert.InDelta(t, -1.0, volatilityLoading(flat), 1e-9)
	})

	t.Run("clamped to the loading range", func(t *testing.T) {
		volatile := make([]float64, 260)
		for i := range volatile {
			if i%2 == 0 {
				volatile[i] = 100
			} else {
				volatile[i] = 130
			}
		}
		loading := volatilityLoading(volatile)
		assert.Equal(t, loadingMax, loading)
	})
}

func TestClampLoading(t *testing.T) {
	assert.Equal(t, loadingMax, clampLoading(10))
	assert.Equal(t, loadingMin, clampLoading(-10))
	assert.Equal(t, 0.7, clampLoading(0.7))
}

func TestDropNaN(t *testing.T) {
	series := []float64{100, math.NaN(), 101, math.NaN(), 102}
	assert.Equal(t, []float64{100, 101, 102}, dropNaN(series))
	assert.Empty(t, dropNaN([]float64{math.NaN()}))
}
