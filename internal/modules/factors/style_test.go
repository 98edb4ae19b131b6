package factors

import (
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/compass/internal/domain"
)

// testFactorHistory builds a 24-month factor table with well-separated
// deterministic series so the regression is identifiable.
func testFactorHistory() domain.ReturnTable {
	rng := rand.New(rand.NewSource(7))
	months := 24

	start := time.Date(2023, time.January, 31, 0, 0, 0, 0, time.UTC)
	dates := make([]string, months)
	for i := range dates {
		dates[i] = start.AddDate(0, i, 0).Format(domain.DateLayout)
	}

	data := make(map[string][]float64, len(CanonicalFactors))
	for _, factor := range CanonicalFactors {
		series := make([]float64, months)
		for t := range series {
			series[t] = 0.03 * rng.NormFloat64()
		}
		data[factor] = series
	}
	return domain.ReturnTable{Dates: dates, Data: data}
}

func TestStyleAnalyzer_Analyze_RecoversKnownMix(t *testing.T) {
	history := testFactorHistory()
	sa := NewStyleAnalyzerWithHistory(history, zerolog.Nop())

	// Portfolio returns are an exact 60/40 blend of value and momentum.
	y := make([]float64, history.Len())
	for i := range y {
		y[i] = 0.6*history.Data[FactorValue][i] + 0.4*history.Data[FactorMomentum][i]
	}
	rt := domain.ReturnTable{
		Dates: history.Dates,
		Data:  map[string][]float64{domain.ColPortfolioReturn: y},
	}

	weights, err := sa.Analyze(rt)
	require.NoError(t, err)

	sum := 0.0
	for factor, w := range weights {
		assert.GreaterOrEqual(t, w, 0.0, "factor %s", factor)
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 0.02, "reported weights stay fully invested")

	assert.InDelta(t, 0.6, weights[FactorValue], 0.1)
	assert.InDelta(t, 0.4, weights[FactorMomentum], 0.1)
}

func TestStyleAnalyzer_Analyze_PartialOverlap(t *testing.T) {
	history := testFactorHistory()
	sa := NewStyleAnalyzerWithHistory(history, zerolog.Nop())

	// Only the last 14 months overlap the factor history; still enough.
	offset := history.Len() - 14
	y := make([]float64, 14)
	for i := range y {
		y[i] = history.Data[FactorQuality][offset+i]
	}
	rt := domain.ReturnTable{
		Dates: append([]string{"2019-05-31", "2019-06-30"}, history.Dates[offset:]...),
		Data: map[string][]float64{
			domain.ColPortfolioReturn: append([]float64{0.01, 0.01}, y...),
		},
	}

	weights, err := sa.Analyze(rt)
	require.NoError(t, err)
	assert.Greater(t, weights[FactorQuality], 0.5, "dominant factor is identified")
}

func TestStyleAnalyzer_Analyze_Errors(t *testing.T) {
	sa := NewStyleAnalyzerWithHistory(testFactorHistory(), zerolog.Nop())

	t.Run("missing portfolio column", func(t *testing.T) {
		rt := domain.ReturnTable{
			Dates: []string{"2023-01-31"},
			Data:  map[string][]float64{"AAPL": {0.01}},
		}
		_, err := sa.Analyze(rt)
		assert.ErrorIs(t, err, domain.ErrDegenerateInput)
	})

	t.Run("unparseable dates", func(t *testing.T) {
		rt := domain.ReturnTable{
			Dates: []string{"January 2023"},
			Data:  map[string][]float64{domain.ColPortfolioReturn: {0.01}},
		}
		_, err := sa.Analyze(rt)
		assert.ErrorIs(t, err, domain.ErrDegenerateInput)
	})

	t.Run("insufficient overlap", func(t *testing.T) {
		history := testFactorHistory()
		rt := domain.ReturnTable{
			Dates: history.Dates[:5],
			Data:  map[string][]float64{domain.ColPortfolioReturn: {0.01, 0.02, 0.01, 0.0, 0.01}},
		}
		_, err := sa.Analyze(rt)
		assert.ErrorIs(t, err, domain.ErrInsufficientData)
	})

	t.Run("no overlap at all", func(t *testing.T) {
		rt := domain.ReturnTable{
			Dates: []string{"1999-01-31", "1999-02-28"},
			Data:  map[string][]float64{domain.ColPortfolioReturn: {0.01, 0.02}},
		}
		_, err := sa.Analyze(rt)
		assert.ErrorIs(t, err, domain.ErrInsufficientData)
	})
}

func TestStyleAnalyzer_FactorHistoryIsStable(t *testing.T) {
	sa := NewStyleAnalyzer(zerolog.Nop())

	first := sa.FactorHistory()
	second := sa.FactorHistory()

	require.Equal(t, styleHistoryMonths, first.Len())
	assert.Equal(t, first.Dates, second.Dates)
	for _, factor := range CanonicalFactors {
		require.Contains(t, first.Data, factor)
		assert.Equal(t, first.Data[factor], second.Data[factor],
			"repeated reads see identical synthetic history")
	}
}
