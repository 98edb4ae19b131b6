package factors

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/compass/internal/domain"
)

// stubLoadings resolves from a fixed map, falling back to defaults.
type stubLoadings map[string]Loadings

func (s stubLoadings) Lookup(symbol string) Loadings {
	if l, ok := s[symbol]; ok {
		return l
	}
	return DefaultLoadings()
}

func TestEstimator_Exposures(t *testing.T) {
	source := stubLoadings{
		"AAPL": {FactorSize: 1.0, FactorMomentum: 0.8, FactorQuality: 0.6},
		"JPM":  {FactorSize: 0.9, FactorValue: 0.7, FactorYield: 0.5},
	}
	estimator := NewEstimator(source, zerolog.Nop())

	portfolio := domain.Portfolio{Holdings: []domain.Holding{
		{Symbol: "AAPL", Sector: "Technology", CurrentValue: 7500},
		{Symbol: "JPM", Sector: "Financials", CurrentValue: 2500},
	}}

	exposures, err := estimator.Exposures(portfolio)
	require.NoError(t, err)

	assert.Len(t, exposures, len(CanonicalFactors), "every canonical factor is reported")
	assert.InDelta(t, 0.75*1.0+0.25*0.9, exposures[FactorSize], 1e-12)
	assert.InDelta(t, 0.75*0.8, exposures[FactorMomentum], 1e-12)
	assert.InDelta(t, 0.25*0.7, exposures[FactorValue], 1e-12)
	assert.InDelta(t, 0.25*0.5, exposures[FactorYield], 1e-12)
	assert.InDelta(t, 0.0, exposures[FactorGrowth], 1e-12)
}

func TestEstimator_Exposures_ScaleInvariant(t *testing.T) {
	source := stubLoadings{
		"AAPL": {FactorSize: 1.0, FactorMomentum: 0.8},
	}
	estimator := NewEstimator(source, zerolog.Nop())

	small := domain.Portfolio{Holdings: []domain.Holding{
		{Symbol: "AAPL", CurrentValue: 100},
		{Symbol: "JPM", CurrentValue: 300},
	}}
	large := domain.Portfolio{Holdings: []domain.Holding{
		{Symbol: "AAPL", CurrentValue: 100000},
		{Symbol: "JPM", CurrentValue: 300000},
	}}

	smallExp, err := estimator.Exposures(small)
	require.NoError(t, err)
	largeExp, err := estimator.Exposures(large)
	require.NoError(t, err)

	for _, factor := range CanonicalFactors {
		assert.InDelta(t, smallExp[factor], largeExp[factor], 1e-12,
			"exposures depend on weights, not dollar size (factor %s)", factor)
	}
}

func TestEstimator_Exposures_UnknownSymbolUsesDefaults(t *testing.T) {
	estimator := NewEstimator(stubLoadings{}, zerolog.Nop())

	portfolio := domain.Portfolio{Holdings: []domain.Holding{
		{Symbol: "UNKNOWN", CurrentValue: 1000},
	}}

	exposures, err := estimator.Exposures(portfolio)
	require.NoError(t, err)

	defaults := DefaultLoadings()
	for _, factor := range CanonicalFactors {
		assert.InDelta(t, defaults[factor], exposures[factor], 1e-12)
	}
}

func TestEstimator_Exposures_Errors(t *testing.T) {
	estimator := NewEstimator(stubLoadings{}, zerolog.Nop())

	_, err := estimator.Exposures(domain.Portfolio{})
	assert.ErrorIs(t, err, domain.ErrInsufficientData)

	zeroValue := domain.Portfolio{Holdings: []domain.Holding{
		{Symbol: "AAPL", CurrentValue: 0},
	}}
	_, err = estimator.Exposures(zeroValue)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}
