package attribution

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/compass/internal/domain"
)

func TestAnalyzer_Analyze_TwoSectors(t *testing.T) {
	analyzer := NewAnalyzer(zerolog.Nop())

	portfolio := domain.Portfolio{Holdings: []domain.Holding{
		{Symbol: "AAPL", Sector: "Technology", CurrentValue: 7000},
		{Symbol: "JPM", Sector: "Financials", CurrentValue: 3000},
	}}
	benchmark := domain.Portfolio{Holdings: []domain.Holding{
		{Symbol: "AAPL", Sector: "Technology", CurrentValue: 5000},
		{Symbol: "JPM", Sector: "Financials", CurrentValue: 5000},
	}}
	returns := map[string]float64{
		"AAPL": 0.04,
		"JPM":  0.01,
	}

	result, err := analyzer.Analyze(portfolio, benchmark, returns)
	require.NoError(t, err)

	// Portfolio return 0.7*4% + 0.3*1% = 3.1%; benchmark 0.5*4% + 0.5*1% = 2.5%.
	assert.InDelta(t, 0.006, result.TotalActiveReturn, 1e-12)

	require.Contains(t, result.Sectors, "Technology")
	require.Contains(t, result.Sectors, "Financials")

	// Same per-symbol returns in both portfolios, so all active return comes
	// from allocation.
	tech := result.Sectors["Technology"]
	assert.InDelta(t, (0.7-0.5)*(0.04-0.025), tech.AllocationEffect, 1e-12)
	assert.InDelta(t, 0.0, tech.SelectionEffect, 1e-12)
	assert.InDelta(t, 0.0, tech.InteractionEffect, 1e-12)

	assert.InDelta(t, result.TotalActiveReturn,
		result.TotalAllocation+result.TotalSelection+result.TotalInteraction, 1e-12,
		"effects must sum to the active return")
}

func TestAnalyzer_Analyze_SelectionEffect(t *testing.T) {
	analyzer := NewAnalyzer(zerolog.Nop())

	// Same sector weights, different securities inside the sector.
	portfolio := domain.Portfolio{Holdings: []domain.Holding{
		{Symbol: "NVDA", Sector: "Technology", CurrentValue: 5000},
		{Symbol: "JPM", Sector: "Financials", CurrentValue: 5000},
	}}
	benchmark := domain.Portfolio{Holdings: []domain.Holding{
		{Symbol: "AAPL", Sector: "Technology", CurrentValue: 5000},
		{Symbol: "JPM", Sector: "Financials", CurrentValue: 5000},
	}}
	returns := map[string]float64{
		"NVDA": 0.08,
		"AAPL": 0.02,
		"JPM":  0.01,
	}

	result, err := analyzer.Analyze(portfolio, benchmark, returns)
	require.NoError(t, err)

	tech := result.Sectors["Technology"]
	assert.InDelta(t, 0.0, tech.AllocationEffect, 1e-12, "equal weights, no allocation effect")
	assert.InDelta(t, 0.5*(0.08-0.02), tech.SelectionEffect, 1e-12)
	assert.InDelta(t, 0.0, tech.InteractionEffect, 1e-12)

	assert.InDelta(t, result.TotalActiveReturn,
		result.TotalAllocation+result.TotalSelection+result.TotalInteraction, 1e-12)
}

func TestAnalyzer_Analyze_PerSectorIdentity(t *testing.T) {
	analyzer := NewAnalyzer(zerolog.Nop())

	portfolio := domain.Portfolio{Holdings: []domain.Holding{
		{Symbol: "NVDA", Sector: "Technology", CurrentValue: 6000},
		{Symbol: "XOM", Sector: "Energy", CurrentValue: 1000},
		{Symbol: "JPM", Sector: "Financials", CurrentValue: 3000},
	}}
	benchmark := domain.Portfolio{Holdings: []domain.Holding{
		{Symbol: "AAPL", Sector: "Technology", CurrentValue: 4000},
		{Symbol: "CVX", Sector: "Energy", CurrentValue: 2000},
		{Symbol: "BAC", Sector: "Financials", CurrentValue: 4000},
	}}
	returns := map[string]float64{
		"NVDA": 0.06, "AAPL": 0.03,
		"XOM": -0.02, "CVX": -0.01,
		"JPM": 0.02, "BAC": 0.015,
	}

	result, err := analyzer.Analyze(portfolio, benchmark, returns)
	require.NoError(t, err)

	for sector, effect := range result.Sectors {
		assert.InDelta(t, effect.TotalEffect,
			effect.AllocationEffect+effect.SelectionEffect+effect.InteractionEffect, 1e-12,
			"sector %s", sector)
	}

	assert.InDelta(t, result.TotalActiveReturn,
		result.TotalAllocation+result.TotalSelection+result.TotalInteraction, 1e-12)
}

func TestAnalyzer_Analyze_SectorMissingFromPortfolio(t *testing.T) {
	analyzer := NewAnalyzer(zerolog.Nop())

	portfolio := domain.Portfolio{Holdings: []domain.Holding{
		{Symbol: "AAPL", Sector: "Technology", CurrentValue: 10000},
	}}
	benchmark := domain.Portfolio{Holdings: []domain.Holding{
		{Symbol: "AAPL", Sector: "Technology", CurrentValue: 5000},
		{Symbol: "JPM", Sector: "Financials", CurrentValue: 5000},
	}}
	returns := map[string]float64{"AAPL": 0.04, "JPM": 0.01}

	result, err := analyzer.Analyze(portfolio, benchmark, returns)
	require.NoError(t, err)

	assert.Contains(t, result.Sectors, "Technology")
	assert.NotContains(t, result.Sectors, "Financials",
		"benchmark-only sectors are skipped")
}

func TestAnalyzer_Analyze_MissingReturnDefaultsToZero(t *testing.T) {
	analyzer := NewAnalyzer(zerolog.Nop())

	portfolio := domain.Portfolio{Holdings: []domain.Holding{
		{Symbol: "AAPL", Sector: "Technology", CurrentValue: 10000},
	}}
	benchmark := domain.Portfolio{Holdings: []domain.Holding{
		{Symbol: "AAPL", Sector: "Technology", CurrentValue: 10000},
	}}

	result, err := analyzer.Analyze(portfolio, benchmark, map[string]float64{"MSFT": 0.02})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, result.TotalActiveReturn, 1e-12)
}

func TestAnalyzer_Analyze_EmptyInput(t *testing.T) {
	analyzer := NewAnalyzer(zerolog.Nop())

	populated := domain.Portfolio{Holdings: []domain.Holding{
		{Symbol: "AAPL", Sector: "Technology", CurrentValue: 100},
	}}
	returns := map[string]float64{"AAPL": 0.01}

	_, err := analyzer.Analyze(domain.Portfolio{}, populated, returns)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)

	_, err = analyzer.Analyze(populated, domain.Portfolio{}, returns)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)

	_, err = analyzer.Analyze(populated, populated, nil)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}
