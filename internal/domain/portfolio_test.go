package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func samplePortfolio() Portfolio {
	return Portfolio{Holdings: []Holding{
		{Symbol: "AAPL", Sector: "Technology", CurrentValue: 6000},
		{Symbol: "MSFT", Sector: "Technology", CurrentValue: 2000},
		{Symbol: "JPM", Sector: "Financials", CurrentValue: 2000},
	}}
}

func TestPortfolio_TotalValue(t *testing.T) {
	assert.InDelta(t, 10000.0, samplePortfolio().TotalValue(), 1e-9)
	assert.Equal(t, 0.0, Portfolio{}.TotalValue())
}

func TestPortfolio_Weights(t *testing.T) {
	weights := samplePortfolio().Weights()

	assert.InDelta(t, 0.6, weights["AAPL"], 1e-9)
	assert.InDelta(t, 0.2, weights["MSFT"], 1e-9)
	assert.InDelta(t, 0.2, weights["JPM"], 1e-9)

	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestPortfolio_Weights_Undefined(t *testing.T) {
	assert.Empty(t, Portfolio{}.Weights(), "empty portfolio")

	zeroValue := Portfolio{Holdings: []Holding{
		{Symbol: "AAPL", CurrentValue: 0},
		{Symbol: "MSFT", CurrentValue: 0},
	}}
	assert.Empty(t, zeroValue.Weights(), "zero total value")
}

func TestPortfolio_Symbols(t *testing.T) {
	assert.Equal(t, []string{"AAPL", "MSFT", "JPM"}, samplePortfolio().Symbols())
}

func TestPortfolio_SectorWeights(t *testing.T) {
	sectors := samplePortfolio().SectorWeights()

	assert.Len(t, sectors, 2)
	assert.InDelta(t, 0.8, sectors["Technology"], 1e-9)
	assert.InDelta(t, 0.2, sectors["Financials"], 1e-9)
}
