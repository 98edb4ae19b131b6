// Package optimization provides efficient-frontier generation and
// constrained portfolio optimization over expected returns and a covariance
// matrix estimated from historical return tables.
package optimization

// Tags for the portfolios returned by the frontier generator.
const (
	PortfolioTypeMinVolatility = "Minimum Volatility"
	PortfolioTypeMaxSharpe     = "Maximum Sharpe"
	PortfolioTypeFrontier      = "Efficient Frontier"
)

// Trade actions.
const (
	ActionBuy  = "Buy"
	ActionSell = "Sell"
)

// FrontierPoint is one sampled portfolio on or near the efficient frontier.
type FrontierPoint struct {
	Return  float64            `json:"return"`
	Risk    float64            `json:"risk"`
	Sharpe  float64            `json:"sharpe"`
	Weights map[string]float64 `json:"weights"`
	Type    string             `json:"type"`
}

// Trade is a rebalancing step implied by an optimization result relative to
// the current weights.
type Trade struct {
	Symbol           string  `json:"symbol"`
	Action           string  `json:"action"`
	CurrentWeight    float64 `json:"current_weight"`
	TargetWeight     float64 `json:"target_weight"`
	WeightDifference float64 `json:"weight_difference"`
	DollarAmount     float64 `json:"dollar_amount"`
}

// Snapshot reports return/risk/Sharpe of a fixed weight vector, used for the
// current-portfolio comparison.
type Snapshot struct {
	Return float64 `json:"return"`
	Risk   float64 `json:"risk"`
	Sharpe float64 `json:"sharpe"`
}

// Result is the output of a portfolio optimization. Weights are filtered to
// positions above 0.1%.
type Result struct {
	Weights           map[string]float64 `json:"weights"`
	Return            float64            `json:"return"`
	Risk              float64            `json:"risk"`
	Sharpe            float64            `json:"sharpe"`
	SectorWeights     map[string]float64 `json:"sector_weights,omitempty"`
	RiskContributions map[string]float64 `json:"risk_contributions,omitempty"`
	CurrentPortfolio  *Snapshot          `json:"current_portfolio,omitempty"`
	Trades            []Trade            `json:"trades,omitempty"`
}
