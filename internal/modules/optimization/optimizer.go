package optimization

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/optimize"

	"github.com/aristath/compass/internal/domain"
)

const (
	penaltyWeight = 1000.0

	// weightFloor filters near-zero positions from results (0.1%).
	weightFloor = 0.001

	// tradeFloor drops rebalancing trades under 1% of portfolio weight.
	tradeFloor = 0.01
)

// Optimizer solves constrained portfolio optimization problems. Equality and
// sector constraints enter the objective as quadratic penalties; per-asset
// bounds are enforced by projection. The solver runs BFGS from an
// equal-weight start with a Nelder-Mead fallback.
type Optimizer struct {
	log zerolog.Logger
}

// NewOptimizer creates a portfolio optimizer.
func NewOptimizer(log zerolog.Logger) *Optimizer {
	return &Optimizer{log: log.With().Str("component", "optimizer").Logger()}
}

// RiskConstraintParams selects the objective for WithRiskConstraints.
type RiskConstraintParams struct {
	// MaxRisk caps portfolio volatility; when set alone, expected return is
	// maximized subject to the cap.
	MaxRisk *float64

	// TargetReturn pins expected return; when set alone, risk is minimized at
	// that return level.
	TargetReturn *float64

	// CurrentWeights, when supplied, is renormalized and reported alongside
	// the optimum for comparison.
	CurrentWeights map[string]float64

	// RiskFreeRate feeds the Sharpe objective used when neither or both of
	// MaxRisk/TargetReturn are set.
	RiskFreeRate float64
}

// MaximumSharpe maximizes (μ'w − rf) / sqrt(w'Σw) subject to Σw = 1, the
// per-asset bounds, and any sector limits.
func (o *Optimizer) MaximumSharpe(rt domain.ReturnTable, riskFreeRate float64, constraints *Constraints) (Result, error) {
	model, err := BuildRiskModel(rt)
	if err != nil {
		o.log.Warn().Err(err).Msg("Cannot build risk model for max-Sharpe optimization")
		return Result{}, err
	}

	bounds := constraints.boundsFor(model.Symbols)
	x, err := o.solve(o.sharpeProblem(model, riskFreeRate, bounds, constraints), len(model.Symbols))
	if err != nil {
		return Result{}, err
	}

	return o.finalize(model, x, bounds, constraints, riskFreeRate), nil
}

// WithRiskConstraints optimizes under a risk ceiling or a return target.
// When neither or both are supplied it falls back to maximum Sharpe.
func (o *Optimizer) WithRiskConstraints(rt domain.ReturnTable, params RiskConstraintParams) (Result, error) {
	model, err := BuildRiskModel(rt)
	if err != nil {
		o.log.Warn().Err(err).Msg("Cannot build risk model for risk-constrained optimization")
		return Result{}, err
	}

	bounds := (*Constraints)(nil).boundsFor(model.Symbols)

	var problem optimize.Problem
	switch {
	case params.MaxRisk != nil && params.TargetReturn == nil:
		problem = o.maxReturnProblem(model, *params.MaxRisk, bounds)
	case params.TargetReturn != nil && params.MaxRisk == nil:
		problem = o.minRiskProblem(model, *params.TargetReturn, bounds)
	default:
		problem = o.sharpeProblem(model, params.RiskFreeRate, bounds, nil)
	}

	x, err := o.solve(problem, len(model.Symbols))
	if err != nil {
		return Result{}, err
	}

	result := o.finalize(model, x, bounds, nil, params.RiskFreeRate)

	if len(params.CurrentWeights) > 0 {
		if snapshot, ok := o.snapshotOf(model, params.CurrentWeights, params.RiskFreeRate); ok {
			result.CurrentPortfolio = &snapshot
			result.Trades = buildTrades(normalizeWeights(params.CurrentWeights), result.Weights, 0, tradeFloor)
		}
	}

	return result, nil
}

// RiskBudget finds weights whose fractional risk contributions match the
// supplied budget (risk parity when the budget is uniform). The budget may be
// keyed by symbol or by sector; sector budgets are split equally across the
// sector's holdings. Budgets that do not sum to a positive value fall back to
// equal contributions.
func (o *Optimizer) RiskBudget(portfolio domain.Portfolio, rt domain.ReturnTable, riskBudget map[string]float64, constraints *Constraints) (Result, error) {
	model, err := BuildRiskModel(rt)
	if err != nil {
		o.log.Warn().Err(err).Msg("Cannot build risk model for risk-budget optimization")
		return Result{}, err
	}

	target := o.resolveBudget(model.Symbols, portfolio, riskBudget)
	bounds := constraints.boundsFor(model.Symbols)
	n := len(model.Symbols)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			w := projectToBounds(x, bounds)
			variance := model.PortfolioVariance(w)
			marginal := model.MarginalRisk(w)

			obj := 0.0
			if variance > 0 {
				for i := 0; i < n; i++ {
					contribution := w[i] * marginal[i] / variance
					diff := contribution - target[i]
					obj += diff * diff
				}
			}

			sum := 0.0
			for _, v := range w {
				sum += v
			}
			obj += penaltyWeight * (sum - 1) * (sum - 1)
			obj += constraints.sectorPenalty(w, model.Symbols, penaltyWeight)
			return obj
		},
	}

	x, err := o.solve(problem, n)
	if err != nil {
		return Result{}, err
	}

	result := o.finalize(model, x, bounds, constraints, 0)

	// Risk contributions as a percentage of total risk.
	full := projectToBounds(x, bounds)
	full = normalizeVector(full)
	variance := model.PortfolioVariance(full)
	if variance > 0 {
		marginal := model.MarginalRisk(full)
		contributions := make(map[string]float64, n)
		for i, symbol := range model.Symbols {
			contributions[symbol] = full[i] * marginal[i] / variance
		}
		result.RiskContributions = contributions
	}

	current := portfolio.Weights()
	if len(current) > 0 {
		result.Trades = buildTrades(current, result.Weights, portfolio.TotalValue(), tradeFloor)
	}

	return result, nil
}

// sharpeProblem builds the negative-Sharpe objective with sum and sector
// penalties.
func (o *Optimizer) sharpeProblem(model RiskModel, riskFreeRate float64, bounds [][2]float64, constraints *Constraints) optimize.Problem {
	n := len(model.Symbols)
	return optimize.Problem{
		Func: func(x []float64) float64 {
			w := projectToBounds(x, bounds)
			ret := model.PortfolioReturn(w)
			risk := model.PortfolioRisk(w)

			obj := -(ret - riskFreeRate) / risk
			obj += sumPenalty(w)
			obj += constraints.sectorPenalty(w, model.Symbols, penaltyWeight)
			return obj
		},
		Grad: func(grad, x []float64) {
			w := projectToBounds(x, bounds)
			ret := model.PortfolioReturn(w)
			risk := model.PortfolioRisk(w)
			marginal := model.MarginalRisk(w)

			for i := 0; i < n; i++ {
				dVariance := 2 * marginal[i]
				grad[i] = -model.ExpectedReturns[i]/risk + (ret-riskFreeRate)*dVariance/(2*risk*risk*risk)
			}
			addSumPenaltyGradient(grad, w)
			constraints.addSectorPenaltyGradient(grad, w, model.Symbols, penaltyWeight)
		},
	}
}

// maxReturnProblem maximizes μ'w subject to sqrt(w'Σw) ≤ maxRisk, the cap
// entering as a one-sided quadratic penalty on variance.
func (o *Optimizer) maxReturnProblem(model RiskModel, maxRisk float64, bounds [][2]float64) optimize.Problem {
	n := len(model.Symbols)
	maxVariance := maxRisk * maxRisk
	return optimize.Problem{
		Func: func(x []float64) float64 {
			w := projectToBounds(x, bounds)
			variance := model.PortfolioVariance(w)

			obj := -model.PortfolioReturn(w)
			if variance > maxVariance {
				obj += penaltyWeight * (variance - maxVariance) * (variance - maxVariance)
			}
			obj += sumPenalty(w)
			return obj
		},
		Grad: func(grad, x []float64) {
			w := projectToBounds(x, bounds)
			variance := model.PortfolioVariance(w)
			marginal := model.MarginalRisk(w)

			for i := 0; i < n; i++ {
				grad[i] = -model.ExpectedReturns[i]
				if variance > maxVariance {
					grad[i] += 2 * penaltyWeight * (variance - maxVariance) * 2 * marginal[i]
				}
			}
			addSumPenaltyGradient(grad, w)
		},
	}
}

// minRiskProblem minimizes w'Σw subject to μ'w = targetReturn.
func (o *Optimizer) minRiskProblem(model RiskModel, targetReturn float64, bounds [][2]float64) optimize.Problem {
	n := len(model.Symbols)
	return optimize.Problem{
		Func: func(x []float64) float64 {
			w := projectToBounds(x, bounds)
			ret := model.PortfolioReturn(w)

			obj := model.PortfolioVariance(w)
			obj += penaltyWeight * (ret - targetReturn) * (ret - targetReturn)
			obj += sumPenalty(w)
			return obj
		},
		Grad: func(grad, x []float64) {
			w := projectToBounds(x, bounds)
			ret := model.PortfolioReturn(w)
			marginal := model.MarginalRisk(w)

			for i := 0; i < n; i++ {
				grad[i] = 2*marginal[i] + 2*penaltyWeight*(ret-targetReturn)*model.ExpectedReturns[i]
			}
			addSumPenaltyGradient(grad, w)
		},
	}
}

// solve minimizes the problem from an equal-weight start, retrying with
// Nelder-Mead when BFGS fails to converge.
func (o *Optimizer) solve(problem optimize.Problem, n int) ([]float64, error) {
	initial := make([]float64, n)
	for i := range initial {
		initial[i] = 1.0 / float64(n)
	}

	result, err := optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.BFGS{})
	if err != nil || !solverConverged(result.Status) {
		result, err = optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.NelderMead{})
		if err != nil {
			o.log.Error().Err(err).Msg("Optimization failed")
			return nil, fmt.Errorf("optimization: %v: %w", err, domain.ErrSolverFailure)
		}
		if !solverConverged(result.Status) {
			o.log.Error().Stringer("status", result.Status).Msg("Optimization did not converge")
			return nil, fmt.Errorf("optimization status %v: %w", result.Status, domain.ErrSolverFailure)
		}
	}

	return result.X, nil
}

// finalize projects, renormalizes, and packages a raw solver solution.
func (o *Optimizer) finalize(model RiskModel, x []float64, bounds [][2]float64, constraints *Constraints, riskFreeRate float64) Result {
	full := normalizeVector(projectToBounds(x, bounds))

	ret := model.PortfolioReturn(full)
	risk := model.PortfolioRisk(full)

	weights := make(map[string]float64)
	for i, symbol := range model.Symbols {
		if full[i] > weightFloor {
			weights[symbol] = full[i]
		}
	}

	result := Result{
		Weights: weights,
		Return:  ret,
		Risk:    risk,
		Sharpe:  (ret - riskFreeRate) / risk,
	}

	if constraints != nil && len(constraints.SectorMap) > 0 {
		sectorWeights := make(map[string]float64)
		for symbol, w := range weights {
			if sector := constraints.SectorMap[symbol]; sector != "" {
				sectorWeights[sector] += w
			}
		}
		result.SectorWeights = sectorWeights
	}

	return result
}

// snapshotOf evaluates a fixed weight map against the risk model, ignoring
// symbols absent from it.
func (o *Optimizer) snapshotOf(model RiskModel, weights map[string]float64, riskFreeRate float64) (Snapshot, bool) {
	normalized := normalizeWeights(weights)
	if len(normalized) == 0 {
		return Snapshot{}, false
	}

	w := make([]float64, len(model.Symbols))
	for i, symbol := range model.Symbols {
		w[i] = normalized[symbol]
	}

	ret := model.PortfolioReturn(w)
	risk := model.PortfolioRisk(w)
	return Snapshot{
		Return: ret,
		Risk:   risk,
		Sharpe: (ret - riskFreeRate) / risk,
	}, true
}

// resolveBudget normalizes the risk budget to per-symbol target fractions
// summing to 1. Sector keys are detected via the portfolio's holdings.
func (o *Optimizer) resolveBudget(symbols []string, portfolio domain.Portfolio, riskBudget map[string]float64) []float64 {
	sectorOf := make(map[string]string, len(portfolio.Holdings))
	for _, h := range portfolio.Holdings {
		sectorOf[h.Symbol] = h.Sector
	}
	sectorSize := make(map[string]int)
	for _, sector := range sectorOf {
		sectorSize[sector]++
	}

	perSymbol := make([]float64, len(symbols))
	for i, symbol := range symbols {
		if v, ok := riskBudget[symbol]; ok {
			perSymbol[i] = v
			continue
		}
		if sector := sectorOf[symbol]; sector != "" {
			if v, ok := riskBudget[sector]; ok && sectorSize[sector] > 0 {
				perSymbol[i] = v / float64(sectorSize[sector])
			}
		}
	}

	sum := 0.0
	for _, v := range perSymbol {
		sum += v
	}
	if sum <= 0 {
		o.log.Warn().Msg("Risk budget sums to zero, falling back to equal contributions")
		for i := range perSymbol {
			perSymbol[i] = 1.0 / float64(len(symbols))
		}
		return perSymbol
	}
	for i := range perSymbol {
		perSymbol[i] /= sum
	}
	return perSymbol
}

// buildTrades lists the weight changes needed to move from current to target,
// dropping differences at or below minDiff and sorting by absolute difference
// descending. Dollar amounts are zero when no portfolio value is known.
func buildTrades(current, target map[string]float64, totalValue, minDiff float64) []Trade {
	seen := make(map[string]bool)
	var trades []Trade

	appendTrade := func(symbol string) {
		if seen[symbol] {
			return
		}
		seen[symbol] = true

		diff := target[symbol] - current[symbol]
		if math.Abs(diff) <= minDiff {
			return
		}
		action := ActionSell
		if diff > 0 {
			action = ActionBuy
		}
		trades = append(trades, Trade{
			Symbol:           symbol,
			Action:           action,
			CurrentWeight:    current[symbol],
			TargetWeight:     target[symbol],
			WeightDifference: diff,
			DollarAmount:     diff * totalValue,
		})
	}

	for symbol := range target {
		appendTrade(symbol)
	}
	for symbol := range current {
		appendTrade(symbol)
	}

	sort.Slice(trades, func(i, j int) bool {
		return math.Abs(trades[i].WeightDifference) > math.Abs(trades[j].WeightDifference)
	})
	return trades
}

func sumPenalty(w []float64) float64 {
	sum := 0.0
	for _, v := range w {
		sum += v
	}
	return penaltyWeight * (sum - 1) * (sum - 1)
}

func addSumPenaltyGradient(grad, w []float64) {
	sum := 0.0
	for _, v := range w {
		sum += v
	}
	for i := range grad {
		grad[i] += 2 * penaltyWeight * (sum - 1)
	}
}

// normalizeVector clamps negatives and rescales to sum to 1.
func normalizeVector(w []float64) []float64 {
	out := make([]float64, len(w))
	sum := 0.0
	for i, v := range w {
		out[i] = math.Max(0, v)
		sum += out[i]
	}
	if sum <= 0 {
		return out
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// normalizeWeights rescales a weight map to sum to 1.
func normalizeWeights(weights map[string]float64) map[string]float64 {
	sum := 0.0
	for _, v := range weights {
		if v > 0 {
			sum += v
		}
	}
	if sum <= 0 {
		return map[string]float64{}
	}
	out := make(map[string]float64, len(weights))
	for symbol, v := range weights {
		if v > 0 {
			out[symbol] = v / sum
		}
	}
	return out
}

func solverConverged(status optimize.Status) bool {
	switch status {
	case optimize.Success, optimize.GradientThreshold, optimize.FunctionConvergence:
		return true
	default:
		return false
	}
}
