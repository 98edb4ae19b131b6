package factors

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/optimize"

	"github.com/aristath/compass/internal/domain"
)

const (
	// MinStylePeriods is the minimum overlap between the portfolio series and
	// the factor history for a meaningful regression.
	MinStylePeriods = 12

	styleHistoryMonths = 36
	styleWeightFloor   = 0.01 // drop insignificant exposures below 1%
	styleSeed          = 42
)

// factorParams drives the synthetic factor-return history: monthly drift and
// volatility per style factor.
var factorParams = map[string]struct{ drift, vol float64 }{
	FactorSize:       {0.002, 0.030},
	FactorValue:      {0.004, 0.025},
	FactorMomentum:   {0.006, 0.040},
	FactorQuality:    {0.005, 0.020},
	FactorVolatility: {-0.001, 0.035},
	FactorYield:      {0.003, 0.015},
	FactorGrowth:     {0.007, 0.035},
}

// StyleAnalyzer estimates a portfolio's effective style weights by regressing
// its return series on historical factor returns under long-only,
// fully-invested constraints.
type StyleAnalyzer struct {
	log zerolog.Logger

	once    sync.Once
	history domain.ReturnTable
}

// NewStyleAnalyzer creates a style analyzer. The factor-return history is
// generated lazily with a fixed seed, so repeated analyses within one process
// see identical data.
func NewStyleAnalyzer(log zerolog.Logger) *StyleAnalyzer {
	return &StyleAnalyzer{log: log.With().Str("component", "style_analysis").Logger()}
}

// NewStyleAnalyzerWithHistory creates a style analyzer over a caller-supplied
// factor-return history. Used in tests and by callers with a real factor
// data source.
func NewStyleAnalyzerWithHistory(history domain.ReturnTable, log zerolog.Logger) *StyleAnalyzer {
	sa := NewStyleAnalyzer(log)
	sa.once.Do(func() {})
	sa.history = history
	return sa
}

// FactorHistory returns the factor-return table used by the analyzer,
// generating it on first use.
func (sa *StyleAnalyzer) FactorHistory() domain.ReturnTable {
	sa.once.Do(func() {
		sa.history = generateFactorHistory(styleHistoryMonths, styleSeed)
	})
	return sa.history
}

// Analyze solves the constrained style regression
//
//	min_w Σ(portfolio_return_t − Σ_f w_f · factor_return_{f,t})²
//	s.t. Σw_f = 1, w_f ≥ 0
//
// over the periods where returnsHistory overlaps the factor history. Factors
// with a resulting weight under 1% are dropped from the result.
func (sa *StyleAnalyzer) Analyze(returnsHistory domain.ReturnTable) (map[string]float64, error) {
	portfolioReturns, ok := returnsHistory.Column(domain.ColPortfolioReturn)
	if !ok {
		sa.log.Warn().Msg("Style analysis requested without portfolio_return column")
		return nil, fmt.Errorf("missing %s column: %w", domain.ColPortfolioReturn, domain.ErrDegenerateInput)
	}
	if _, err := returnsHistory.ParseDates(); err != nil {
		sa.log.Warn().Err(err).Msg("Style analysis date index not parseable")
		return nil, fmt.Errorf("unparseable date index: %w", domain.ErrDegenerateInput)
	}

	history := sa.FactorHistory()

	// Intersect the two date indexes.
	historyIndex := make(map[string]int, history.Len())
	for i, d := range history.Dates {
		historyIndex[d] = i
	}

	var y []float64
	var rows []int
	for i, d := range returnsHistory.Dates {
		if j, ok := historyIndex[d]; ok {
			y = append(y, portfolioReturns[i])
			rows = append(rows, j)
		}
	}

	if len(y) < MinStylePeriods {
		sa.log.Warn().
			Int("overlap_periods", len(y)).
			Int("required", MinStylePeriods).
			Msg("Insufficient overlap for style analysis")
		return nil, fmt.Errorf("%d overlapping periods, need %d: %w",
			len(y), MinStylePeriods, domain.ErrInsufficientData)
	}

	// Design matrix: one column per factor at the overlapping periods.
	n := len(CanonicalFactors)
	obs := len(y)
	design := make([][]float64, obs)
	for t := range design {
		design[t] = make([]float64, n)
		for f, factor := range CanonicalFactors {
			design[t][f] = history.Data[factor][rows[t]]
		}
	}

	weights, err := sa.solveConstrained(design, y)
	if err != nil {
		sa.log.Error().Err(err).Msg("Style regression did not converge")
		return nil, err
	}

	result := make(map[string]float64)
	for f, factor := range CanonicalFactors {
		if weights[f] >= styleWeightFloor {
			result[factor] = weights[f]
		}
	}
	return result, nil
}

// solveConstrained minimizes the squared residuals under sum-to-one and
// non-negativity constraints via bound projection plus a sum penalty.
func (sa *StyleAnalyzer) solveConstrained(design [][]float64, y []float64) ([]float64, error) {
	n := len(CanonicalFactors)
	penaltyWeight := 1000.0

	project := func(x []float64) []float64 {
		proj := make([]float64, len(x))
		for i := range x {
			proj[i] = math.Max(0, math.Min(1, x[i]))
		}
		return proj
	}

	residuals := func(w []float64) []float64 {
		res := make([]float64, len(y))
		for t := range y {
			fitted := 0.0
			for f := 0; f < n; f++ {
				fitted += design[t][f] * w[f]
			}
			res[t] = fitted - y[t]
		}
		return res
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			w := project(x)
			obj := 0.0
			for _, r := range residuals(w) {
				obj += r * r
			}
			sum := 0.0
			for _, v := range w {
				sum += v
			}
			obj += penaltyWeight * (sum - 1) * (sum - 1)
			return obj
		},
		Grad: func(grad, x []float64) {
			w := project(x)
			res := residuals(w)
			sum := 0.0
			for _, v := range w {
				sum += v
			}
			for f := 0; f < n; f++ {
				g := 0.0
				for t := range res {
					g += 2 * res[t] * design[t][f]
				}
				grad[f] = g + 2*penaltyWeight*(sum-1)
			}
		},
	}

	initial := make([]float64, n)
	for i := range initial {
		initial[i] = 1.0 / float64(n)
	}

	result, err := optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.BFGS{})
	if err != nil || !converged(result.Status) {
		result, err = optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.NelderMead{})
		if err != nil {
			return nil, fmt.Errorf("style regression: %v: %w", err, domain.ErrSolverFailure)
		}
		if !converged(result.Status) {
			return nil, fmt.Errorf("style regression status %v: %w", result.Status, domain.ErrSolverFailure)
		}
	}

	// Project and renormalize the final solution.
	weights := project(result.X)
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 {
		return nil, fmt.Errorf("style regression collapsed to zero weights: %w", domain.ErrSolverFailure)
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights, nil
}

func converged(status optimize.Status) bool {
	switch status {
	case optimize.Success, optimize.GradientThreshold, optimize.FunctionConvergence:
		return true
	default:
		return false
	}
}

// generateFactorHistory builds the reproducible synthetic monthly
// factor-return table used when no real factor data source is wired in.
// Dates are month-end, most recent month last.
func generateFactorHistory(months int, seed int64) domain.ReturnTable {
	rng := rand.New(rand.NewSource(seed))

	now := time.Now().UTC()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	dates := make([]string, months)
	for i := 0; i < months; i++ {
		// End of month, oldest first.
		monthStart := firstOfMonth.AddDate(0, i-months, 0)
		monthEnd := monthStart.AddDate(0, 1, -1)
		dates[i] = monthEnd.Format(domain.DateLayout)
	}

	data := make(map[string][]float64, len(CanonicalFactors))
	for _, factor := range CanonicalFactors {
		params := factorParams[factor]
		series := make([]float64, months)
		for i := range series {
			series[i] = params.drift + params.vol*rng.NormFloat64()
		}
		data[factor] = series
	}

	return domain.ReturnTable{Dates: dates, Data: data}
}
