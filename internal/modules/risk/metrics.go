// Package risk computes distributional and benchmark-relative risk
// statistics for a portfolio return series.
package risk

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/compass/internal/domain"
	"github.com/aristath/compass/pkg/formulas"
)

// DefaultRiskFreeRate is the annual risk-free rate assumed when the caller
// does not supply one.
const DefaultRiskFreeRate = 0.03

const confidenceLevel = 0.95

// Metrics holds the computed risk statistics. Benchmark-relative fields are
// present only when the return table carries a benchmark_return column.
type Metrics struct {
	MeanReturn        float64 `json:"mean_return"`
	StdDeviation      float64 `json:"std_deviation"`
	SharpeRatio       float64 `json:"sharpe_ratio"`
	SortinoRatio      float64 `json:"sortino_ratio"`
	MaxDrawdown       float64 `json:"max_drawdown"`
	VaR95             float64 `json:"var_95"`
	CVaR95            float64 `json:"cvar_95"`
	DownsideDeviation float64 `json:"downside_deviation"`
	PeriodsPerYear    int     `json:"periods_per_year"`

	Beta             *float64 `json:"beta,omitempty"`
	TrackingError    *float64 `json:"tracking_error,omitempty"`
	InformationRatio *float64 `json:"information_ratio,omitempty"`
	TreynorRatio     *float64 `json:"treynor_ratio,omitempty"`
}

// Calculator computes risk metrics from return tables.
type Calculator struct {
	log zerolog.Logger
}

// NewCalculator creates a risk metrics calculator.
func NewCalculator(log zerolog.Logger) *Calculator {
	return &Calculator{log: log.With().Str("component", "risk_metrics").Logger()}
}

// Metrics computes the full metric set over the portfolio_return column. The
// annual risk-free rate is de-annualized compound to the observed frequency
// before entering the Sharpe, Sortino, and Treynor ratios.
func (c *Calculator) Metrics(returnsHistory domain.ReturnTable, annualRiskFree float64) (Metrics, error) {
	if returnsHistory.IsEmpty() {
		c.log.Warn().Msg("Risk metrics requested for empty return table")
		return Metrics{}, fmt.Errorf("empty return table: %w", domain.ErrInsufficientData)
	}

	returns, ok := returnsHistory.Column(domain.ColPortfolioReturn)
	if !ok {
		c.log.Warn().Msg("Return table missing portfolio_return column")
		return Metrics{}, fmt.Errorf("missing %s column: %w", domain.ColPortfolioReturn, domain.ErrDegenerateInput)
	}

	periodsPerYear := returnsHistory.PeriodsPerYear()
	periodRF := formulas.PeriodicRiskFree(annualRiskFree, periodsPerYear)

	m := Metrics{
		MeanReturn:        formulas.Mean(returns),
		StdDeviation:      formulas.StdDev(returns),
		SharpeRatio:       formulas.SharpeRatio(returns, periodRF),
		SortinoRatio:      formulas.SortinoRatio(returns, periodRF),
		MaxDrawdown:       formulas.MaxDrawdown(returns),
		VaR95:             formulas.ValueAtRisk(returns, confidenceLevel),
		CVaR95:            formulas.ConditionalVaR(returns, confidenceLevel),
		DownsideDeviation: formulas.DownsideDeviation(returns),
		PeriodsPerYear:    periodsPerYear,
	}

	if benchmark, ok := returnsHistory.Column(domain.ColBenchmarkReturn); ok {
		c.addBenchmarkMetrics(&m, returns, benchmark, periodRF)
	}

	return m, nil
}

// addBenchmarkMetrics fills the benchmark-relative fields. Each denominator
// is guarded; a metric whose denominator is zero is reported as 0 rather
// than NaN.
func (c *Calculator) addBenchmarkMetrics(m *Metrics, returns, benchmark []float64, periodRF float64) {
	benchVariance := formulas.Variance(benchmark)

	beta := 0.0
	if benchVariance > 0 {
		beta = formulas.Covariance(returns, benchmark) / benchVariance
	}

	active := make([]float64, len(returns))
	for i := range returns {
		active[i] = returns[i] - benchmark[i]
	}
	trackingError := formulas.StdDev(active)

	informationRatio := 0.0
	if trackingError > 0 {
		informationRatio = (formulas.Mean(returns) - formulas.Mean(benchmark)) / trackingError
	}

	treynor := 0.0
	if beta != 0 {
		treynor = (formulas.Mean(returns) - periodRF) / beta
	}

	m.Beta = &beta
	m.TrackingError = &trackingError
	m.InformationRatio = &informationRatio
	m.TreynorRatio = &treynor
}
