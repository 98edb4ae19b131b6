package factors

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"

	"github.com/aristath/compass/internal/modules/history"
	"github.com/aristath/compass/pkg/formulas"
)

const (
	momentumPeriodDays = 126 // half a trading year
	volBaselineAnnual  = 0.20
	loadingMin         = -1.5
	loadingMax         = 1.5
)

// Builder derives returns-based factor loadings (momentum, volatility) from
// price history and persists them. Fundamental factors (value, quality,
// yield, growth) come from the upstream data service and are left untouched.
type Builder struct {
	history      *history.Service
	repo         *LoadingsRepository
	lookbackDays int
	log          zerolog.Logger
}

// NewBuilder creates a loadings builder reading lookbackDays of price
// history. Non-positive values fall back to one trading year.
func NewBuilder(historyService *history.Service, repo *LoadingsRepository, lookbackDays int, log zerolog.Logger) *Builder {
	if lookbackDays <= 0 {
		lookbackDays = history.DefaultLookbackDays
	}
	return &Builder{
		history:      historyService,
		repo:         repo,
		lookbackDays: lookbackDays,
		log:          log.With().Str("component", "loadings_builder").Logger(),
	}
}

// RebuildLoadings recomputes momentum and volatility loadings for the given
// symbols from one year of price history.
func (b *Builder) RebuildLoadings(symbols []string) error {
	if len(symbols) == 0 {
		return nil
	}

	prices, err := b.history.PriceHistory(symbols, b.lookbackDays)
	if err != nil {
		return fmt.Errorf("failed to fetch price history: %w", err)
	}

	updated := 0
	for _, symbol := range symbols {
		series, ok := prices.Data[symbol]
		if !ok || len(series) <= momentumPeriodDays {
			b.log.Debug().Str("symbol", symbol).Msg("Not enough history for loadings")
			continue
		}

		clean := dropNaN(series)
		if len(clean) <= momentumPeriodDays {
			continue
		}

		loadings := Loadings{
			FactorMomentum:   momentumLoading(clean),
			FactorVolatility: volatilityLoading(clean),
		}
		if err := b.repo.Store(symbol, loadings); err != nil {
			return err
		}
		updated++
	}

	b.log.Info().Int("num_symbols", updated).Msg("Rebuilt returns-based factor loadings")
	return nil
}

// momentumLoading maps the half-year rate of change onto a loading. A 25%
// move maps to a loading of 1.0.
func momentumLoading(prices []float64) float64 {
	roc := talib.Roc(prices, momentumPeriodDays)
	last := roc[len(roc)-1]
	if math.IsNaN(last) {
		return 0
	}
	return clampLoading(last / 100 / 0.25)
}

// volatilityLoading maps annualized volatility relative to a 20% baseline
// onto a loading. At the baseline the loading is 0.
func volatilityLoading(prices []float64) float64 {
	returns := formulas.CalculateReturns(prices)
	annVol := formulas.AnnualizedVolatility(returns, 252)
	return clampLoading((annVol - volBaselineAnnual) / volBaselineAnnual)
}

func clampLoading(v float64) float64 {
	return math.Max(loadingMin, math.Min(loadingMax, v))
}

func dropNaN(series []float64) []float64 {
	out := make([]float64, 0, len(series))
	for _, v := range series {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// RefreshJob adapts the builder to the scheduler's Job interface.
type RefreshJob struct {
	builder *Builder
	symbols func() []string
}

// NewRefreshJob creates the daily loadings refresh job. symbols is evaluated
// at run time so newly tracked assets are picked up.
func NewRefreshJob(builder *Builder, symbols func() []string) *RefreshJob {
	return &RefreshJob{builder: builder, symbols: symbols}
}

// Name implements scheduler.Job.
func (j *RefreshJob) Name() string { return "factor_loadings_refresh" }

// Run implements scheduler.Job.
func (j *RefreshJob) Run() error {
	return j.builder.RebuildLoadings(j.symbols())
}
