// Package attribution decomposes active return versus a benchmark into
// per-sector allocation, selection, and interaction effects
// (Brinson-Fachler).
package attribution

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/compass/internal/domain"
)

// SectorEffect holds the decomposed effects for one sector.
type SectorEffect struct {
	AllocationEffect  float64 `json:"allocation_effect"`
	SelectionEffect   float64 `json:"selection_effect"`
	InteractionEffect float64 `json:"interaction_effect"`
	TotalEffect       float64 `json:"total_effect"`
}

// Result holds per-sector effects plus portfolio-level totals.
type Result struct {
	Sectors           map[string]SectorEffect `json:"sectors"`
	TotalAllocation   float64                 `json:"total_allocation"`
	TotalSelection    float64                 `json:"total_selection"`
	TotalInteraction  float64                 `json:"total_interaction"`
	TotalActiveReturn float64                 `json:"total_active_return"`
}

// sectorStats is a sector's value weight and value-weighted return within one
// portfolio.
type sectorStats struct {
	weight float64
	ret    float64
}

// Analyzer performs Brinson-Fachler attribution.
type Analyzer struct {
	log zerolog.Logger
}

// NewAnalyzer creates an attribution analyzer.
func NewAnalyzer(log zerolog.Logger) *Analyzer {
	return &Analyzer{log: log.With().Str("component", "attribution").Logger()}
}

// Analyze decomposes the active return of portfolio over benchmark for the
// single period described by returns (per-symbol fractional return, default 0
// for symbols missing from the lookup). Sectors present in the benchmark but
// absent from the portfolio are skipped, matching the benchmark-relative
// decomposition:
//
//	allocation  = (w_p - w_b) * (r_b_sector - r_b_total)
//	selection   = w_b * (r_p_sector - r_b_sector)
//	interaction = (w_p - w_b) * (r_p_sector - r_b_sector)
func (a *Analyzer) Analyze(portfolio, benchmark domain.Portfolio, returns map[string]float64) (Result, error) {
	if len(portfolio.Holdings) == 0 || len(benchmark.Holdings) == 0 || len(returns) == 0 {
		a.log.Warn().
			Int("portfolio_holdings", len(portfolio.Holdings)).
			Int("benchmark_holdings", len(benchmark.Holdings)).
			Int("return_lookups", len(returns)).
			Msg("Attribution requested with empty input")
		return Result{}, fmt.Errorf("empty attribution input: %w", domain.ErrInsufficientData)
	}

	portfolioSectors, portfolioTotal := sectorBreakdown(portfolio, returns)
	benchmarkSectors, benchmarkTotal := sectorBreakdown(benchmark, returns)
	if len(portfolioSectors) == 0 || len(benchmarkSectors) == 0 {
		return Result{}, fmt.Errorf("portfolio value not positive: %w", domain.ErrInsufficientData)
	}

	result := Result{
		Sectors:           make(map[string]SectorEffect),
		TotalActiveReturn: portfolioTotal - benchmarkTotal,
	}

	for sector, bench := range benchmarkSectors {
		port, held := portfolioSectors[sector]
		if !held {
			continue
		}

		allocation := (port.weight - bench.weight) * (bench.ret - benchmarkTotal)
		selection := bench.weight * (port.ret - bench.ret)
		interaction := (port.weight - bench.weight) * (port.ret - bench.ret)

		result.Sectors[sector] = SectorEffect{
			AllocationEffect:  allocation,
			SelectionEffect:   selection,
			InteractionEffect: interaction,
			TotalEffect:       allocation + selection + interaction,
		}

		result.TotalAllocation += allocation
		result.TotalSelection += selection
		result.TotalInteraction += interaction
	}

	return result, nil
}

// sectorBreakdown computes per-sector weight and return, plus the
// value-weighted total return of the whole portfolio.
func sectorBreakdown(p domain.Portfolio, returns map[string]float64) (map[string]sectorStats, float64) {
	total := p.TotalValue()
	if total <= 0 {
		return nil, 0
	}

	type accumulator struct {
		value         float64
		weightedValue float64 // Σ value_i * return_i
	}
	sectors := make(map[string]accumulator)
	totalReturn := 0.0

	for _, h := range p.Holdings {
		r := returns[h.Symbol]
		acc := sectors[h.Sector]
		acc.value += h.CurrentValue
		acc.weightedValue += h.CurrentValue * r
		sectors[h.Sector] = acc
		totalReturn += h.CurrentValue / total * r
	}

	stats := make(map[string]sectorStats, len(sectors))
	for sector, acc := range sectors {
		s := sectorStats{weight: acc.value / total}
		if acc.value > 0 {
			s.ret = acc.weightedValue / acc.value
		}
		stats[sector] = s
	}
	return stats, totalReturn
}
