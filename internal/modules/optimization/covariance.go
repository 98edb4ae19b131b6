package optimization

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/aristath/compass/internal/domain"
)

// RiskModel holds the per-asset expected returns and covariance matrix
// estimated from a return table. Expected returns are period means; the
// covariance is the shrunk sample covariance at the same frequency.
type RiskModel struct {
	Symbols         []string
	ExpectedReturns []float64
	Covariance      [][]float64
}

// BuildRiskModel estimates expected returns and a Ledoit-Wolf-shrunk
// covariance matrix from the asset columns of the return table. Shrinkage
// towards the constant-correlation target keeps near-singular sample
// matrices usable; matrices with non-finite entries are rejected as
// degenerate input.
func BuildRiskModel(rt domain.ReturnTable) (RiskModel, error) {
	if rt.IsEmpty() {
		return RiskModel{}, fmt.Errorf("empty return table: %w", domain.ErrInsufficientData)
	}

	symbols := rt.AssetSymbols()
	if len(symbols) == 0 {
		return RiskModel{}, fmt.Errorf("no asset columns in return table: %w", domain.ErrInsufficientData)
	}
	if rt.Len() < 2 {
		return RiskModel{}, fmt.Errorf("need at least 2 observations, got %d: %w", rt.Len(), domain.ErrInsufficientData)
	}

	mu := make([]float64, len(symbols))
	for i, symbol := range symbols {
		col, ok := rt.Column(symbol)
		if !ok {
			return RiskModel{}, fmt.Errorf("column %s has wrong length: %w", symbol, domain.ErrDegenerateInput)
		}
		mu[i] = stat.Mean(col, nil)
	}

	sampleCov, err := sampleCovariance(rt, symbols)
	if err != nil {
		return RiskModel{}, err
	}
	cov := applyShrinkage(sampleCov)

	for i := range cov {
		if math.IsNaN(mu[i]) || math.IsInf(mu[i], 0) {
			return RiskModel{}, fmt.Errorf("non-finite expected return for %s: %w", symbols[i], domain.ErrDegenerateInput)
		}
		for j := range cov[i] {
			if math.IsNaN(cov[i][j]) || math.IsInf(cov[i][j], 0) {
				return RiskModel{}, fmt.Errorf("non-finite covariance entry (%d,%d): %w", i, j, domain.ErrDegenerateInput)
			}
		}
	}

	return RiskModel{Symbols: symbols, ExpectedReturns: mu, Covariance: cov}, nil
}

// PortfolioReturn computes μ'w.
func (m RiskModel) PortfolioReturn(w []float64) float64 {
	ret := 0.0
	for i := range w {
		ret += m.ExpectedReturns[i] * w[i]
	}
	return ret
}

// PortfolioVariance computes w'Σw.
func (m RiskModel) PortfolioVariance(w []float64) float64 {
	variance := 0.0
	for i := range w {
		for j := range w {
			variance += w[i] * w[j] * m.Covariance[i][j]
		}
	}
	return variance
}

// PortfolioRisk computes sqrt(w'Σw), floored at a small epsilon to guard
// divisions.
func (m RiskModel) PortfolioRisk(w []float64) float64 {
	return math.Sqrt(math.Max(m.PortfolioVariance(w), 1e-12))
}

// MarginalRisk computes (Σw)_i for each asset.
func (m RiskModel) MarginalRisk(w []float64) []float64 {
	marginal := make([]float64, len(w))
	for i := range w {
		for j := range w {
			marginal[i] += m.Covariance[i][j] * w[j]
		}
	}
	return marginal
}

// sampleCovariance calculates the sample covariance matrix over the asset
// columns.
func sampleCovariance(rt domain.ReturnTable, symbols []string) ([][]float64, error) {
	n := len(symbols)
	columns := make([][]float64, n)
	for i, symbol := range symbols {
		col, ok := rt.Column(symbol)
		if !ok {
			return nil, fmt.Errorf("column %s has wrong length: %w", symbol, domain.ErrDegenerateInput)
		}
		columns[i] = col
	}

	cov := make([][]float64, n)
	for i := range cov {
		cov[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := stat.Covariance(columns[i], columns[j], nil)
			cov[i][j] = v
			cov[j][i] = v
		}
	}
	return cov, nil
}

// applyShrinkage shrinks the sample covariance towards the
// constant-correlation target:
//
//	Σ_shrunk = (1-δ)·Σ_sample + δ·Σ_target
//
// with the intensity δ estimated from the dispersion of the sample entries
// around the target, capped at 0.5.
func applyShrinkage(sampleCov [][]float64) [][]float64 {
	n := len(sampleCov)
	if n < 2 {
		return sampleCov
	}

	var avgVar, avgCov float64
	for i := 0; i < n; i++ {
		avgVar += sampleCov[i][i]
		for j := 0; j < n; j++ {
			if i != j {
				avgCov += sampleCov[i][j]
			}
		}
	}
	avgVar /= float64(n)
	avgCov /= float64(n * (n - 1))

	target := func(i, j int) float64 {
		if i == j {
			return avgVar
		}
		return avgCov
	}

	shrinkage := 0.2
	if avgVar > 0 {
		var sumSqDiff, sumSample, sumSqSample float64
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				diff := sampleCov[i][j] - target(i, j)
				sumSqDiff += diff * diff
				sumSample += sampleCov[i][j]
				sumSqSample += sampleCov[i][j] * sampleCov[i][j]
			}
		}
		count := float64(n * n)
		meanSqDiff := sumSqDiff / count
		meanSample := sumSample / count
		varSample := sumSqSample/count - meanSample*meanSample
		if varSample > 0 && meanSqDiff > 0 {
			shrinkage = math.Min(0.5, math.Max(0, varSample/(varSample+meanSqDiff)))
		}
	}

	shrunk := make([][]float64, n)
	for i := 0; i < n; i++ {
		shrunk[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			shrunk[i][j] = (1-shrinkage)*sampleCov[i][j] + shrinkage*target(i, j)
		}
	}
	return shrunk
}
