package factors

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/compass/internal/domain"
)

// LoadingsSource resolves per-symbol factor loadings.
type LoadingsSource interface {
	Lookup(symbol string) Loadings
}

// Estimator maps a portfolio's holdings to weighted exposures on the
// canonical style factors.
type Estimator struct {
	loadings LoadingsSource
	log      zerolog.Logger
}

// NewEstimator creates a factor exposure estimator.
func NewEstimator(loadings LoadingsSource, log zerolog.Logger) *Estimator {
	return &Estimator{
		loadings: loadings,
		log:      log.With().Str("component", "factor_exposures").Logger(),
	}
}

// Exposures computes value-weighted factor exposures for the portfolio.
// Exposures are undefined for an empty portfolio or one with non-positive
// total value; that case returns ErrInsufficientData.
func (e *Estimator) Exposures(p domain.Portfolio) (map[string]float64, error) {
	if len(p.Holdings) == 0 {
		e.log.Warn().Msg("Factor exposures requested for empty portfolio")
		return nil, fmt.Errorf("no holdings: %w", domain.ErrInsufficientData)
	}

	total := p.TotalValue()
	if total <= 0 {
		e.log.Warn().Float64("total_value", total).Msg("Portfolio total value not positive")
		return nil, fmt.Errorf("total value %.2f: %w", total, domain.ErrInsufficientData)
	}

	exposures := make(map[string]float64, len(CanonicalFactors))
	for _, factor := range CanonicalFactors {
		exposures[factor] = 0
	}

	for _, h := range p.Holdings {
		weight := h.CurrentValue / total
		loadings := e.loadings.Lookup(h.Symbol)
		for _, factor := range CanonicalFactors {
			exposures[factor] += weight * loadings[factor]
		}
	}

	return exposures, nil
}
