package optimization

import (
	"math/rand"
	"sort"

	"github.com/rs/zerolog"

	"github.com/aristath/compass/internal/domain"
)

const (
	// DefaultFrontierSamples is the number of random portfolios sampled per
	// frontier request.
	DefaultFrontierSamples = 50

	frontierSubsetSize = 10
	frontierSeed       = 42
)

// FrontierGenerator produces efficient-frontier portfolios by Monte Carlo
// sampling of the weight simplex. This is a statistical approximation of the
// true frontier rather than a QP boundary trace; the sampled max-Sharpe and
// min-volatility portfolios converge on the exact ones as the sample count
// grows.
type FrontierGenerator struct {
	samples int
	log     zerolog.Logger
}

// NewFrontierGenerator creates a frontier generator. samples is the default
// portfolio count for requests that do not specify one; non-positive values
// fall back to DefaultFrontierSamples.
func NewFrontierGenerator(samples int, log zerolog.Logger) *FrontierGenerator {
	if samples <= 0 {
		samples = DefaultFrontierSamples
	}
	return &FrontierGenerator{
		samples: samples,
		log:     log.With().Str("component", "frontier").Logger(),
	}
}

// Generate samples numPortfolios random fully-invested long-only portfolios,
// tags the minimum-volatility and maximum-Sharpe samples, and returns them
// together with an evenly spaced subset of the remaining samples, sorted
// ascending by risk. The sampler is seeded, so identical inputs produce
// identical frontiers.
func (g *FrontierGenerator) Generate(rt domain.ReturnTable, riskFreeRate float64, numPortfolios int) ([]FrontierPoint, error) {
	model, err := BuildRiskModel(rt)
	if err != nil {
		g.log.Warn().Err(err).Msg("Cannot build risk model for frontier")
		return nil, err
	}

	if numPortfolios <= 0 {
		numPortfolios = g.samples
	}

	rng := rand.New(rand.NewSource(frontierSeed))
	samples := make([]FrontierPoint, numPortfolios)
	minVolIdx, maxSharpeIdx := 0, 0

	for s := 0; s < numPortfolios; s++ {
		w := randomWeights(len(model.Symbols), rng)
		ret := model.PortfolioReturn(w)
		risk := model.PortfolioRisk(w)

		samples[s] = FrontierPoint{
			Return:  ret,
			Risk:    risk,
			Sharpe:  (ret - riskFreeRate) / risk,
			Weights: weightsMap(model.Symbols, w),
			Type:    PortfolioTypeFrontier,
		}

		if samples[s].Risk < samples[minVolIdx].Risk {
			minVolIdx = s
		}
		if samples[s].Sharpe > samples[maxSharpeIdx].Sharpe {
			maxSharpeIdx = s
		}
	}

	samples[minVolIdx].Type = PortfolioTypeMinVolatility
	samples[maxSharpeIdx].Type = PortfolioTypeMaxSharpe

	// Evenly spaced subset of the untagged samples, by ascending risk.
	rest := make([]FrontierPoint, 0, numPortfolios)
	for i, p := range samples {
		if i != minVolIdx && i != maxSharpeIdx {
			rest = append(rest, p)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].Risk < rest[j].Risk })

	points := []FrontierPoint{samples[minVolIdx]}
	if maxSharpeIdx != minVolIdx {
		points = append(points, samples[maxSharpeIdx])
	}
	if len(rest) > 0 {
		step := len(rest) / frontierSubsetSize
		if step < 1 {
			step = 1
		}
		for i := 0; i < len(rest); i += step {
			points = append(points, rest[i])
		}
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Risk < points[j].Risk })

	g.log.Debug().
		Int("sampled", numPortfolios).
		Int("returned", len(points)).
		Msg("Generated efficient frontier")

	return points, nil
}

// randomWeights draws a uniform vector and normalizes it to sum to 1.
func randomWeights(n int, rng *rand.Rand) []float64 {
	w := make([]float64, n)
	sum := 0.0
	for i := range w {
		w[i] = rng.Float64()
		sum += w[i]
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}

func weightsMap(symbols []string, w []float64) map[string]float64 {
	m := make(map[string]float64, len(symbols))
	for i, symbol := range symbols {
		m[symbol] = w[i]
	}
	return m
}
