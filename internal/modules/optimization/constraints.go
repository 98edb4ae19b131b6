package optimization

import "math"

// Constraints describes the feasible region for an optimization: per-asset
// weight bounds plus aggregate sector bounds. A nil Constraints means
// long-only weights in [0, 1] with no sector limits.
type Constraints struct {
	// Bounds holds per-symbol [min, max] weight bounds. Symbols without an
	// entry default to [0, 1].
	Bounds map[string][2]float64 `json:"bounds,omitempty"`

	// SectorMap assigns each symbol to a sector for the aggregate bounds.
	SectorMap map[string]string `json:"sector_map,omitempty"`

	// SectorMin and SectorMax bound the aggregate weight per sector.
	SectorMin map[string]float64 `json:"sector_min,omitempty"`
	SectorMax map[string]float64 `json:"sector_max,omitempty"`
}

// boundsFor expands the per-symbol bounds into a slice aligned with symbols.
func (c *Constraints) boundsFor(symbols []string) [][2]float64 {
	bounds := make([][2]float64, len(symbols))
	for i, symbol := range symbols {
		bounds[i] = [2]float64{0, 1}
		if c != nil && c.Bounds != nil {
			if b, ok := c.Bounds[symbol]; ok {
				bounds[i] = b
			}
		}
	}
	return bounds
}

// hasSectorLimits reports whether aggregate sector bounds are configured.
func (c *Constraints) hasSectorLimits() bool {
	return c != nil && len(c.SectorMap) > 0 && (len(c.SectorMin) > 0 || len(c.SectorMax) > 0)
}

// sectorWeightsOf aggregates a weight vector by sector.
func (c *Constraints) sectorWeightsOf(x []float64, symbols []string) map[string]float64 {
	sectorWeights := make(map[string]float64)
	for i, symbol := range symbols {
		if sector := c.SectorMap[symbol]; sector != "" {
			sectorWeights[sector] += x[i]
		}
	}
	return sectorWeights
}

// sectorPenalty returns the quadratic penalty for sector bound violations.
func (c *Constraints) sectorPenalty(x []float64, symbols []string, penaltyWeight float64) float64 {
	if !c.hasSectorLimits() {
		return 0
	}

	sectorWeights := c.sectorWeightsOf(x, symbols)
	var penalty float64
	for sector, lower := range c.SectorMin {
		if weight := sectorWeights[sector]; weight < lower {
			penalty += penaltyWeight * (lower - weight) * (lower - weight)
		}
	}
	for sector, upper := range c.SectorMax {
		if weight := sectorWeights[sector]; weight > upper {
			penalty += penaltyWeight * (weight - upper) * (weight - upper)
		}
	}
	return penalty
}

// addSectorPenaltyGradient accumulates the gradient of sectorPenalty.
func (c *Constraints) addSectorPenaltyGradient(grad, x []float64, symbols []string, penaltyWeight float64) {
	if !c.hasSectorLimits() {
		return
	}

	sectorWeights := c.sectorWeightsOf(x, symbols)
	for sector, lower := range c.SectorMin {
		if weight := sectorWeights[sector]; weight < lower {
			d := 2 * penaltyWeight * (lower - weight)
			for i, symbol := range symbols {
				if c.SectorMap[symbol] == sector {
					grad[i] -= d
				}
			}
		}
	}
	for sector, upper := range c.SectorMax {
		if weight := sectorWeights[sector]; weight > upper {
			d := 2 * penaltyWeight * (weight - upper)
			for i, symbol := range symbols {
				if c.SectorMap[symbol] == sector {
					grad[i] += d
				}
			}
		}
	}
}

// projectToBounds clamps each weight into its bounds.
func projectToBounds(x []float64, bounds [][2]float64) []float64 {
	proj := make([]float64, len(x))
	for i := range x {
		proj[i] = math.Max(bounds[i][0], math.Min(bounds[i][1], x[i]))
	}
	return proj
}
