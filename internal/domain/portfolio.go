// Package domain holds the shared data model for the analytics modules.
package domain

// Holding is a single position supplied by the caller.
type Holding struct {
	Symbol       string  `json:"symbol"`
	Sector       string  `json:"sector"`
	CurrentValue float64 `json:"current_value"`
}

// Portfolio is an ordered collection of holdings. Symbols are expected to be
// unique within one portfolio.
type Portfolio struct {
	Holdings []Holding `json:"holdings"`
}

// TotalValue returns the sum of current values across holdings.
func (p Portfolio) TotalValue() float64 {
	total := 0.0
	for _, h := range p.Holdings {
		total += h.CurrentValue
	}
	return total
}

// Weights returns value weights per symbol. Returns an empty map when the
// portfolio is empty or its total value is not positive, since weights are
// undefined in that case.
func (p Portfolio) Weights() map[string]float64 {
	weights := make(map[string]float64)
	total := p.TotalValue()
	if total <= 0 {
		return weights
	}
	for _, h := range p.Holdings {
		weights[h.Symbol] = h.CurrentValue / total
	}
	return weights
}

// Symbols returns holding symbols in portfolio order.
func (p Portfolio) Symbols() []string {
	symbols := make([]string, 0, len(p.Holdings))
	for _, h := range p.Holdings {
		symbols = append(symbols, h.Symbol)
	}
	return symbols
}

// SectorWeights aggregates value weights by sector. Empty when weights are
// undefined.
func (p Portfolio) SectorWeights() map[string]float64 {
	sectors := make(map[string]float64)
	total := p.TotalValue()
	if total <= 0 {
		return sectors
	}
	for _, h := range p.Holdings {
		sectors[h.Sector] += h.CurrentValue / total
	}
	return sectors
}
