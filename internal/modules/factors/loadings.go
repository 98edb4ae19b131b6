// Package factors estimates a portfolio's style-factor profile, both from a
// per-asset loadings table and from returns-based style regression.
package factors

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// The canonical style factors.
const (
	FactorSize       = "size"
	FactorValue      = "value"
	FactorMomentum   = "momentum"
	FactorQuality    = "quality"
	FactorVolatility = "volatility"
	FactorYield      = "yield"
	FactorGrowth     = "growth"
)

// CanonicalFactors lists the seven style factors in presentation order.
var CanonicalFactors = []string{
	FactorSize,
	FactorValue,
	FactorMomentum,
	FactorQuality,
	FactorVolatility,
	FactorYield,
	FactorGrowth,
}

// Loadings maps factor name to loading, typically in [-1.5, 1.5].
type Loadings map[string]float64

// DefaultLoadings is the neutral vector assumed for symbols without an entry
// in the loadings table: mid-cap size and quality, zero tilt elsewhere.
func DefaultLoadings() Loadings {
	return Loadings{
		FactorSize:       0.5,
		FactorValue:      0.0,
		FactorMomentum:   0.0,
		FactorQuality:    0.5,
		FactorVolatility: 0.0,
		FactorYield:      0.0,
		FactorGrowth:     0.0,
	}
}

// LoadingsRepository persists per-symbol factor loadings.
type LoadingsRepository struct {
	db    *sql.DB
	log   zerolog.Logger
	mu    sync.RWMutex
	cache map[string]Loadings
}

// NewLoadingsRepository creates a loadings repository.
func NewLoadingsRepository(db *sql.DB, log zerolog.Logger) *LoadingsRepository {
	return &LoadingsRepository{
		db:    db,
		log:   log.With().Str("component", "factor_loadings").Logger(),
		cache: make(map[string]Loadings),
	}
}

// Lookup returns the loadings for a symbol, falling back to the neutral
// default vector for unknown symbols.
func (r *LoadingsRepository) Lookup(symbol string) Loadings {
	r.mu.RLock()
	cached, ok := r.cache[symbol]
	r.mu.RUnlock()
	if ok {
		return cached
	}
	return DefaultLoadings()
}

// Refresh reloads the cache from the factor_loadings table.
func (r *LoadingsRepository) Refresh() error {
	rows, err := r.db.Query("SELECT symbol, factor, loading FROM factor_loadings")
	if err != nil {
		return fmt.Errorf("failed to query factor loadings: %w", err)
	}
	defer rows.Close()

	loaded := make(map[string]Loadings)
	for rows.Next() {
		var symbol, factor string
		var loading float64
		if err := rows.Scan(&symbol, &factor, &loading); err != nil {
			return fmt.Errorf("failed to scan loading row: %w", err)
		}
		if loaded[symbol] == nil {
			loaded[symbol] = DefaultLoadings()
		}
		loaded[symbol][factor] = loading
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating loading rows: %w", err)
	}

	r.mu.Lock()
	r.cache = loaded
	r.mu.Unlock()

	r.log.Info().Int("num_symbols", len(loaded)).Msg("Refreshed factor loadings cache")
	return nil
}

// Store upserts loadings for a symbol.
func (r *LoadingsRepository) Store(symbol string, loadings Loadings) error {
	now := time.Now().UTC().Format(time.RFC3339)
	for factor, loading := range loadings {
		_, err := r.db.Exec(`
			INSERT INTO factor_loadings (symbol, factor, loading, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(symbol, factor) DO UPDATE SET loading = excluded.loading, updated_at = excluded.updated_at
		`, symbol, factor, loading, now)
		if err != nil {
			return fmt.Errorf("failed to store loading %s/%s: %w", symbol, factor, err)
		}
	}

	r.mu.Lock()
	merged := DefaultLoadings()
	for factor, loading := range loadings {
		merged[factor] = loading
	}
	r.cache[symbol] = merged
	r.mu.Unlock()

	return nil
}
