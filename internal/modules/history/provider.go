// Package history assembles date-indexed return tables from the price
// history database. It is the return-series provider consumed by the
// analytics modules; everything downstream treats its output as read-only.
package history

import (
	"database/sql"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/compass/internal/domain"
)

// DefaultLookbackDays is one year of trading days.
const DefaultLookbackDays = 252

// TimeSeries holds aligned price observations per symbol.
type TimeSeries struct {
	Dates []string
	Data  map[string][]float64
}

// Service reads price history and produces return tables.
type Service struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewService creates a history service.
func NewService(db *sql.DB, log zerolog.Logger) *Service {
	return &Service{
		db:  db,
		log: log.With().Str("component", "history").Logger(),
	}
}

// ReturnTable builds a return table for the given symbols over the lookback
// window. Prices are gap-filled before differencing, so every column has one
// observation per date.
func (s *Service) ReturnTable(symbols []string, lookbackDays int) (domain.ReturnTable, error) {
	if len(symbols) == 0 {
		return domain.ReturnTable{}, fmt.Errorf("no symbols: %w", domain.ErrInsufficientData)
	}
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}

	prices, err := s.PriceHistory(symbols, lookbackDays)
	if err != nil {
		return domain.ReturnTable{}, err
	}
	if len(prices.Dates) < 2 {
		return domain.ReturnTable{}, fmt.Errorf(
			"only %d price dates available: %w", len(prices.Dates), domain.ErrInsufficientData)
	}

	filled := fillMissing(prices, s.log)

	table := domain.ReturnTable{
		Dates: filled.Dates[1:],
		Data:  make(map[string][]float64, len(symbols)),
	}
	for symbol, series := range filled.Data {
		returns := make([]float64, len(series)-1)
		for i := 1; i < len(series); i++ {
			if series[i-1] > 0 && !math.IsNaN(series[i]) && !math.IsNaN(series[i-1]) {
				returns[i-1] = (series[i] - series[i-1]) / series[i-1]
			}
		}
		table.Data[symbol] = returns
	}

	s.log.Debug().
		Int("num_symbols", len(table.Data)).
		Int("num_periods", table.Len()).
		Msg("Built return table")

	return table, nil
}

// PriceHistory fetches close prices for the given symbols. Missing
// observations are marked NaN for the fill pass.
func (s *Service) PriceHistory(symbols []string, days int) (TimeSeries, error) {
	startDate := time.Now().AddDate(0, 0, -days).Format(domain.DateLayout)

	query := `
		SELECT symbol, date, close
		FROM daily_prices
		WHERE symbol IN (` + placeholders(len(symbols)) + `)
			AND date >= ?
		ORDER BY date ASC
	`

	args := make([]interface{}, 0, len(symbols)+1)
	for _, symbol := range symbols {
		args = append(args, symbol)
	}
	args = append(args, startDate)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return TimeSeries{}, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	pricesBySymbol := make(map[string]map[string]float64)
	dateSet := make(map[string]bool)

	for rows.Next() {
		var symbol, date string
		var price float64
		if err := rows.Scan(&symbol, &date, &price); err != nil {
			return TimeSeries{}, fmt.Errorf("failed to scan price row: %w", err)
		}
		if pricesBySymbol[symbol] == nil {
			pricesBySymbol[symbol] = make(map[string]float64)
		}
		pricesBySymbol[symbol][date] = price
		dateSet[date] = true
	}
	if err := rows.Err(); err != nil {
		return TimeSeries{}, fmt.Errorf("error iterating price rows: %w", err)
	}

	dates := make([]string, 0, len(dateSet))
	for date := range dateSet {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	data := make(map[string][]float64, len(symbols))
	for _, symbol := range symbols {
		series := make([]float64, len(dates))
		for i, date := range dates {
			if price, ok := pricesBySymbol[symbol][date]; ok {
				series[i] = price
			} else {
				series[i] = math.NaN()
			}
		}
		data[symbol] = series
	}

	return TimeSeries{Dates: dates, Data: data}, nil
}

// TrackedSymbols lists the distinct symbols present in the price history.
func (s *Service) TrackedSymbols() ([]string, error) {
	rows, err := s.db.Query("SELECT DISTINCT symbol FROM daily_prices ORDER BY symbol")
	if err != nil {
		return nil, fmt.Errorf("failed to query tracked symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbols: %w", err)
	}
	return symbols, nil
}

// fillMissing forward-fills then back-fills NaN observations per symbol.
func fillMissing(ts TimeSeries, log zerolog.Logger) TimeSeries {
	filled := TimeSeries{
		Dates: ts.Dates,
		Data:  make(map[string][]float64, len(ts.Data)),
	}

	missing := 0
	for symbol, series := range ts.Data {
		out := make([]float64, len(series))
		copy(out, series)

		var lastValid float64
		hasLast := false
		for i := range out {
			if math.IsNaN(out[i]) {
				missing++
				if hasLast {
					out[i] = lastValid
				}
			} else {
				lastValid = out[i]
				hasLast = true
			}
		}

		var nextValid float64
		hasNext := false
		for i := len(out) - 1; i >= 0; i-- {
			if math.IsNaN(out[i]) {
				if hasNext {
					out[i] = nextValid
				}
			} else {
				nextValid = out[i]
				hasNext = true
			}
		}

		filled.Data[symbol] = out
	}

	if missing > 0 {
		log.Warn().Int("missing_data_points", missing).Msg("Filled missing price data")
	}

	return filled
}

func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	out := "?"
	for i := 1; i < n; i++ {
		out += ", ?"
	}
	return out
}
