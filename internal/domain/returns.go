package domain

import (
	"fmt"
	"sort"
	"time"
)

// Reserved column names in a return table.
const (
	ColPortfolioReturn = "portfolio_return"
	ColBenchmarkReturn = "benchmark_return"
)

// DateLayout is the date format used throughout the history tables.
const DateLayout = "2006-01-02"

// ReturnTable is a date-indexed table of fractional periodic returns, one
// column per asset symbol. The portfolio_return and benchmark_return columns
// are reserved for aggregate series. Dates are ordered oldest to newest and
// every column has len(Dates) observations.
type ReturnTable struct {
	Dates []string             `json:"dates"`
	Data  map[string][]float64 `json:"data"`
}

// Len returns the number of periods in the table.
func (rt ReturnTable) Len() int {
	return len(rt.Dates)
}

// IsEmpty reports whether the table has no periods or no columns.
func (rt ReturnTable) IsEmpty() bool {
	return len(rt.Dates) == 0 || len(rt.Data) == 0
}

// Column returns a named column and whether it exists with the expected length.
func (rt ReturnTable) Column(name string) ([]float64, bool) {
	col, ok := rt.Data[name]
	if !ok || len(col) != len(rt.Dates) {
		return nil, false
	}
	return col, true
}

// AssetSymbols returns the asset columns (everything except the reserved
// aggregate columns), sorted for deterministic iteration.
func (rt ReturnTable) AssetSymbols() []string {
	symbols := make([]string, 0, len(rt.Data))
	for name := range rt.Data {
		if name == ColPortfolioReturn || name == ColBenchmarkReturn {
			continue
		}
		symbols = append(symbols, name)
	}
	sort.Strings(symbols)
	return symbols
}

// ParseDates parses the date index. Fails on the first malformed date.
func (rt ReturnTable) ParseDates() ([]time.Time, error) {
	parsed := make([]time.Time, len(rt.Dates))
	for i, d := range rt.Dates {
		t, err := time.Parse(DateLayout, d)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q at row %d: %w", d, i, err)
		}
		parsed[i] = t
	}
	return parsed, nil
}

// PeriodsPerYear infers the observation frequency from the average gap
// between dates: under 5 days is treated as daily (252), under 45 as monthly
// (12), otherwise quarterly (4). Tables with fewer than two parseable dates
// default to daily.
func (rt ReturnTable) PeriodsPerYear() int {
	dates, err := rt.ParseDates()
	if err != nil || len(dates) < 2 {
		return 252
	}
	totalDays := dates[len(dates)-1].Sub(dates[0]).Hours() / 24
	avgGap := totalDays / float64(len(dates)-1)
	switch {
	case avgGap < 5:
		return 252
	case avgGap < 45:
		return 12
	default:
		return 4
	}
}
