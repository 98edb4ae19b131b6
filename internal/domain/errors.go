package domain

import "errors"

// Analysis error kinds. Operations wrap these with context so callers can
// distinguish "analysis unavailable" from "computation failed" via errors.Is.
var (
	// ErrInsufficientData signals empty holdings, an empty returns table, or
	// too few overlapping observations for a meaningful result.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrSolverFailure signals that a numerical optimization did not converge.
	ErrSolverFailure = errors.New("solver failure")

	// ErrDegenerateInput signals malformed or numerically unusable input,
	// e.g. a covariance matrix with non-finite entries.
	ErrDegenerateInput = errors.New("degenerate input")
)
