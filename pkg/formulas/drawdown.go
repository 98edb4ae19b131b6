package formulas

// MaxDrawdown calculates the maximum drawdown of a periodic return series on
// its cumulative-product wealth curve:
//
//	drawdown_t = cum_t / running_max(cum)_t - 1
//
// The reported value is the minimum (most negative) drawdown, bounded to
// [-1, 0] by construction. Returns 0 for an empty series.
func MaxDrawdown(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	cum := 1.0
	peak := 1.0
	maxDrawdown := 0.0

	for _, r := range returns {
		cum *= 1 + r
		if cum > peak {
			peak = cum
		}
		if peak > 0 {
			drawdown := cum/peak - 1
			if drawdown < maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	if maxDrawdown < -1 {
		maxDrawdown = -1
	}
	return maxDrawdown
}
