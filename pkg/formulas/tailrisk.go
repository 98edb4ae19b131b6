package formulas

// ValueAtRisk calculates historical VaR at the given confidence level as the
// (1-confidence) percentile of the return distribution. For 95% confidence
// this is the 5th percentile, i.e. the loss threshold exceeded in the worst
// 5% of periods.
func ValueAtRisk(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	return Percentile(returns, (1-confidence)*100)
}

// ConditionalVaR calculates the expected return in the tail beyond the VaR
// threshold: the mean of all returns less than or equal to VaR. Falls back to
// the VaR value itself when no observation sits at or below the threshold.
func ConditionalVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	threshold := ValueAtRisk(returns, confidence)
	sum := 0.0
	count := 0
	for _, r := range returns {
		if r <= threshold {
			sum += r
			count++
		}
	}
	if count == 0 {
		return threshold
	}
	return sum / float64(count)
}
