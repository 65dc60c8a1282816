package frequency

// ValidateReturnPeriods rejects return-period lists containing T <= 1,
// which would imply an exceedance probability at or above certainty.
func ValidateReturnPeriods(periods []float64) error {
	for _, t := range periods {
		if t <= 1 {
			return NewConfigurationError("invalid return period %v: must be greater than 1 year", t)
		}
	}
	return nil
}

// ReturnPeriodTable computes design quantiles for the given return periods.
// The exceedance probability is p = 1/T. For max-type series the design
// quantile is ppf(1-p), so cdf(Q(T)) = 1 - 1/T; min-type series mirror the
// convention with Q = ppf(p). The table is the exact inverse of
// TheoreticalCurve at the same probabilities, and Q is monotonic in T.
func ReturnPeriodTable(f Family, params Params, agg AggregationFunc, periods []float64) []ReturnPeriodEntry {
	if len(periods) == 0 {
		periods = DefaultReturnPeriods
	}

	minType := agg.MinType()
	table := make([]ReturnPeriodEntry, len(periods))
	for i, t := range periods {
		p := 1 / t
		var q float64
		if minType {
			q = f.Quantile(p, params)
		} else {
			q = f.Quantile(1-p, params)
		}
		table[i] = ReturnPeriodEntry{
			ReturnPeriodYears:     t,
			ExceedanceProbability: p,
			Quantile:              q,
		}
	}
	return table
}
