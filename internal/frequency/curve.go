package frequency

import (
	"math"
	"sort"
)

// EmpiricalPoints derives plotting-position points from the aggregated
// series using the Weibull formula P = rank/(n+1)*100. Rank 1 is the most
// extreme value: largest for max-type series, smallest for min-type. The
// probabilities are strictly inside (0,100) and strictly monotonic with
// rank for every n >= 1.
func EmpiricalPoints(series *AggregatedSeries) []EmpiricalPoint {
	n := series.Len()
	ordered := make([]AggregatedPeriod, n)
	copy(ordered, series.Periods)

	if series.Aggregation.MinType() {
		sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Value < ordered[j].Value })
	} else {
		sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Value > ordered[j].Value })
	}

	points := make([]EmpiricalPoint, n)
	for i, entry := range ordered {
		rank := i + 1
		points[i] = EmpiricalPoint{
			ProbabilityPercent: float64(rank) / float64(n+1) * 100,
			Quantile:           entry.Value,
			Rank:               rank,
			Period:             entry.Period,
		}
	}
	return points
}

// TheoreticalCurve samples the fitted inverse CDF over a log-spaced grid of
// exceedance probabilities from 0.01% to 99.99%. Log spacing concentrates
// resolution at rare events. The orientation convention matches
// ReturnPeriodTable: for max-type series the quantile at exceedance P is
// ppf(1-P), for min-type it is ppf(P).
func TheoreticalCurve(f Family, p Params, agg AggregationFunc, numPoints int) []FrequencyPoint {
	// A log-spaced grid needs at least two points to have a step.
	if numPoints < 2 {
		numPoints = DefaultCurvePoints
	}

	const (
		minPercent = 0.01
		maxPercent = 99.99
	)

	logMin := math.Log10(minPercent)
	logMax := math.Log10(maxPercent)
	step := (logMax - logMin) / float64(numPoints-1)

	minType := agg.MinType()
	curve := make([]FrequencyPoint, numPoints)
	for i := 0; i < numPoints; i++ {
		percent := math.Pow(10, logMin+float64(i)*step)
		prob := percent / 100
		var q float64
		if minType {
			q = f.Quantile(prob, p)
		} else {
			q = f.Quantile(1-prob, p)
		}
		curve[i] = FrequencyPoint{ProbabilityPercent: percent, Quantile: q}
	}
	return curve
}

// QQPP derives quantile-quantile and probability-probability diagnostic
// points for a fitted family. Values are sorted ascending; the plotting
// position (i+1)/(n+1) is a non-exceedance probability, so the points are
// orientation-independent. A well-fitting family puts QQ sample and
// theoretical quantiles on the identity line, and likewise the PP
// probabilities.
func QQPP(f Family, p Params, series *AggregatedSeries) ([]QQPoint, []PPPoint) {
	values := series.Values()
	sort.Float64s(values)
	n := len(values)

	qq := make([]QQPoint, n)
	pp := make([]PPPoint, n)
	for i, v := range values {
		prob := float64(i+1) / float64(n+1)
		qq[i] = QQPoint{
			PlottingPosition: prob,
			Sample:           v,
			Theoretical:      f.Quantile(prob, p),
		}
		pp[i] = PPPoint{
			Empirical:   prob,
			Theoretical: f.CDF(v, p),
		}
	}
	return qq, pp
}

// ReducedGumbelVariate is the coordinate transform -ln(-ln(1-P/100)) used
// to linearize the x axis of frequency plots. Presentation only; it never
// changes quantile values.
func ReducedGumbelVariate(probabilityPercent float64) float64 {
	return -math.Log(-math.Log(1 - probabilityPercent/100))
}
