package frequency

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// DefaultOutlierZThreshold is the z-score beyond which a raw sample is
// excluded before aggregation.
const DefaultOutlierZThreshold = 3.0

// AssessQuality grades an aggregated series by record length following the
// WMO-style adequacy convention. A record shorter than MinimumPeriods is
// fatal and yields an InsufficientDataError instead of an assessment.
// Grading never blocks fitting above that threshold; it only annotates
// confidence.
func AssessQuality(series *AggregatedSeries) (*QualityAssessment, error) {
	n := series.Len()
	if n < MinimumPeriods {
		return nil, NewInsufficientDataError(MinimumPeriods, n)
	}

	qa := &QualityAssessment{SampleCount: n}
	switch {
	case n < 10:
		qa.Grade = GradePoor
		qa.UncertaintyLevel = UncertaintyVeryHigh
		qa.Warnings = append(qa.Warnings,
			fmt.Sprintf("very short record (%d periods): results carry very high uncertainty", n))
	case n < 20:
		qa.Grade = GradeFair
		qa.UncertaintyLevel = UncertaintyHigh
		qa.Warnings = append(qa.Warnings,
			fmt.Sprintf("short record (%d periods): results carry high uncertainty", n))
	case n < 30:
		qa.Grade = GradeGood
		qa.UncertaintyLevel = UncertaintyModerate
	default:
		qa.Grade = GradeExcellent
		qa.UncertaintyLevel = UncertaintyLow
	}

	values := series.Values()
	if degenerate(values) {
		qa.Warnings = append(qa.Warnings,
			"zero variance: all aggregated values are identical, distribution fitting will fail")
	}

	return qa, nil
}

// degenerate reports an all-equal (zero variance) sample.
func degenerate(values []float64) bool {
	if len(values) < 2 {
		return true
	}
	first := values[0]
	for _, v := range values[1:] {
		if v != first {
			return false
		}
	}
	return true
}

// FilterOutliers excludes raw samples whose z-score exceeds threshold.
// Filtering happens per independent series before aggregation; storage is
// untouched. A threshold <= 0 disables filtering. The excluded samples are
// returned for warning messages.
func FilterOutliers(samples []Sample, threshold float64) (kept, excluded []Sample) {
	if threshold <= 0 || len(samples) < 3 {
		return samples, nil
	}

	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.Value
	}
	mean, std := stat.MeanStdDev(values, nil)
	if std == 0 || math.IsNaN(std) {
		return samples, nil
	}

	kept = make([]Sample, 0, len(samples))
	for _, s := range samples {
		z := math.Abs(s.Value-mean) / std
		if z > threshold {
			excluded = append(excluded, s)
			continue
		}
		kept = append(kept, s)
	}
	return kept, excluded
}

// RangeLimits bounds physically possible values for a measured parameter.
type RangeLimits struct {
	Min float64
	Max float64
}

// ParameterLimits holds WMO-style physical plausibility bounds per parameter.
var ParameterLimits = map[string]RangeLimits{
	"depth":     {Min: -2.0, Max: 50.0},     // meters
	"rainfall":  {Min: 0.0, Max: 500.0},     // mm/day
	"discharge": {Min: 0.0, Max: 100000.0},  // m³/s
}

// ValidateRange drops samples outside the physical limits for the parameter.
// Unknown parameters pass everything through.
func ValidateRange(samples []Sample, parameter string) (kept, rejected []Sample) {
	limits, ok := ParameterLimits[parameter]
	if !ok {
		return samples, nil
	}
	kept = make([]Sample, 0, len(samples))
	for _, s := range samples {
		if s.Value < limits.Min || s.Value > limits.Max {
			rejected = append(rejected, s)
			continue
		}
		kept = append(kept, s)
	}
	return kept, rejected
}
