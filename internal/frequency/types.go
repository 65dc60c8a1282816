// Package frequency implements statistical frequency analysis for
// hydrological time series: period aggregation, data-adequacy grading,
// maximum-likelihood distribution fitting, goodness-of-fit ranking, and
// design-quantile derivation for standard return periods.
package frequency

import "time"

// AggregationFunc identifies how raw samples are reduced to one value per period.
type AggregationFunc string

const (
	AggMin  AggregationFunc = "min"
	AggMax  AggregationFunc = "max"
	AggMean AggregationFunc = "mean"
	AggSum  AggregationFunc = "sum"
)

// MinType reports whether the aggregation produces a minima series.
// Minima series rank ascending (rank 1 = smallest) and mirror the
// return-period probability convention used for maxima.
func (a AggregationFunc) MinType() bool {
	return a == AggMin
}

// Sample is a single raw measurement for one series.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	SeriesID  string    `json:"series_id,omitempty"`
}

// AggregatedPeriod is one period's reduced value.
type AggregatedPeriod struct {
	Period            int     `json:"period"` // calendar year
	Value             float64 `json:"value"`
	SourceSampleCount int     `json:"source_sample_count"`
}

// AggregatedSeries is an ordered sequence of per-period values.
// Periods are strictly increasing with no duplicates.
type AggregatedSeries struct {
	Periods     []AggregatedPeriod `json:"periods"`
	Aggregation AggregationFunc    `json:"aggregation"`
}

// Values returns the aggregated values in period order.
func (s *AggregatedSeries) Values() []float64 {
	values := make([]float64, len(s.Periods))
	for i, p := range s.Periods {
		values[i] = p.Value
	}
	return values
}

// Len returns the number of aggregated periods.
func (s *AggregatedSeries) Len() int { return len(s.Periods) }

// Quality grades derived from record length.
const (
	GradePoor      = "poor"
	GradeFair      = "fair"
	GradeGood      = "good"
	GradeExcellent = "excellent"
)

// Uncertainty levels paired with the quality grades.
const (
	UncertaintyVeryHigh = "very_high"
	UncertaintyHigh     = "high"
	UncertaintyModerate = "moderate"
	UncertaintyLow      = "low"
)

// QualityAssessment grades the adequacy of an aggregated series.
type QualityAssessment struct {
	SampleCount      int      `json:"sample_count"`
	Grade            string   `json:"grade"`
	UncertaintyLevel string   `json:"uncertainty_level"`
	Warnings         []string `json:"warnings,omitempty"`
}

// Params holds fitted distribution parameters. Shape is meaningful only
// when HasShape is set.
type Params struct {
	Location float64 `json:"location"`
	Scale    float64 `json:"scale"`
	Shape    float64 `json:"shape,omitempty"`
	HasShape bool    `json:"has_shape,omitempty"`
}

// FitResult is the outcome of fitting one distribution family to a series.
// A failed fit carries FailureReason and is excluded from ranking but still
// reported.
type FitResult struct {
	FamilyName    string  `json:"family"`
	DisplayName   string  `json:"display_name"`
	Params        Params  `json:"parameters"`
	LogLikelihood float64 `json:"log_likelihood"`
	AIC           float64 `json:"aic"`

	ChiSquare          float64 `json:"chi_square"`
	DegreesOfFreedom   int     `json:"degrees_of_freedom"`
	PValue             float64 `json:"p_value"`
	ChiSquareAvailable bool    `json:"chi_square_available"`

	KSStatistic float64 `json:"ks_statistic"`
	KSPValue    float64 `json:"ks_p_value"`

	FitSucceeded  bool      `json:"fit_succeeded"`
	FailureKind   ErrorKind `json:"failure_kind,omitempty"`
	FailureReason string    `json:"failure_reason,omitempty"`
	IsBestFit     bool      `json:"is_best_fit"`
	Rank          int       `json:"rank,omitempty"` // 1-based among successful fits
}

// FrequencyPoint is one point on a probability curve. Exceedance probability
// is expressed in percent.
type FrequencyPoint struct {
	ProbabilityPercent float64 `json:"p_percent"`
	Quantile           float64 `json:"q"`
}

// EmpiricalPoint is a plotting-position point derived from a ranked
// observation.
type EmpiricalPoint struct {
	ProbabilityPercent float64 `json:"p_percent"`
	Quantile           float64 `json:"q"`
	Rank               int     `json:"rank"`
	Period             int     `json:"period"`
}

// ReturnPeriodEntry pairs a return period with its exceedance probability and
// design quantile.
type ReturnPeriodEntry struct {
	ReturnPeriodYears     float64 `json:"t_years"`
	ExceedanceProbability float64 `json:"p"`
	Quantile              float64 `json:"q"`
}

// QQPoint pairs an observed value with the quantile the fitted family
// predicts at its plotting position.
type QQPoint struct {
	PlottingPosition float64 `json:"p_empirical"`
	Sample           float64 `json:"sample"`
	Theoretical      float64 `json:"theoretical"`
}

// PPPoint pairs the plotting-position probability of an observed value with
// the fitted family's CDF at that value.
type PPPoint struct {
	Empirical   float64 `json:"empirical"`
	Theoretical float64 `json:"theoretical"`
}

// DistributionCurves bundles the per-family presentation products.
type DistributionCurves struct {
	FamilyName       string              `json:"family"`
	EmpiricalPoints  []EmpiricalPoint    `json:"empirical_points"`
	TheoreticalCurve []FrequencyPoint    `json:"theoretical_curve"`
	ReturnPeriods    []ReturnPeriodEntry `json:"return_periods"`
	QQ               []QQPoint           `json:"qq"`
	PP               []PPPoint           `json:"pp"`
}

// AnalysisResult is the complete, immutable product of one analysis run.
// It is a pure function of (series, requested families, configuration) and
// is safe to cache by that key.
type AnalysisResult struct {
	Quality       QualityAssessment             `json:"quality"`
	Fits          []FitResult                   `json:"fits"` // ranked, failures last
	Curves        map[string]DistributionCurves `json:"curves"`
	BestFitFamily string                        `json:"best_fit_family,omitempty"`
	Aggregation   AggregationFunc               `json:"aggregation"`
	SampleCount   int                           `json:"sample_count"`
	Warnings      []string                      `json:"warnings,omitempty"`
}

// Config controls one analysis run.
type Config struct {
	// Families to fit; empty means every registered family.
	Families []string

	// ReturnPeriods to tabulate; empty means DefaultReturnPeriods.
	ReturnPeriods []float64

	// CurvePoints is the size of the theoretical probability grid.
	// Zero means DefaultCurvePoints.
	CurvePoints int
}

// DefaultReturnPeriods are the standard design return periods in years.
var DefaultReturnPeriods = []float64{2, 5, 10, 25, 50, 100, 200, 500, 1000}

// DefaultCurvePoints is the number of points on the theoretical curve grid.
const DefaultCurvePoints = 200

// MinimumPeriods is the fatal adequacy threshold: below this no analysis is
// attempted.
const MinimumPeriods = 2
