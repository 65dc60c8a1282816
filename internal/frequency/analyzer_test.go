package frequency

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"go.uber.org/zap"
)

func testAnalyzer() *Analyzer {
	return NewAnalyzer(zap.NewNop().Sugar())
}

func gumbelSeries(n int, loc, scale float64) *AggregatedSeries {
	values := gumbelSample(n, loc, scale)
	periods := make([]int, n)
	for i := range periods {
		periods[i] = 1980 + i
	}
	s, err := SeriesFromPairs(periods, values, AggMax)
	if err != nil {
		panic(err)
	}
	return s
}

func TestAnalyzeMinimumRecordLength(t *testing.T) {
	a := testAnalyzer()

	// A single period is fatal
	_, err := a.Analyze(context.Background(), seriesOfLength(1), Config{})
	var analysisErr *AnalysisError
	if !errors.As(err, &analysisErr) || analysisErr.Kind != KindInsufficientData {
		t.Fatalf("n=1: expected insufficient_data, got %v", err)
	}

	// Two periods analyze, however poor the grade
	result, err := a.Analyze(context.Background(), seriesOfLength(2), Config{})
	if err != nil {
		t.Fatalf("n=2: unexpected error: %v", err)
	}
	if result.Quality.Grade != GradePoor {
		t.Errorf("n=2: got grade %q", result.Quality.Grade)
	}
}

func TestAnalyzeInvalidConfig(t *testing.T) {
	a := testAnalyzer()
	series := gumbelSeries(30, 50, 10)

	_, err := a.Analyze(context.Background(), series, Config{ReturnPeriods: []float64{100, 0.5}})
	var analysisErr *AnalysisError
	if !errors.As(err, &analysisErr) || analysisErr.Kind != KindConfiguration {
		t.Errorf("T<=1: expected configuration error, got %v", err)
	}

	_, err = a.Analyze(context.Background(), series, Config{Families: []string{"cauchy"}})
	if !errors.As(err, &analysisErr) || analysisErr.Kind != KindInputValidation {
		t.Errorf("unknown family: expected input validation error, got %v", err)
	}
}

func TestAnalyzeCancelledContext(t *testing.T) {
	a := testAnalyzer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Analyze(ctx, gumbelSeries(30, 50, 10), Config{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestAnalyzeSyntheticGumbel(t *testing.T) {
	a := testAnalyzer()
	series := gumbelSeries(33, 50, 10)

	result, err := a.Analyze(context.Background(), series, Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Quality.Grade != GradeExcellent {
		t.Errorf("33 periods should grade excellent, got %q", result.Quality.Grade)
	}
	if result.BestFitFamily == "" {
		t.Fatal("no best fit on a clean synthetic sample")
	}

	// The generating family must land in the top two by AIC
	gumbelRank := 0
	for _, fit := range result.Fits {
		if fit.FamilyName == "gumbel" {
			if !fit.FitSucceeded {
				t.Fatalf("gumbel fit failed: %s", fit.FailureReason)
			}
			gumbelRank = fit.Rank
			if math.Abs(fit.Params.Location-50) > 50*0.15 {
				t.Errorf("location estimate %v too far from 50", fit.Params.Location)
			}
			if math.Abs(fit.Params.Scale-10) > 10*0.15 {
				t.Errorf("scale estimate %v too far from 10", fit.Params.Scale)
			}
		}
	}
	if gumbelRank == 0 || gumbelRank > 2 {
		t.Errorf("gumbel ranked %d on its own data", gumbelRank)
	}

	// Every successful fit carries complete presentation products
	for name, curves := range result.Curves {
		if len(curves.EmpiricalPoints) != series.Len() {
			t.Errorf("%s: %d empirical points", name, len(curves.EmpiricalPoints))
		}
		if len(curves.TheoreticalCurve) != DefaultCurvePoints {
			t.Errorf("%s: %d curve points", name, len(curves.TheoreticalCurve))
		}
		if len(curves.ReturnPeriods) != len(DefaultReturnPeriods) {
			t.Errorf("%s: %d return periods", name, len(curves.ReturnPeriods))
		}
		if len(curves.QQ) != series.Len() || len(curves.PP) != series.Len() {
			t.Errorf("%s: %d QQ and %d PP points", name, len(curves.QQ), len(curves.PP))
		}
	}
}

func TestAnalyzeReturnPeriodRoundTrip(t *testing.T) {
	a := testAnalyzer()
	series := gumbelSeries(40, 50, 10)

	cfg := Config{ReturnPeriods: []float64{2, 10, 100}}
	result, err := a.Analyze(context.Background(), series, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for name, curves := range result.Curves {
		f, _ := Lookup(name)
		var params Params
		for _, fit := range result.Fits {
			if fit.FamilyName == name {
				params = fit.Params
			}
		}

		prev := math.Inf(-1)
		for _, entry := range curves.ReturnPeriods {
			// cdf(Q(T)) = 1 - 1/T for maxima series
			back := f.CDF(entry.Quantile, params)
			want := 1 - 1/entry.ReturnPeriodYears
			if math.Abs(back-want) > 1e-6 {
				t.Errorf("%s T=%v: cdf(Q) = %v, expected %v", name, entry.ReturnPeriodYears, back, want)
			}
			// Q(T) must not decrease with T
			if entry.Quantile < prev {
				t.Errorf("%s: quantile decreased at T=%v", name, entry.ReturnPeriodYears)
			}
			prev = entry.Quantile
		}
	}
}

func TestAnalyzeMinimaConvention(t *testing.T) {
	a := testAnalyzer()

	// Low-flow series: minima analysis mirrors the probability convention
	values := gumbelSample(30, 20, 3)
	periods := make([]int, 30)
	for i := range periods {
		periods[i] = 1990 + i
	}
	series, _ := SeriesFromPairs(periods, values, AggMin)

	result, err := a.Analyze(context.Background(), series, Config{
		Families:      []string{"gumbel"},
		ReturnPeriods: []float64{2, 10, 100},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	curves, ok := result.Curves["gumbel"]
	if !ok {
		t.Fatal("gumbel curves missing")
	}
	f, _ := Lookup("gumbel")
	var params Params
	for _, fit := range result.Fits {
		if fit.FamilyName == "gumbel" {
			params = fit.Params
		}
	}

	prev := math.Inf(1)
	for _, entry := range curves.ReturnPeriods {
		// For minima, cdf(Q(T)) = 1/T and quantiles fall as T grows
		back := f.CDF(entry.Quantile, params)
		if math.Abs(back-1/entry.ReturnPeriodYears) > 1e-6 {
			t.Errorf("T=%v: cdf(Q) = %v, expected %v", entry.ReturnPeriodYears, back, 1/entry.ReturnPeriodYears)
		}
		if entry.Quantile > prev {
			t.Errorf("quantile increased at T=%v", entry.ReturnPeriodYears)
		}
		prev = entry.Quantile
	}
}

func TestAnalyzeDegenerateSeries(t *testing.T) {
	a := testAnalyzer()

	periods := make([]int, 30)
	values := make([]float64, 30)
	for i := range periods {
		periods[i] = 1990 + i
		values[i] = 5.0
	}
	series, _ := SeriesFromPairs(periods, values, AggMax)

	result, err := a.Analyze(context.Background(), series, Config{})
	if err != nil {
		t.Fatalf("degenerate series must yield a result, got error: %v", err)
	}

	if result.Quality.Grade != GradeExcellent {
		t.Errorf("grade %q", result.Quality.Grade)
	}
	if result.BestFitFamily != "" {
		t.Errorf("no fit can succeed, got best fit %q", result.BestFitFamily)
	}
	for _, fit := range result.Fits {
		if fit.FitSucceeded {
			t.Errorf("%s: succeeded on a zero-variance sample", fit.FamilyName)
		}
		if fit.FailureReason == "" {
			t.Errorf("%s: missing failure reason", fit.FamilyName)
		}
		if fit.FailureKind != KindNumericalInstability {
			t.Errorf("%s: failure kind %q, expected %q", fit.FamilyName, fit.FailureKind, KindNumericalInstability)
		}
	}
	if len(result.Warnings) < len(result.Fits) {
		t.Errorf("expected a warning per failed family plus the variance warning, got %d", len(result.Warnings))
	}
}

func TestAnalyzeFailureKinds(t *testing.T) {
	a := testAnalyzer()

	// Non-positive values violate the lognormal support, a plain fitting failure
	periods := make([]int, 20)
	values := make([]float64, 20)
	for i := range periods {
		periods[i] = 1990 + i
		values[i] = float64(i) - 5
	}
	series, _ := SeriesFromPairs(periods, values, AggMax)

	result, err := a.Analyze(context.Background(), series, Config{Families: []string{"lognorm"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Fits) != 1 {
		t.Fatalf("got %d fits", len(result.Fits))
	}
	fit := result.Fits[0]
	if fit.FitSucceeded {
		t.Fatal("lognorm fit succeeded on negative values")
	}
	if fit.FailureKind != KindDistributionFitting {
		t.Errorf("failure kind %q, expected %q", fit.FailureKind, KindDistributionFitting)
	}
	if fit.FailureReason == "" {
		t.Error("missing failure reason")
	}
}

func TestAnalyzeDeterminism(t *testing.T) {
	a := testAnalyzer()
	series := gumbelSeries(25, 50, 10)
	cfg := Config{ReturnPeriods: []float64{2, 10, 100}}

	first, err := a.Analyze(context.Background(), series, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := a.Analyze(context.Background(), series, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs must produce identical results")
	}
}

func TestCacheKey(t *testing.T) {
	series := gumbelSeries(25, 50, 10)
	cfg := Config{ReturnPeriods: []float64{2, 10, 100}}

	a := CacheKey(series, cfg)
	if a != CacheKey(series, cfg) {
		t.Error("cache key must be stable")
	}

	// Family order does not matter
	k1 := CacheKey(series, Config{Families: []string{"gumbel", "lognorm"}})
	k2 := CacheKey(series, Config{Families: []string{"lognorm", "gumbel"}})
	if k1 != k2 {
		t.Error("cache key must not depend on family order")
	}

	// Any input change produces a different key
	other := gumbelSeries(25, 50, 10)
	other.Periods[3].Value += 0.0001
	if CacheKey(other, cfg) == a {
		t.Error("value change must change the key")
	}
	if CacheKey(series, Config{ReturnPeriods: []float64{2, 10, 200}}) == a {
		t.Error("return period change must change the key")
	}
	if CacheKey(series, Config{Families: []string{"gumbel"}, ReturnPeriods: cfg.ReturnPeriods}) == a {
		t.Error("family subset must change the key")
	}
}
