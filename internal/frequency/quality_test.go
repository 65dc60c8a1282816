package frequency

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func seriesOfLength(n int) *AggregatedSeries {
	periods := make([]int, n)
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		periods[i] = 1990 + i
		values[i] = 10 + float64(i%7)
	}
	s, err := SeriesFromPairs(periods, values, AggMax)
	if err != nil {
		panic(err)
	}
	return s
}

func TestAssessQualityGrades(t *testing.T) {
	tests := []struct {
		n           int
		grade       string
		uncertainty string
	}{
		{2, GradePoor, UncertaintyVeryHigh},
		{9, GradePoor, UncertaintyVeryHigh},
		{10, GradeFair, UncertaintyHigh},
		{19, GradeFair, UncertaintyHigh},
		{20, GradeGood, UncertaintyModerate},
		{29, GradeGood, UncertaintyModerate},
		{30, GradeExcellent, UncertaintyLow},
		{75, GradeExcellent, UncertaintyLow},
	}

	for _, tt := range tests {
		qa, err := AssessQuality(seriesOfLength(tt.n))
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", tt.n, err)
		}
		if qa.Grade != tt.grade {
			t.Errorf("n=%d: got grade %q, expected %q", tt.n, qa.Grade, tt.grade)
		}
		if qa.UncertaintyLevel != tt.uncertainty {
			t.Errorf("n=%d: got uncertainty %q, expected %q", tt.n, qa.UncertaintyLevel, tt.uncertainty)
		}
		if qa.SampleCount != tt.n {
			t.Errorf("n=%d: got sample count %d", tt.n, qa.SampleCount)
		}
	}
}

func TestAssessQualityInsufficientData(t *testing.T) {
	_, err := AssessQuality(seriesOfLength(1))
	var analysisErr *AnalysisError
	if !errors.As(err, &analysisErr) {
		t.Fatalf("expected AnalysisError, got %v", err)
	}
	if analysisErr.Kind != KindInsufficientData {
		t.Errorf("got kind %q, expected insufficient_data", analysisErr.Kind)
	}
	if !analysisErr.Kind.Fatal() {
		t.Error("insufficient_data should be fatal")
	}
}

func TestAssessQualityZeroVarianceWarning(t *testing.T) {
	periods := make([]int, 30)
	values := make([]float64, 30)
	for i := range periods {
		periods[i] = 1990 + i
		values[i] = 5.0
	}
	s, _ := SeriesFromPairs(periods, values, AggMax)

	qa, err := AssessQuality(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if qa.Grade != GradeExcellent {
		t.Errorf("30 identical values should still grade excellent, got %q", qa.Grade)
	}
	found := false
	for _, w := range qa.Warnings {
		if strings.Contains(w, "zero variance") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected zero variance warning, got %v", qa.Warnings)
	}
}

func TestFilterOutliers(t *testing.T) {
	base := time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC)
	samples := make([]Sample, 0, 21)
	for i := 0; i < 20; i++ {
		samples = append(samples, Sample{Timestamp: base.AddDate(0, 0, i), Value: 10 + float64(i%3)})
	}
	samples = append(samples, Sample{Timestamp: base.AddDate(0, 0, 21), Value: 500})

	kept, excluded := FilterOutliers(samples, 3.0)
	if len(excluded) != 1 {
		t.Fatalf("expected 1 excluded sample, got %d", len(excluded))
	}
	if excluded[0].Value != 500 {
		t.Errorf("excluded wrong sample: %v", excluded[0])
	}
	if len(kept) != 20 {
		t.Errorf("expected 20 kept samples, got %d", len(kept))
	}

	// Threshold <= 0 disables filtering
	kept, excluded = FilterOutliers(samples, 0)
	if len(kept) != 21 || excluded != nil {
		t.Error("threshold 0 should pass everything through")
	}
}

func TestValidateRange(t *testing.T) {
	base := time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC)
	samples := []Sample{
		{Timestamp: base, Value: 12.0},
		{Timestamp: base.AddDate(0, 0, 1), Value: 700.0},
		{Timestamp: base.AddDate(0, 0, 2), Value: -1.0},
	}

	kept, rejected := ValidateRange(samples, "rainfall")
	if len(kept) != 1 || len(rejected) != 2 {
		t.Errorf("rainfall: got %d kept, %d rejected", len(kept), len(rejected))
	}

	// Unknown parameters pass everything through
	kept, rejected = ValidateRange(samples, "salinity")
	if len(kept) != 3 || rejected != nil {
		t.Error("unknown parameter should pass everything through")
	}
}
