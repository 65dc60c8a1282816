package frequency

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Analyzer runs the full frequency-analysis pipeline. It is stateless and
// safe for concurrent use; every run is a pure function of its inputs.
type Analyzer struct {
	logger *zap.SugaredLogger
}

// NewAnalyzer creates an analyzer using the given logger for per-family
// fit-failure warnings.
func NewAnalyzer(logger *zap.SugaredLogger) *Analyzer {
	return &Analyzer{logger: logger}
}

// Analyze runs quality control, fits the requested distribution families
// concurrently, scores and ranks them, and assembles the complete result.
//
// Fatal conditions (validation, insufficient data, bad configuration) abort
// before any fit result is produced. Once fitting has started, per-family
// failures are recorded in the result and never cancel sibling fits; a
// partial result is always returned. Cancellation via ctx is honored only
// up to the start of fitting.
func (a *Analyzer) Analyze(ctx context.Context, series *AggregatedSeries, cfg Config) (*AnalysisResult, error) {
	if series == nil || series.Len() == 0 {
		return nil, NewInputValidationError("empty sample set")
	}
	if err := ValidateReturnPeriods(cfg.ReturnPeriods); err != nil {
		return nil, err
	}

	families, err := ResolveFamilies(cfg.Families)
	if err != nil {
		return nil, err
	}

	quality, err := AssessQuality(series)
	if err != nil {
		return nil, err
	}

	// Last cancellation point: once fitting starts we always finish and
	// return whatever succeeded.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sample := series.Values()

	fits := make([]FitResult, len(families))
	var wg sync.WaitGroup
	for i, family := range families {
		wg.Add(1)
		go func(i int, family Family) {
			defer wg.Done()
			fits[i] = a.fitFamily(family, sample)
		}(i, family)
	}
	wg.Wait()

	ranked := rankFits(fits)

	result := &AnalysisResult{
		Quality:     *quality,
		Fits:        ranked,
		Curves:      make(map[string]DistributionCurves, len(families)),
		Aggregation: series.Aggregation,
		SampleCount: series.Len(),
		Warnings:    append([]string(nil), quality.Warnings...),
	}

	empirical := EmpiricalPoints(series)
	for _, fit := range ranked {
		if !fit.FitSucceeded {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s: %s", fit.FamilyName, fit.FailureReason))
			continue
		}
		if fit.IsBestFit {
			result.BestFitFamily = fit.FamilyName
		}
		family, _ := Lookup(fit.FamilyName)
		qq, pp := QQPP(family, fit.Params, series)
		result.Curves[fit.FamilyName] = DistributionCurves{
			FamilyName:       fit.FamilyName,
			EmpiricalPoints:  empirical,
			TheoreticalCurve: TheoreticalCurve(family, fit.Params, series.Aggregation, cfg.CurvePoints),
			ReturnPeriods:    ReturnPeriodTable(family, fit.Params, series.Aggregation, cfg.ReturnPeriods),
			QQ:               qq,
			PP:               pp,
		}
	}

	return result, nil
}

// fitFamily fits one family and scores it. Any failure, including a panic
// escaping the numerical code, is recorded in the result instead of
// aborting the analysis.
func (a *Analyzer) fitFamily(f Family, sample []float64) (result FitResult) {
	result = FitResult{
		FamilyName:  f.Name(),
		DisplayName: f.DisplayName(),
	}

	defer func() {
		if r := recover(); r != nil {
			ae := NewNumericalInstabilityError(fmt.Sprintf("internal numerical failure: %v", r))
			result.FitSucceeded = false
			result.FailureKind = ae.Kind
			result.FailureReason = ae.Message
			if a.logger != nil {
				a.logger.Warnw("distribution fit panicked", "family", f.Name(), "panic", r)
			}
		}
	}()

	params, err := f.Fit(sample)
	if err != nil {
		// Instability errors carry their kind from the numerical layer;
		// everything else is a plain fitting failure.
		reason := err.Error()
		var ae *AnalysisError
		if errors.As(err, &ae) {
			reason = ae.Message
		} else {
			ae = NewFittingError(f.Name(), reason)
		}
		result.FailureKind = ae.Kind
		result.FailureReason = reason
		if a.logger != nil {
			a.logger.Warnw("distribution fit failed", "family", f.Name(), "reason", err.Error())
		}
		return result
	}

	result.Params = params
	result.LogLikelihood = sampleLogLikelihood(f, sample, params)
	result.AIC = aic(result.LogLikelihood, f.NumParams())

	chi := chiSquareTest(sample, f, params)
	result.ChiSquare = chi.Statistic
	result.DegreesOfFreedom = chi.DF
	result.PValue = chi.PValue
	result.ChiSquareAvailable = chi.Available

	result.KSStatistic, result.KSPValue = ksTest(sample, f, params)
	result.FitSucceeded = true
	return result
}

// CacheKey derives the deterministic content key for a result cache entry.
// Two runs with byte-identical series and configuration share a key.
func CacheKey(series *AggregatedSeries, cfg Config) string {
	h := sha256.New()

	writeF64 := func(v float64) {
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}

	h.Write([]byte(series.Aggregation))
	for _, p := range series.Periods {
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(p.Period))
		h.Write(buf[:])
		writeF64(p.Value)
	}

	families := cfg.Families
	if len(families) == 0 {
		families = FamilyNames()
	} else {
		families = append([]string(nil), families...)
		sort.Strings(families)
	}
	for _, name := range families {
		h.Write([]byte(name))
		h.Write([]byte{0})
	}

	periods := cfg.ReturnPeriods
	if len(periods) == 0 {
		periods = DefaultReturnPeriods
	}
	for _, t := range periods {
		writeF64(t)
	}

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(cfg.CurvePoints))
	h.Write(buf[:])

	return hex.EncodeToString(h.Sum(nil))
}
