package frequency

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// Solver caps. A cap breach is reported as a fit failure rather than letting
// a pathological sample stall the whole batch.
const (
	mleMaxIterations      = 1000
	mleMaxFuncEvaluations = 5000
)

var errNoConvergence = errors.New("likelihood maximization did not converge within the iteration cap")

// minimizeNLL minimizes a negative log-likelihood with Nelder-Mead starting
// from init. Families optimize in an unconstrained space (log-transformed
// scale parameters) so the simplex never walks out of the support.
func minimizeNLL(nll func(x []float64) float64, init []float64) ([]float64, error) {
	problem := optimize.Problem{Func: nll}

	settings := &optimize.Settings{
		MajorIterations: mleMaxIterations,
		FuncEvaluations: mleMaxFuncEvaluations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-10,
			Iterations: 100,
		},
	}

	result, err := optimize.Minimize(problem, init, settings, &optimize.NelderMead{})
	if err != nil {
		return nil, err
	}
	if result.Status == optimize.IterationLimit || result.Status == optimize.FunctionEvaluationLimit {
		return nil, errNoConvergence
	}
	if math.IsNaN(result.F) || math.IsInf(result.F, 0) {
		return nil, errors.New("likelihood is not finite at the solution")
	}
	for _, v := range result.X {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.New("solution contains non-finite parameters")
		}
	}

	return result.X, nil
}

// checkSample rejects samples a maximum-likelihood fit cannot work with.
// Non-finite and zero-variance samples are numerical-instability failures;
// the distinction is carried into each family's FitResult.
func checkSample(sample []float64) error {
	if len(sample) < MinimumPeriods {
		return errors.New("sample too small")
	}
	for _, v := range sample {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewNumericalInstabilityError("sample contains non-finite values")
		}
	}
	if degenerate(sample) {
		return NewNumericalInstabilityError("degenerate sample: zero variance")
	}
	return nil
}

// requirePositive rejects samples with non-positive values, for families
// whose support is (0, inf).
func requirePositive(sample []float64) error {
	for _, v := range sample {
		if v <= 0 {
			return errors.New("domain violation: sample contains non-positive values")
		}
	}
	return nil
}

// sampleLogLikelihood sums the family log density over the sample.
func sampleLogLikelihood(f Family, sample []float64, p Params) float64 {
	sum := 0.0
	for _, x := range sample {
		sum += f.LogPDF(x, p)
	}
	return sum
}
