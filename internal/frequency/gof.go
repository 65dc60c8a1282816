package frequency

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mathext"
)

// minChiSquareBins is the floor for the Sturges bin count.
const minChiSquareBins = 5

// aic computes the Akaike Information Criterion for a fit with k free
// parameters.
func aic(logLikelihood float64, k int) float64 {
	return 2*float64(k) - 2*logLikelihood
}

// chiSquareResult carries the chi-square test outcome. Available is false
// when the degrees of freedom would drop below one, in which case the
// statistic and p-value are meaningless and must not be reported.
type chiSquareResult struct {
	Statistic float64
	DF        int
	PValue    float64
	Available bool
}

// chiSquareTest bins the sample with the Sturges rule (floored at 5 bins),
// derives expected counts from the fitted CDF difference across bin edges,
// and sums (observed-expected)^2/expected over bins with positive expected
// counts.
func chiSquareTest(sample []float64, f Family, p Params) chiSquareResult {
	n := len(sample)

	numBins := int(math.Ceil(1 + math.Log2(float64(n)+1)))
	if numBins < minChiSquareBins {
		numBins = minChiSquareBins
	}

	lo, hi := sample[0], sample[0]
	for _, v := range sample[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	width := (hi - lo) / float64(numBins)
	if width == 0 {
		return chiSquareResult{}
	}

	observed := make([]int, numBins)
	for _, v := range sample {
		idx := int((v - lo) / width)
		if idx >= numBins {
			idx = numBins - 1
		}
		observed[idx]++
	}

	statistic := 0.0
	usedBins := 0
	for i := 0; i < numBins; i++ {
		lower := lo + float64(i)*width
		upper := lower + width
		expected := float64(n) * (f.CDF(upper, p) - f.CDF(lower, p))
		if expected <= 0 {
			continue
		}
		usedBins++
		diff := float64(observed[i]) - expected
		statistic += diff * diff / expected
	}

	df := usedBins - 1 - f.NumParams()
	if df < 1 {
		return chiSquareResult{Statistic: statistic, DF: df}
	}

	return chiSquareResult{
		Statistic: statistic,
		DF:        df,
		PValue:    chiSquareSurvival(statistic, df),
		Available: true,
	}
}

// chiSquareSurvival is P(X > x) for a chi-squared variable with df degrees
// of freedom.
func chiSquareSurvival(x float64, df int) float64 {
	if x <= 0 {
		return 1
	}
	return mathext.GammaIncRegComp(float64(df)/2, x/2)
}

// ksTest computes the two-sided Kolmogorov-Smirnov statistic between the
// empirical CDF of the sample and the fitted CDF, with the asymptotic
// p-value approximation.
func ksTest(sample []float64, f Family, p Params) (statistic, pValue float64) {
	n := len(sample)
	sorted := make([]float64, n)
	copy(sorted, sample)
	sort.Float64s(sorted)

	d := 0.0
	for i, x := range sorted {
		cdf := f.CDF(x, p)
		upper := float64(i+1)/float64(n) - cdf
		lower := cdf - float64(i)/float64(n)
		if upper > d {
			d = upper
		}
		if lower > d {
			d = lower
		}
	}

	return d, ksPValue(d, n)
}

// ksPValue evaluates the asymptotic Kolmogorov distribution with the
// small-sample correction of Stephens (as used by Numerical Recipes):
// lambda = (sqrt(n) + 0.12 + 0.11/sqrt(n)) * D.
func ksPValue(d float64, n int) float64 {
	if d <= 0 {
		return 1
	}
	sqrtN := math.Sqrt(float64(n))
	lambda := (sqrtN + 0.12 + 0.11/sqrtN) * d

	sum := 0.0
	sign := 1.0
	for j := 1; j <= 100; j++ {
		term := sign * math.Exp(-2*lambda*lambda*float64(j)*float64(j))
		sum += term
		if math.Abs(term) < 1e-12 {
			break
		}
		sign = -sign
	}

	pValue := 2 * sum
	if pValue < 0 {
		return 0
	}
	if pValue > 1 {
		return 1
	}
	return pValue
}

// rankFits orders fit results ascending by AIC with ties broken by higher
// KS p-value. Failed fits sort after all successful ones, in family order
// for determinism. The top successful fit is flagged as best.
func rankFits(fits []FitResult) []FitResult {
	ranked := make([]FitResult, len(fits))
	copy(ranked, fits)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.FitSucceeded != b.FitSucceeded {
			return a.FitSucceeded
		}
		if !a.FitSucceeded {
			return a.FamilyName < b.FamilyName
		}
		if a.AIC != b.AIC {
			return a.AIC < b.AIC
		}
		if a.KSPValue != b.KSPValue {
			return a.KSPValue > b.KSPValue
		}
		return a.FamilyName < b.FamilyName
	})

	rank := 0
	for i := range ranked {
		if !ranked[i].FitSucceeded {
			continue
		}
		rank++
		ranked[i].Rank = rank
		ranked[i].IsBestFit = rank == 1
	}
	return ranked
}
