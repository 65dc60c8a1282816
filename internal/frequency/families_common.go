package frequency

import (
	"math"

	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

func init() {
	Register(&logNormalFamily{})
	Register(&gammaFamily{})
	Register(&logisticFamily{})
	Register(&exponentialFamily{})
	Register(&pearson3Family{})
}

// logNormalFamily is the two-parameter log-normal distribution. Location
// holds the log-space mean and Scale the log-space standard deviation.
type logNormalFamily struct{}

func (logNormalFamily) Name() string        { return "lognorm" }
func (logNormalFamily) DisplayName() string { return "Log-normal" }
func (logNormalFamily) NumParams() int      { return 2 }

func (logNormalFamily) Fit(sample []float64) (Params, error) {
	if err := checkSample(sample); err != nil {
		return Params{}, err
	}
	if err := requirePositive(sample); err != nil {
		return Params{}, err
	}

	// The MLE is closed form: moments of the log sample with the maximum
	// likelihood (biased) variance denominator.
	logs := make([]float64, len(sample))
	for i, v := range sample {
		logs[i] = math.Log(v)
	}
	mu := stat.Mean(logs, nil)
	variance := 0.0
	for _, l := range logs {
		d := l - mu
		variance += d * d
	}
	sigma := math.Sqrt(variance / float64(len(logs)))
	if sigma == 0 {
		return Params{}, NewNumericalInstabilityError("degenerate sample: zero variance in log space")
	}

	return Params{Location: mu, Scale: sigma}, nil
}

func (logNormalFamily) LogPDF(x float64, p Params) float64 {
	if x <= 0 {
		return math.Inf(-1)
	}
	z := (math.Log(x) - p.Location) / p.Scale
	return -math.Log(x*p.Scale) - 0.5*math.Log(2*math.Pi) - 0.5*z*z
}

func (logNormalFamily) CDF(x float64, p Params) float64 {
	if x <= 0 {
		return 0
	}
	return distuv.UnitNormal.CDF((math.Log(x) - p.Location) / p.Scale)
}

func (logNormalFamily) Quantile(prob float64, p Params) float64 {
	return math.Exp(p.Location + p.Scale*distuv.UnitNormal.Quantile(prob))
}

// gammaFamily is the two-parameter gamma distribution (shape, scale).
type gammaFamily struct{}

func (gammaFamily) Name() string        { return "gamma" }
func (gammaFamily) DisplayName() string { return "Gamma" }
func (gammaFamily) NumParams() int      { return 2 }

func (g *gammaFamily) Fit(sample []float64) (Params, error) {
	if err := checkSample(sample); err != nil {
		return Params{}, err
	}
	if err := requirePositive(sample); err != nil {
		return Params{}, err
	}

	mean, std := stat.MeanStdDev(sample, nil)
	alpha0 := (mean / std) * (mean / std)
	theta0 := std * std / mean

	nll := func(x []float64) float64 {
		p := Params{Scale: math.Exp(x[1]), Shape: math.Exp(x[0]), HasShape: true}
		return -sampleLogLikelihood(g, sample, p)
	}
	solution, err := minimizeNLL(nll, []float64{math.Log(alpha0), math.Log(theta0)})
	if err != nil {
		return Params{}, err
	}

	return Params{
		Scale:    math.Exp(solution[1]),
		Shape:    math.Exp(solution[0]),
		HasShape: true,
	}, nil
}

func (gammaFamily) LogPDF(x float64, p Params) float64 {
	if x <= 0 {
		return math.Inf(-1)
	}
	alpha, theta := p.Shape, p.Scale
	lg, _ := math.Lgamma(alpha)
	return (alpha-1)*math.Log(x) - x/theta - lg - alpha*math.Log(theta)
}

func (gammaFamily) CDF(x float64, p Params) float64 {
	if x <= 0 {
		return 0
	}
	return mathext.GammaIncReg(p.Shape, x/p.Scale)
}

func (gammaFamily) Quantile(prob float64, p Params) float64 {
	return p.Scale * mathext.GammaIncRegInv(p.Shape, prob)
}

// logisticFamily is the two-parameter logistic distribution.
type logisticFamily struct{}

func (logisticFamily) Name() string        { return "logistic" }
func (logisticFamily) DisplayName() string { return "Logistic" }
func (logisticFamily) NumParams() int      { return 2 }

func (l *logisticFamily) Fit(sample []float64) (Params, error) {
	if err := checkSample(sample); err != nil {
		return Params{}, err
	}

	mean, std := stat.MeanStdDev(sample, nil)
	scale0 := std * math.Sqrt(3) / math.Pi

	nll := func(x []float64) float64 {
		p := Params{Location: x[0], Scale: math.Exp(x[1])}
		return -sampleLogLikelihood(l, sample, p)
	}
	solution, err := minimizeNLL(nll, []float64{mean, math.Log(scale0)})
	if err != nil {
		return Params{}, err
	}

	return Params{Location: solution[0], Scale: math.Exp(solution[1])}, nil
}

func (logisticFamily) LogPDF(x float64, p Params) float64 {
	z := (x - p.Location) / p.Scale
	return -z - math.Log(p.Scale) - 2*math.Log1p(math.Exp(-z))
}

func (logisticFamily) CDF(x float64, p Params) float64 {
	z := (x - p.Location) / p.Scale
	return 1 / (1 + math.Exp(-z))
}

func (logisticFamily) Quantile(prob float64, p Params) float64 {
	return p.Location + p.Scale*math.Log(prob/(1-prob))
}

// exponentialFamily is the shifted exponential distribution. The MLE is
// closed form: location at the sample minimum, scale at the mean excess.
type exponentialFamily struct{}

func (exponentialFamily) Name() string        { return "expon" }
func (exponentialFamily) DisplayName() string { return "Exponential" }
func (exponentialFamily) NumParams() int      { return 2 }

func (exponentialFamily) Fit(sample []float64) (Params, error) {
	if err := checkSample(sample); err != nil {
		return Params{}, err
	}

	loc := sample[0]
	for _, v := range sample[1:] {
		if v < loc {
			loc = v
		}
	}
	scale := stat.Mean(sample, nil) - loc
	if scale <= 0 {
		return Params{}, NewNumericalInstabilityError("degenerate sample: zero mean excess over minimum")
	}

	return Params{Location: loc, Scale: scale}, nil
}

func (exponentialFamily) LogPDF(x float64, p Params) float64 {
	if x < p.Location {
		return math.Inf(-1)
	}
	return -math.Log(p.Scale) - (x-p.Location)/p.Scale
}

func (exponentialFamily) CDF(x float64, p Params) float64 {
	if x < p.Location {
		return 0
	}
	return 1 - math.Exp(-(x-p.Location)/p.Scale)
}

func (exponentialFamily) Quantile(prob float64, p Params) float64 {
	return p.Location - p.Scale*math.Log(1-prob)
}

// pearson3Family is the Pearson Type III distribution fitted by the method
// of moments on mean, standard deviation, and skew, the standard estimator
// for this family in flood frequency practice. Location holds the mean,
// Scale the standard deviation, Shape the skew coefficient.
type pearson3Family struct{}

// pearson3SkewEpsilon is the |skew| below which the family collapses to the
// normal distribution.
const pearson3SkewEpsilon = 1e-3

func (pearson3Family) Name() string        { return "pearson3" }
func (pearson3Family) DisplayName() string { return "Pearson Type III" }
func (pearson3Family) NumParams() int      { return 3 }

func (pearson3Family) Fit(sample []float64) (Params, error) {
	if err := checkSample(sample); err != nil {
		return Params{}, err
	}

	mean, std := stat.MeanStdDev(sample, nil)
	skew := stat.Skew(sample, nil)
	if math.IsNaN(skew) || math.IsInf(skew, 0) {
		return Params{}, NewNumericalInstabilityError("skew coefficient is not finite")
	}

	return Params{Location: mean, Scale: std, Shape: skew, HasShape: true}, nil
}

// pearson3Gamma maps the moment parameters to the underlying shifted gamma:
// alpha is the gamma shape, beta the (positive) gamma scale, xi the shift,
// and negSkew marks the mirrored orientation.
func pearson3Gamma(p Params) (alpha, beta, xi float64, negSkew bool) {
	g := p.Shape
	alpha = 4 / (g * g)
	beta = math.Abs(p.Scale * g / 2)
	if g >= 0 {
		xi = p.Location - 2*p.Scale/g
		return alpha, beta, xi, false
	}
	xi = p.Location - 2*p.Scale/g
	return alpha, beta, xi, true
}

func (pearson3Family) LogPDF(x float64, p Params) float64 {
	if math.Abs(p.Shape) < pearson3SkewEpsilon {
		z := (x - p.Location) / p.Scale
		return -math.Log(p.Scale) - 0.5*math.Log(2*math.Pi) - 0.5*z*z
	}

	alpha, beta, xi, negSkew := pearson3Gamma(p)
	var y float64
	if negSkew {
		y = (xi - x) / beta
	} else {
		y = (x - xi) / beta
	}
	if y <= 0 {
		return math.Inf(-1)
	}
	lg, _ := math.Lgamma(alpha)
	return (alpha-1)*math.Log(y) - y - lg - math.Log(beta)
}

func (pearson3Family) CDF(x float64, p Params) float64 {
	if math.Abs(p.Shape) < pearson3SkewEpsilon {
		return distuv.UnitNormal.CDF((x - p.Location) / p.Scale)
	}

	alpha, beta, xi, negSkew := pearson3Gamma(p)
	if negSkew {
		y := (xi - x) / beta
		if y <= 0 {
			return 1
		}
		return 1 - mathext.GammaIncReg(alpha, y)
	}
	y := (x - xi) / beta
	if y <= 0 {
		return 0
	}
	return mathext.GammaIncReg(alpha, y)
}

func (pearson3Family) Quantile(prob float64, p Params) float64 {
	if math.Abs(p.Shape) < pearson3SkewEpsilon {
		return p.Location + p.Scale*distuv.UnitNormal.Quantile(prob)
	}

	alpha, beta, xi, negSkew := pearson3Gamma(p)
	if negSkew {
		return xi - beta*mathext.GammaIncRegInv(alpha, 1-prob)
	}
	return xi + beta*mathext.GammaIncRegInv(alpha, prob)
}
