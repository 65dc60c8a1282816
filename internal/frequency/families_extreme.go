package frequency

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Euler–Mascheroni constant, used by the method-of-moments starting points
// for the extreme-value families.
const eulerGamma = 0.5772156649015329

// shapeEpsilon is the |shape| below which the GEV and GPD collapse to their
// zero-shape limit forms.
const shapeEpsilon = 1e-9

func init() {
	Register(&gumbelFamily{})
	Register(&gevFamily{})
	Register(&frechetFamily{})
	Register(&genParetoFamily{})
}

// gumbelMoments returns the method-of-moments Gumbel (maxima) estimates,
// which seed the likelihood maximization.
func gumbelMoments(sample []float64) (mu, beta float64) {
	mean, std := stat.MeanStdDev(sample, nil)
	beta = std * math.Sqrt(6) / math.Pi
	mu = mean - eulerGamma*beta
	return mu, beta
}

// gumbelFamily is the Gumbel (Extreme Value Type I, maxima) distribution.
type gumbelFamily struct{}

func (gumbelFamily) Name() string        { return "gumbel" }
func (gumbelFamily) DisplayName() string { return "Gumbel" }
func (gumbelFamily) NumParams() int      { return 2 }

func (g *gumbelFamily) Fit(sample []float64) (Params, error) {
	if err := checkSample(sample); err != nil {
		return Params{}, err
	}

	mu0, beta0 := gumbelMoments(sample)

	nll := func(x []float64) float64 {
		p := Params{Location: x[0], Scale: math.Exp(x[1])}
		return -sampleLogLikelihood(g, sample, p)
	}
	solution, err := minimizeNLL(nll, []float64{mu0, math.Log(beta0)})
	if err != nil {
		return Params{}, err
	}

	return Params{Location: solution[0], Scale: math.Exp(solution[1])}, nil
}

func (gumbelFamily) LogPDF(x float64, p Params) float64 {
	z := (x - p.Location) / p.Scale
	return -math.Log(p.Scale) - z - math.Exp(-z)
}

func (gumbelFamily) CDF(x float64, p Params) float64 {
	z := (x - p.Location) / p.Scale
	return math.Exp(-math.Exp(-z))
}

func (gumbelFamily) Quantile(prob float64, p Params) float64 {
	return p.Location - p.Scale*math.Log(-math.Log(prob))
}

// gevFamily is the Generalized Extreme Value distribution with the
// hydrological shape convention: F(x) = exp(-(1+xi*z)^(-1/xi)).
type gevFamily struct{}

func (gevFamily) Name() string        { return "genextreme" }
func (gevFamily) DisplayName() string { return "Generalized Extreme Value" }
func (gevFamily) NumParams() int      { return 3 }

func (g *gevFamily) Fit(sample []float64) (Params, error) {
	if err := checkSample(sample); err != nil {
		return Params{}, err
	}

	mu0, beta0 := gumbelMoments(sample)

	nll := func(x []float64) float64 {
		p := Params{Location: x[0], Scale: math.Exp(x[1]), Shape: x[2], HasShape: true}
		return -sampleLogLikelihood(g, sample, p)
	}
	solution, err := minimizeNLL(nll, []float64{mu0, math.Log(beta0), 0.1})
	if err != nil {
		return Params{}, err
	}

	return Params{
		Location: solution[0],
		Scale:    math.Exp(solution[1]),
		Shape:    solution[2],
		HasShape: true,
	}, nil
}

func (gevFamily) LogPDF(x float64, p Params) float64 {
	z := (x - p.Location) / p.Scale
	if math.Abs(p.Shape) < shapeEpsilon {
		return -math.Log(p.Scale) - z - math.Exp(-z)
	}
	u := 1 + p.Shape*z
	if u <= 0 {
		return math.Inf(-1)
	}
	return -math.Log(p.Scale) + (-1/p.Shape-1)*math.Log(u) - math.Pow(u, -1/p.Shape)
}

func (gevFamily) CDF(x float64, p Params) float64 {
	z := (x - p.Location) / p.Scale
	if math.Abs(p.Shape) < shapeEpsilon {
		return math.Exp(-math.Exp(-z))
	}
	u := 1 + p.Shape*z
	if u <= 0 {
		// Outside the support: below the lower bound for positive shape,
		// above the upper bound for negative shape.
		if p.Shape > 0 {
			return 0
		}
		return 1
	}
	return math.Exp(-math.Pow(u, -1/p.Shape))
}

func (gevFamily) Quantile(prob float64, p Params) float64 {
	if math.Abs(p.Shape) < shapeEpsilon {
		return p.Location - p.Scale*math.Log(-math.Log(prob))
	}
	return p.Location + p.Scale*(math.Pow(-math.Log(prob), -p.Shape)-1)/p.Shape
}

// frechetFamily is the Fréchet (Extreme Value Type II) distribution on the
// positive half-line with location fixed at zero.
type frechetFamily struct{}

func (frechetFamily) Name() string        { return "frechet" }
func (frechetFamily) DisplayName() string { return "Fréchet" }
func (frechetFamily) NumParams() int      { return 2 }

func (f *frechetFamily) Fit(sample []float64) (Params, error) {
	if err := checkSample(sample); err != nil {
		return Params{}, err
	}
	if err := requirePositive(sample); err != nil {
		return Params{}, err
	}

	// If X is Fréchet(alpha, s) then ln X is Gumbel(ln s, 1/alpha), so
	// Gumbel moments on the log sample seed the solver.
	logs := make([]float64, len(sample))
	for i, v := range sample {
		logs[i] = math.Log(v)
	}
	muLog, betaLog := gumbelMoments(logs)
	alpha0 := 1 / betaLog
	scale0 := math.Exp(muLog)

	nll := func(x []float64) float64 {
		p := Params{Scale: math.Exp(x[1]), Shape: math.Exp(x[0]), HasShape: true}
		return -sampleLogLikelihood(f, sample, p)
	}
	solution, err := minimizeNLL(nll, []float64{math.Log(alpha0), math.Log(scale0)})
	if err != nil {
		return Params{}, err
	}

	return Params{
		Scale:    math.Exp(solution[1]),
		Shape:    math.Exp(solution[0]),
		HasShape: true,
	}, nil
}

func (frechetFamily) LogPDF(x float64, p Params) float64 {
	if x <= 0 {
		return math.Inf(-1)
	}
	alpha, s := p.Shape, p.Scale
	r := x / s
	return math.Log(alpha) - math.Log(s) + (-1-alpha)*math.Log(r) - math.Pow(r, -alpha)
}

func (frechetFamily) CDF(x float64, p Params) float64 {
	if x <= 0 {
		return 0
	}
	return math.Exp(-math.Pow(x/p.Scale, -p.Shape))
}

func (frechetFamily) Quantile(prob float64, p Params) float64 {
	return p.Scale * math.Pow(-math.Log(prob), -1/p.Shape)
}

// genParetoFamily is the Generalized Pareto distribution with the threshold
// (location) fixed at the sample minimum; scale and shape are estimated by
// maximum likelihood.
type genParetoFamily struct{}

func (genParetoFamily) Name() string        { return "genpareto" }
func (genParetoFamily) DisplayName() string { return "Generalized Pareto" }
func (genParetoFamily) NumParams() int      { return 3 }

func (g *genParetoFamily) Fit(sample []float64) (Params, error) {
	if err := checkSample(sample); err != nil {
		return Params{}, err
	}

	loc := sample[0]
	for _, v := range sample[1:] {
		if v < loc {
			loc = v
		}
	}
	_, std := stat.MeanStdDev(sample, nil)

	nll := func(x []float64) float64 {
		p := Params{Location: loc, Scale: math.Exp(x[0]), Shape: x[1], HasShape: true}
		return -sampleLogLikelihood(g, sample, p)
	}
	solution, err := minimizeNLL(nll, []float64{math.Log(std), 0.1})
	if err != nil {
		return Params{}, err
	}

	return Params{
		Location: loc,
		Scale:    math.Exp(solution[0]),
		Shape:    solution[1],
		HasShape: true,
	}, nil
}

func (genParetoFamily) LogPDF(x float64, p Params) float64 {
	z := (x - p.Location) / p.Scale
	if z < 0 {
		return math.Inf(-1)
	}
	if math.Abs(p.Shape) < shapeEpsilon {
		return -math.Log(p.Scale) - z
	}
	u := 1 + p.Shape*z
	if u <= 0 {
		return math.Inf(-1)
	}
	return -math.Log(p.Scale) - (1+1/p.Shape)*math.Log(u)
}

func (genParetoFamily) CDF(x float64, p Params) float64 {
	z := (x - p.Location) / p.Scale
	if z < 0 {
		return 0
	}
	if math.Abs(p.Shape) < shapeEpsilon {
		return 1 - math.Exp(-z)
	}
	u := 1 + p.Shape*z
	if u <= 0 {
		return 1
	}
	return 1 - math.Pow(u, -1/p.Shape)
}

func (genParetoFamily) Quantile(prob float64, p Params) float64 {
	if math.Abs(p.Shape) < shapeEpsilon {
		return p.Location - p.Scale*math.Log(1-prob)
	}
	return p.Location + p.Scale*(math.Pow(1-prob, -p.Shape)-1)/p.Shape
}
