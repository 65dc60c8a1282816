package frequency

import (
	"math"
	"testing"
)

// gumbelSample draws a deterministic sample from a true Gumbel(loc, scale)
// by inverting the CDF at evenly spaced probabilities.
func gumbelSample(n int, loc, scale float64) []float64 {
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		p := (float64(i) + 0.5) / float64(n)
		out[i] = loc - scale*math.Log(-math.Log(p))
	}
	return out
}

func TestFamilyRegistry(t *testing.T) {
	expected := []string{
		"expon", "frechet", "gamma", "genextreme", "genpareto",
		"gumbel", "logistic", "lognorm", "pearson3",
	}
	names := FamilyNames()
	if len(names) != len(expected) {
		t.Fatalf("got %d families, expected %d: %v", len(names), len(expected), names)
	}
	for i, want := range expected {
		if names[i] != want {
			t.Errorf("index %d: got %q, expected %q (names must sort deterministically)", i, names[i], want)
		}
	}
}

func TestResolveFamilies(t *testing.T) {
	all, err := ResolveFamilies(nil)
	if err != nil {
		t.Fatalf("nil request: %v", err)
	}
	if len(all) != len(FamilyNames()) {
		t.Errorf("nil request should resolve every family")
	}

	subset, err := ResolveFamilies([]string{"gumbel", "lognorm"})
	if err != nil {
		t.Fatalf("subset request: %v", err)
	}
	if len(subset) != 2 {
		t.Errorf("got %d families", len(subset))
	}

	_, err = ResolveFamilies([]string{"weibull3"})
	if err == nil {
		t.Error("unknown family should be rejected")
	}
}

func TestExponentialClosedFormFit(t *testing.T) {
	f, _ := Lookup("expon")
	p, err := f.Fit([]float64{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if p.Location != 1 {
		t.Errorf("location: got %v, expected 1", p.Location)
	}
	if math.Abs(p.Scale-1.5) > 1e-12 {
		t.Errorf("scale: got %v, expected 1.5", p.Scale)
	}
}

func TestLogNormalClosedFormFit(t *testing.T) {
	f, _ := Lookup("lognorm")
	// e^1, e^2, e^3: log-space mean 2, ML sigma sqrt(2/3)
	p, err := f.Fit([]float64{math.E, math.E * math.E, math.E * math.E * math.E})
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if math.Abs(p.Location-2) > 1e-12 {
		t.Errorf("location: got %v, expected 2", p.Location)
	}
	if math.Abs(p.Scale-math.Sqrt(2.0/3.0)) > 1e-12 {
		t.Errorf("scale: got %v, expected sqrt(2/3)", p.Scale)
	}
}

func TestLogNormalRejectsNonPositive(t *testing.T) {
	f, _ := Lookup("lognorm")
	if _, err := f.Fit([]float64{1, 2, -3}); err == nil {
		t.Error("negative values should be rejected")
	}
	if _, err := f.Fit([]float64{1, 2, 0}); err == nil {
		t.Error("zero values should be rejected")
	}
}

func TestGumbelFitRecoversParameters(t *testing.T) {
	f, _ := Lookup("gumbel")
	sample := gumbelSample(33, 50, 10)

	p, err := f.Fit(sample)
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if math.Abs(p.Location-50) > 50*0.15 {
		t.Errorf("location: got %v, expected within 15%% of 50", p.Location)
	}
	if math.Abs(p.Scale-10) > 10*0.15 {
		t.Errorf("scale: got %v, expected within 15%% of 10", p.Scale)
	}
}

func TestQuantileCDFRoundTrip(t *testing.T) {
	tests := []struct {
		family string
		params Params
	}{
		{"gumbel", Params{Location: 50, Scale: 10}},
		{"lognorm", Params{Location: 2, Scale: 0.5}},
		{"gamma", Params{Scale: 3, Shape: 2.5, HasShape: true}},
		{"logistic", Params{Location: 10, Scale: 2}},
		{"expon", Params{Location: 5, Scale: 3}},
		{"genextreme", Params{Location: 50, Scale: 10, Shape: 0.1, HasShape: true}},
		{"genpareto", Params{Location: 0, Scale: 4, Shape: 0.2, HasShape: true}},
		{"frechet", Params{Scale: 8, Shape: 3, HasShape: true}},
		{"pearson3", Params{Location: 100, Scale: 20, Shape: 0.8, HasShape: true}},
		{"pearson3", Params{Location: 100, Scale: 20, Shape: -0.8, HasShape: true}},
	}

	probs := []float64{0.01, 0.1, 0.5, 0.9, 0.99, 0.999}
	for _, tt := range tests {
		f, ok := Lookup(tt.family)
		if !ok {
			t.Fatalf("family %q not registered", tt.family)
		}
		for _, prob := range probs {
			q := f.Quantile(prob, tt.params)
			back := f.CDF(q, tt.params)
			if math.Abs(back-prob) > 1e-6 {
				t.Errorf("%s: cdf(ppf(%v)) = %v", tt.family, prob, back)
			}
		}
	}
}

func TestQuantileMonotonic(t *testing.T) {
	for _, name := range FamilyNames() {
		f, _ := Lookup(name)
		var params Params
		switch name {
		case "gamma":
			params = Params{Scale: 3, Shape: 2, HasShape: true}
		case "frechet":
			params = Params{Scale: 8, Shape: 3, HasShape: true}
		case "genextreme":
			params = Params{Location: 50, Scale: 10, Shape: 0.1, HasShape: true}
		case "genpareto":
			params = Params{Location: 0, Scale: 4, Shape: 0.2, HasShape: true}
		case "pearson3":
			params = Params{Location: 100, Scale: 20, Shape: 0.5, HasShape: true}
		default:
			params = Params{Location: 50, Scale: 10}
		}

		prev := math.Inf(-1)
		for _, prob := range []float64{0.01, 0.1, 0.3, 0.5, 0.7, 0.9, 0.99, 0.999} {
			q := f.Quantile(prob, params)
			if q <= prev {
				t.Errorf("%s: quantile not strictly increasing at p=%v", name, prob)
			}
			prev = q
		}
	}
}

func TestPearson3NormalFallback(t *testing.T) {
	f, _ := Lookup("pearson3")
	p := Params{Location: 10, Scale: 2, Shape: 0, HasShape: true}

	// Zero skew collapses to the normal distribution
	if math.Abs(f.CDF(10, p)-0.5) > 1e-12 {
		t.Errorf("median CDF: got %v", f.CDF(10, p))
	}
	q := f.Quantile(0.975, p)
	if math.Abs(q-(10+2*1.959964)) > 1e-3 {
		t.Errorf("97.5%% quantile: got %v", q)
	}
}

func TestFitRejectsDegenerateSample(t *testing.T) {
	sample := make([]float64, 30)
	for i := range sample {
		sample[i] = 5.0
	}
	for _, name := range FamilyNames() {
		f, _ := Lookup(name)
		if _, err := f.Fit(sample); err == nil {
			t.Errorf("%s: zero-variance sample should fail to fit", name)
		}
	}
}
