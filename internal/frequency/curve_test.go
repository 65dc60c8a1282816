package frequency

import (
	"math"
	"testing"
)

func TestEmpiricalPointsWeibull(t *testing.T) {
	// n=5 with known ranks: P = rank/6 * 100
	series, _ := SeriesFromPairs(
		[]int{2001, 2002, 2003, 2004, 2005},
		[]float64{10, 12, 9, 15, 11},
		AggMax,
	)

	points := EmpiricalPoints(series)
	if len(points) != 5 {
		t.Fatalf("got %d points", len(points))
	}

	expected := []struct {
		prob     float64
		quantile float64
	}{
		{16.6667, 15},
		{33.3333, 12},
		{50.0, 11},
		{66.6667, 10},
		{83.3333, 9},
	}
	for i, want := range expected {
		if math.Abs(points[i].ProbabilityPercent-want.prob) > 0.01 {
			t.Errorf("rank %d: got P=%.4f, expected %.4f", i+1, points[i].ProbabilityPercent, want.prob)
		}
		if points[i].Quantile != want.quantile {
			t.Errorf("rank %d: got q=%v, expected %v", i+1, points[i].Quantile, want.quantile)
		}
		if points[i].Rank != i+1 {
			t.Errorf("index %d: got rank %d", i, points[i].Rank)
		}
	}
}

func TestEmpiricalPointsBounds(t *testing.T) {
	for _, n := range []int{1, 2, 5, 20, 100} {
		series := seriesOfLength(n)
		points := EmpiricalPoints(series)

		for i, p := range points {
			if p.ProbabilityPercent <= 0 || p.ProbabilityPercent >= 100 {
				t.Errorf("n=%d: probability %v outside (0,100)", n, p.ProbabilityPercent)
			}
			if i > 0 && points[i-1].ProbabilityPercent >= p.ProbabilityPercent {
				t.Errorf("n=%d: probabilities not strictly increasing at rank %d", n, i+1)
			}
		}
	}

	// n=20: plotting positions span 1/21 to 20/21
	points := EmpiricalPoints(seriesOfLength(20))
	if math.Abs(points[0].ProbabilityPercent-100.0/21) > 0.01 {
		t.Errorf("n=20 first position: got %v, expected %.4f", points[0].ProbabilityPercent, 100.0/21)
	}
	if math.Abs(points[19].ProbabilityPercent-2000.0/21) > 0.01 {
		t.Errorf("n=20 last position: got %v, expected %.4f", points[19].ProbabilityPercent, 2000.0/21)
	}
}

func TestEmpiricalPointsMinType(t *testing.T) {
	series, _ := SeriesFromPairs(
		[]int{2001, 2002, 2003},
		[]float64{7, 3, 5},
		AggMin,
	)
	points := EmpiricalPoints(series)

	// Rank 1 is the smallest value for minima series
	if points[0].Quantile != 3 {
		t.Errorf("rank 1 should be the minimum, got %v", points[0].Quantile)
	}
	if points[2].Quantile != 7 {
		t.Errorf("rank 3 should be the maximum, got %v", points[2].Quantile)
	}
}

func TestTheoreticalCurve(t *testing.T) {
	f, ok := Lookup("gumbel")
	if !ok {
		t.Fatal("gumbel family not registered")
	}
	p := Params{Location: 50, Scale: 10}

	curve := TheoreticalCurve(f, p, AggMax, 100)
	if len(curve) != 100 {
		t.Fatalf("got %d points", len(curve))
	}

	if math.Abs(curve[0].ProbabilityPercent-0.01) > 1e-9 {
		t.Errorf("grid start: got %v", curve[0].ProbabilityPercent)
	}
	if math.Abs(curve[99].ProbabilityPercent-99.99) > 1e-6 {
		t.Errorf("grid end: got %v", curve[99].ProbabilityPercent)
	}

	// For maxima, quantiles decrease as exceedance probability grows
	for i := 1; i < len(curve); i++ {
		if curve[i].Quantile >= curve[i-1].Quantile {
			t.Fatalf("quantiles not strictly decreasing at index %d", i)
		}
	}
}

func TestTheoreticalCurveTinyGrid(t *testing.T) {
	f, ok := Lookup("gumbel")
	if !ok {
		t.Fatal("gumbel family not registered")
	}
	p := Params{Location: 50, Scale: 10}

	// A one-point (or empty) grid has no step; it falls back to the default
	for _, n := range []int{-1, 0, 1} {
		curve := TheoreticalCurve(f, p, AggMax, n)
		if len(curve) != DefaultCurvePoints {
			t.Fatalf("numPoints=%d: got %d points, expected %d", n, len(curve), DefaultCurvePoints)
		}
		for i, pt := range curve {
			if math.IsNaN(pt.ProbabilityPercent) || math.IsNaN(pt.Quantile) {
				t.Fatalf("numPoints=%d: NaN at index %d: %+v", n, i, pt)
			}
		}
	}
}

func TestQQPP(t *testing.T) {
	f, ok := Lookup("gumbel")
	if !ok {
		t.Fatal("gumbel family not registered")
	}
	p := Params{Location: 50, Scale: 10}

	series, _ := SeriesFromPairs(
		[]int{2001, 2002, 2003, 2004},
		[]float64{62, 48, 71, 55},
		AggMax,
	)

	qq, pp := QQPP(f, p, series)
	if len(qq) != 4 || len(pp) != 4 {
		t.Fatalf("got %d QQ and %d PP points", len(qq), len(pp))
	}

	sorted := []float64{48, 55, 62, 71}
	for i := range qq {
		prob := float64(i+1) / 5.0
		if math.Abs(qq[i].PlottingPosition-prob) > 1e-12 {
			t.Errorf("rank %d: plotting position %v, expected %v", i+1, qq[i].PlottingPosition, prob)
		}
		if qq[i].Sample != sorted[i] {
			t.Errorf("rank %d: sample %v, expected %v", i+1, qq[i].Sample, sorted[i])
		}
		if want := f.Quantile(prob, p); math.Abs(qq[i].Theoretical-want) > 1e-9 {
			t.Errorf("rank %d: theoretical quantile %v, expected %v", i+1, qq[i].Theoretical, want)
		}

		if math.Abs(pp[i].Empirical-prob) > 1e-12 {
			t.Errorf("rank %d: empirical probability %v, expected %v", i+1, pp[i].Empirical, prob)
		}
		if want := f.CDF(sorted[i], p); math.Abs(pp[i].Theoretical-want) > 1e-12 {
			t.Errorf("rank %d: theoretical probability %v, expected %v", i+1, pp[i].Theoretical, want)
		}
		if pp[i].Theoretical <= 0 || pp[i].Theoretical >= 1 {
			t.Errorf("rank %d: theoretical probability %v outside (0,1)", i+1, pp[i].Theoretical)
		}
	}
}

func TestReducedGumbelVariate(t *testing.T) {
	// At P = 100(1-1/e) percent the reduced variate is 0 within rounding
	y := ReducedGumbelVariate(100 * (1 - math.Exp(-1)))
	if math.Abs(y) > 1e-9 {
		t.Errorf("expected 0, got %v", y)
	}
	if ReducedGumbelVariate(1) <= ReducedGumbelVariate(50) {
		t.Error("reduced variate should increase toward rarer events")
	}
}
