package periodogram

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-prewhiten/internal/testutil"
)

func TestFitLogPolynomialOnPowerLaw(t *testing.T) {
	// amp = 2 * f^-1.5 is exactly a line in log-log space; an order-1 fit
	// must recover slope and intercept.
	n := 200
	grid := rampGrid(n, 0.05)
	amp := make([]float64, n)
	for i, f := range grid {
		amp[i] = 2 * math.Pow(f, -1.5)
	}
	p := craftedPeriodogram(grid, amp, Config{})

	coef, err := p.FitLogPolynomial(1)
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	testutil.RequireNear(t, "intercept", coef[0], math.Log(2), 1e-9)
	testutil.RequireNear(t, "slope", coef[1], -1.5, 1e-9)

	testutil.RequireNear(t, "eval", evalLogPolynomial(coef, 3.0), 2*math.Pow(3.0, -1.5), 1e-9)

	// Cached: second call returns the identical slice.
	again, err := p.FitLogPolynomial(1)
	if err != nil {
		t.Fatalf("cached fit failed: %v", err)
	}
	if &again[0] != &coef[0] {
		t.Fatal("expected cached coefficients")
	}
}

func TestFitLogPolynomialRejectsBadOrder(t *testing.T) {
	p := craftedPeriodogram(rampGrid(10, 0.1), testutil.Ones(10), Config{})
	if _, err := p.FitLogPolynomial(0); err == nil {
		t.Fatal("expected error for order 0")
	}
}

func TestFitSLFNoiseRecoversShape(t *testing.T) {
	truth := []float64{0.5, 1.0, 3.0, 0.05}

	n := 500
	grid := rampGrid(n, 0.01)
	amp := make([]float64, n)
	slfModel(amp, grid, truth)
	testutil.AddNoise(6, 0.002, amp)

	p := craftedPeriodogram(grid, amp, Config{})

	slf, err := p.FitSLFNoise()
	if err != nil {
		t.Fatalf("SLF fit failed: %v", err)
	}
	testutil.RequireNear(t, "x0", slf.X0, truth[0], 0.1)
	testutil.RequireNear(t, "alpha", slf.Alpha, truth[1], 0.15)
	testutil.RequireNear(t, "gamma", slf.Gamma, truth[2], 0.6)
	testutil.RequireNear(t, "white", slf.White, truth[3], 0.03)

	// Cached.
	again, err := p.FitSLFNoise()
	if err != nil || again != slf {
		t.Fatalf("expected cached fit, got %v, %v", again, err)
	}

	mid := slf.Eval(truth[0])
	want := truth[1]/2 + truth[3]
	testutil.RequireNear(t, "eval at x0", mid, want, 0.1)
}
